package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/tabulahq/tabula/internal/api/v1"
	"github.com/tabulahq/tabula/internal/api/ws"
	"github.com/tabulahq/tabula/internal/auth"
	"github.com/tabulahq/tabula/internal/service"
	"github.com/tabulahq/tabula/internal/store/postgres"
)

func registerAuthRoutes(api huma.API, authSvc *auth.Service) {
	v1.RegisterAuthRoutes(api, authSvc)
}

func registerAPIRoutes(api huma.API, store *postgres.Store, boards *service.BoardService, lists *service.ListService, cards *service.CardService) {
	v1.RegisterUserRoutes(api, store)
	v1.RegisterBoardRoutes(api, store, boards)
	v1.RegisterListRoutes(api, store, lists)
	v1.RegisterCardRoutes(api, store, cards)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/boards/{boardID}", hub.ServeBoard)
}
