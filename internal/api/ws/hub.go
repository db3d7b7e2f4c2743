// Package ws streams live board events to WebSocket clients. Events are
// produced by the mutation services, fanned out over Redis pub/sub, and
// relayed here verbatim; a client subscribed to a board sees every committed
// change on it.
package ws

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tabulahq/tabula/internal/domain"
	"github.com/tabulahq/tabula/internal/server/middleware"
	"github.com/tabulahq/tabula/internal/service"
	redisstore "github.com/tabulahq/tabula/internal/store/redis"
)

// Hub manages WebSocket connections backed by Redis pub/sub.
type Hub struct {
	pubsub *redisstore.PubSub
	users  domain.UserRepository
	boards *service.BoardService
}

// NewHub creates a new WebSocket hub.
func NewHub(pubsub *redisstore.PubSub, users domain.UserRepository, boards *service.BoardService) *Hub {
	return &Hub{pubsub: pubsub, users: users, boards: boards}
}

// ServeBoard handles WebSocket connections for live board updates.
// The caller must be able to view the board; access is checked once at
// connect time. Subscribes to Redis channel "board:<boardID>".
func (h *Hub) ServeBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	actor, err := h.users.GetByID(ctx, userID)
	if err != nil {
		http.Error(w, "unknown user", http.StatusUnauthorized)
		return
	}

	boardID, err := uuid.Parse(chi.URLParam(r, "boardID"))
	if err != nil {
		http.Error(w, "invalid board id", http.StatusBadRequest)
		return
	}

	if _, err := h.boards.Get(ctx, actor, boardID); err != nil {
		var perr *domain.PermissionError
		switch {
		case errors.As(err, &perr):
			http.Error(w, perr.Reason, http.StatusForbidden)
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "board not found", http.StatusNotFound)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	channel := redisstore.BoardChannel(boardID)

	messages, cleanup, err := h.pubsub.Subscribe(ctx, channel)
	if err != nil {
		log.Error().Err(err).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
