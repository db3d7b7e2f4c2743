package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/tabulahq/tabula/internal/domain"
	"github.com/tabulahq/tabula/internal/service"
)

type ListListsInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
}

type ListListsOutput struct {
	Body []*domain.List
}

type CreateListInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	Body    struct {
		Name string `json:"name" minLength:"1" maxLength:"255" doc:"List name"`
	}
}

type CreateListOutput struct {
	Body *domain.List
}

type GetListInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	ListID  uuid.UUID `path:"listID" doc:"List ID"`
}

type GetListOutput struct {
	Body *service.ListDetail
}

type RenameListInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	ListID  uuid.UUID `path:"listID" doc:"List ID"`
	Body    struct {
		Name string `json:"name" minLength:"1" maxLength:"255" doc:"New list name"`
	}
}

type RenameListOutput struct {
	Body *domain.List
}

type MoveListInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	ListID  uuid.UUID `path:"listID" doc:"List ID"`
	Body    struct {
		Position int `json:"position" minimum:"1" doc:"Target position, 1-based"`
	}
}

type MoveListOutput struct {
	Body *domain.List
}

type DeleteListInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	ListID  uuid.UUID `path:"listID" doc:"List ID"`
}

func RegisterListRoutes(api huma.API, store DataStore, lists *service.ListService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-lists",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}/lists",
		Summary:     "List the board's lists in position order",
		Tags:        []string{"Lists"},
	}, func(ctx context.Context, input *ListListsInput) (*ListListsOutput, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		out, err := lists.ListByBoard(ctx, actor, input.BoardID)
		if err != nil {
			return nil, mapDomainError(err)
		}

		return &ListListsOutput{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-list",
		Method:      http.MethodPost,
		Path:        "/boards/{boardID}/lists",
		Summary:     "Create a list at the end of the board",
		Tags:        []string{"Lists"},
	}, func(ctx context.Context, input *CreateListInput) (*CreateListOutput, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		list, err := lists.Create(ctx, actor, input.BoardID, input.Body.Name)
		if err != nil {
			return nil, mapDomainError(err)
		}

		return &CreateListOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-list",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}/lists/{listID}",
		Summary:     "Get a list with its card count",
		Tags:        []string{"Lists"},
	}, func(ctx context.Context, input *GetListInput) (*GetListOutput, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		detail, err := lists.Get(ctx, actor, input.BoardID, input.ListID)
		if err != nil {
			return nil, mapDomainError(err)
		}

		return &GetListOutput{Body: detail}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "rename-list",
		Method:      http.MethodPatch,
		Path:        "/boards/{boardID}/lists/{listID}",
		Summary:     "Rename a list",
		Tags:        []string{"Lists"},
	}, func(ctx context.Context, input *RenameListInput) (*RenameListOutput, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		list, err := lists.Rename(ctx, actor, input.BoardID, input.ListID, input.Body.Name)
		if err != nil {
			return nil, mapDomainError(err)
		}

		return &RenameListOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "move-list",
		Method:      http.MethodPut,
		Path:        "/boards/{boardID}/lists/{listID}/position",
		Summary:     "Move a list to a new position",
		Description: "Renumbers the list to the target position and shifts the lists between the old and new slots. The board's positions stay dense, with no gaps or duplicates.",
		Tags:        []string{"Lists"},
	}, func(ctx context.Context, input *MoveListInput) (*MoveListOutput, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		list, err := lists.Move(ctx, actor, input.BoardID, input.ListID, input.Body.Position)
		if err != nil {
			return nil, mapDomainError(err)
		}

		return &MoveListOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-list",
		Method:        http.MethodDelete,
		Path:          "/boards/{boardID}/lists/{listID}",
		Summary:       "Delete a list and its cards",
		Tags:          []string{"Lists"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *DeleteListInput) (*struct{}, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		if err := lists.Delete(ctx, actor, input.BoardID, input.ListID); err != nil {
			return nil, mapDomainError(err)
		}

		return nil, nil
	})
}
