package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/tabulahq/tabula/internal/domain"
	"github.com/tabulahq/tabula/internal/service"
)

type CreateBoardInput struct {
	Body struct {
		Name       string            `json:"name" minLength:"1" maxLength:"255" doc:"Board name"`
		Visibility domain.Visibility `json:"visibility,omitempty" enum:"public,private" doc:"Board visibility, defaults to public"`
	}
}

type CreateBoardOutput struct {
	Body *domain.Board
}

type ListBoardsInput struct {
	Limit  int `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Page size"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Page offset"`
}

type ListBoardsOutput struct {
	Body []*domain.Board
}

type GetBoardInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
}

type GetBoardOutput struct {
	Body *service.BoardDetail
}

type UpdateBoardInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	Body    struct {
		Name       *string            `json:"name,omitempty" maxLength:"255" doc:"Board name"`
		Visibility *domain.Visibility `json:"visibility,omitempty" enum:"public,private" doc:"Board visibility"`
	}
}

type UpdateBoardOutput struct {
	Body *domain.Board
}

type DeleteBoardInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
}

type ListMembersInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
}

type ListMembersOutput struct {
	Body []*domain.User
}

type MemberInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	UserID  uuid.UUID `path:"userID" doc:"Target user ID"`
}

func RegisterBoardRoutes(api huma.API, store DataStore, boards *service.BoardService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-board",
		Method:      http.MethodPost,
		Path:        "/boards",
		Summary:     "Create a new board",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *CreateBoardInput) (*CreateBoardOutput, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		board, err := boards.Create(ctx, actor, input.Body.Name, input.Body.Visibility)
		if err != nil {
			return nil, mapDomainError(err)
		}

		return &CreateBoardOutput{Body: board}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-public-boards",
		Method:      http.MethodGet,
		Path:        "/boards",
		Summary:     "List public boards",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *ListBoardsInput) (*ListBoardsOutput, error) {
		if _, err := actorFromContext(ctx, store.Users()); err != nil {
			return nil, err
		}

		list, err := boards.ListPublic(ctx, input.Limit, input.Offset)
		if err != nil {
			return nil, mapDomainError(err)
		}

		return &ListBoardsOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-all-boards",
		Method:      http.MethodGet,
		Path:        "/boards/all",
		Summary:     "List every board regardless of visibility (admin only)",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *ListBoardsInput) (*ListBoardsOutput, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		list, err := boards.ListAll(ctx, actor, input.Limit, input.Offset)
		if err != nil {
			return nil, mapDomainError(err)
		}

		return &ListBoardsOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-my-boards",
		Method:      http.MethodGet,
		Path:        "/boards/mine",
		Summary:     "List boards owned by the authenticated user",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, _ *struct{}) (*ListBoardsOutput, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		list, err := boards.ListOwned(ctx, actor.ID)
		if err != nil {
			return nil, mapDomainError(err)
		}

		return &ListBoardsOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-board",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}",
		Summary:     "Get a board with its aggregate counts",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *GetBoardInput) (*GetBoardOutput, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		detail, err := boards.Get(ctx, actor, input.BoardID)
		if err != nil {
			return nil, mapDomainError(err)
		}

		return &GetBoardOutput{Body: detail}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-board",
		Method:      http.MethodPatch,
		Path:        "/boards/{boardID}",
		Summary:     "Update board name or visibility",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *UpdateBoardInput) (*UpdateBoardOutput, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		board, err := boards.Update(ctx, actor, input.BoardID, service.BoardPatch{
			Name:       input.Body.Name,
			Visibility: input.Body.Visibility,
		})
		if err != nil {
			return nil, mapDomainError(err)
		}

		return &UpdateBoardOutput{Body: board}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-board",
		Method:        http.MethodDelete,
		Path:          "/boards/{boardID}",
		Summary:       "Delete a board and everything on it",
		Tags:          []string{"Boards"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *DeleteBoardInput) (*struct{}, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		if err := boards.Delete(ctx, actor, input.BoardID); err != nil {
			return nil, mapDomainError(err)
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-board-members",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}/members",
		Summary:     "List board members",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *ListMembersInput) (*ListMembersOutput, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		members, err := boards.Members(ctx, actor, input.BoardID)
		if err != nil {
			return nil, mapDomainError(err)
		}

		return &ListMembersOutput{Body: sanitizeUsers(members)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-board-member",
		Method:        http.MethodPost,
		Path:          "/boards/{boardID}/members/{userID}",
		Summary:       "Grant a user access to the board",
		Tags:          []string{"Boards"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *MemberInput) (*struct{}, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		if err := boards.AddMember(ctx, actor, input.BoardID, input.UserID); err != nil {
			return nil, mapDomainError(err)
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "remove-board-member",
		Method:        http.MethodDelete,
		Path:          "/boards/{boardID}/members/{userID}",
		Summary:       "Revoke a user's access to the board",
		Tags:          []string{"Boards"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *MemberInput) (*struct{}, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		if err := boards.RemoveMember(ctx, actor, input.BoardID, input.UserID); err != nil {
			return nil, mapDomainError(err)
		}

		return nil, nil
	})
}
