package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/tabulahq/tabula/internal/domain"
)

type MeOutput struct {
	Body *domain.User
}

type ListUsersInput struct {
	Limit  int `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Page size"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Page offset"`
}

type ListUsersOutput struct {
	Body struct {
		Users []*domain.User `json:"users"`
		Total int            `json:"total"`
	}
}

type GetUserInput struct {
	ID uuid.UUID `path:"id" doc:"User ID"`
}

type GetUserOutput struct {
	Body *domain.User
}

func RegisterUserRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "get-me",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Get the authenticated user",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, _ *struct{}) (*MeOutput, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		actor.PasswordHash = ""
		return &MeOutput{Body: actor}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users (admin only)",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *ListUsersInput) (*ListUsersOutput, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}
		if actor.Role != domain.RoleAdmin {
			return nil, huma.Error403Forbidden("only administrators can list users")
		}

		users, err := store.Users().List(ctx, input.Limit, input.Offset)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list users", err)
		}

		total, err := store.Users().Count(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to count users", err)
		}

		out := &ListUsersOutput{}
		out.Body.Users = sanitizeUsers(users)
		out.Body.Total = total
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-user",
		Method:      http.MethodGet,
		Path:        "/users/{id}",
		Summary:     "Get a user by ID",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *GetUserInput) (*GetUserOutput, error) {
		if _, err := actorFromContext(ctx, store.Users()); err != nil {
			return nil, err
		}

		user, err := store.Users().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("user not found")
			}
			return nil, huma.Error500InternalServerError("failed to get user", err)
		}

		user.PasswordHash = ""
		return &GetUserOutput{Body: user}, nil
	})
}
