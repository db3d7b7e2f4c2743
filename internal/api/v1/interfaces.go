// Package v1 exposes the HTTP surface of the task board. Handlers decode
// input, resolve the acting user, and delegate to the service layer; all
// permission and validation logic lives below this package.
package v1

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tabulahq/tabula/internal/domain"
	"github.com/tabulahq/tabula/internal/server/middleware"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Users() domain.UserRepository
	Boards() domain.BoardRepository
	Memberships() domain.MembershipRepository
	Lists() domain.ListRepository
	Cards() domain.CardRepository
}

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (user *domain.User, accessToken, refreshToken string, err error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}

// actorFromContext resolves the authenticated user placed in the context by
// the auth middleware.
func actorFromContext(ctx context.Context, users domain.UserRepository) (*domain.User, error) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("authentication required")
	}

	actor, err := users.GetByID(ctx, userID)
	if err != nil {
		return nil, huma.Error401Unauthorized("unknown user")
	}

	return actor, nil
}

// mapDomainError translates service-layer errors into HTTP problem responses.
// Permission and validation reasons are shown to the caller verbatim.
func mapDomainError(err error) error {
	var perr *domain.PermissionError
	var verr *domain.ValidationError

	switch {
	case errors.As(err, &perr):
		return huma.Error403Forbidden(perr.Reason)
	case errors.As(err, &verr):
		return huma.Error422UnprocessableEntity(verr.Reason)
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound("resource not found")
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict("resource already exists")
	default:
		return huma.Error500InternalServerError("internal error", err)
	}
}

// sanitizeUsers strips password hashes from user payloads. The JSON tag
// already omits the field; clearing it keeps hashes out of memory dumps and
// any future marshaling path.
func sanitizeUsers(users []*domain.User) []*domain.User {
	for _, u := range users {
		u.PasswordHash = ""
	}
	return users
}
