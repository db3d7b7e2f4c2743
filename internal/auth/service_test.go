package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabulahq/tabula/internal/auth"
	"github.com/tabulahq/tabula/internal/domain"
)

// mockServiceRepo is a configurable mock implementing domain.UserRepository.
// It captures calls and returns preconfigured responses for service-level tests.
type mockServiceRepo struct {
	// GetByUsername behavior.
	getByUsernameUser *domain.User
	getByUsernameErr  error

	// GetByEmail behavior.
	getByEmailUser *domain.User
	getByEmailErr  error

	// GetByID behavior.
	getByIDUser *domain.User
	getByIDErr  error

	// Create behavior.
	createErr   error
	createdUser *domain.User // captures the user passed to Create.
}

func (m *mockServiceRepo) Create(_ context.Context, u *domain.User) error {
	m.createdUser = u
	return m.createErr
}

func (m *mockServiceRepo) GetByID(context.Context, uuid.UUID) (*domain.User, error) {
	return m.getByIDUser, m.getByIDErr
}

func (m *mockServiceRepo) GetByUsername(context.Context, string) (*domain.User, error) {
	return m.getByUsernameUser, m.getByUsernameErr
}

func (m *mockServiceRepo) GetByEmail(context.Context, string) (*domain.User, error) {
	return m.getByEmailUser, m.getByEmailErr
}

func (m *mockServiceRepo) Update(context.Context, *domain.User) error {
	return nil
}

func (m *mockServiceRepo) List(context.Context, int, int) ([]*domain.User, error) {
	return nil, nil
}

func (m *mockServiceRepo) Count(context.Context) (int, error) {
	return 0, nil
}

// emptyRepo returns a mock where no user exists yet.
func emptyRepo() *mockServiceRepo {
	return &mockServiceRepo{
		getByUsernameErr: domain.ErrNotFound,
		getByEmailErr:    domain.ErrNotFound,
		getByIDErr:       domain.ErrNotFound,
	}
}

func newService(repo *mockServiceRepo) *auth.Service {
	return auth.NewService(repo, "test-secret", 15*time.Minute, 24*time.Hour)
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		repo := emptyRepo()
		svc := newService(repo)

		user, err := svc.Register(context.Background(), "alice", "alice@example.com", "Sup3rSecret")

		require.NoError(t, err)
		require.NotNil(t, repo.createdUser)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, domain.RoleDefault, user.Role)
		assert.True(t, user.Active)
		assert.NotEmpty(t, user.PasswordHash)
		assert.NotContains(t, user.PasswordHash, "Sup3rSecret")
	})

	t.Run("duplicate_username", func(t *testing.T) {
		t.Parallel()

		repo := emptyRepo()
		repo.getByUsernameUser = &domain.User{ID: uuid.New(), Username: "alice"}
		repo.getByUsernameErr = nil
		svc := newService(repo)

		_, err := svc.Register(context.Background(), "alice", "alice@example.com", "Sup3rSecret")

		require.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("duplicate_email", func(t *testing.T) {
		t.Parallel()

		repo := emptyRepo()
		repo.getByEmailUser = &domain.User{ID: uuid.New(), Email: "alice@example.com"}
		repo.getByEmailErr = nil
		svc := newService(repo)

		_, err := svc.Register(context.Background(), "alice2", "alice@example.com", "Sup3rSecret")

		require.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("weak_passwords_rejected", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			password string
			want     string
		}{
			{"NoDigitsHere", "digit"},
			{"ALLUPPER1", "lowercase"},
			{"alllower1", "uppercase"},
		}

		for _, tc := range cases {
			svc := newService(emptyRepo())

			_, err := svc.Register(context.Background(), "alice", "alice@example.com", tc.password)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr, "password %q", tc.password)
			assert.Contains(t, verr.Reason, tc.want)
		}
	})

	t.Run("create_error_surfaces", func(t *testing.T) {
		t.Parallel()

		repo := emptyRepo()
		repo.createErr = errors.New("insert failed")
		svc := newService(repo)

		_, err := svc.Register(context.Background(), "alice", "alice@example.com", "Sup3rSecret")

		require.ErrorIs(t, err, repo.createErr)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	// registeredUser registers through the real service so the stored hash is
	// a genuine argon2id encoding of the given password.
	registeredUser := func(t *testing.T, password string) *domain.User {
		t.Helper()
		repo := emptyRepo()
		svc := newService(repo)
		user, err := svc.Register(context.Background(), "alice", "alice@example.com", password)
		require.NoError(t, err)
		return user
	}

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		user := registeredUser(t, "Sup3rSecret")
		repo := emptyRepo()
		repo.getByEmailUser = user
		repo.getByEmailErr = nil
		svc := newService(repo)

		got, access, refresh, err := svc.Login(context.Background(), "alice@example.com", "Sup3rSecret")

		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		require.NotEmpty(t, access)
		require.NotEmpty(t, refresh)

		claims, err := auth.ValidateToken("test-secret", access)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID)
		assert.Equal(t, "access", claims.TokenType)
	})

	t.Run("wrong_password", func(t *testing.T) {
		t.Parallel()

		user := registeredUser(t, "Sup3rSecret")
		repo := emptyRepo()
		repo.getByEmailUser = user
		repo.getByEmailErr = nil
		svc := newService(repo)

		_, _, _, err := svc.Login(context.Background(), "alice@example.com", "WrongPassw0rd")

		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown_email", func(t *testing.T) {
		t.Parallel()

		svc := newService(emptyRepo())

		_, _, _, err := svc.Login(context.Background(), "ghost@example.com", "Sup3rSecret")

		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("inactive_user", func(t *testing.T) {
		t.Parallel()

		user := registeredUser(t, "Sup3rSecret")
		user.Active = false
		repo := emptyRepo()
		repo.getByEmailUser = user
		repo.getByEmailErr = nil
		svc := newService(repo)

		_, _, _, err := svc.Login(context.Background(), "alice@example.com", "Sup3rSecret")

		require.ErrorIs(t, err, auth.ErrInactiveUser)
	})
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		user := &domain.User{ID: uuid.New(), Role: domain.RoleDefault, Active: true}
		repo := emptyRepo()
		repo.getByIDUser = user
		repo.getByIDErr = nil
		svc := newService(repo)

		refresh, err := auth.IssueRefreshToken("test-secret", user.ID, "default", time.Hour)
		require.NoError(t, err)

		access, err := svc.RefreshToken(context.Background(), refresh)
		require.NoError(t, err)

		claims, err := auth.ValidateToken("test-secret", access)
		require.NoError(t, err)
		assert.Equal(t, "access", claims.TokenType)
		assert.Equal(t, user.ID.String(), claims.UserID)
	})

	t.Run("access_token_rejected", func(t *testing.T) {
		t.Parallel()

		svc := newService(emptyRepo())

		access, err := auth.IssueAccessToken("test-secret", uuid.New(), "default", time.Hour)
		require.NoError(t, err)

		_, err = svc.RefreshToken(context.Background(), access)
		require.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("deleted_user_rejected", func(t *testing.T) {
		t.Parallel()

		svc := newService(emptyRepo())

		refresh, err := auth.IssueRefreshToken("test-secret", uuid.New(), "default", time.Hour)
		require.NoError(t, err)

		_, err = svc.RefreshToken(context.Background(), refresh)
		require.ErrorIs(t, err, auth.ErrUserNotFound)
	})

	t.Run("deactivated_user_rejected", func(t *testing.T) {
		t.Parallel()

		user := &domain.User{ID: uuid.New(), Role: domain.RoleDefault, Active: false}
		repo := emptyRepo()
		repo.getByIDUser = user
		repo.getByIDErr = nil
		svc := newService(repo)

		refresh, err := auth.IssueRefreshToken("test-secret", user.ID, "default", time.Hour)
		require.NoError(t, err)

		_, err = svc.RefreshToken(context.Background(), refresh)
		require.ErrorIs(t, err, auth.ErrInactiveUser)
	})

	t.Run("garbage_token_rejected", func(t *testing.T) {
		t.Parallel()

		svc := newService(emptyRepo())

		_, err := svc.RefreshToken(context.Background(), "not-a-token")
		require.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestGetUser(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		user := &domain.User{ID: uuid.New(), Username: "alice"}
		repo := emptyRepo()
		repo.getByIDUser = user
		repo.getByIDErr = nil
		svc := newService(repo)

		got, err := svc.GetUser(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("not_found", func(t *testing.T) {
		t.Parallel()

		svc := newService(emptyRepo())

		_, err := svc.GetUser(context.Background(), uuid.New())
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}
