package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

type Board struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Visibility Visibility `json:"visibility"`
	OwnerID    uuid.UUID  `json:"owner_id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewBoard creates a Board owned by the given user. Visibility defaults to
// public when unset, matching the create form's default.
func NewBoard(name string, visibility Visibility, ownerID uuid.UUID) (*Board, error) {
	if name == "" {
		return nil, errors.New("board: name is required")
	}
	if ownerID == uuid.Nil {
		return nil, errors.New("board: owner ID is required")
	}
	if visibility == "" {
		visibility = VisibilityPublic
	}
	if visibility != VisibilityPublic && visibility != VisibilityPrivate {
		return nil, errors.New("board: unknown visibility " + string(visibility))
	}

	now := time.Now()
	return &Board{
		ID:         uuid.New(),
		Name:       name,
		Visibility: visibility,
		OwnerID:    ownerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

type BoardRepository interface {
	Create(ctx context.Context, b *Board) error
	GetByID(ctx context.Context, id uuid.UUID) (*Board, error)
	Update(ctx context.Context, b *Board) error
	// Delete removes the board together with its lists, their cards, and the
	// membership rows, as a single atomic unit.
	Delete(ctx context.Context, id uuid.UUID) error
	ListPublic(ctx context.Context, limit, offset int) ([]*Board, error)
	ListAll(ctx context.Context, limit, offset int) ([]*Board, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Board, error)
	CountLists(ctx context.Context, boardID uuid.UUID) (int, error)
}

// MembershipRepository tracks which users were explicitly granted access to a
// board. The owner is not required to appear in the member set.
type MembershipRepository interface {
	IsMember(ctx context.Context, boardID, userID uuid.UUID) (bool, error)
	AddMember(ctx context.Context, boardID, userID uuid.UUID) error
	// RemoveMember reports whether a membership row was actually removed.
	RemoveMember(ctx context.Context, boardID, userID uuid.UUID) (bool, error)
	ListMembers(ctx context.Context, boardID uuid.UUID) ([]*User, error)
	MemberIDs(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error)
}
