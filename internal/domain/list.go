package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// List is an ordered column within a board. Positions of sibling lists are
// dense: for a board with N lists they are exactly {1..N}, no gaps, no
// duplicates. Every structural change preserves this invariant atomically.
type List struct {
	ID        uuid.UUID `json:"id"`
	BoardID   uuid.UUID `json:"board_id"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PositionChange is a single assignment of a renumbering plan.
type PositionChange struct {
	ListID   uuid.UUID
	Position int
}

type ListRepository interface {
	// Create inserts the list at position max(position)+1 for its board,
	// assigned atomically with the insert, and fills l.Position.
	Create(ctx context.Context, l *List) error
	GetByID(ctx context.Context, boardID, id uuid.UUID) (*List, error)
	// ListByBoard returns lists ordered by position ascending. The ordering
	// is part of the external contract.
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*List, error)
	Rename(ctx context.Context, boardID, id uuid.UUID, name string) error
	// Move renumbers the list to newPos, shifting the affected siblings, in
	// one transaction. Out-of-range targets fail with a ValidationError.
	Move(ctx context.Context, boardID, id uuid.UUID, newPos int) error
	// Delete removes the list and its cards and closes the position gap, in
	// one transaction.
	Delete(ctx context.Context, boardID, id uuid.UUID) error
}
