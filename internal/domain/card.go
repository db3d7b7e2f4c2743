package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Card struct {
	ID            uuid.UUID  `json:"id"`
	ListID        uuid.UUID  `json:"list_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Priority      Priority   `json:"priority"`
	ResponsibleID uuid.UUID  `json:"responsible_person_id"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	ReminderAt    *time.Time `json:"reminder_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type CardRepository interface {
	Create(ctx context.Context, c *Card) error
	GetByID(ctx context.Context, listID, id uuid.UUID) (*Card, error)
	ListByList(ctx context.Context, listID uuid.UUID) ([]*Card, error)
	CountByList(ctx context.Context, listID uuid.UUID) (int, error)
	Update(ctx context.Context, c *Card) error
	Delete(ctx context.Context, listID, id uuid.UUID) error

	// DueReminders returns cards whose reminder time has passed.
	DueReminders(ctx context.Context, now time.Time) ([]*Card, error)
	// ClearReminder unsets a card's reminder once it has been delivered.
	ClearReminder(ctx context.Context, cardID uuid.UUID) error

	AddPerformer(ctx context.Context, cardID, userID uuid.UUID) error
	// RemovePerformer reports whether the performer was actually attached.
	RemovePerformer(ctx context.Context, cardID, userID uuid.UUID) (bool, error)
	ListPerformers(ctx context.Context, cardID uuid.UUID) ([]*User, error)
}
