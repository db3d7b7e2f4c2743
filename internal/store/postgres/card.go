package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tabulahq/tabula/internal/domain"
)

type CardRepo struct {
	pool *pgxpool.Pool
}

func NewCardRepo(pool *pgxpool.Pool) *CardRepo {
	return &CardRepo{pool: pool}
}

func (r *CardRepo) Create(ctx context.Context, c *domain.Card) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO cards (id, list_id, title, description, priority, responsible_person_id, due_date, reminder_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.ListID, c.Title, c.Description, c.Priority, c.ResponsibleID,
		c.DueDate, c.ReminderAt, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("cardRepo.Create: %w", err)
	}

	return nil
}

func (r *CardRepo) GetByID(ctx context.Context, listID, id uuid.UUID) (*domain.Card, error) {
	var c domain.Card

	err := r.pool.QueryRow(ctx,
		`SELECT id, list_id, title, description, priority, responsible_person_id, due_date, reminder_at, created_at, updated_at
		 FROM cards WHERE list_id = $1 AND id = $2`,
		listID, id,
	).Scan(&c.ID, &c.ListID, &c.Title, &c.Description, &c.Priority, &c.ResponsibleID,
		&c.DueDate, &c.ReminderAt, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("cardRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("cardRepo.GetByID: %w", err)
	}

	return &c, nil
}

func (r *CardRepo) ListByList(ctx context.Context, listID uuid.UUID) ([]*domain.Card, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, list_id, title, description, priority, responsible_person_id, due_date, reminder_at, created_at, updated_at
		 FROM cards WHERE list_id = $1 ORDER BY created_at`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("cardRepo.ListByList: %w", err)
	}
	defer rows.Close()

	var cards []*domain.Card
	for rows.Next() {
		var c domain.Card
		if err := rows.Scan(&c.ID, &c.ListID, &c.Title, &c.Description, &c.Priority, &c.ResponsibleID,
			&c.DueDate, &c.ReminderAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("cardRepo.ListByList: scan: %w", err)
		}
		cards = append(cards, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cardRepo.ListByList: rows: %w", err)
	}

	return cards, nil
}

func (r *CardRepo) CountByList(ctx context.Context, listID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM cards WHERE list_id = $1`, listID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("cardRepo.CountByList: %w", err)
	}

	return n, nil
}

func (r *CardRepo) Update(ctx context.Context, c *domain.Card) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE cards SET title = $1, description = $2, priority = $3, responsible_person_id = $4,
		        due_date = $5, reminder_at = $6, updated_at = now()
		 WHERE list_id = $7 AND id = $8`,
		c.Title, c.Description, c.Priority, c.ResponsibleID, c.DueDate, c.ReminderAt,
		c.ListID, c.ID,
	)
	if err != nil {
		return fmt.Errorf("cardRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cardRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *CardRepo) Delete(ctx context.Context, listID, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cardRepo.Delete: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `DELETE FROM card_performers WHERE card_id = $1`, id)
	if err != nil {
		return fmt.Errorf("cardRepo.Delete: performers: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM cards WHERE list_id = $1 AND id = $2`, listID, id)
	if err != nil {
		return fmt.Errorf("cardRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cardRepo.Delete: %w", domain.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("cardRepo.Delete: commit: %w", err)
	}

	return nil
}

func (r *CardRepo) DueReminders(ctx context.Context, now time.Time) ([]*domain.Card, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, list_id, title, description, priority, responsible_person_id, due_date, reminder_at, created_at, updated_at
		 FROM cards WHERE reminder_at IS NOT NULL AND reminder_at <= $1
		 ORDER BY reminder_at LIMIT 100`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("cardRepo.DueReminders: %w", err)
	}
	defer rows.Close()

	var cards []*domain.Card
	for rows.Next() {
		var c domain.Card
		if err := rows.Scan(&c.ID, &c.ListID, &c.Title, &c.Description, &c.Priority, &c.ResponsibleID,
			&c.DueDate, &c.ReminderAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("cardRepo.DueReminders: scan: %w", err)
		}
		cards = append(cards, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cardRepo.DueReminders: rows: %w", err)
	}

	return cards, nil
}

func (r *CardRepo) ClearReminder(ctx context.Context, cardID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE cards SET reminder_at = NULL WHERE id = $1`,
		cardID,
	)
	if err != nil {
		return fmt.Errorf("cardRepo.ClearReminder: %w", err)
	}

	return nil
}

func (r *CardRepo) AddPerformer(ctx context.Context, cardID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO card_performers (card_id, user_id) VALUES ($1, $2)`,
		cardID, userID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("cardRepo.AddPerformer: %w", domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("cardRepo.AddPerformer: %w", err)
	}

	return nil
}

func (r *CardRepo) RemovePerformer(ctx context.Context, cardID, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM card_performers WHERE card_id = $1 AND user_id = $2`,
		cardID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("cardRepo.RemovePerformer: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *CardRepo) ListPerformers(ctx context.Context, cardID uuid.UUID) ([]*domain.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.username, u.email, u.password_hash, u.role, u.active, u.created_at, u.updated_at
		 FROM users u JOIN card_performers cp ON cp.user_id = u.id
		 WHERE cp.card_id = $1 ORDER BY u.username`,
		cardID,
	)
	if err != nil {
		return nil, fmt.Errorf("cardRepo.ListPerformers: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows, "cardRepo.ListPerformers")
}
