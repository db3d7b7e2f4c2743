package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tabulahq/tabula/internal/domain"
	"github.com/tabulahq/tabula/internal/position"
)

type ListRepo struct {
	pool *pgxpool.Pool
}

func NewListRepo(pool *pgxpool.Pool) *ListRepo {
	return &ListRepo{pool: pool}
}

// Create appends the list at max(position)+1. The position is computed inside
// the insert statement so two concurrent creates cannot claim the same slot.
func (r *ListRepo) Create(ctx context.Context, l *domain.List) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO lists (id, board_id, name, position, created_at, updated_at)
		 SELECT $1, $2, $3, COALESCE(MAX(position), 0) + 1, $4, $5
		 FROM lists WHERE board_id = $2
		 RETURNING position`,
		l.ID, l.BoardID, l.Name, l.CreatedAt, l.UpdatedAt,
	).Scan(&l.Position)
	if err != nil {
		return fmt.Errorf("listRepo.Create: %w", err)
	}

	return nil
}

func (r *ListRepo) GetByID(ctx context.Context, boardID, id uuid.UUID) (*domain.List, error) {
	var l domain.List

	err := r.pool.QueryRow(ctx,
		`SELECT id, board_id, name, position, created_at, updated_at
		 FROM lists WHERE board_id = $1 AND id = $2`,
		boardID, id,
	).Scan(&l.ID, &l.BoardID, &l.Name, &l.Position, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("listRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("listRepo.GetByID: %w", err)
	}

	return &l, nil
}

func (r *ListRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.List, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, board_id, name, position, created_at, updated_at
		 FROM lists WHERE board_id = $1 ORDER BY position`,
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("listRepo.ListByBoard: %w", err)
	}
	defer rows.Close()

	var lists []*domain.List
	for rows.Next() {
		var l domain.List
		if err := rows.Scan(&l.ID, &l.BoardID, &l.Name, &l.Position, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("listRepo.ListByBoard: scan: %w", err)
		}
		lists = append(lists, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listRepo.ListByBoard: rows: %w", err)
	}

	return lists, nil
}

func (r *ListRepo) Rename(ctx context.Context, boardID, id uuid.UUID, name string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE lists SET name = $1, updated_at = now() WHERE board_id = $2 AND id = $3`,
		name, boardID, id,
	)
	if err != nil {
		return fmt.Errorf("listRepo.Rename: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("listRepo.Rename: %w", domain.ErrNotFound)
	}

	return nil
}

// Move renumbers the list to newPos inside one transaction. The sibling rows
// are locked before the plan is computed so concurrent moves on the same
// board serialize instead of interleaving their shift arithmetic.
func (r *ListRepo) Move(ctx context.Context, boardID, id uuid.UUID, newPos int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("listRepo.Move: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lists, err := lockBoardLists(ctx, tx, boardID)
	if err != nil {
		return fmt.Errorf("listRepo.Move: %w", err)
	}

	plan, err := position.PlanMove(lists, id, newPos)
	if err != nil {
		return fmt.Errorf("listRepo.Move: %w", err)
	}

	if err := applyPlan(ctx, tx, boardID, plan); err != nil {
		return fmt.Errorf("listRepo.Move: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("listRepo.Move: commit: %w", err)
	}

	return nil
}

// Delete removes the list and its cards and closes the position gap, all in
// one transaction.
func (r *ListRepo) Delete(ctx context.Context, boardID, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("listRepo.Delete: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lists, err := lockBoardLists(ctx, tx, boardID)
	if err != nil {
		return fmt.Errorf("listRepo.Delete: %w", err)
	}

	_, plan, err := position.PlanRemoval(lists, id)
	if err != nil {
		return fmt.Errorf("listRepo.Delete: %w", err)
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM card_performers WHERE card_id IN (SELECT id FROM cards WHERE list_id = $1)`,
		id,
	)
	if err != nil {
		return fmt.Errorf("listRepo.Delete: performers: %w", err)
	}

	_, err = tx.Exec(ctx, `DELETE FROM cards WHERE list_id = $1`, id)
	if err != nil {
		return fmt.Errorf("listRepo.Delete: cards: %w", err)
	}

	_, err = tx.Exec(ctx, `DELETE FROM lists WHERE board_id = $1 AND id = $2`, boardID, id)
	if err != nil {
		return fmt.Errorf("listRepo.Delete: list: %w", err)
	}

	if err := applyPlan(ctx, tx, boardID, plan); err != nil {
		return fmt.Errorf("listRepo.Delete: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("listRepo.Delete: commit: %w", err)
	}

	return nil
}

// lockBoardLists reads the board's lists ordered by position, taking row
// locks that hold until the surrounding transaction ends.
func lockBoardLists(ctx context.Context, tx pgx.Tx, boardID uuid.UUID) ([]*domain.List, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, board_id, name, position, created_at, updated_at
		 FROM lists WHERE board_id = $1 ORDER BY position FOR UPDATE`,
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("lock lists: %w", err)
	}
	defer rows.Close()

	var lists []*domain.List
	for rows.Next() {
		var l domain.List
		if err := rows.Scan(&l.ID, &l.BoardID, &l.Name, &l.Position, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("lock lists: scan: %w", err)
		}
		lists = append(lists, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lock lists: rows: %w", err)
	}

	return lists, nil
}

func applyPlan(ctx context.Context, tx pgx.Tx, boardID uuid.UUID, plan []domain.PositionChange) error {
	for _, ch := range plan {
		tag, err := tx.Exec(ctx,
			`UPDATE lists SET position = $1, updated_at = now() WHERE board_id = $2 AND id = $3`,
			ch.Position, boardID, ch.ListID,
		)
		if err != nil {
			return fmt.Errorf("apply plan: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("apply plan: list %s: %w", ch.ListID, domain.ErrConflict)
		}
	}

	return nil
}
