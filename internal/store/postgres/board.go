package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tabulahq/tabula/internal/domain"
)

type BoardRepo struct {
	pool *pgxpool.Pool
}

func NewBoardRepo(pool *pgxpool.Pool) *BoardRepo {
	return &BoardRepo{pool: pool}
}

func (r *BoardRepo) Create(ctx context.Context, b *domain.Board) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO boards (id, name, visibility, owner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		b.ID, b.Name, b.Visibility, b.OwnerID, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("boardRepo.Create: %w", err)
	}

	return nil
}

func (r *BoardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	var b domain.Board

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, visibility, owner_id, created_at, updated_at
		 FROM boards WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.Name, &b.Visibility, &b.OwnerID, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("boardRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("boardRepo.GetByID: %w", err)
	}

	return &b, nil
}

func (r *BoardRepo) Update(ctx context.Context, b *domain.Board) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE boards SET name = $1, visibility = $2, updated_at = now() WHERE id = $3`,
		b.Name, b.Visibility, b.ID,
	)
	if err != nil {
		return fmt.Errorf("boardRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("boardRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

// Delete removes the board and everything it owns: performer rows, cards,
// lists, memberships, then the board row, all in one transaction. The cascade
// is explicit rather than delegated to foreign-key actions so a partial
// delete can never be observed.
func (r *BoardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("boardRepo.Delete: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`DELETE FROM card_performers WHERE card_id IN (
		   SELECT c.id FROM cards c JOIN lists l ON c.list_id = l.id WHERE l.board_id = $1)`,
		id,
	)
	if err != nil {
		return fmt.Errorf("boardRepo.Delete: performers: %w", err)
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM cards WHERE list_id IN (SELECT id FROM lists WHERE board_id = $1)`,
		id,
	)
	if err != nil {
		return fmt.Errorf("boardRepo.Delete: cards: %w", err)
	}

	_, err = tx.Exec(ctx, `DELETE FROM lists WHERE board_id = $1`, id)
	if err != nil {
		return fmt.Errorf("boardRepo.Delete: lists: %w", err)
	}

	_, err = tx.Exec(ctx, `DELETE FROM board_members WHERE board_id = $1`, id)
	if err != nil {
		return fmt.Errorf("boardRepo.Delete: members: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("boardRepo.Delete: board: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("boardRepo.Delete: %w", domain.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("boardRepo.Delete: commit: %w", err)
	}

	return nil
}

func (r *BoardRepo) ListPublic(ctx context.Context, limit, offset int) ([]*domain.Board, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, visibility, owner_id, created_at, updated_at
		 FROM boards WHERE visibility = $1
		 ORDER BY created_at LIMIT $2 OFFSET $3`,
		domain.VisibilityPublic, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("boardRepo.ListPublic: %w", err)
	}
	defer rows.Close()

	return scanBoards(rows, "boardRepo.ListPublic")
}

func (r *BoardRepo) ListAll(ctx context.Context, limit, offset int) ([]*domain.Board, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, visibility, owner_id, created_at, updated_at
		 FROM boards ORDER BY created_at LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("boardRepo.ListAll: %w", err)
	}
	defer rows.Close()

	return scanBoards(rows, "boardRepo.ListAll")
}

func (r *BoardRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Board, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, visibility, owner_id, created_at, updated_at
		 FROM boards WHERE owner_id = $1 ORDER BY created_at`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("boardRepo.ListByOwner: %w", err)
	}
	defer rows.Close()

	return scanBoards(rows, "boardRepo.ListByOwner")
}

func (r *BoardRepo) CountLists(ctx context.Context, boardID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM lists WHERE board_id = $1`, boardID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("boardRepo.CountLists: %w", err)
	}

	return n, nil
}

func scanBoards(rows pgx.Rows, caller string) ([]*domain.Board, error) {
	var boards []*domain.Board
	for rows.Next() {
		var b domain.Board
		if err := rows.Scan(&b.ID, &b.Name, &b.Visibility, &b.OwnerID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		boards = append(boards, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return boards, nil
}
