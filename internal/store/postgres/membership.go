package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tabulahq/tabula/internal/domain"
)

type MembershipRepo struct {
	pool *pgxpool.Pool
}

func NewMembershipRepo(pool *pgxpool.Pool) *MembershipRepo {
	return &MembershipRepo{pool: pool}
}

func (r *MembershipRepo) IsMember(ctx context.Context, boardID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM board_members WHERE board_id = $1 AND user_id = $2)`,
		boardID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("membershipRepo.IsMember: %w", err)
	}

	return exists, nil
}

func (r *MembershipRepo) AddMember(ctx context.Context, boardID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO board_members (board_id, user_id) VALUES ($1, $2)`,
		boardID, userID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("membershipRepo.AddMember: %w", domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("membershipRepo.AddMember: %w", err)
	}

	return nil
}

// RemoveMember reports removal through the delete's row count; callers treat
// false as the user never having been a member.
func (r *MembershipRepo) RemoveMember(ctx context.Context, boardID, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM board_members WHERE board_id = $1 AND user_id = $2`,
		boardID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("membershipRepo.RemoveMember: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *MembershipRepo) ListMembers(ctx context.Context, boardID uuid.UUID) ([]*domain.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.username, u.email, u.password_hash, u.role, u.active, u.created_at, u.updated_at
		 FROM users u JOIN board_members bm ON bm.user_id = u.id
		 WHERE bm.board_id = $1 ORDER BY u.username`,
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("membershipRepo.ListMembers: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows, "membershipRepo.ListMembers")
}

func (r *MembershipRepo) MemberIDs(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM board_members WHERE board_id = $1`,
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("membershipRepo.MemberIDs: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("membershipRepo.MemberIDs: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("membershipRepo.MemberIDs: rows: %w", err)
	}

	return ids, nil
}
