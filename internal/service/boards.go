// Package service implements the mutation façade: every operation loads the
// target aggregates, consults the access resolver, applies the change through
// the repositories, and finally emits a best-effort board event.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tabulahq/tabula/internal/access"
	"github.com/tabulahq/tabula/internal/domain"
	"github.com/tabulahq/tabula/internal/notify"
)

// BoardDetail is a board together with its aggregate counts.
type BoardDetail struct {
	Board *domain.Board `json:"board"`
	// Lists is the number of lists on the board.
	Lists int `json:"lists"`
	// Members is the effective headcount: the member set plus the owner,
	// counted once even when the owner is absent from the member set.
	Members int `json:"members"`
}

type BoardService struct {
	boards  domain.BoardRepository
	members domain.MembershipRepository
	users   domain.UserRepository
	events  notify.Publisher
}

func NewBoardService(boards domain.BoardRepository, members domain.MembershipRepository, users domain.UserRepository, events notify.Publisher) *BoardService {
	return &BoardService{boards: boards, members: members, users: users, events: events}
}

// boardContext loads the board and its member set, the inputs every access
// decision needs.
func (s *BoardService) boardContext(ctx context.Context, boardID uuid.UUID) (*domain.Board, []uuid.UUID, error) {
	board, err := s.boards.GetByID(ctx, boardID)
	if err != nil {
		return nil, nil, err
	}

	memberIDs, err := s.members.MemberIDs(ctx, boardID)
	if err != nil {
		return nil, nil, err
	}

	return board, memberIDs, nil
}

func (s *BoardService) Create(ctx context.Context, actor *domain.User, name string, visibility domain.Visibility) (*domain.Board, error) {
	board, err := domain.NewBoard(name, visibility, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("boardService.Create: %w", domain.Invalid(err.Error()))
	}

	if err := s.boards.Create(ctx, board); err != nil {
		return nil, fmt.Errorf("boardService.Create: %w", err)
	}

	return board, nil
}

func (s *BoardService) Get(ctx context.Context, actor *domain.User, boardID uuid.UUID) (*BoardDetail, error) {
	board, memberIDs, err := s.boardContext(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("boardService.Get: %w", err)
	}

	d := access.Decide(access.Request{Board: board, Actor: actor, Action: access.ActionViewBoard, MemberIDs: memberIDs})
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("boardService.Get: %w", err)
	}

	lists, err := s.boards.CountLists(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("boardService.Get: %w", err)
	}

	return &BoardDetail{
		Board:   board,
		Lists:   lists,
		Members: effectiveHeadcount(board, memberIDs),
	}, nil
}

// effectiveHeadcount counts the member set plus the owner, once.
func effectiveHeadcount(board *domain.Board, memberIDs []uuid.UUID) int {
	count := len(memberIDs)
	if !contains(memberIDs, board.OwnerID) {
		count++
	}
	return count
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// BoardPatch carries the updatable board fields; nil means unchanged.
type BoardPatch struct {
	Name       *string
	Visibility *domain.Visibility
}

func (s *BoardService) Update(ctx context.Context, actor *domain.User, boardID uuid.UUID, patch BoardPatch) (*domain.Board, error) {
	board, memberIDs, err := s.boardContext(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("boardService.Update: %w", err)
	}

	d := access.Decide(access.Request{Board: board, Actor: actor, Action: access.ActionUpdateBoard, MemberIDs: memberIDs})
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("boardService.Update: %w", err)
	}

	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, fmt.Errorf("boardService.Update: %w", domain.Invalid("board name cannot be empty"))
		}
		board.Name = *patch.Name
	}
	if patch.Visibility != nil {
		if *patch.Visibility != domain.VisibilityPublic && *patch.Visibility != domain.VisibilityPrivate {
			return nil, fmt.Errorf("boardService.Update: %w", domain.Invalid("unknown visibility "+string(*patch.Visibility)))
		}
		board.Visibility = *patch.Visibility
	}

	if err := s.boards.Update(ctx, board); err != nil {
		return nil, fmt.Errorf("boardService.Update: %w", err)
	}

	s.events.Publish(ctx, notify.Event{Type: notify.EventBoardUpdated, BoardID: board.ID, ActorID: actor.ID})

	return board, nil
}

func (s *BoardService) Delete(ctx context.Context, actor *domain.User, boardID uuid.UUID) error {
	board, memberIDs, err := s.boardContext(ctx, boardID)
	if err != nil {
		return fmt.Errorf("boardService.Delete: %w", err)
	}

	d := access.Decide(access.Request{Board: board, Actor: actor, Action: access.ActionDeleteBoard, MemberIDs: memberIDs})
	if err := d.Err(); err != nil {
		return fmt.Errorf("boardService.Delete: %w", err)
	}

	if err := s.boards.Delete(ctx, boardID); err != nil {
		return fmt.Errorf("boardService.Delete: %w", err)
	}

	s.events.Publish(ctx, notify.Event{Type: notify.EventBoardDeleted, BoardID: boardID, ActorID: actor.ID})

	return nil
}

// ListPublic is an ungated read: public boards are visible to anyone.
func (s *BoardService) ListPublic(ctx context.Context, limit, offset int) ([]*domain.Board, error) {
	boards, err := s.boards.ListPublic(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("boardService.ListPublic: %w", err)
	}

	return boards, nil
}

// ListAll returns every board regardless of visibility. Admin only.
func (s *BoardService) ListAll(ctx context.Context, actor *domain.User, limit, offset int) ([]*domain.Board, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("boardService.ListAll: %w", domain.Denied("only administrators can list all boards"))
	}

	boards, err := s.boards.ListAll(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("boardService.ListAll: %w", err)
	}

	return boards, nil
}

func (s *BoardService) ListOwned(ctx context.Context, ownerID uuid.UUID) ([]*domain.Board, error) {
	boards, err := s.boards.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("boardService.ListOwned: %w", err)
	}

	return boards, nil
}

func (s *BoardService) Members(ctx context.Context, actor *domain.User, boardID uuid.UUID) ([]*domain.User, error) {
	board, memberIDs, err := s.boardContext(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("boardService.Members: %w", err)
	}

	d := access.Decide(access.Request{Board: board, Actor: actor, Action: access.ActionViewMembers, MemberIDs: memberIDs})
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("boardService.Members: %w", err)
	}

	users, err := s.members.ListMembers(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("boardService.Members: %w", err)
	}

	return users, nil
}

func (s *BoardService) AddMember(ctx context.Context, actor *domain.User, boardID, userID uuid.UUID) error {
	if userID == actor.ID {
		return fmt.Errorf("boardService.AddMember: %w", domain.Invalid("cannot add yourself as a board member"))
	}

	board, memberIDs, err := s.boardContext(ctx, boardID)
	if err != nil {
		return fmt.Errorf("boardService.AddMember: %w", err)
	}

	d := access.Decide(access.Request{Board: board, Actor: actor, Action: access.ActionAddMember, TargetUserID: userID, MemberIDs: memberIDs})
	if err := d.Err(); err != nil {
		return fmt.Errorf("boardService.AddMember: %w", err)
	}

	if userID == board.OwnerID {
		return fmt.Errorf("boardService.AddMember: %w", domain.Invalid("the board owner cannot be added as a member"))
	}
	if contains(memberIDs, userID) {
		return fmt.Errorf("boardService.AddMember: %w", domain.Invalid("user is already a member of this board"))
	}

	// The target must be an existing user.
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return fmt.Errorf("boardService.AddMember: %w", err)
	}

	if err := s.members.AddMember(ctx, boardID, userID); err != nil {
		return fmt.Errorf("boardService.AddMember: %w", err)
	}

	s.events.Publish(ctx, notify.Event{Type: notify.EventMemberAdded, BoardID: boardID, EntityID: userID, ActorID: actor.ID})

	return nil
}

func (s *BoardService) RemoveMember(ctx context.Context, actor *domain.User, boardID, userID uuid.UUID) error {
	board, memberIDs, err := s.boardContext(ctx, boardID)
	if err != nil {
		return fmt.Errorf("boardService.RemoveMember: %w", err)
	}

	d := access.Decide(access.Request{Board: board, Actor: actor, Action: access.ActionRemoveMember, TargetUserID: userID, MemberIDs: memberIDs})
	if err := d.Err(); err != nil {
		return fmt.Errorf("boardService.RemoveMember: %w", err)
	}

	removed, err := s.members.RemoveMember(ctx, boardID, userID)
	if err != nil {
		return fmt.Errorf("boardService.RemoveMember: %w", err)
	}
	if !removed {
		return fmt.Errorf("boardService.RemoveMember: user is not a member of the board: %w", domain.ErrNotFound)
	}

	s.events.Publish(ctx, notify.Event{Type: notify.EventMemberRemoved, BoardID: boardID, EntityID: userID, ActorID: actor.ID})

	return nil
}
