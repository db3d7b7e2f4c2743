package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tabulahq/tabula/internal/access"
	"github.com/tabulahq/tabula/internal/domain"
	"github.com/tabulahq/tabula/internal/notify"
)

// ListDetail is a list together with its card count.
type ListDetail struct {
	List  *domain.List `json:"list"`
	Cards int          `json:"cards"`
}

type ListService struct {
	boards *BoardService
	lists  domain.ListRepository
	cards  domain.CardRepository
	events notify.Publisher
}

func NewListService(boards *BoardService, lists domain.ListRepository, cards domain.CardRepository, events notify.Publisher) *ListService {
	return &ListService{boards: boards, lists: lists, cards: cards, events: events}
}

// ListByBoard returns the board's lists ordered by position.
func (s *ListService) ListByBoard(ctx context.Context, actor *domain.User, boardID uuid.UUID) ([]*domain.List, error) {
	board, memberIDs, err := s.boards.boardContext(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("listService.ListByBoard: %w", err)
	}

	d := access.Decide(access.Request{Board: board, Actor: actor, Action: access.ActionViewLists, MemberIDs: memberIDs})
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("listService.ListByBoard: %w", err)
	}

	lists, err := s.lists.ListByBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("listService.ListByBoard: %w", err)
	}

	return lists, nil
}

func (s *ListService) Get(ctx context.Context, actor *domain.User, boardID, listID uuid.UUID) (*ListDetail, error) {
	board, memberIDs, err := s.boards.boardContext(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("listService.Get: %w", err)
	}

	d := access.Decide(access.Request{Board: board, Actor: actor, Action: access.ActionViewLists, MemberIDs: memberIDs})
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("listService.Get: %w", err)
	}

	list, err := s.lists.GetByID(ctx, boardID, listID)
	if err != nil {
		return nil, fmt.Errorf("listService.Get: %w", err)
	}

	cards, err := s.cards.CountByList(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("listService.Get: %w", err)
	}

	return &ListDetail{List: list, Cards: cards}, nil
}

func (s *ListService) Create(ctx context.Context, actor *domain.User, boardID uuid.UUID, name string) (*domain.List, error) {
	if name == "" {
		return nil, fmt.Errorf("listService.Create: %w", domain.Invalid("list name cannot be empty"))
	}

	board, memberIDs, err := s.boards.boardContext(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("listService.Create: %w", err)
	}

	d := access.Decide(access.Request{Board: board, Actor: actor, Action: access.ActionManageLists, MemberIDs: memberIDs})
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("listService.Create: %w", err)
	}

	now := time.Now()
	list := &domain.List{
		ID:        uuid.New(),
		BoardID:   boardID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The repository assigns max(position)+1 atomically with the insert.
	if err := s.lists.Create(ctx, list); err != nil {
		return nil, fmt.Errorf("listService.Create: %w", err)
	}

	s.events.Publish(ctx, notify.Event{Type: notify.EventListCreated, BoardID: boardID, EntityID: list.ID, ActorID: actor.ID})

	return list, nil
}

func (s *ListService) Rename(ctx context.Context, actor *domain.User, boardID, listID uuid.UUID, name string) (*domain.List, error) {
	if name == "" {
		return nil, fmt.Errorf("listService.Rename: %w", domain.Invalid("list name cannot be empty"))
	}

	board, memberIDs, err := s.boards.boardContext(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("listService.Rename: %w", err)
	}

	d := access.Decide(access.Request{Board: board, Actor: actor, Action: access.ActionManageLists, MemberIDs: memberIDs})
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("listService.Rename: %w", err)
	}

	if err := s.lists.Rename(ctx, boardID, listID, name); err != nil {
		return nil, fmt.Errorf("listService.Rename: %w", err)
	}

	list, err := s.lists.GetByID(ctx, boardID, listID)
	if err != nil {
		return nil, fmt.Errorf("listService.Rename: %w", err)
	}

	s.events.Publish(ctx, notify.Event{Type: notify.EventListRenamed, BoardID: boardID, EntityID: listID, ActorID: actor.ID})

	return list, nil
}

// Move renumbers the list to newPos. The shift of the affected siblings and
// the target's assignment commit as one transaction; a failure leaves the
// previous ordering fully intact.
func (s *ListService) Move(ctx context.Context, actor *domain.User, boardID, listID uuid.UUID, newPos int) (*domain.List, error) {
	board, memberIDs, err := s.boards.boardContext(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("listService.Move: %w", err)
	}

	d := access.Decide(access.Request{Board: board, Actor: actor, Action: access.ActionManageLists, MemberIDs: memberIDs})
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("listService.Move: %w", err)
	}

	if err := s.lists.Move(ctx, boardID, listID, newPos); err != nil {
		return nil, fmt.Errorf("listService.Move: %w", err)
	}

	list, err := s.lists.GetByID(ctx, boardID, listID)
	if err != nil {
		return nil, fmt.Errorf("listService.Move: %w", err)
	}

	s.events.Publish(ctx, notify.Event{Type: notify.EventListMoved, BoardID: boardID, EntityID: listID, ActorID: actor.ID})

	return list, nil
}

func (s *ListService) Delete(ctx context.Context, actor *domain.User, boardID, listID uuid.UUID) error {
	board, memberIDs, err := s.boards.boardContext(ctx, boardID)
	if err != nil {
		return fmt.Errorf("listService.Delete: %w", err)
	}

	d := access.Decide(access.Request{Board: board, Actor: actor, Action: access.ActionManageLists, MemberIDs: memberIDs})
	if err := d.Err(); err != nil {
		return fmt.Errorf("listService.Delete: %w", err)
	}

	if err := s.lists.Delete(ctx, boardID, listID); err != nil {
		return fmt.Errorf("listService.Delete: %w", err)
	}

	s.events.Publish(ctx, notify.Event{Type: notify.EventListDeleted, BoardID: boardID, EntityID: listID, ActorID: actor.ID})

	return nil
}
