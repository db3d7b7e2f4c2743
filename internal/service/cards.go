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

// CardDetail is a card together with its performers.
type CardDetail struct {
	Card       *domain.Card   `json:"card"`
	Performers []*domain.User `json:"performers"`
}

// CardInput carries the card fields accepted on create and update.
type CardInput struct {
	Title         string
	Description   string
	Priority      domain.Priority
	ResponsibleID uuid.UUID // uuid.Nil defaults to the acting user
	DueDate       *time.Time
	ReminderAt    *time.Time
}

type CardService struct {
	boards *BoardService
	lists  domain.ListRepository
	cards  domain.CardRepository
	users  domain.UserRepository
	events notify.Publisher
}

func NewCardService(boards *BoardService, lists domain.ListRepository, cards domain.CardRepository, users domain.UserRepository, events notify.Publisher) *CardService {
	return &CardService{boards: boards, lists: lists, cards: cards, users: users, events: events}
}

// cardContext loads the board, member set, and list, verifying the list
// belongs to the board.
func (s *CardService) cardContext(ctx context.Context, boardID, listID uuid.UUID) (*domain.Board, []uuid.UUID, error) {
	board, memberIDs, err := s.boards.boardContext(ctx, boardID)
	if err != nil {
		return nil, nil, err
	}

	if _, err := s.lists.GetByID(ctx, boardID, listID); err != nil {
		return nil, nil, err
	}

	return board, memberIDs, nil
}

func (s *CardService) ListByList(ctx context.Context, actor *domain.User, boardID, listID uuid.UUID) ([]*domain.Card, error) {
	board, memberIDs, err := s.cardContext(ctx, boardID, listID)
	if err != nil {
		return nil, fmt.Errorf("cardService.ListByList: %w", err)
	}

	d := access.Decide(access.Request{Board: board, Actor: actor, Action: access.ActionViewLists, MemberIDs: memberIDs})
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("cardService.ListByList: %w", err)
	}

	cards, err := s.cards.ListByList(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("cardService.ListByList: %w", err)
	}

	return cards, nil
}

func (s *CardService) Get(ctx context.Context, actor *domain.User, boardID, listID, cardID uuid.UUID) (*CardDetail, error) {
	board, memberIDs, err := s.cardContext(ctx, boardID, listID)
	if err != nil {
		return nil, fmt.Errorf("cardService.Get: %w", err)
	}

	d := access.Decide(access.Request{Board: board, Actor: actor, Action: access.ActionViewLists, MemberIDs: memberIDs})
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("cardService.Get: %w", err)
	}

	card, err := s.cards.GetByID(ctx, listID, cardID)
	if err != nil {
		return nil, fmt.Errorf("cardService.Get: %w", err)
	}

	performers, err := s.cards.ListPerformers(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("cardService.Get: %w", err)
	}

	return &CardDetail{Card: card, Performers: performers}, nil
}

func (s *CardService) Create(ctx context.Context, actor *domain.User, boardID, listID uuid.UUID, in CardInput) (*domain.Card, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("cardService.Create: %w", domain.Invalid("card title cannot be empty"))
	}

	board, memberIDs, err := s.cardContext(ctx, boardID, listID)
	if err != nil {
		return nil, fmt.Errorf("cardService.Create: %w", err)
	}

	d := access.Decide(access.Request{Board: board, Actor: actor, Action: access.ActionCreateCard, MemberIDs: memberIDs})
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("cardService.Create: %w", err)
	}

	responsible, err := resolveResponsible(board, actor, memberIDs, in.ResponsibleID)
	if err != nil {
		return nil, fmt.Errorf("cardService.Create: %w", err)
	}

	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}

	now := time.Now()
	card := &domain.Card{
		ID:            uuid.New(),
		ListID:        listID,
		Title:         in.Title,
		Description:   in.Description,
		Priority:      priority,
		ResponsibleID: responsible,
		DueDate:       in.DueDate,
		ReminderAt:    in.ReminderAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.cards.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("cardService.Create: %w", err)
	}

	s.events.Publish(ctx, notify.Event{Type: notify.EventCardCreated, BoardID: boardID, EntityID: card.ID, ActorID: actor.ID})

	return card, nil
}

// resolveResponsible applies the responsible-person rule: omitted defaults to
// the actor; owners may assign any board member; plain members may only
// assign themselves. Global admins are unconstrained.
func resolveResponsible(board *domain.Board, actor *domain.User, memberIDs []uuid.UUID, responsible uuid.UUID) (uuid.UUID, error) {
	if responsible == uuid.Nil {
		return actor.ID, nil
	}

	if actor.Role == domain.RoleAdmin {
		return responsible, nil
	}

	if board.OwnerID == actor.ID {
		if !access.IsMember(board, memberIDs, responsible) {
			return uuid.Nil, domain.Invalid("cannot assign an outsider as responsible")
		}
		return responsible, nil
	}

	if responsible != actor.ID {
		return uuid.Nil, domain.Invalid("you can only assign yourself as responsible")
	}

	return responsible, nil
}

// CardPatch carries the updatable card fields; nil means unchanged.
type CardPatch struct {
	Title         *string
	Description   *string
	Priority      *domain.Priority
	ResponsibleID *uuid.UUID
	DueDate       *time.Time
	ReminderAt    *time.Time
}

func (s *CardService) Update(ctx context.Context, actor *domain.User, boardID, listID, cardID uuid.UUID, patch CardPatch) (*domain.Card, error) {
	board, memberIDs, err := s.cardContext(ctx, boardID, listID)
	if err != nil {
		return nil, fmt.Errorf("cardService.Update: %w", err)
	}

	d := access.Decide(access.Request{Board: board, Actor: actor, Action: access.ActionEditCard, MemberIDs: memberIDs})
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("cardService.Update: %w", err)
	}

	card, err := s.cards.GetByID(ctx, listID, cardID)
	if err != nil {
		return nil, fmt.Errorf("cardService.Update: %w", err)
	}

	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, fmt.Errorf("cardService.Update: %w", domain.Invalid("card title cannot be empty"))
		}
		card.Title = *patch.Title
	}
	if patch.Description != nil {
		card.Description = *patch.Description
	}
	if patch.Priority != nil {
		card.Priority = *patch.Priority
	}
	if patch.ResponsibleID != nil {
		responsible, err := resolveResponsible(board, actor, memberIDs, *patch.ResponsibleID)
		if err != nil {
			return nil, fmt.Errorf("cardService.Update: %w", err)
		}
		card.ResponsibleID = responsible
	}
	if patch.DueDate != nil {
		card.DueDate = patch.DueDate
	}
	if patch.ReminderAt != nil {
		card.ReminderAt = patch.ReminderAt
	}
	card.UpdatedAt = time.Now()

	if err := s.cards.Update(ctx, card); err != nil {
		return nil, fmt.Errorf("cardService.Update: %w", err)
	}

	s.events.Publish(ctx, notify.Event{Type: notify.EventCardUpdated, BoardID: boardID, EntityID: cardID, ActorID: actor.ID})

	return card, nil
}

func (s *CardService) Delete(ctx context.Context, actor *domain.User, boardID, listID, cardID uuid.UUID) error {
	board, memberIDs, err := s.cardContext(ctx, boardID, listID)
	if err != nil {
		return fmt.Errorf("cardService.Delete: %w", err)
	}

	d := access.Decide(access.Request{Board: board, Actor: actor, Action: access.ActionEditCard, MemberIDs: memberIDs})
	if err := d.Err(); err != nil {
		return fmt.Errorf("cardService.Delete: %w", err)
	}

	if err := s.cards.Delete(ctx, listID, cardID); err != nil {
		return fmt.Errorf("cardService.Delete: %w", err)
	}

	s.events.Publish(ctx, notify.Event{Type: notify.EventCardDeleted, BoardID: boardID, EntityID: cardID, ActorID: actor.ID})

	return nil
}

func (s *CardService) AddPerformer(ctx context.Context, actor *domain.User, boardID, listID, cardID, userID uuid.UUID) error {
	board, memberIDs, err := s.cardContext(ctx, boardID, listID)
	if err != nil {
		return fmt.Errorf("cardService.AddPerformer: %w", err)
	}

	d := access.Decide(access.Request{Board: board, Actor: actor, Action: access.ActionManagePerformers, TargetUserID: userID, MemberIDs: memberIDs})
	if err := d.Err(); err != nil {
		return fmt.Errorf("cardService.AddPerformer: %w", err)
	}

	if _, err := s.cards.GetByID(ctx, listID, cardID); err != nil {
		return fmt.Errorf("cardService.AddPerformer: %w", err)
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return fmt.Errorf("cardService.AddPerformer: %w", err)
	}

	if err := s.cards.AddPerformer(ctx, cardID, userID); err != nil {
		return fmt.Errorf("cardService.AddPerformer: %w", err)
	}

	s.events.Publish(ctx, notify.Event{Type: notify.EventPerformerAdded, BoardID: boardID, EntityID: cardID, ActorID: actor.ID})

	return nil
}

// RemovePerformer detaches a performer. Removing a user who is not attached
// is a not-found, not a no-op.
func (s *CardService) RemovePerformer(ctx context.Context, actor *domain.User, boardID, listID, cardID, userID uuid.UUID) error {
	board, memberIDs, err := s.cardContext(ctx, boardID, listID)
	if err != nil {
		return fmt.Errorf("cardService.RemovePerformer: %w", err)
	}

	d := access.Decide(access.Request{Board: board, Actor: actor, Action: access.ActionManagePerformers, TargetUserID: userID, MemberIDs: memberIDs})
	if err := d.Err(); err != nil {
		return fmt.Errorf("cardService.RemovePerformer: %w", err)
	}

	if _, err := s.cards.GetByID(ctx, listID, cardID); err != nil {
		return fmt.Errorf("cardService.RemovePerformer: %w", err)
	}

	removed, err := s.cards.RemovePerformer(ctx, cardID, userID)
	if err != nil {
		return fmt.Errorf("cardService.RemovePerformer: %w", err)
	}
	if !removed {
		return fmt.Errorf("cardService.RemovePerformer: performer not found: %w", domain.ErrNotFound)
	}

	s.events.Publish(ctx, notify.Event{Type: notify.EventPerformerRemoved, BoardID: boardID, EntityID: cardID, ActorID: actor.ID})

	return nil
}

func (s *CardService) Performers(ctx context.Context, actor *domain.User, boardID, listID, cardID uuid.UUID) ([]*domain.User, error) {
	board, memberIDs, err := s.cardContext(ctx, boardID, listID)
	if err != nil {
		return nil, fmt.Errorf("cardService.Performers: %w", err)
	}

	d := access.Decide(access.Request{Board: board, Actor: actor, Action: access.ActionViewLists, MemberIDs: memberIDs})
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("cardService.Performers: %w", err)
	}

	if _, err := s.cards.GetByID(ctx, listID, cardID); err != nil {
		return nil, fmt.Errorf("cardService.Performers: %w", err)
	}

	performers, err := s.cards.ListPerformers(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("cardService.Performers: %w", err)
	}

	return performers, nil
}
