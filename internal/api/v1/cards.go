package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/tabulahq/tabula/internal/domain"
	"github.com/tabulahq/tabula/internal/service"
)

type ListCardsInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	ListID  uuid.UUID `path:"listID" doc:"List ID"`
}

type ListCardsOutput struct {
	Body []*domain.Card
}

type CreateCardInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	ListID  uuid.UUID `path:"listID" doc:"List ID"`
	Body    struct {
		Title         string          `json:"title" minLength:"1" maxLength:"255" doc:"Card title"`
		Description   string          `json:"description,omitempty" doc:"Card description"`
		Priority      domain.Priority `json:"priority,omitempty" enum:"low,medium,high" doc:"Priority, defaults to medium"`
		ResponsibleID uuid.UUID       `json:"responsible_person_id,omitempty" doc:"Responsible user, defaults to the caller"`
		DueDate       *time.Time      `json:"due_date,omitempty" doc:"Due date"`
		ReminderAt    *time.Time      `json:"reminder_at,omitempty" doc:"Reminder timestamp"`
	}
}

type CreateCardOutput struct {
	Body *domain.Card
}

type GetCardInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	ListID  uuid.UUID `path:"listID" doc:"List ID"`
	CardID  uuid.UUID `path:"cardID" doc:"Card ID"`
}

type GetCardOutput struct {
	Body *service.CardDetail
}

type UpdateCardInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	ListID  uuid.UUID `path:"listID" doc:"List ID"`
	CardID  uuid.UUID `path:"cardID" doc:"Card ID"`
	Body    struct {
		Title         *string          `json:"title,omitempty" maxLength:"255" doc:"Card title"`
		Description   *string          `json:"description,omitempty" doc:"Card description"`
		Priority      *domain.Priority `json:"priority,omitempty" enum:"low,medium,high" doc:"Priority"`
		ResponsibleID *uuid.UUID       `json:"responsible_person_id,omitempty" doc:"Responsible user"`
		DueDate       *time.Time       `json:"due_date,omitempty" doc:"Due date"`
		ReminderAt    *time.Time       `json:"reminder_at,omitempty" doc:"Reminder timestamp"`
	}
}

type UpdateCardOutput struct {
	Body *domain.Card
}

type DeleteCardInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	ListID  uuid.UUID `path:"listID" doc:"List ID"`
	CardID  uuid.UUID `path:"cardID" doc:"Card ID"`
}

type PerformersInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	ListID  uuid.UUID `path:"listID" doc:"List ID"`
	CardID  uuid.UUID `path:"cardID" doc:"Card ID"`
}

type PerformersOutput struct {
	Body []*domain.User
}

type PerformerInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	ListID  uuid.UUID `path:"listID" doc:"List ID"`
	CardID  uuid.UUID `path:"cardID" doc:"Card ID"`
	UserID  uuid.UUID `path:"userID" doc:"Performer user ID"`
}

func RegisterCardRoutes(api huma.API, store DataStore, cards *service.CardService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-cards",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}/lists/{listID}/cards",
		Summary:     "List the cards on a list",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *ListCardsInput) (*ListCardsOutput, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		out, err := cards.ListByList(ctx, actor, input.BoardID, input.ListID)
		if err != nil {
			return nil, mapDomainError(err)
		}

		return &ListCardsOutput{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-card",
		Method:      http.MethodPost,
		Path:        "/boards/{boardID}/lists/{listID}/cards",
		Summary:     "Create a card",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *CreateCardInput) (*CreateCardOutput, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		card, err := cards.Create(ctx, actor, input.BoardID, input.ListID, service.CardInput{
			Title:         input.Body.Title,
			Description:   input.Body.Description,
			Priority:      input.Body.Priority,
			ResponsibleID: input.Body.ResponsibleID,
			DueDate:       input.Body.DueDate,
			ReminderAt:    input.Body.ReminderAt,
		})
		if err != nil {
			return nil, mapDomainError(err)
		}

		return &CreateCardOutput{Body: card}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-card",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}/lists/{listID}/cards/{cardID}",
		Summary:     "Get a card with its performers",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *GetCardInput) (*GetCardOutput, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		detail, err := cards.Get(ctx, actor, input.BoardID, input.ListID, input.CardID)
		if err != nil {
			return nil, mapDomainError(err)
		}

		sanitizeUsers(detail.Performers)
		return &GetCardOutput{Body: detail}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-card",
		Method:      http.MethodPatch,
		Path:        "/boards/{boardID}/lists/{listID}/cards/{cardID}",
		Summary:     "Update card fields",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *UpdateCardInput) (*UpdateCardOutput, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		card, err := cards.Update(ctx, actor, input.BoardID, input.ListID, input.CardID, service.CardPatch{
			Title:         input.Body.Title,
			Description:   input.Body.Description,
			Priority:      input.Body.Priority,
			ResponsibleID: input.Body.ResponsibleID,
			DueDate:       input.Body.DueDate,
			ReminderAt:    input.Body.ReminderAt,
		})
		if err != nil {
			return nil, mapDomainError(err)
		}

		return &UpdateCardOutput{Body: card}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-card",
		Method:        http.MethodDelete,
		Path:          "/boards/{boardID}/lists/{listID}/cards/{cardID}",
		Summary:       "Delete a card",
		Tags:          []string{"Cards"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *DeleteCardInput) (*struct{}, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		if err := cards.Delete(ctx, actor, input.BoardID, input.ListID, input.CardID); err != nil {
			return nil, mapDomainError(err)
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-card-performers",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}/lists/{listID}/cards/{cardID}/performers",
		Summary:     "List a card's performers",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *PerformersInput) (*PerformersOutput, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		performers, err := cards.Performers(ctx, actor, input.BoardID, input.ListID, input.CardID)
		if err != nil {
			return nil, mapDomainError(err)
		}

		return &PerformersOutput{Body: sanitizeUsers(performers)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-card-performer",
		Method:        http.MethodPost,
		Path:          "/boards/{boardID}/lists/{listID}/cards/{cardID}/performers/{userID}",
		Summary:       "Attach a performer to a card",
		Tags:          []string{"Cards"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *PerformerInput) (*struct{}, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		if err := cards.AddPerformer(ctx, actor, input.BoardID, input.ListID, input.CardID, input.UserID); err != nil {
			return nil, mapDomainError(err)
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "remove-card-performer",
		Method:        http.MethodDelete,
		Path:          "/boards/{boardID}/lists/{listID}/cards/{cardID}/performers/{userID}",
		Summary:       "Detach a performer from a card",
		Tags:          []string{"Cards"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *PerformerInput) (*struct{}, error) {
		actor, err := actorFromContext(ctx, store.Users())
		if err != nil {
			return nil, err
		}

		if err := cards.RemovePerformer(ctx, actor, input.BoardID, input.ListID, input.CardID, input.UserID); err != nil {
			return nil, mapDomainError(err)
		}

		return nil, nil
	})
}
