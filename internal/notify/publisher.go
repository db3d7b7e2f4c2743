// Package notify dispatches board events to interested listeners. Delivery is
// best effort: a failed publish is logged and never surfaces as the outcome
// of the operation that produced the event.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	redisstore "github.com/tabulahq/tabula/internal/store/redis"
)

// Event types emitted by the mutation services.
const (
	EventBoardUpdated     = "board_updated"
	EventBoardDeleted     = "board_deleted"
	EventMemberAdded      = "member_added"
	EventMemberRemoved    = "member_removed"
	EventListCreated      = "list_created"
	EventListRenamed      = "list_renamed"
	EventListMoved        = "list_moved"
	EventListDeleted      = "list_deleted"
	EventCardCreated      = "card_created"
	EventCardUpdated      = "card_updated"
	EventCardDeleted      = "card_deleted"
	EventPerformerAdded   = "performer_added"
	EventPerformerRemoved = "performer_removed"
)

// Event is one committed change on a board.
type Event struct {
	Type     string    `json:"type"`
	BoardID  uuid.UUID `json:"board_id"`
	EntityID uuid.UUID `json:"entity_id,omitempty"`
	ActorID  uuid.UUID `json:"actor_id,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher delivers events. Implementations must not block the caller on
// delivery failures.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// RedisPublisher fans events out on the board's redis channel, where the
// websocket hub picks them up for connected clients.
type RedisPublisher struct {
	pubsub *redisstore.PubSub
}

func NewRedisPublisher(pubsub *redisstore.PubSub) *RedisPublisher {
	return &RedisPublisher{pubsub: pubsub}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("type", ev.Type).Msg("notify: marshal event")
		return
	}

	if err := p.pubsub.Publish(ctx, redisstore.BoardChannel(ev.BoardID), payload); err != nil {
		log.Warn().Err(err).
			Str("type", ev.Type).
			Str("board_id", ev.BoardID.String()).
			Msg("notify: publish failed")
	}
}

// Nop discards all events. Used when redis is not configured and in tests.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

var _ Publisher = (*RedisPublisher)(nil)
var _ Publisher = Nop{}
