package messenger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/google/uuid"

	"github.com/tabulahq/tabula/internal/domain"
)

// CardReminderRepository is the subset of domain.CardRepository used by the
// reminder scheduler.
type CardReminderRepository interface {
	DueReminders(ctx context.Context, now time.Time) ([]*domain.Card, error)
	ClearReminder(ctx context.Context, cardID uuid.UUID) error
}

// UserLookup resolves the responsible person named in a reminder.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Scheduler polls for cards whose reminder time has passed and posts each one
// to the configured channel. A reminder is cleared only after it was delivered,
// so a failed send is retried on the next tick.
type Scheduler struct {
	cards        CardReminderRepository
	users        UserLookup
	messenger    Messenger
	channelID    string
	pollInterval time.Duration
}

// SchedulerOption configures optional Scheduler parameters.
type SchedulerOption func(*Scheduler)

// WithPollInterval sets the interval at which due reminders are checked.
func WithPollInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.pollInterval = d
	}
}

// NewScheduler creates a Scheduler with the required dependencies.
func NewScheduler(
	cards CardReminderRepository,
	users UserLookup,
	msg Messenger,
	channelID string,
	opts ...SchedulerOption,
) *Scheduler {
	s := &Scheduler{
		cards:        cards,
		users:        users,
		messenger:    msg,
		channelID:    channelID,
		pollInterval: time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the polling loop. It blocks until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.processDueReminders(ctx)
		}
	}
}

// processDueReminders delivers and clears every reminder that has come due.
func (s *Scheduler) processDueReminders(ctx context.Context) {
	due, err := s.cards.DueReminders(ctx, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("list due reminders")
		return
	}

	for _, card := range due {
		if _, err := s.messenger.SendMessage(ctx, s.channelID, s.reminderText(ctx, card)); err != nil {
			log.Error().Err(err).Str("card_id", card.ID.String()).Msg("send reminder")
			continue
		}

		if err := s.cards.ClearReminder(ctx, card.ID); err != nil {
			log.Error().Err(err).Str("card_id", card.ID.String()).Msg("clear reminder")
			continue
		}

		log.Info().
			Str("card_id", card.ID.String()).
			Str("platform", s.messenger.Platform()).
			Msg("reminder sent")
	}
}

// reminderText renders the reminder message for one card.
func (s *Scheduler) reminderText(ctx context.Context, card *domain.Card) string {
	who := "unassigned"
	if user, err := s.users.GetByID(ctx, card.ResponsibleID); err == nil {
		who = user.Username
	}

	text := fmt.Sprintf("Reminder: card %q (responsible: %s)", card.Title, who)
	if card.DueDate != nil {
		text += " is due " + card.DueDate.Format("2006-01-02 15:04")
	}
	return text
}
