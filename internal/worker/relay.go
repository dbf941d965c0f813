package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sangkips/customer-records-service/internal/domains/events"
)

const relayBatchSize = 500

// EventPublisher publishes claimed outbox events to the broker.
type EventPublisher interface {
	PublishEvent(eventID uuid.UUID) error
}

// Relay moves pending customer events from the outbox table to the queue.
type Relay struct {
	repo     events.Repository
	queue    EventPublisher
	interval time.Duration
}

func NewRelay(repo events.Repository, queue EventPublisher, interval time.Duration) *Relay {
	return &Relay{
		repo:     repo,
		queue:    queue,
		interval: interval,
	}
}

// Start polls until the context is cancelled.
func (r *Relay) Start(ctx context.Context) {
	log.Info().Msgf("starting event relay with interval %v", r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.relayPendingEvents(ctx)
		case <-ctx.Done():
			log.Info().Msg("stopping event relay")
			return
		}
	}
}

func (r *Relay) relayPendingEvents(ctx context.Context) {
	// ClaimPendingEvents flips rows to 'queued' atomically, so a second relay
	// instance cannot publish the same event
	claimed, err := r.repo.ClaimPendingEvents(ctx, relayBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("failed to claim pending events")
		return
	}

	if len(claimed) == 0 {
		return
	}

	log.Info().Int("count", len(claimed)).Msg("relaying pending customer events")

	published := 0
	for _, event := range claimed {
		if err := r.queue.PublishEvent(event.ID); err != nil {
			log.Error().Err(err).Str("event_id", event.ID.String()).Msg("failed to publish event")
			// release the claim so the next pass retries the event
			if err := r.repo.ReleaseEvent(ctx, event.ID); err != nil {
				log.Error().Err(err).Str("event_id", event.ID.String()).Msg("failed to release unpublished event")
			}
			continue
		}
		published++
	}

	log.Info().Int("published", published).Msg("event relay pass complete")
}
