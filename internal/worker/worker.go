package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"github.com/sangkips/customer-records-service/internal/domains/events"
	eventsModels "github.com/sangkips/customer-records-service/internal/domains/events/models"
	"github.com/sangkips/customer-records-service/internal/queue"
)

const maxNotifyRetries = 3

type Worker struct {
	rabbitMQ *queue.RabbitMQ
	repo     events.Repository
	notifier Notifier
}

func NewWorker(rabbitMQ *queue.RabbitMQ, db eventsModels.DBTX, notifier Notifier) *Worker {
	return &Worker{
		rabbitMQ: rabbitMQ,
		repo:     events.NewRepository(db),
		notifier: notifier,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	msgs, err := w.rabbitMQ.Consume()
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	log.Info().Msg("worker started, waiting for customer events")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("worker shutting down")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("rabbitMQ channel closed")
			}
			w.processEvent(ctx, d)
		}
	}
}

func (w *Worker) processEvent(ctx context.Context, d amqp091.Delivery) {
	var msg queue.CustomerEventMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		log.Error().Err(err).Msg("failed to unmarshal event message")
		d.Reject(false)
		return
	}

	log.Info().Str("event_id", msg.EventID.String()).Msg("processing customer event")

	event, err := w.repo.GetEventWithCustomer(ctx, msg.EventID)
	if err != nil {
		log.Error().Err(err).Str("event_id", msg.EventID.String()).Msg("failed to fetch event")
		// missing rows are rejected, transient DB errors go back on the queue
		if errors.Is(err, sql.ErrNoRows) {
			d.Reject(false)
		} else {
			d.Nack(false, true)
		}
		return
	}

	content := RenderNotification(NotificationTemplate(event.EventType), event)

	providerMsgID, err := w.notifier.Notify(content, event.CustomerEmail)
	if err != nil {
		w.handleFailure(ctx, d, event, err)
		return
	}

	w.handleSuccess(ctx, d, event, providerMsgID)
}

func (w *Worker) handleSuccess(ctx context.Context, d amqp091.Delivery, event eventsModels.GetEventWithCustomerRow, providerMsgID string) {
	_, err := w.repo.UpdateEventWithRetry(ctx, eventsModels.UpdateEventWithRetryParams{
		ID:        event.ID,
		Status:    eventsModels.EventStatusDelivered,
		LastError: sql.NullString{},
	})
	if err != nil {
		log.Error().Err(err).Str("event_id", event.ID.String()).Msg("failed to update status to delivered")
		// the notification went out, ack so we do not deliver it twice
		d.Ack(false)
		return
	}

	log.Info().
		Str("event_id", event.ID.String()).
		Str("provider_message_id", providerMsgID).
		Msg("notification delivered")
	d.Ack(false)
}

func (w *Worker) handleFailure(ctx context.Context, d amqp091.Delivery, event eventsModels.GetEventWithCustomerRow, notifyErr error) {
	log.Warn().Err(notifyErr).Str("event_id", event.ID.String()).Msg("failed to deliver notification")

	updated, err := w.repo.UpdateEventWithRetry(ctx, eventsModels.UpdateEventWithRetryParams{
		ID:     event.ID,
		Status: eventsModels.EventStatusFailed,
		LastError: sql.NullString{
			String: notifyErr.Error(),
			Valid:  true,
		},
	})
	if err != nil {
		log.Error().Err(err).Str("event_id", event.ID.String()).Msg("failed to update status to failed")
		d.Nack(false, true)
		return
	}

	if updated.RetryCount < maxNotifyRetries {
		log.Info().
			Str("event_id", event.ID.String()).
			Int32("retry_count", updated.RetryCount).
			Msg("requeueing event for retry")
		// Sleep a bit to prevent tight loop
		time.Sleep(1 * time.Second)
		d.Nack(false, true)
	} else {
		log.Warn().Str("event_id", event.ID.String()).Msg("max retries reached, giving up")
		d.Ack(false)
	}
}
