package events

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/customer-records-service/internal/domains/events/models"
)

type Repository interface {
	CreateEvent(ctx context.Context, arg models.CreateEventParams) (models.Event, error)
	CreateEventBatch(ctx context.Context, args []models.CreateEventParams) ([]models.Event, error)
	ClaimPendingEvents(ctx context.Context, limit int32) ([]models.Event, error)
	ReleaseEvent(ctx context.Context, id uuid.UUID) error
	GetEventWithCustomer(ctx context.Context, id uuid.UUID) (models.GetEventWithCustomerRow, error)
	UpdateEventWithRetry(ctx context.Context, arg models.UpdateEventWithRetryParams) (models.Event, error)
}

type repository struct {
	q *models.Queries
}

func NewRepository(db models.DBTX) Repository {
	return &repository{q: models.New(db)}
}

func (r *repository) CreateEvent(ctx context.Context, arg models.CreateEventParams) (models.Event, error) {
	return r.q.CreateEvent(ctx, arg)
}

// CreateEventBatch inserts each event individually. Batches are small (bulk
// creation caps at 1000) and the write is off the latency-sensitive path.
func (r *repository) CreateEventBatch(ctx context.Context, args []models.CreateEventParams) ([]models.Event, error) {
	events := make([]models.Event, 0, len(args))
	for _, arg := range args {
		event, err := r.q.CreateEvent(ctx, arg)
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
	return events, nil
}

func (r *repository) ClaimPendingEvents(ctx context.Context, limit int32) ([]models.Event, error) {
	return r.q.ClaimPendingEvents(ctx, limit)
}

func (r *repository) ReleaseEvent(ctx context.Context, id uuid.UUID) error {
	return r.q.ReleaseEvent(ctx, id)
}

func (r *repository) GetEventWithCustomer(ctx context.Context, id uuid.UUID) (models.GetEventWithCustomerRow, error) {
	return r.q.GetEventWithCustomer(ctx, id)
}

func (r *repository) UpdateEventWithRetry(ctx context.Context, arg models.UpdateEventWithRetryParams) (models.Event, error) {
	return r.q.UpdateEventWithRetry(ctx, arg)
}
