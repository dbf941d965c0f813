package models

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const createEvent = `
INSERT INTO customer_events (id, customer_id, event_type)
VALUES ($1, $2, $3)
RETURNING id, customer_id, event_type, status, retry_count, last_error, created_at`

type CreateEventParams struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	EventType  string
}

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	row := q.db.QueryRowContext(ctx, createEvent, arg.ID, arg.CustomerID, arg.EventType)
	var e Event
	err := row.Scan(
		&e.ID,
		&e.CustomerID,
		&e.EventType,
		&e.Status,
		&e.RetryCount,
		&e.LastError,
		&e.CreatedAt,
	)
	return e, err
}

const claimPendingEvents = `
UPDATE customer_events
SET status = 'queued'
WHERE id IN (
	SELECT id FROM customer_events
	WHERE status = 'pending'
	ORDER BY created_at, id
	LIMIT $1
	FOR UPDATE SKIP LOCKED
)
RETURNING id, customer_id, event_type, status, retry_count, last_error, created_at`

// ClaimPendingEvents atomically moves a batch of pending events to queued so
// concurrent relays never publish the same event twice.
func (q *Queries) ClaimPendingEvents(ctx context.Context, limit int32) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, claimPendingEvents, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.ID,
			&e.CustomerID,
			&e.EventType,
			&e.Status,
			&e.RetryCount,
			&e.LastError,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

const releaseEvent = `
UPDATE customer_events
SET status = 'pending'
WHERE id = $1 AND status = 'queued'`

// ReleaseEvent puts a claimed event back in the pending state so a later
// relay pass picks it up again. A no-op once the event has moved on.
func (q *Queries) ReleaseEvent(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, releaseEvent, id)
	return err
}

const getEventWithCustomer = `
SELECT e.id, e.customer_id, e.event_type, e.status, e.retry_count, e.last_error, e.created_at,
       c.name, c.email, c.phone
FROM customer_events e
JOIN customers c ON c.id = e.customer_id
WHERE e.id = $1`

type GetEventWithCustomerRow struct {
	ID            uuid.UUID
	CustomerID    uuid.UUID
	EventType     string
	Status        string
	RetryCount    int32
	LastError     sql.NullString
	CreatedAt     time.Time
	CustomerName  string
	CustomerEmail string
	CustomerPhone sql.NullString
}

// GetEventWithCustomer joins the customer row regardless of its soft-delete
// flag, deletion events still need the customer's contact details.
func (q *Queries) GetEventWithCustomer(ctx context.Context, id uuid.UUID) (GetEventWithCustomerRow, error) {
	row := q.db.QueryRowContext(ctx, getEventWithCustomer, id)
	var r GetEventWithCustomerRow
	err := row.Scan(
		&r.ID,
		&r.CustomerID,
		&r.EventType,
		&r.Status,
		&r.RetryCount,
		&r.LastError,
		&r.CreatedAt,
		&r.CustomerName,
		&r.CustomerEmail,
		&r.CustomerPhone,
	)
	return r, err
}

const updateEventWithRetry = `
UPDATE customer_events
SET status = $2,
    last_error = $3,
    retry_count = retry_count + CASE WHEN $2 = 'failed' THEN 1 ELSE 0 END
WHERE id = $1
RETURNING id, customer_id, event_type, status, retry_count, last_error, created_at`

type UpdateEventWithRetryParams struct {
	ID        uuid.UUID
	Status    string
	LastError sql.NullString
}

func (q *Queries) UpdateEventWithRetry(ctx context.Context, arg UpdateEventWithRetryParams) (Event, error) {
	row := q.db.QueryRowContext(ctx, updateEventWithRetry, arg.ID, arg.Status, arg.LastError)
	var e Event
	err := row.Scan(
		&e.ID,
		&e.CustomerID,
		&e.EventType,
		&e.Status,
		&e.RetryCount,
		&e.LastError,
		&e.CreatedAt,
	)
	return e, err
}
