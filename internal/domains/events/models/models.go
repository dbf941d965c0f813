package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeCustomerCreated = "customer.created"
	EventTypeCustomerUpdated = "customer.updated"
	EventTypeCustomerDeleted = "customer.deleted"
)

// Event statuses: pending (awaiting relay), queued (published to the broker),
// delivered, failed.
const (
	EventStatusPending   = "pending"
	EventStatusQueued    = "queued"
	EventStatusDelivered = "delivered"
	EventStatusFailed    = "failed"
)

type Event struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	EventType  string
	Status     string
	RetryCount int32
	LastError  sql.NullString
	CreatedAt  time.Time
}
