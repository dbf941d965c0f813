package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     sql.NullString
	Address   sql.NullString
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
