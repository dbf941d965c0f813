package db

import (
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT,
		address TEXT,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	// uniqueness only applies to live rows, soft-deleted ones keep their email
	`CREATE UNIQUE INDEX IF NOT EXISTS customers_live_email_idx
		ON customers (LOWER(email)) WHERE NOT is_deleted`,
	`CREATE INDEX IF NOT EXISTS customers_created_at_idx ON customers (created_at)`,
	`CREATE TABLE IF NOT EXISTS customer_events (
		id UUID PRIMARY KEY,
		customer_id UUID NOT NULL REFERENCES customers (id),
		event_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		retry_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS customer_events_pending_idx
		ON customer_events (created_at) WHERE status = 'pending'`,
}

func ConnectAndMigrate(dbURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to database")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		log.Error().Err(err).Msg("failed to ping database")
		return nil, err
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			log.Error().Err(err).Msg("failed to run migration")
			return nil, err
		}
	}

	return db, nil
}
