package database

import (
	"context"
	"fmt"
)

// schemaStatements create the tables used by BookingRepository. Every
// statement is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS bookings (
		id                TEXT PRIMARY KEY,
		type              TEXT NOT NULL CHECK (type IN ('Cruise', 'Hotel')),
		item_id           TEXT NOT NULL,
		item_name         TEXT NOT NULL,
		agent_id          TEXT NOT NULL,
		agent_name        TEXT NOT NULL DEFAULT '',
		customer_name     TEXT NOT NULL,
		customer_email    TEXT NOT NULL,
		customer_phone    TEXT NOT NULL DEFAULT '',
		booking_date      TIMESTAMPTZ NOT NULL,
		travel_date       TIMESTAMPTZ NOT NULL,
		total_amount      NUMERIC(12, 2) NOT NULL CHECK (total_amount > 0 AND total_amount <= 10000000),
		commission_amount NUMERIC(12, 2) NOT NULL DEFAULT 0 CHECK (commission_amount >= 0),
		payment_status    TEXT NOT NULL CHECK (payment_status IN ('Pending', 'Paid', 'Failed', 'Refunded')),
		status            TEXT NOT NULL CHECK (status IN ('Pending', 'Confirmed', 'Cancelled', 'Completed')),
		guests            INTEGER NOT NULL CHECK (guests BETWEEN 1 AND 20),
		special_requests  TEXT NOT NULL DEFAULT '',
		region            TEXT NOT NULL DEFAULT '',
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (booking_date < travel_date),
		CHECK (commission_amount <= total_amount * 0.25)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_agent_id ON bookings (agent_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS booking_events (
		id          TEXT PRIMARY KEY,
		booking_id  TEXT NOT NULL REFERENCES bookings (id),
		seq         INTEGER NOT NULL,
		type        TEXT NOT NULL,
		description TEXT NOT NULL,
		user_id     TEXT NOT NULL DEFAULT '',
		user_name   TEXT NOT NULL DEFAULT '',
		metadata    JSONB,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (booking_id, seq)
	)`,
	// the audit trail is append-only
	`CREATE OR REPLACE RULE booking_events_no_update AS ON UPDATE TO booking_events DO INSTEAD NOTHING`,
	`CREATE OR REPLACE RULE booking_events_no_delete AS ON DELETE TO booking_events DO INSTEAD NOTHING`,
}

// Migrate applies the booking schema
func Migrate(ctx context.Context, db DB) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

// Reset removes every booking and event. Only used by the development
// maintenance command.
func Reset(ctx context.Context, db DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// TRUNCATE bypasses the no-delete rule
	if _, err := tx.ExecContext(ctx, `TRUNCATE booking_events, bookings`); err != nil {
		return fmt.Errorf("failed to truncate booking tables: %w", err)
	}
	return tx.Commit()
}
