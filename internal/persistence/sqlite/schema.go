package sqlite

import (
	"context"
	"fmt"
)

// schema is the full DDL of the slot engine, applied idempotently on startup.
// Working days and time slots cascade from their week definition so replacing
// a snapshot is a single delete plus insert.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS week_definitions (
		id            TEXT PRIMARY KEY,
		form_id       TEXT NOT NULL,
		date_of_apply TEXT NOT NULL,
		UNIQUE (form_id, date_of_apply)
	)`,
	`CREATE TABLE IF NOT EXISTS working_days (
		id                 TEXT PRIMARY KEY,
		week_definition_id TEXT NOT NULL REFERENCES week_definitions (id) ON DELETE CASCADE,
		day_of_week        INTEGER NOT NULL CHECK (day_of_week BETWEEN 0 AND 6)
	)`,
	`CREATE TABLE IF NOT EXISTS time_slots (
		id             TEXT PRIMARY KEY,
		working_day_id TEXT NOT NULL REFERENCES working_days (id) ON DELETE CASCADE,
		starting_time  INTEGER NOT NULL,
		ending_time    INTEGER NOT NULL,
		max_capacity   INTEGER NOT NULL,
		is_open        INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reservation_rules (
		id                    TEXT PRIMARY KEY,
		form_id               TEXT NOT NULL,
		date_of_apply         TEXT NOT NULL,
		max_capacity_per_slot INTEGER NOT NULL,
		duration_minutes      INTEGER NOT NULL,
		UNIQUE (form_id, date_of_apply)
	)`,
	`CREATE TABLE IF NOT EXISTS closing_days (
		id      TEXT PRIMARY KEY,
		form_id TEXT NOT NULL,
		date    TEXT NOT NULL,
		UNIQUE (form_id, date)
	)`,
	`CREATE TABLE IF NOT EXISTS slots (
		id                            TEXT PRIMARY KEY,
		form_id                       TEXT NOT NULL,
		date                          TEXT NOT NULL,
		starts_at                     TEXT NOT NULL,
		ends_at                       TEXT NOT NULL,
		is_open                       INTEGER NOT NULL,
		is_specific                   INTEGER NOT NULL,
		max_capacity                  INTEGER NOT NULL,
		nb_remaining_places           INTEGER NOT NULL,
		nb_potential_remaining_places INTEGER NOT NULL,
		nb_places_taken               INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id           TEXT PRIMARY KEY,
		form_id      TEXT NOT NULL,
		is_cancelled INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS appointment_slots (
		appointment_id TEXT NOT NULL REFERENCES appointments (id) ON DELETE CASCADE,
		slot_id        TEXT NOT NULL,
		nb_places      INTEGER NOT NULL,
		PRIMARY KEY (appointment_id, slot_id)
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id                     TEXT PRIMARY KEY,
		form_id                TEXT NOT NULL,
		starting_validity_date TEXT NOT NULL,
		ending_validity_date   TEXT NOT NULL,
		comment                TEXT NOT NULL,
		creator_user_name      TEXT NOT NULL,
		creation_date          TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_week_definitions_form ON week_definitions (form_id)`,
	`CREATE INDEX IF NOT EXISTS idx_slots_form_starts_at ON slots (form_id, starts_at)`,
	`CREATE INDEX IF NOT EXISTS idx_closing_days_form_date ON closing_days (form_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_appointment_slots_slot ON appointment_slots (slot_id)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_form ON comments (form_id)`,
}

// Migrate creates every table and index of the engine if missing.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	for _, statement := range schema {
		if _, err := cp.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
