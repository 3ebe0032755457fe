package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the Postgres driver.
	_ "github.com/lib/pq"

	"github.com/Team1-AD-project/EcoGoProject-sub000/internal/profile"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a Postgres database specified by the DSN in the profile.
func NewDB(profile *profile.Profile) (*DB, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	pgDB, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	return &DB{db: pgDB, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

var migrationDDL = []string{
	`CREATE TABLE IF NOT EXISTS chat_conversation (
		id BIGSERIAL PRIMARY KEY,
		conversation_id TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL,
		intent TEXT NOT NULL DEFAULT '',
		slots_json TEXT NOT NULL DEFAULT '',
		created_ts BIGINT NOT NULL,
		updated_ts BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chat_message (
		id BIGSERIAL PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		role TEXT NOT NULL,
		text TEXT NOT NULL,
		created_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_message_conversation_id ON chat_message (conversation_id)`,
	`CREATE TABLE IF NOT EXISTS chat_booking (
		id BIGSERIAL PRIMARY KEY,
		booking_id TEXT NOT NULL UNIQUE,
		trip_id TEXT NOT NULL DEFAULT '',
		user_id TEXT NOT NULL,
		from_name TEXT NOT NULL,
		to_name TEXT NOT NULL,
		depart_at TEXT NOT NULL,
		passengers INTEGER NOT NULL,
		status TEXT NOT NULL,
		created_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_booking_user_id ON chat_booking (user_id)`,
	`CREATE TABLE IF NOT EXISTS user_profile (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		nickname TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		faculty TEXT NOT NULL DEFAULT '',
		total_carbon DOUBLE PRECISION NOT NULL DEFAULT 0,
		current_points INTEGER NOT NULL DEFAULT 0,
		total_points INTEGER NOT NULL DEFAULT 0,
		total_trips INTEGER NOT NULL DEFAULT 0,
		total_distance DOUBLE PRECISION NOT NULL DEFAULT 0,
		green_days INTEGER NOT NULL DEFAULT 0,
		weekly_rank INTEGER NOT NULL DEFAULT 0,
		updated_ts BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id BIGSERIAL PRIMARY KEY,
		audit_id TEXT NOT NULL UNIQUE,
		actor_user_id TEXT NOT NULL,
		action TEXT NOT NULL,
		target_user_id TEXT NOT NULL,
		details_json TEXT NOT NULL DEFAULT '',
		created_ts BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notification (
		id BIGSERIAL PRIMARY KEY,
		notification_id TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		created_ts BIGINT NOT NULL
	)`,
}

// Migrate creates the schema if it does not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	for _, ddl := range migrationDDL {
		if _, err := d.db.ExecContext(ctx, ddl); err != nil {
			return errors.Wrap(err, "failed to run migration")
		}
	}
	return nil
}
