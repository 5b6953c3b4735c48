package repository

import (
	"context"
	"database/sql"
	"log/slog"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS campaigns (
		id         TEXT PRIMARY KEY,
		remote_id  TEXT UNIQUE,
		name       TEXT NOT NULL,
		objective  TEXT NOT NULL DEFAULT 'REACH',
		status     TEXT NOT NULL DEFAULT 'INACTIVE',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS campaigns_status_idx ON campaigns (status)`,
	`CREATE INDEX IF NOT EXISTS campaigns_name_idx ON campaigns (name)`,
	`CREATE TABLE IF NOT EXISTS creatives (
		id              TEXT PRIMARY KEY,
		remote_id       TEXT UNIQUE,
		campaign_id     TEXT NOT NULL REFERENCES campaigns (id) ON DELETE CASCADE,
		kind            TEXT NOT NULL DEFAULT 'IMAGE',
		remote_file_url TEXT,
		local_file_path TEXT NOT NULL,
		archive_key     TEXT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS sync_history (
		id            BIGSERIAL PRIMARY KEY,
		campaign_id   TEXT NOT NULL REFERENCES campaigns (id) ON DELETE CASCADE,
		operation     TEXT NOT NULL,
		ok            BOOLEAN NOT NULL,
		remote_code   BIGINT NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT '',
		duplicate     BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the tables used by the repositories when they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			slog.Info(err.Error())
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
