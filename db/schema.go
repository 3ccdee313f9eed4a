// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB, dbType string) error {
	ddl, err := schemaFor(dbType)
	if err != nil {
		return err
	}

	_, err = db.Exec(ddl)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

func schemaFor(dbType string) (string, error) {
	switch dbType {
	case TypePostgres:
		return postgresSchema, nil
	case TypeSQLite:
		return sqliteSchema, nil
	}
	return "", fmt.Errorf("unsupported database type %q", dbType)
}

const postgresSchema = `
-- Participant codes
CREATE TABLE IF NOT EXISTS participant_codes (
    id TEXT PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    "group" INTEGER NOT NULL CHECK ("group" IN (1, 2)),
    is_used BOOLEAN NOT NULL DEFAULT FALSE,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    progress_counter INTEGER NOT NULL DEFAULT 0,
    used_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_participant_codes_active ON participant_codes(is_active);

-- Video catalog
CREATE TABLE IF NOT EXISTS videos (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL UNIQUE,
    url TEXT NOT NULL UNIQUE,
    "group" INTEGER NOT NULL CHECK ("group" IN (1, 2)),
    sex TEXT CHECK (sex IN ('m', 'f')),
    nar_level TEXT CHECK (nar_level IN ('high', 'low')),
    thumbnail_url TEXT,
    thumbnail_proxy_url TEXT,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_videos_group_active ON videos("group", is_active);

-- Playlist assignments
CREATE TABLE IF NOT EXISTS video_orders (
    participant_id TEXT NOT NULL REFERENCES participant_codes(id),
    video_id TEXT NOT NULL REFERENCES videos(id),
    "order" INTEGER NOT NULL CHECK ("order" >= 1),
    PRIMARY KEY (participant_id, video_id),
    UNIQUE (participant_id, "order")
);

-- Rankings
CREATE TABLE IF NOT EXISTS rankings (
    participant_id TEXT NOT NULL REFERENCES participant_codes(id),
    video_id TEXT NOT NULL REFERENCES videos(id),
    rank INTEGER NOT NULL CHECK (rank >= 1),
    PRIMARY KEY (participant_id, video_id),
    UNIQUE (participant_id, rank)
);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS participant_codes (
    id TEXT PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    "group" INTEGER NOT NULL CHECK ("group" IN (1, 2)),
    is_used BOOLEAN NOT NULL DEFAULT FALSE,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    progress_counter INTEGER NOT NULL DEFAULT 0,
    used_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_participant_codes_active ON participant_codes(is_active);

CREATE TABLE IF NOT EXISTS videos (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL UNIQUE,
    url TEXT NOT NULL UNIQUE,
    "group" INTEGER NOT NULL CHECK ("group" IN (1, 2)),
    sex TEXT CHECK (sex IN ('m', 'f')),
    nar_level TEXT CHECK (nar_level IN ('high', 'low')),
    thumbnail_url TEXT,
    thumbnail_proxy_url TEXT,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_videos_group_active ON videos("group", is_active);

CREATE TABLE IF NOT EXISTS video_orders (
    participant_id TEXT NOT NULL REFERENCES participant_codes(id),
    video_id TEXT NOT NULL REFERENCES videos(id),
    "order" INTEGER NOT NULL CHECK ("order" >= 1),
    PRIMARY KEY (participant_id, video_id),
    UNIQUE (participant_id, "order")
);

CREATE TABLE IF NOT EXISTS rankings (
    participant_id TEXT NOT NULL REFERENCES participant_codes(id),
    video_id TEXT NOT NULL REFERENCES videos(id),
    rank INTEGER NOT NULL CHECK (rank >= 1),
    PRIMARY KEY (participant_id, video_id),
    UNIQUE (participant_id, rank)
);
`
