// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections and schema creation.

# Connections

Open selects the driver by database type:

	conn, err := db.Open(db.TypePostgres, cfg.DatabaseURL)  // github.com/lib/pq
	conn, err := db.Open(db.TypeSQLite, "file:study.db")     // modernc.org/sqlite

The server opens two handles: one for the restricted role and one for the
privileged role. With SQLite both capabilities share a single handle.

# Schema Creation

	if err := db.CreateSchema(conn, cfg.DatabaseType); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - participant_codes: one-time codes, usage flags, progress counter
  - videos: stimulus catalog, soft-deleted via is_active
  - video_orders: per-participant playlist, 1-based "order"
  - rankings: per-participant final preference order, 1-based rank

# Relationships

	participant_codes 1──* video_orders *──1 videos
	participant_codes 1──* rankings     *──1 videos

Nothing cascades: codes and videos are only ever soft-deleted, so
assignments and rankings stay as the historical record.
*/
package db
