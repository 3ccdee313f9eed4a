// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicate        = errors.New("duplicate value")
	ErrPlaylistExists   = errors.New("playlist already assigned")
	ErrAlreadyFinalized = errors.New("code already finalized")
	ErrConflict         = errors.New("progress changed concurrently")
)

// Restricted is the least-privilege accessor. Participant-facing reads go
// through it.
type Restricted struct {
	db *sql.DB
}

func NewRestricted(db *sql.DB) *Restricted {
	return &Restricted{db: db}
}

// Privileged performs the writes that must succeed regardless of row
// ownership: playlist creation, progress updates, finalization, and
// researcher administration.
type Privileged struct {
	db *sql.DB
}

func NewPrivileged(db *sql.DB) *Privileged {
	return &Privileged{db: db}
}

// isUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY
// constraint in either supported driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// nullString stores empty optional text as NULL so CHECK constraints on
// enumerated columns accept it.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
