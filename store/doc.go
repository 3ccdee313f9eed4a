// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store wraps the relational database behind two capability-scoped
accessors.

Restricted carries the least-privilege connection and only reads.
Privileged carries the connection allowed to write rows the participant does
not own yet: playlist assignment, the verification step, progress updates,
ranking finalization, and researcher administration.

	ro := store.NewRestricted(readDB)
	rw := store.NewPrivileged(writeDB)

With PostgreSQL the two handles use different roles. SQLite has no roles, so
both wrap the same handle.

Writes that race are resolved in the database: playlist inserts rely on the
unique (participant, order) key, progress updates are conditional on the
expected value, and finalization is a test-and-set on is_used inside the same
transaction as the ranking insert.
*/
package store
