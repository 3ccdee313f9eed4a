// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the stimulus-rank API server.

stimulus-rank runs a video ranking study: each participant code receives a
randomized playlist, watches it one video at a time, and submits a single
ranking of everything watched. Researchers manage codes and the video
catalog and export each participant's ranking as CSV.

# Starting the Server

Configuration comes from the environment (a .env file is loaded when
present) and can be overridden with flags:

	DATABASE_URL="file:study.db?_pragma=foreign_keys(1)" go run .

	go run . -t postgres -d "postgres://reader@..." -privileged-d "postgres://writer@..."

# Configuration

Required settings:

  - DATABASE_URL (-d): restricted-role connection string
  - SESSION_SECRET (--session-secret): participant session HMAC key
  - RESEARCHER_JWT_SECRET (--jwt-secret): researcher token signing key

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - PRIVILEGED_DATABASE_URL (--privileged-d): privileged-role connection (default: DATABASE_URL)
  - PLAYLIST_POLICY (--policy): uniform or stratified (default: uniform)
  - RESEARCHER_EMAIL, RESEARCHER_PASSWORD_HASH: researcher login (see stimctl hash-password)
  - COOKIE_SECURE, SESSION_TTL, RESEARCHER_TOKEN_TTL, ALLOWED_ORIGINS, THUMBNAIL_PROXY_PATH

# Architecture

  - handlers: HTTP request handlers (participant, export, researcher)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers, researcher auth
  - experiment: playlist selection, progress and ranking rules
  - store: capability-split data access (Restricted, Privileged)
  - export: results CSV rendering
  - models: Request/response and domain types
  - auth: codes, session tokens, researcher credentials
  - db: Connection and schema creation
  - cliparse: Configuration parsing
  - cmd/stimctl: operator CLI

See package documentation for each component.
*/
package main
