// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a validated Config:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

The environment is read first (struct tags, github.com/caarlos0/env), then
CLI flags override it. main loads a .env file before calling ParseFlags.

# CLI Flags

	-p               Server port
	-d               Database URL (restricted role)
	-privileged-d    Database URL (privileged role)
	-t               Database type (sqlite or postgres)
	-policy          Playlist policy (uniform or stratified)
	-session-secret  Participant session secret
	-jwt-secret      Researcher token secret

# Environment Variables

	PORT                      → -p
	DATABASE_URL              → -d
	PRIVILEGED_DATABASE_URL   → -privileged-d
	DATABASE_TYPE             → -t
	PLAYLIST_POLICY           → -policy
	SESSION_SECRET            → -session-secret
	RESEARCHER_JWT_SECRET     → -jwt-secret

Env-only settings: RESEARCHER_EMAIL, RESEARCHER_PASSWORD_HASH, COOKIE_SECURE,
SESSION_TTL, RESEARCHER_TOKEN_TTL, ALLOWED_ORIGINS (comma-separated) and
THUMBNAIL_PROXY_PATH.

# Validation

ParseFlags returns an error when:

  - DATABASE_URL is missing
  - SESSION_SECRET or RESEARCHER_JWT_SECRET is missing
  - the database type or playlist policy is unknown
  - a TTL is not positive

PRIVILEGED_DATABASE_URL defaults to DATABASE_URL.
*/
package cliparse
