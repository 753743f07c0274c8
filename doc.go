// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the landbid auction server.

landbid runs a live, admin-driven auction of land plots. Teams bid against
fixed budgets on one open plot at a time; every accepted change is committed
to the database and pushed to connected clients over WebSocket.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=landbid.db PASSCODE_SALT=... ADMIN_PASSWORD=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -catalog catalog.toml

A .env file in the working directory is read as well.

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - PASSCODE_SALT (--passcode-salt): Secret for passcode digests
  - ADMIN_PASSWORD or ADMIN_PASSWORD_HASH: Admin credential (hash is bcrypt)

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite, postgres or pgx (default: sqlite)
  - CATALOG_PATH (--catalog): TOML catalog seeded into an empty database
  - SELL_COUNTDOWN (--sell-countdown): Going-once delay (default: 4s)
  - SUBSCRIBER_BUFFER (--subscriber-buffer): Events queued per client (default: 64)
  - RECONNECT_GRACE (--reconnect-grace): How long a dropped team stays online (default: 30s)
  - TEAM_TOKEN_SECRET (--token-secret): Team token secret (default: derived from PASSCODE_SALT)
  - TOKEN_TTL (--token-ttl): Team token lifetime (default: 24h)
  - LOG_LEVEL, LOG_FORMAT: slog level and text or json output

# Architecture

  - engine: The single-writer auction state machine
  - ledger: Budget and price arithmetic
  - store: Persistence of committed state
  - broadcast: Event fan-out and presence
  - handlers: HTTP and WebSocket handlers
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON and error helpers
  - seed: TOML catalog loading
  - metrics: Prometheus collectors
  - models: Domain, request/response and event types
  - auth: Passcode digests, team tokens and the admin password
  - db: Connection and schema creation
  - cliparse: Configuration parsing

The engine, HTTP server and signal handling run under one errgroup; a
SIGINT or SIGTERM drains the server and stops the engine.
*/
package main
