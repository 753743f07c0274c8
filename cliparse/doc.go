// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: connection string (required)
  - DatabaseType: sqlite, postgres or pgx (default: sqlite)
  - PasscodeSalt: Secret for passcode digests (required)
  - TokenSecret: Secret for team tokens (default: derived from PasscodeSalt)
  - TokenTTL: lifetime of a team token (default: 24h)
  - AdminPassword / AdminPasswordHash: admin credential, one required
  - CatalogPath: TOML catalog seeded into an empty database
  - SellCountdown: "going once" delay before a sold plot closes (default: 4s)
  - SubscriberBuffer: events queued per subscriber before eviction (default: 64)
  - ReconnectGrace: how long a disconnected team stays online (default: 30s)
  - LogLevel, LogFormat: slog level and handler (default: info, text)

# Sources

Flags take precedence over environment variables. Environment variables may
also come from a .env file in the working directory; variables already set
in the process environment are not overwritten by it.

	PORT                → -p
	DATABASE_URL        → -d
	DATABASE_TYPE       → -t
	PASSCODE_SALT       → -passcode-salt
	TEAM_TOKEN_SECRET   → -token-secret
	TOKEN_TTL           → -token-ttl
	ADMIN_PASSWORD      → -admin-password
	ADMIN_PASSWORD_HASH (env only)
	CATALOG_PATH        → -catalog
	SELL_COUNTDOWN      → -sell-countdown
	SUBSCRIBER_BUFFER   → -subscriber-buffer
	RECONNECT_GRACE     → -reconnect-grace
	LOG_LEVEL           → -log-level
	LOG_FORMAT          → -log-format
*/
package cliparse
