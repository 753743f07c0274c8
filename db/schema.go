// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The statements are valid on both SQLite and PostgreSQL.
func CreateSchema(db *sql.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

const schema = `
-- Teams
CREATE TABLE IF NOT EXISTS team (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    passcode_digest TEXT NOT NULL UNIQUE,
    budget BIGINT NOT NULL CHECK (budget >= 0),
    spent BIGINT NOT NULL DEFAULT 0 CHECK (spent >= 0 AND spent <= budget),
    plots_won INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Plots
CREATE TABLE IF NOT EXISTS plot (
    number INTEGER PRIMARY KEY,
    category TEXT NOT NULL DEFAULT 'RESIDENTIAL',
    round INTEGER NOT NULL DEFAULT 1,
    total_area BIGINT NOT NULL DEFAULT 0,
    actual_area BIGINT NOT NULL DEFAULT 0,
    base_price BIGINT NOT NULL,
    catalog_price BIGINT NOT NULL,
    total_price BIGINT NOT NULL,
    current_bid BIGINT,
    leader_team_id TEXT REFERENCES team(id),
    purchase_price BIGINT,
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'active', 'sold', 'unsold'))
);

CREATE INDEX IF NOT EXISTS idx_plot_status ON plot(status);
CREATE INDEX IF NOT EXISTS idx_plot_round ON plot(round);

-- Bids
CREATE TABLE IF NOT EXISTS bid (
    id TEXT PRIMARY KEY,
    plot_number INTEGER NOT NULL REFERENCES plot(number),
    team_id TEXT NOT NULL REFERENCES team(id),
    amount BIGINT NOT NULL CHECK (amount > 0),
    placed_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bid_plot ON bid(plot_number, placed_at);

-- Policy cards
CREATE TABLE IF NOT EXISTS policy_card (
    round INTEGER NOT NULL,
    question INTEGER NOT NULL,
    description TEXT NOT NULL,
    target_plot INTEGER NOT NULL,
    percent REAL NOT NULL,
    neighbors TEXT NOT NULL DEFAULT '[]',
    PRIMARY KEY (round, question)
);

-- Applied policy markers for the current run
CREATE TABLE IF NOT EXISTS policy_activation (
    round INTEGER NOT NULL,
    question INTEGER NOT NULL,
    applied_at TIMESTAMP NOT NULL,
    PRIMARY KEY (round, question)
);

-- Manual valuation adjustments
CREATE TABLE IF NOT EXISTS valuation_adjustment (
    id TEXT PRIMARY KEY,
    batch_id TEXT NOT NULL,
    plot_number INTEGER NOT NULL REFERENCES plot(number),
    old_price BIGINT NOT NULL,
    new_price BIGINT NOT NULL,
    percent REAL NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_valuation_adjustment_batch ON valuation_adjustment(batch_id);

-- Auction state singleton
CREATE TABLE IF NOT EXISTS auction_state (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    status TEXT NOT NULL DEFAULT 'not_started' CHECK (status IN ('not_started', 'active', 'paused', 'finished')),
    current_plot INTEGER,
    current_round INTEGER NOT NULL DEFAULT 1,
    round_override BOOLEAN NOT NULL DEFAULT FALSE,
    active_question TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)
`
