// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Drivers

Open accepts three database types:

  - sqlite: modernc.org/sqlite (pure Go, default; limited to one connection)
  - postgres: github.com/lib/pq
  - pgx: github.com/jackc/pgx/v5/stdlib

	conn, err := db.Open(ctx, "sqlite", "file:landbid.db")

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same statements run on SQLite and PostgreSQL.

# Tables

  - team: budget, spend and passcode digest per team
  - plot: catalog data plus the live price envelope and status
  - bid: append-only accepted bids
  - policy_card: round-scoped valuation shocks
  - policy_activation: cards applied in the current run
  - valuation_adjustment: manual admin adjustments, grouped by batch
  - auction_state: the lifecycle singleton (id = 1)

# Relationships

	team 1──* bid
	plot 1──* bid
	team 1──* plot (leader_team_id)
	plot 1──* valuation_adjustment

team.spent is guarded by CHECK (spent <= budget) so a defective write fails
instead of corrupting a budget.
*/
package db
