// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/landbid/models"
)

// ErrNotFound is returned when a singleton row does not exist yet.
var ErrNotFound = errors.New("not found")

// Store reads and writes auction rows through database/sql.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Writer is the set of mutations available inside RunInTx.
type Writer interface {
	InsertBid(ctx context.Context, bid models.Bid) error
	UpdatePlot(ctx context.Context, plot models.Plot) error
	UpdateTeam(ctx context.Context, team models.Team) error
	SaveState(ctx context.Context, state models.AuctionState) error
	InsertPolicyActivation(ctx context.Context, key models.PolicyKey, at time.Time) error
	InsertAdjustment(ctx context.Context, adj models.Adjustment) error
	DeleteAdjustmentBatch(ctx context.Context, batchID string) error
	ResetRun(ctx context.Context) error
	InsertTeam(ctx context.Context, team models.Team) error
	InsertPlot(ctx context.Context, plot models.Plot) error
	InsertPolicyCard(ctx context.Context, card models.PolicyCard) error
}

// RunInTx runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back otherwise, including when fn panics.
func (s *Store) RunInTx(ctx context.Context, fn func(Writer) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&txWriter{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// HasTeams reports whether any team row exists.
func (s *Store) HasTeams(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM team").Scan(&count); err != nil {
		return false, fmt.Errorf("count teams: %w", err)
	}
	return count > 0, nil
}

func (s *Store) LoadState(ctx context.Context) (models.AuctionState, error) {
	var st models.AuctionState
	var currentPlot sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT status, current_plot, current_round, round_override, active_question, updated_at
		FROM auction_state
		WHERE id = 1
	`).Scan(&st.Status, &currentPlot, &st.CurrentRound, &st.RoundOverride, &st.ActiveQuestion, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		return st, ErrNotFound
	}
	if err != nil {
		return st, fmt.Errorf("load auction state: %w", err)
	}

	if currentPlot.Valid {
		n := int(currentPlot.Int64)
		st.CurrentPlot = &n
	}
	return st, nil
}

func (s *Store) ListTeams(ctx context.Context) ([]models.Team, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, passcode_digest, budget, spent, plots_won, created_at
		FROM team
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query teams: %w", err)
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.PasscodeDigest, &t.Budget, &t.Spent, &t.PlotsWon, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (s *Store) ListPlots(ctx context.Context) ([]models.Plot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT number, category, round, total_area, actual_area, base_price, catalog_price,
		       total_price, current_bid, leader_team_id, purchase_price, status
		FROM plot
		ORDER BY number
	`)
	if err != nil {
		return nil, fmt.Errorf("query plots: %w", err)
	}
	defer rows.Close()

	var plots []models.Plot
	for rows.Next() {
		var p models.Plot
		err := rows.Scan(&p.Number, &p.Category, &p.Round, &p.TotalArea, &p.ActualArea, &p.BasePrice,
			&p.CatalogPrice, &p.TotalPrice, &p.CurrentBid, &p.LeaderTeamID, &p.PurchasePrice, &p.Status)
		if err != nil {
			return nil, fmt.Errorf("scan plot: %w", err)
		}
		plots = append(plots, p)
	}
	return plots, rows.Err()
}

func (s *Store) ListPolicyCards(ctx context.Context) ([]models.PolicyCard, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT round, question, description, target_plot, percent, neighbors
		FROM policy_card
		ORDER BY round, question
	`)
	if err != nil {
		return nil, fmt.Errorf("query policy cards: %w", err)
	}
	defer rows.Close()

	var cards []models.PolicyCard
	for rows.Next() {
		var c models.PolicyCard
		var neighbors string
		if err := rows.Scan(&c.Round, &c.Question, &c.Description, &c.Effect.Target, &c.Effect.Percent, &neighbors); err != nil {
			return nil, fmt.Errorf("scan policy card: %w", err)
		}
		if err := json.Unmarshal([]byte(neighbors), &c.Effect.Neighbors); err != nil {
			return nil, fmt.Errorf("decode neighbors for card %d/%d: %w", c.Round, c.Question, err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (s *Store) ListPolicyActivations(ctx context.Context) ([]models.PolicyKey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT round, question
		FROM policy_activation
		ORDER BY round, question
	`)
	if err != nil {
		return nil, fmt.Errorf("query policy activations: %w", err)
	}
	defer rows.Close()

	var keys []models.PolicyKey
	for rows.Next() {
		var k models.PolicyKey
		if err := rows.Scan(&k.Round, &k.Question); err != nil {
			return nil, fmt.Errorf("scan policy activation: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// ListAdjustments returns manual adjustments oldest first.
func (s *Store) ListAdjustments(ctx context.Context) ([]models.Adjustment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, batch_id, plot_number, old_price, new_price, percent, created_at
		FROM valuation_adjustment
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query adjustments: %w", err)
	}
	defer rows.Close()

	var adjs []models.Adjustment
	for rows.Next() {
		var a models.Adjustment
		if err := rows.Scan(&a.ID, &a.BatchID, &a.PlotNumber, &a.OldPrice, &a.NewPrice, &a.Percent, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan adjustment: %w", err)
		}
		adjs = append(adjs, a)
	}
	return adjs, rows.Err()
}

// ListBids returns the accepted bids for a plot in the order they were placed.
func (s *Store) ListBids(ctx context.Context, plotNumber int) ([]models.Bid, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, plot_number, team_id, amount, placed_at
		FROM bid
		WHERE plot_number = $1
		ORDER BY placed_at, amount
	`, plotNumber)
	if err != nil {
		return nil, fmt.Errorf("query bids: %w", err)
	}
	defer rows.Close()

	var bids []models.Bid
	for rows.Next() {
		var b models.Bid
		if err := rows.Scan(&b.ID, &b.PlotNumber, &b.TeamID, &b.Amount, &b.PlacedAt); err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}
