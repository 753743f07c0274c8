// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danielhkuo/landbid/models"
)

type txWriter struct {
	tx *sql.Tx
}

func (w *txWriter) InsertBid(ctx context.Context, bid models.Bid) error {
	_, err := w.tx.ExecContext(ctx, `
		INSERT INTO bid (id, plot_number, team_id, amount, placed_at)
		VALUES ($1, $2, $3, $4, $5)
	`, bid.ID, bid.PlotNumber, bid.TeamID, bid.Amount, bid.PlacedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert bid: %w", err)
	}
	return nil
}

func (w *txWriter) UpdatePlot(ctx context.Context, plot models.Plot) error {
	res, err := w.tx.ExecContext(ctx, `
		UPDATE plot
		SET total_price = $1, current_bid = $2, leader_team_id = $3, purchase_price = $4, status = $5
		WHERE number = $6
	`, plot.TotalPrice, plot.CurrentBid, plot.LeaderTeamID, plot.PurchasePrice, plot.Status, plot.Number)
	if err != nil {
		return fmt.Errorf("update plot %d: %w", plot.Number, err)
	}
	return expectOneRow(res, "plot", plot.Number)
}

func (w *txWriter) UpdateTeam(ctx context.Context, team models.Team) error {
	res, err := w.tx.ExecContext(ctx, `
		UPDATE team
		SET spent = $1, plots_won = $2
		WHERE id = $3
	`, team.Spent, team.PlotsWon, team.ID)
	if err != nil {
		return fmt.Errorf("update team %s: %w", team.ID, err)
	}
	return expectOneRow(res, "team", team.ID)
}

// SaveState upserts the auction_state singleton.
func (w *txWriter) SaveState(ctx context.Context, st models.AuctionState) error {
	var currentPlot *int64
	if st.CurrentPlot != nil {
		n := int64(*st.CurrentPlot)
		currentPlot = &n
	}

	_, err := w.tx.ExecContext(ctx, `
		INSERT INTO auction_state (id, status, current_plot, current_round, round_override, active_question, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			current_plot = excluded.current_plot,
			current_round = excluded.current_round,
			round_override = excluded.round_override,
			active_question = excluded.active_question,
			updated_at = excluded.updated_at
	`, st.Status, currentPlot, st.CurrentRound, st.RoundOverride, st.ActiveQuestion, st.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save auction state: %w", err)
	}
	return nil
}

func (w *txWriter) InsertPolicyActivation(ctx context.Context, key models.PolicyKey, at time.Time) error {
	_, err := w.tx.ExecContext(ctx, `
		INSERT INTO policy_activation (round, question, applied_at)
		VALUES ($1, $2, $3)
	`, key.Round, key.Question, at.UTC())
	if err != nil {
		return fmt.Errorf("insert policy activation %d/%d: %w", key.Round, key.Question, err)
	}
	return nil
}

func (w *txWriter) InsertAdjustment(ctx context.Context, adj models.Adjustment) error {
	_, err := w.tx.ExecContext(ctx, `
		INSERT INTO valuation_adjustment (id, batch_id, plot_number, old_price, new_price, percent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, adj.ID, adj.BatchID, adj.PlotNumber, adj.OldPrice, adj.NewPrice, adj.Percent, adj.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert adjustment: %w", err)
	}
	return nil
}

func (w *txWriter) DeleteAdjustmentBatch(ctx context.Context, batchID string) error {
	if _, err := w.tx.ExecContext(ctx, "DELETE FROM valuation_adjustment WHERE batch_id = $1", batchID); err != nil {
		return fmt.Errorf("delete adjustment batch %s: %w", batchID, err)
	}
	return nil
}

// ResetRun clears everything a run produced and puts the catalog back in
// its seeded shape. Teams, plots and policy cards stay.
func (w *txWriter) ResetRun(ctx context.Context) error {
	stmts := []string{
		"DELETE FROM bid",
		"DELETE FROM policy_activation",
		"DELETE FROM valuation_adjustment",
		`UPDATE plot
		 SET total_price = catalog_price, current_bid = NULL, leader_team_id = NULL,
		     purchase_price = NULL, status = 'pending'`,
		"UPDATE team SET spent = 0, plots_won = 0",
	}
	for _, stmt := range stmts {
		if _, err := w.tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset run: %w", err)
		}
	}
	return nil
}

func (w *txWriter) InsertTeam(ctx context.Context, team models.Team) error {
	_, err := w.tx.ExecContext(ctx, `
		INSERT INTO team (id, name, passcode_digest, budget, spent, plots_won, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, team.ID, team.Name, team.PasscodeDigest, team.Budget, team.Spent, team.PlotsWon, team.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert team %s: %w", team.Name, err)
	}
	return nil
}

func (w *txWriter) InsertPlot(ctx context.Context, plot models.Plot) error {
	_, err := w.tx.ExecContext(ctx, `
		INSERT INTO plot (number, category, round, total_area, actual_area, base_price, catalog_price, total_price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, plot.Number, plot.Category, plot.Round, plot.TotalArea, plot.ActualArea, plot.BasePrice,
		plot.CatalogPrice, plot.TotalPrice, plot.Status)
	if err != nil {
		return fmt.Errorf("insert plot %d: %w", plot.Number, err)
	}
	return nil
}

func (w *txWriter) InsertPolicyCard(ctx context.Context, card models.PolicyCard) error {
	neighbors := card.Effect.Neighbors
	if neighbors == nil {
		neighbors = []models.NeighborEffect{}
	}
	encoded, err := json.Marshal(neighbors)
	if err != nil {
		return fmt.Errorf("encode neighbors: %w", err)
	}

	_, err = w.tx.ExecContext(ctx, `
		INSERT INTO policy_card (round, question, description, target_plot, percent, neighbors)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, card.Round, card.Question, card.Description, card.Effect.Target, card.Effect.Percent, string(encoded))
	if err != nil {
		return fmt.Errorf("insert policy card %d/%d: %w", card.Round, card.Question, err)
	}
	return nil
}

func expectOneRow(res sql.Result, table string, key any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("%s %v: expected 1 row, updated %d", table, key, n)
	}
	return nil
}
