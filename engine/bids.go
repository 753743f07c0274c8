// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"errors"

	"github.com/danielhkuo/landbid/models"
	"github.com/google/uuid"
)

// SubmitBid places a bid for teamID on the open plot. Malformed input is
// rejected before the command is queued; every other check runs inside the
// command loop against the latest committed state.
func (e *Engine) SubmitBid(ctx context.Context, teamID string, plotNumber int, amount int64) (models.Bid, error) {
	if err := validateBid(teamID, plotNumber, amount); err != nil {
		e.metrics.ObserveBid(bidOutcome(err))
		return models.Bid{}, err
	}

	v, err := e.do(ctx, "bid", func(t *txn) (any, error) {
		return t.placeBid(teamID, plotNumber, amount)
	})
	e.metrics.ObserveBid(bidOutcome(err))
	if err != nil {
		return models.Bid{}, err
	}
	return v.(models.Bid), nil
}

func validateBid(teamID string, plotNumber int, amount int64) error {
	switch {
	case teamID == "":
		return invalid("team_id is required")
	case plotNumber <= 0:
		return invalid("plot_number must be positive")
	case amount <= 0:
		return invalid("amount must be positive")
	}
	return nil
}

func (t *txn) placeBid(teamID string, plotNumber int, amount int64) (models.Bid, error) {
	a := t.next

	if a.state.Status != models.AuctionActive {
		return models.Bid{}, ErrAuctionNotActive
	}
	if a.state.CurrentPlot == nil || *a.state.CurrentPlot != plotNumber {
		return models.Bid{}, ErrWrongPlot.with("plot %d is not open for bidding", plotNumber)
	}

	team, ok := a.teams[teamID]
	if !ok {
		return models.Bid{}, ErrUnknownTeam
	}
	if amount > team.Remaining() {
		return models.Bid{}, ErrInsufficientBudget.with("bid of %s exceeds remaining budget of %s",
			money(amount), money(team.Remaining()))
	}

	plot := a.plots[plotNumber]
	if plot.CurrentBid != nil {
		if amount <= *plot.CurrentBid {
			return models.Bid{}, ErrBidTooLow.with("bid of %s must exceed the current bid of %s",
				money(amount), money(*plot.CurrentBid))
		}
		if plot.LeaderTeamID != nil && *plot.LeaderTeamID == teamID {
			return models.Bid{}, ErrAlreadyLeading
		}
	} else if amount < plot.BasePrice {
		return models.Bid{}, ErrBidTooLow.with("opening bid of %s is below the base price of %s",
			money(amount), money(plot.BasePrice))
	}

	bid := models.Bid{
		ID:         uuid.NewString(),
		PlotNumber: plotNumber,
		TeamID:     teamID,
		Amount:     amount,
		PlacedAt:   t.now,
	}

	leader := teamID
	plot.CurrentBid = &bid.Amount
	plot.LeaderTeamID = &leader
	t.setPlot(plot)
	t.addBid(bid)
	t.clearCountdown()

	t.emit(models.EventBid, plotNumber, models.BidEvent{Bid: bid, TeamName: team.Name, Plot: plot})
	return bid, nil
}

func bidOutcome(err error) string {
	if err == nil {
		return "accepted"
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "error"
}
