// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/danielhkuo/landbid/ledger"
	"github.com/danielhkuo/landbid/models"
)

// Start opens the first pending plot. Only valid before the auction begins.
func (e *Engine) Start(ctx context.Context) (models.Snapshot, error) {
	return e.exec(ctx, "start", func(t *txn) error { return t.start() })
}

func (e *Engine) Pause(ctx context.Context) (models.Snapshot, error) {
	return e.exec(ctx, "pause", func(t *txn) error { return t.pause() })
}

func (e *Engine) Resume(ctx context.Context) (models.Snapshot, error) {
	return e.exec(ctx, "resume", func(t *txn) error { return t.resume() })
}

// Advance closes the open plot and opens the next one.
func (e *Engine) Advance(ctx context.Context) (models.Snapshot, error) {
	return e.exec(ctx, "advance", func(t *txn) error { return t.advance() })
}

// Reset returns the auction to not_started and discards everything the run
// produced. The catalog is kept.
func (e *Engine) Reset(ctx context.Context) (models.Snapshot, error) {
	return e.exec(ctx, "reset", func(t *txn) error {
		t.resetRun()
		return nil
	})
}

// Sell starts the "going once" countdown on the open plot. The plot closes
// when it expires unless a bid, pause, advance or reset comes first.
func (e *Engine) Sell(ctx context.Context) (models.Snapshot, error) {
	return e.exec(ctx, "sell", func(t *txn) error {
		if t.next.state.Status != models.AuctionActive {
			return ErrAuctionNotActive
		}
		closing := t.now.Add(e.sellCountdown)
		t.next.closingAt = &closing
		t.armSell = true
		t.announce = true
		return nil
	})
}

// SetRound forces the displayed round until the next plot opens.
func (e *Engine) SetRound(ctx context.Context, round int) (models.Snapshot, error) {
	if round <= 0 {
		return models.Snapshot{}, invalid("round must be positive")
	}
	return e.exec(ctx, "set_round", func(t *txn) error {
		t.next.state.CurrentRound = round
		t.next.state.RoundOverride = true
		t.touchState()
		return nil
	})
}

// PushQuestion shows a policy card's text to every client.
func (e *Engine) PushQuestion(ctx context.Context, round, question int) (models.Snapshot, error) {
	if round <= 0 || question <= 0 {
		return models.Snapshot{}, invalid("round and question must be positive")
	}
	return e.exec(ctx, "push_question", func(t *txn) error {
		for _, card := range t.next.cards[round] {
			if card.Question != question {
				continue
			}
			t.next.state.ActiveQuestion = card.Description
			t.touchState()
			t.emit(models.EventActiveQuestion, 0, models.QuestionEvent{
				Round:       round,
				Question:    question,
				Description: card.Description,
			})
			return nil
		}
		return ErrUnknownPolicyCard.with("no policy card for round %d question %d", round, question)
	})
}

func (t *txn) start() error {
	if t.next.state.Status != models.AuctionNotStarted {
		return ErrAlreadyStarted
	}
	t.next.state.Status = models.AuctionActive
	return t.openNext()
}

func (t *txn) pause() error {
	if t.next.state.Status != models.AuctionActive {
		return ErrAuctionNotActive
	}
	t.next.state.Status = models.AuctionPaused
	t.clearCountdown()
	t.touchState()
	return nil
}

func (t *txn) resume() error {
	if t.next.state.Status != models.AuctionPaused {
		return ErrNotPaused
	}
	t.next.state.Status = models.AuctionActive
	t.touchState()
	return nil
}

func (t *txn) advance() error {
	if t.next.state.Status != models.AuctionActive {
		return ErrAuctionNotActive
	}
	if err := t.closeCurrent(); err != nil {
		return err
	}
	return t.openNext()
}

// closeCurrent settles the open plot: sold to the leader at the current bid,
// or unsold when nobody bid.
func (t *txn) closeCurrent() error {
	a := t.next
	t.clearCountdown()
	if a.state.CurrentPlot == nil {
		return nil
	}

	plot := a.plots[*a.state.CurrentPlot]
	var winner string
	if plot.CurrentBid != nil && plot.LeaderTeamID != nil {
		price := *plot.CurrentBid
		team := a.teams[*plot.LeaderTeamID]
		if team.Spent+price > team.Budget {
			// Admission makes this unreachable; refuse rather than overspend.
			return ErrInsufficientBudget.with("closing plot %d would take %s over budget", plot.Number, team.Name)
		}
		team.Spent += price
		team.PlotsWon++
		t.setTeam(team)

		plot.Status = models.PlotSold
		plot.PurchasePrice = &price
		winner = team.Name
	} else {
		plot.Status = models.PlotUnsold
	}
	t.setPlot(plot)

	t.emit(models.EventPlot, plot.Number, models.PlotEvent{Plot: plot, WinnerName: winner})
	if winner != "" {
		t.emit(models.EventTeam, 0, t.next.teams[*plot.LeaderTeamID])
	}
	return nil
}

// openNext exposes the lowest pending plot, applying its round's policy
// cards first. With nothing left the auction finishes.
func (t *txn) openNext() error {
	a := t.next
	t.clearCountdown()
	t.touchState()
	a.state.RoundOverride = false

	n, ok := a.nextPending()
	if !ok {
		a.state.Status = models.AuctionFinished
		a.state.CurrentPlot = nil
		return nil
	}

	if err := t.applyRoundCards(a.plots[n].Round); err != nil {
		return err
	}

	plot := a.plots[n]
	plot.Status = models.PlotActive
	t.setPlot(plot)
	a.state.CurrentPlot = &n
	a.state.CurrentRound = plot.Round

	t.emit(models.EventPlot, n, models.PlotEvent{Plot: plot})
	return nil
}

// applyRoundCards applies every card of round that has not been applied in
// this run. Each card becomes its own valuation event.
func (t *txn) applyRoundCards(round int) error {
	a := t.next
	for _, card := range a.cards[round] {
		key := card.Key()
		if a.ledger.IsApplied(key) {
			continue
		}

		changes, err := a.ledger.Activate(a.plots, card)
		if errors.Is(err, ledger.ErrInvalidEffectTarget) {
			return ErrInvalidEffectTarget.with("policy card %d/%d: %v", key.Round, key.Question, err)
		}
		if err != nil {
			return err
		}

		for _, c := range changes {
			p := a.plots[c.PlotNumber]
			p.TotalPrice = c.NewPrice
			t.setPlot(p)
		}
		t.activations = append(t.activations, key)
		t.emit(models.EventValuation, card.Effect.Target, models.ValuationEvent{
			Source:  "policy",
			Policy:  &key,
			Changes: changes,
		})
		slog.Info("policy card applied", "round", key.Round, "question", key.Question, "plots", len(changes))
	}
	return nil
}

func (t *txn) resetRun() {
	a := t.next
	t.reset = true

	for n, p := range a.plots {
		p.TotalPrice = p.CatalogPrice
		p.CurrentBid = nil
		p.LeaderTeamID = nil
		p.PurchasePrice = nil
		p.Status = models.PlotPending
		a.plots[n] = p
	}
	for id, team := range a.teams {
		team.Spent = 0
		team.PlotsWon = 0
		a.teams[id] = team
	}
	a.ledger.Reset()
	a.adjustments = nil
	a.bids = make(map[int][]models.Bid)
	a.closingAt = nil
	a.state = models.AuctionState{
		Status:       models.AuctionNotStarted,
		CurrentRound: 1,
	}
	t.touchState()

	t.emit(models.EventReset, 0, nil)
}
