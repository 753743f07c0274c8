// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/landbid/ledger"
	"github.com/danielhkuo/landbid/models"
	"github.com/danielhkuo/landbid/store"
)

// New rebuilds the engine from durable state. Anything the rows disagree
// about (budgets against sold plots, the open plot against its bid log) is
// repaired and written back before the engine serves.
func New(ctx context.Context, st Store, pub Publisher, opts Options) (*Engine, error) {
	if opts.SellCountdown <= 0 {
		opts.SellCountdown = DefaultSellCountdown
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if pub == nil {
		pub = discard{}
	}

	loaded, missingState, err := load(ctx, st)
	if err != nil {
		return nil, err
	}

	t := newTxn(loaded, opts.Now())
	if missingState {
		t.touchState()
	}
	if err := t.reconcile(); err != nil {
		return nil, fmt.Errorf("reconcile auction state: %w", err)
	}
	if t.durable() {
		if err := st.RunInTx(ctx, func(w store.Writer) error { return t.flush(ctx, w) }); err != nil {
			return nil, fmt.Errorf("write recovered state: %w", err)
		}
	}

	e := &Engine{
		store:         st,
		pub:           pub,
		metrics:       opts.Metrics,
		now:           opts.Now,
		sellCountdown: opts.SellCountdown,
		cmds:          make(chan command, opts.QueueSize),
		done:          make(chan struct{}),
	}
	e.view.Store(t.next)

	slog.Info("auction state loaded",
		"status", t.next.state.Status,
		"plots", len(t.next.plots),
		"teams", len(t.next.teams),
		"applied_policies", len(t.next.ledger.Applied()),
	)
	return e, nil
}

func load(ctx context.Context, st Store) (*auction, bool, error) {
	state, err := st.LoadState(ctx)
	missingState := errors.Is(err, store.ErrNotFound)
	if err != nil && !missingState {
		return nil, false, err
	}
	if missingState {
		state = models.AuctionState{Status: models.AuctionNotStarted, CurrentRound: 1}
	}

	plots, err := st.ListPlots(ctx)
	if err != nil {
		return nil, false, err
	}
	teams, err := st.ListTeams(ctx)
	if err != nil {
		return nil, false, err
	}
	cards, err := st.ListPolicyCards(ctx)
	if err != nil {
		return nil, false, err
	}
	applied, err := st.ListPolicyActivations(ctx)
	if err != nil {
		return nil, false, err
	}
	adjustments, err := st.ListAdjustments(ctx)
	if err != nil {
		return nil, false, err
	}

	a := &auction{
		state:       state,
		plots:       make(map[int]models.Plot, len(plots)),
		order:       make([]int, 0, len(plots)),
		teams:       make(map[string]models.Team, len(teams)),
		byDigest:    make(map[string]string, len(teams)),
		cards:       make(map[int][]models.PolicyCard),
		ledger:      ledger.New(),
		adjustments: adjustments,
		bids:        make(map[int][]models.Bid),
	}

	// ListPlots is ordered by number
	for _, p := range plots {
		a.plots[p.Number] = p
		a.order = append(a.order, p.Number)

		bids, err := st.ListBids(ctx, p.Number)
		if err != nil {
			return nil, false, err
		}
		if len(bids) > 0 {
			a.bids[p.Number] = bids
		}
	}
	for _, t := range teams {
		a.teams[t.ID] = t
		a.byDigest[t.PasscodeDigest] = t.ID
	}
	// ListPolicyCards is ordered by round then question
	for _, c := range cards {
		a.cards[c.Round] = append(a.cards[c.Round], c)
	}
	a.ledger.Restore(applied)

	return a, missingState, nil
}

// reconcile repairs the loaded view in place and records every repair as a
// write.
func (t *txn) reconcile() error {
	a := t.next

	// Budgets follow from sold plots.
	spent := make(map[string]int64)
	won := make(map[string]int)
	for _, p := range a.plots {
		if p.Status == models.PlotSold && p.LeaderTeamID != nil && p.PurchasePrice != nil {
			spent[*p.LeaderTeamID] += *p.PurchasePrice
			won[*p.LeaderTeamID]++
		}
	}
	for _, team := range a.teams {
		if team.Spent != spent[team.ID] || team.PlotsWon != won[team.ID] {
			slog.Warn("repairing team totals",
				"team", team.Name,
				"spent", team.Spent, "expected_spent", spent[team.ID],
				"plots_won", team.PlotsWon, "expected_plots_won", won[team.ID],
			)
			team.Spent = spent[team.ID]
			team.PlotsWon = won[team.ID]
			t.setTeam(team)
		}
	}

	switch a.state.Status {
	case models.AuctionActive, models.AuctionPaused:
		return t.reconcileOpenPlot()
	default:
		// Nothing may be open outside a running auction.
		closed := models.PlotPending
		if a.state.Status == models.AuctionFinished {
			closed = models.PlotUnsold
		}
		for _, n := range a.order {
			if p := a.plots[n]; p.Status == models.PlotActive {
				slog.Warn("closing plot left open", "plot", n, "status", closed)
				p.Status = closed
				t.setPlot(p)
			}
		}
		if a.state.CurrentPlot != nil {
			a.state.CurrentPlot = nil
			t.touchState()
		}
	}
	return nil
}

func (t *txn) reconcileOpenPlot() error {
	a := t.next

	cur := a.state.CurrentPlot
	if cur != nil {
		if p, ok := a.plots[*cur]; !ok || p.Status == models.PlotSold || p.Status == models.PlotUnsold {
			cur = nil
		}
	}
	if cur == nil {
		for _, n := range a.order {
			if a.plots[n].Status == models.PlotActive {
				cur = &n
				break
			}
		}
	}
	if cur == nil {
		slog.Warn("running auction has no open plot, opening the next one")
		status := a.state.Status
		if err := t.openNext(); err != nil {
			return err
		}
		if status == models.AuctionPaused && a.state.Status == models.AuctionActive {
			a.state.Status = models.AuctionPaused
		}
		return nil
	}
	if a.state.CurrentPlot == nil || *a.state.CurrentPlot != *cur {
		n := *cur
		a.state.CurrentPlot = &n
		t.touchState()
	}

	for _, n := range a.order {
		p := a.plots[n]
		switch {
		case n == *cur && p.Status != models.PlotActive:
			p.Status = models.PlotActive
			t.setPlot(p)
		case n != *cur && p.Status == models.PlotActive:
			slog.Warn("returning stray open plot to pending", "plot", n)
			p.Status = models.PlotPending
			t.setPlot(p)
		}
	}

	// The open plot's high bid is whatever the bid log says it is.
	p := a.plots[*cur]
	var wantBid *int64
	var wantLeader *string
	if bids := a.bids[*cur]; len(bids) > 0 {
		last := bids[len(bids)-1]
		wantBid = &last.Amount
		wantLeader = &last.TeamID
	}
	if !equalPtr(p.CurrentBid, wantBid) || !equalPtr(p.LeaderTeamID, wantLeader) {
		slog.Warn("replaying bid log for open plot", "plot", p.Number)
		p.CurrentBid = wantBid
		p.LeaderTeamID = wantLeader
		t.setPlot(p)
	}
	return nil
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type discard struct{}

func (discard) Publish(models.Event) {}
