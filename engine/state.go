// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/danielhkuo/landbid/ledger"
	"github.com/danielhkuo/landbid/models"
	"github.com/danielhkuo/landbid/store"
)

// auction is one committed view of the whole auction. A published view is
// never modified; the command loop clones it, mutates the clone and swaps it
// in after the store commit.
type auction struct {
	state       models.AuctionState
	plots       map[int]models.Plot
	order       []int
	teams       map[string]models.Team
	byDigest    map[string]string
	cards       map[int][]models.PolicyCard
	ledger      *ledger.Ledger
	adjustments []models.Adjustment
	bids        map[int][]models.Bid
	closingAt   *time.Time
	version     uint64
}

// clone copies everything a command may change. order, byDigest and cards
// are fixed after load and stay shared. Slices are clipped so an append on
// the clone never writes into an array a reader can still see.
func (a *auction) clone() *auction {
	c := *a
	c.plots = maps.Clone(a.plots)
	c.teams = maps.Clone(a.teams)
	c.ledger = a.ledger.Clone()
	c.adjustments = slices.Clip(a.adjustments)
	c.bids = maps.Clone(a.bids)
	return &c
}

func (a *auction) snapshot() models.Snapshot {
	s := models.Snapshot{
		AuctionState:    a.state,
		AppliedPolicies: a.ledger.Applied(),
		ClosingAt:       a.closingAt,
		Version:         a.version,
	}
	if a.state.CurrentPlot != nil {
		p := a.plots[*a.state.CurrentPlot]
		s.Plot = &p
	}
	return s
}

func (a *auction) nextPending() (int, bool) {
	for _, n := range a.order {
		if a.plots[n].Status == models.PlotPending {
			return n, true
		}
	}
	return 0, false
}

func (a *auction) sortedTeams() []models.Team {
	teams := make([]models.Team, 0, len(a.teams))
	for _, t := range a.teams {
		teams = append(teams, t)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	return teams
}

// txn collects one command's changes: the private next view plus the rows
// that must be written for it.
type txn struct {
	next *auction
	now  time.Time

	plots       map[int]bool
	teams       map[string]bool
	stateDirty  bool
	announce    bool
	reset       bool
	bids        []models.Bid
	activations []models.PolicyKey
	adjustments []models.Adjustment
	undoBatch   string
	armSell     bool
	events      []models.Event
}

func newTxn(cur *auction, now time.Time) *txn {
	next := cur.clone()
	next.version = cur.version + 1
	return &txn{
		next:  next,
		now:   now,
		plots: make(map[int]bool),
		teams: make(map[string]bool),
	}
}

func (t *txn) setPlot(p models.Plot) {
	t.next.plots[p.Number] = p
	t.plots[p.Number] = true
}

func (t *txn) setTeam(team models.Team) {
	t.next.teams[team.ID] = team
	t.teams[team.ID] = true
}

func (t *txn) touchState() {
	t.next.state.UpdatedAt = t.now
	t.stateDirty = true
}

func (t *txn) addBid(b models.Bid) {
	t.next.bids[b.PlotNumber] = append(slices.Clip(t.next.bids[b.PlotNumber]), b)
	t.bids = append(t.bids, b)
}

// clearCountdown drops a pending sell countdown; clients hear about it
// through the state update.
func (t *txn) clearCountdown() {
	if t.next.closingAt != nil {
		t.next.closingAt = nil
		t.announce = true
	}
}

func (t *txn) emit(eventType string, plotNumber int, data any) {
	t.events = append(t.events, models.Event{
		Type:       eventType,
		Version:    t.next.version,
		PlotNumber: plotNumber,
		At:         t.now,
		Data:       data,
	})
}

func (t *txn) durable() bool {
	return t.reset || t.stateDirty || len(t.plots) > 0 || len(t.teams) > 0 ||
		len(t.bids) > 0 || len(t.activations) > 0 || len(t.adjustments) > 0 || t.undoBatch != ""
}

func (t *txn) changed() bool {
	return t.durable() || t.announce || t.armSell
}

// finish appends the state update that closes every state-changing command.
func (t *txn) finish() {
	if t.stateDirty || t.announce {
		t.emit(models.EventAuctionState, 0, t.next.snapshot())
	}
}

// flush writes the collected rows through one store transaction.
func (t *txn) flush(ctx context.Context, w store.Writer) error {
	if t.reset {
		if err := w.ResetRun(ctx); err != nil {
			return err
		}
	}
	for _, b := range t.bids {
		if err := w.InsertBid(ctx, b); err != nil {
			return err
		}
	}
	for _, n := range sortedKeys(t.plots) {
		if err := w.UpdatePlot(ctx, t.next.plots[n]); err != nil {
			return err
		}
	}
	for _, id := range sortedKeys(t.teams) {
		if err := w.UpdateTeam(ctx, t.next.teams[id]); err != nil {
			return err
		}
	}
	for _, k := range t.activations {
		if err := w.InsertPolicyActivation(ctx, k, t.now); err != nil {
			return err
		}
	}
	if t.undoBatch != "" {
		if err := w.DeleteAdjustmentBatch(ctx, t.undoBatch); err != nil {
			return err
		}
	}
	for _, adj := range t.adjustments {
		if err := w.InsertAdjustment(ctx, adj); err != nil {
			return err
		}
	}
	if t.stateDirty {
		if err := w.SaveState(ctx, t.next.state); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[K int | string](m map[K]bool) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
