// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/danielhkuo/landbid/metrics"
	"github.com/danielhkuo/landbid/models"
	"github.com/danielhkuo/landbid/store"
)

// Store is the persistence the engine needs. *store.Store satisfies it.
type Store interface {
	RunInTx(ctx context.Context, fn func(store.Writer) error) error
	LoadState(ctx context.Context) (models.AuctionState, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
	ListPlots(ctx context.Context) ([]models.Plot, error)
	ListPolicyCards(ctx context.Context) ([]models.PolicyCard, error)
	ListPolicyActivations(ctx context.Context) ([]models.PolicyKey, error)
	ListAdjustments(ctx context.Context) ([]models.Adjustment, error)
	ListBids(ctx context.Context, plotNumber int) ([]models.Bid, error)
}

// Publisher receives committed events in commit order.
type Publisher interface {
	Publish(ev models.Event)
}

type Options struct {
	// SellCountdown is how long a "going once" call waits before closing
	// the plot.
	SellCountdown time.Duration
	// QueueSize bounds commands waiting for the loop.
	QueueSize int
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

const (
	DefaultSellCountdown = 4 * time.Second
	DefaultQueueSize     = 256
)

type command struct {
	name  string
	run   func(t *txn) (any, error)
	reply chan result
}

type result struct {
	val any
	err error
}

// Engine owns the auction. Mutations are queued and applied one at a time by
// Run; reads use the last committed view and never wait for the loop.
type Engine struct {
	store   Store
	pub     Publisher
	metrics *metrics.Metrics
	now     func() time.Time

	sellCountdown time.Duration

	cmds chan command
	done chan struct{}
	view atomic.Pointer[auction]

	// Owned by the Run goroutine
	sellGen   uint64
	sellTimer *time.Timer
}

// Run processes commands until ctx is cancelled. It must be called once.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	defer e.stopCountdown()

	slog.Info("auction engine running", "status", e.view.Load().state.Status, "version", e.view.Load().version)
	for {
		select {
		case <-ctx.Done():
			slog.Info("auction engine stopped")
			return nil
		case c := <-e.cmds:
			c.reply <- e.execute(ctx, c)
		}
	}
}

// do queues a command and waits for its outcome. ctx only bounds the wait
// for a queue slot: once queued the command always runs to completion.
func (e *Engine) do(ctx context.Context, name string, fn func(t *txn) (any, error)) (any, error) {
	c := command{name: name, run: fn, reply: make(chan result, 1)}

	select {
	case e.cmds <- c:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.done:
		return nil, ErrStopped
	}

	select {
	case r := <-c.reply:
		return r.val, r.err
	case <-e.done:
		select {
		case r := <-c.reply:
			return r.val, r.err
		default:
			return nil, ErrStopped
		}
	}
}

// exec runs fn and returns the resulting snapshot.
func (e *Engine) exec(ctx context.Context, name string, fn func(t *txn) error) (models.Snapshot, error) {
	v, err := e.do(ctx, name, func(t *txn) (any, error) {
		if err := fn(t); err != nil {
			return nil, err
		}
		return t.next.snapshot(), nil
	})
	if err != nil {
		return models.Snapshot{}, err
	}
	return v.(models.Snapshot), nil
}

func (e *Engine) execute(ctx context.Context, c command) result {
	cur := e.view.Load()
	t := newTxn(cur, e.now())

	val, err := c.run(t)
	if err != nil {
		e.metrics.ObserveCommand(c.name, "rejected")
		return result{err: err}
	}
	if !t.changed() {
		e.metrics.ObserveCommand(c.name, "noop")
		return result{val: val}
	}
	t.finish()

	if t.durable() {
		start := time.Now()
		err := e.store.RunInTx(ctx, func(w store.Writer) error {
			return t.flush(ctx, w)
		})
		e.metrics.ObserveCommit(time.Since(start))
		if err != nil {
			slog.Error("commit failed, state unchanged", "command", c.name, "version", cur.version, "error", err)
			e.metrics.ObserveCommand(c.name, "failed")
			return result{err: persistenceFailure(err)}
		}
	}

	e.view.Store(t.next)
	e.afterCommit(t)
	for _, ev := range t.events {
		e.pub.Publish(ev)
	}

	e.metrics.ObserveCommand(c.name, "ok")
	slog.Debug("command committed", "command", c.name, "version", t.next.version, "events", len(t.events))
	return result{val: val}
}

func (e *Engine) afterCommit(t *txn) {
	if t.next.closingAt == nil {
		e.stopCountdown()
	}
	if t.armSell {
		e.armCountdown()
	}
}

func (e *Engine) armCountdown() {
	e.stopCountdown()
	gen := e.sellGen
	e.sellTimer = time.AfterFunc(e.sellCountdown, func() {
		e.closeSale(gen)
	})
}

func (e *Engine) stopCountdown() {
	if e.sellTimer != nil {
		e.sellTimer.Stop()
		e.sellTimer = nil
	}
	e.sellGen++
}

// closeSale runs when a countdown fires. A newer countdown, bid, pause or
// advance has bumped sellGen and turns this into a no-op.
func (e *Engine) closeSale(gen uint64) {
	_, err := e.do(context.Background(), "sell_close", func(t *txn) (any, error) {
		if gen != e.sellGen || t.next.closingAt == nil {
			return nil, nil
		}
		return nil, t.advance()
	})
	if err != nil {
		slog.Warn("sell countdown could not close plot", "error", err)
	}
}

// Reads

func (e *Engine) Snapshot() models.Snapshot {
	return e.view.Load().snapshot()
}

func (e *Engine) Version() uint64 {
	return e.view.Load().version
}

func (e *Engine) Plots() []models.Plot {
	a := e.view.Load()
	plots := make([]models.Plot, 0, len(a.order))
	for _, n := range a.order {
		plots = append(plots, a.plots[n])
	}
	return plots
}

func (e *Engine) Plot(number int) (models.Plot, error) {
	p, ok := e.view.Load().plots[number]
	if !ok {
		return models.Plot{}, ErrPlotNotFound.with("plot %d not found", number)
	}
	return p, nil
}

// Bids returns the accepted bids on a plot in the order they were placed.
func (e *Engine) Bids(plotNumber int) ([]models.Bid, error) {
	a := e.view.Load()
	if _, ok := a.plots[plotNumber]; !ok {
		return nil, ErrPlotNotFound.with("plot %d not found", plotNumber)
	}
	bids := slices.Clone(a.bids[plotNumber])
	if bids == nil {
		bids = []models.Bid{}
	}
	return bids, nil
}

func (e *Engine) Teams() []models.Team {
	return e.view.Load().sortedTeams()
}

func (e *Engine) Team(id string) (models.Team, error) {
	t, ok := e.view.Load().teams[id]
	if !ok {
		return models.Team{}, ErrTeamNotFound
	}
	return t, nil
}

// TeamByDigest finds the team whose passcode digest matches.
func (e *Engine) TeamByDigest(digest string) (models.Team, bool) {
	a := e.view.Load()
	id, ok := a.byDigest[digest]
	if !ok {
		return models.Team{}, false
	}
	return a.teams[id], true
}

// PolicyCards lists the cards of one round, or of every round when round is 0.
func (e *Engine) PolicyCards(round int) []models.PolicyCard {
	a := e.view.Load()
	if round > 0 {
		return slices.Clone(a.cards[round])
	}

	var cards []models.PolicyCard
	rounds := make([]int, 0, len(a.cards))
	for r := range a.cards {
		rounds = append(rounds, r)
	}
	slices.Sort(rounds)
	for _, r := range rounds {
		cards = append(cards, a.cards[r]...)
	}
	return cards
}
