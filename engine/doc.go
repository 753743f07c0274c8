// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package engine is the auction state machine and the single writer for every
plot, team and auction-state change.

# Command Loop

New loads and repairs the durable state; Run then processes commands one at
a time:

	eng, err := engine.New(ctx, store.New(conn), hub, engine.Options{})
	go eng.Run(ctx)

	bid, err := eng.SubmitBid(ctx, teamID, 1, 2000000)

Each command works on a private copy of the committed view. Its rows are
written in one store transaction and the copy replaces the committed view
only after the commit succeeds, so a failed write leaves memory and store
as they were. Events are published after the swap, in commit order.

# Lifecycle

	not_started ──Start──▶ active ⇄ paused (Pause / Resume)
	active ──Advance (last plot)──▶ finished
	any ──Reset──▶ not_started

Opening a plot applies every unapplied policy card of its round first.

# Errors

Every failure is an *Error with a Kind the transport maps to a status code:

	var e *engine.Error
	if errors.As(err, &e) && e.Kind == engine.KindBudget { ... }

Sentinels match with errors.Is even when the message carries details.

# Reads

Snapshot, Plots, Teams, Bids and friends read the last committed view and
never wait for the command loop.
*/
package engine
