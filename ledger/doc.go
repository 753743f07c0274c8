// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger computes plot valuations under policy effects.

# Scaling

Scale multiplies a price by (1 + percent/100) and rounds half-up:

	ledger.Scale(1000, -30)   // 700
	ledger.Scale(1001, -50)   // 501 (500.5 rounds up)

# Effects

ApplyEffect evaluates a declarative effect (target plot and percent, plus
neighbour plots with their own percent) against a plot map and returns the
resulting changes without touching the input. Unknown plots fail with
ErrInvalidEffectTarget.

# Applied Markers

A Ledger records which (round, question) cards have been applied in the
current auction run and refuses to apply a card twice:

	l := ledger.New()
	changes, err := l.Activate(plots, card)  // ErrAlreadyApplied on repeat
*/
package ledger
