// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"sort"

	"github.com/danielhkuo/landbid/models"
)

var (
	ErrInvalidEffectTarget = errors.New("effect references an unknown plot")
	ErrAlreadyApplied      = errors.New("policy effect already applied")
)

const basisPoints = 10000

// Scale returns price * (1 + percent/100), rounded half-up to a whole unit.
// The percent is resolved to basis points first so the rest is integer maths.
func Scale(price int64, percent float64) int64 {
	bp := int64(math.Round(percent * 100))
	factor := basisPoints + bp
	if factor <= 0 || price <= 0 {
		return 0
	}
	return (price*factor + basisPoints/2) / basisPoints
}

// Unscale removes a scaling that took a price from `from` to `to`, keeping
// any change made to the price since. The result is price * from / to,
// rounded half-up. A scaling that reached zero cannot be divided out; its
// delta is added back instead.
func Unscale(price, from, to int64) int64 {
	if to <= 0 {
		return price + from - to
	}
	num := new(big.Int).Mul(big.NewInt(price), big.NewInt(from))
	num.Mul(num, big.NewInt(2))
	num.Add(num, big.NewInt(to))
	num.Quo(num, big.NewInt(2*to))
	return num.Int64()
}

// ApplyEffect computes the new total prices produced by effect. The input map
// is not modified. A plot named more than once compounds.
func ApplyEffect(plots map[int]models.Plot, effect models.PolicyEffect) ([]models.ValuationChange, error) {
	steps := make([]models.NeighborEffect, 0, len(effect.Neighbors)+1)
	steps = append(steps, models.NeighborEffect{Plot: effect.Target, Percent: effect.Percent})
	steps = append(steps, effect.Neighbors...)

	for _, s := range steps {
		if _, ok := plots[s.Plot]; !ok {
			return nil, fmt.Errorf("%w: plot %d", ErrInvalidEffectTarget, s.Plot)
		}
	}

	current := make(map[int]int64, len(steps))
	changes := make([]models.ValuationChange, 0, len(steps))
	for _, s := range steps {
		old, seen := current[s.Plot]
		if !seen {
			old = plots[s.Plot].TotalPrice
		}
		next := Scale(old, s.Percent)
		current[s.Plot] = next
		changes = append(changes, models.ValuationChange{
			PlotNumber: s.Plot,
			OldPrice:   old,
			NewPrice:   next,
			Percent:    s.Percent,
		})
	}
	return changes, nil
}

// Ledger remembers which policy cards have been applied in the current run.
// It is not safe for concurrent use; the engine owns one per committed view
// and clones it before mutating.
type Ledger struct {
	applied map[models.PolicyKey]bool
}

func New() *Ledger {
	return &Ledger{applied: make(map[models.PolicyKey]bool)}
}

// Restore rebuilds the applied set, typically from persisted activation rows.
func (l *Ledger) Restore(keys []models.PolicyKey) {
	for _, k := range keys {
		l.applied[k] = true
	}
}

func (l *Ledger) Reset() {
	l.applied = make(map[models.PolicyKey]bool)
}

func (l *Ledger) Clone() *Ledger {
	c := &Ledger{applied: make(map[models.PolicyKey]bool, len(l.applied))}
	for k := range l.applied {
		c.applied[k] = true
	}
	return c
}

func (l *Ledger) IsApplied(key models.PolicyKey) bool {
	return l.applied[key]
}

// Activate applies card's effect and marks it applied. A card that has
// already been applied yields ErrAlreadyApplied and no changes.
func (l *Ledger) Activate(plots map[int]models.Plot, card models.PolicyCard) ([]models.ValuationChange, error) {
	key := card.Key()
	if l.applied[key] {
		return nil, fmt.Errorf("%w: round %d question %d", ErrAlreadyApplied, key.Round, key.Question)
	}
	changes, err := ApplyEffect(plots, card.Effect)
	if err != nil {
		return nil, err
	}
	l.applied[key] = true
	return changes, nil
}

// Applied lists applied keys ordered by round then question.
func (l *Ledger) Applied() []models.PolicyKey {
	keys := make([]models.PolicyKey, 0, len(l.applied))
	for k := range l.applied {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Round != keys[j].Round {
			return keys[i].Round < keys[j].Round
		}
		return keys[i].Question < keys[j].Question
	})
	return keys
}
