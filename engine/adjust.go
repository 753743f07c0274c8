// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"slices"

	"github.com/danielhkuo/landbid/ledger"
	"github.com/danielhkuo/landbid/models"
	"github.com/google/uuid"
)

// AdjustPlots scales the total price of each listed plot by percent as one
// undoable batch. A plot listed twice is adjusted once.
func (e *Engine) AdjustPlots(ctx context.Context, numbers []int, percent float64) (models.AdjustPlotsResponse, error) {
	if len(numbers) == 0 {
		return models.AdjustPlotsResponse{}, invalid("plot_numbers is required")
	}
	if percent == 0 || percent < -100 {
		return models.AdjustPlotsResponse{}, invalid("adjustment_percent must be non-zero and at least -100")
	}

	unique := make([]int, 0, len(numbers))
	for _, n := range numbers {
		if !slices.Contains(unique, n) {
			unique = append(unique, n)
		}
	}

	v, err := e.do(ctx, "adjust", func(t *txn) (any, error) {
		return t.adjustPlots(unique, percent)
	})
	if err != nil {
		return models.AdjustPlotsResponse{}, err
	}
	return v.(models.AdjustPlotsResponse), nil
}

// UndoAdjustment takes the newest batch's scaling back out of each plot.
// Valuation changes committed after the batch, such as a round's policy
// effects, stay applied.
func (e *Engine) UndoAdjustment(ctx context.Context) (models.AdjustPlotsResponse, error) {
	v, err := e.do(ctx, "undo_adjustment", func(t *txn) (any, error) {
		return t.undoAdjustment()
	})
	if err != nil {
		return models.AdjustPlotsResponse{}, err
	}
	return v.(models.AdjustPlotsResponse), nil
}

func (t *txn) adjustPlots(numbers []int, percent float64) (models.AdjustPlotsResponse, error) {
	a := t.next

	effect := models.PolicyEffect{Target: numbers[0], Percent: percent}
	for _, n := range numbers[1:] {
		effect.Neighbors = append(effect.Neighbors, models.NeighborEffect{Plot: n, Percent: percent})
	}
	changes, err := ledger.ApplyEffect(a.plots, effect)
	if err != nil {
		return models.AdjustPlotsResponse{}, ErrInvalidEffectTarget.with("%v", err)
	}

	batch := uuid.NewString()
	for _, c := range changes {
		p := a.plots[c.PlotNumber]
		p.TotalPrice = c.NewPrice
		t.setPlot(p)

		adj := models.Adjustment{
			ID:         uuid.NewString(),
			BatchID:    batch,
			PlotNumber: c.PlotNumber,
			OldPrice:   c.OldPrice,
			NewPrice:   c.NewPrice,
			Percent:    percent,
			CreatedAt:  t.now,
		}
		a.adjustments = append(a.adjustments, adj)
		t.adjustments = append(t.adjustments, adj)
	}

	t.emit(models.EventValuation, 0, models.ValuationEvent{
		Source:  "adjustment",
		BatchID: batch,
		Changes: changes,
	})
	return models.AdjustPlotsResponse{BatchID: batch, Changes: changes}, nil
}

func (t *txn) undoAdjustment() (models.AdjustPlotsResponse, error) {
	a := t.next
	if len(a.adjustments) == 0 {
		return models.AdjustPlotsResponse{}, ErrNothingToUndo
	}

	batch := a.adjustments[len(a.adjustments)-1].BatchID
	i := len(a.adjustments)
	for i > 0 && a.adjustments[i-1].BatchID == batch {
		i--
	}

	var changes []models.ValuationChange
	for _, adj := range a.adjustments[i:] {
		p := a.plots[adj.PlotNumber]
		restored := ledger.Unscale(p.TotalPrice, adj.OldPrice, adj.NewPrice)
		changes = append(changes, models.ValuationChange{
			PlotNumber: adj.PlotNumber,
			OldPrice:   p.TotalPrice,
			NewPrice:   restored,
			Percent:    adj.Percent,
		})
		p.TotalPrice = restored
		t.setPlot(p)
	}
	a.adjustments = slices.Clip(a.adjustments[:i])
	t.undoBatch = batch

	t.emit(models.EventValuation, 0, models.ValuationEvent{
		Source:  "undo",
		BatchID: batch,
		Changes: changes,
	})
	return models.AdjustPlotsResponse{BatchID: batch, Changes: changes}, nil
}
