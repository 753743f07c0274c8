// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"errors"
	"testing"

	"github.com/danielhkuo/landbid/models"
)

func TestScale(t *testing.T) {
	tests := []struct {
		name    string
		price   int64
		percent float64
		want    int64
	}{
		{"no change", 20013000, 0, 20013000},
		{"minus thirty", 1000, -30, 700},
		{"minus twenty", 1000, -20, 800},
		{"plus ten", 1000, 10, 1100},
		{"half rounds up", 1001, -50, 501},
		{"below half rounds down", 1003, -33.33, 669},
		{"fractional percent", 20013000, 2.5, 20513325},
		{"wipe out", 5000, -100, 0},
		{"beyond wipe out clamps", 5000, -150, 0},
		{"zero price", 0, 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Scale(tt.price, tt.percent); got != tt.want {
				t.Errorf("Scale(%d, %v) = %d, want %d", tt.price, tt.percent, got, tt.want)
			}
		})
	}
}

func TestUnscale(t *testing.T) {
	tests := []struct {
		name     string
		price    int64
		from, to int64
		want     int64
	}{
		{"exact reverse", 1100, 1000, 1100, 1000},
		{"keeps later change", 770, 1000, 1100, 700},
		{"half rounds up", 11, 1, 2, 6},
		{"wiped out adds delta back", 0, 5000, 0, 5000},
		{"wiped out keeps later change", 300, 5000, 0, 5300},
		{"large prices", 1_000_000_000_000, 2_000_000_000_000, 1_000_000_000_000, 2_000_000_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Unscale(tt.price, tt.from, tt.to); got != tt.want {
				t.Errorf("Unscale(%d, %d, %d) = %d, want %d", tt.price, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func plotMap(prices map[int]int64) map[int]models.Plot {
	plots := make(map[int]models.Plot, len(prices))
	for n, p := range prices {
		plots[n] = models.Plot{Number: n, TotalPrice: p}
	}
	return plots
}

// Round 2 card: plot 31 at -30%, neighbours 27, 33, 32 and 35 at -20%.
func roundTwoCard() models.PolicyCard {
	return models.PolicyCard{
		Round:       2,
		Question:    1,
		Description: "Highway rerouted away from plot 31",
		Effect: models.PolicyEffect{
			Target:  31,
			Percent: -30,
			Neighbors: []models.NeighborEffect{
				{Plot: 27, Percent: -20},
				{Plot: 33, Percent: -20},
				{Plot: 32, Percent: -20},
				{Plot: 35, Percent: -20},
			},
		},
	}
}

func TestApplyEffect(t *testing.T) {
	plots := plotMap(map[int]int64{
		27: 10000000, 31: 20013000, 32: 15000000, 33: 12500001, 35: 9999999, 40: 5000000,
	})

	changes, err := ApplyEffect(plots, roundTwoCard().Effect)
	if err != nil {
		t.Fatalf("ApplyEffect() error = %v", err)
	}

	want := map[int]int64{
		31: 14009100,
		27: 8000000,
		33: 10000001,
		32: 12000000,
		35: 7999999,
	}
	if len(changes) != len(want) {
		t.Fatalf("Expected %d changes, got %d", len(want), len(changes))
	}
	for _, c := range changes {
		if c.NewPrice != want[c.PlotNumber] {
			t.Errorf("plot %d: got %d, want %d", c.PlotNumber, c.NewPrice, want[c.PlotNumber])
		}
		if c.OldPrice != plots[c.PlotNumber].TotalPrice {
			t.Errorf("plot %d: old price %d, want %d", c.PlotNumber, c.OldPrice, plots[c.PlotNumber].TotalPrice)
		}
	}

	// Input map is untouched
	if plots[31].TotalPrice != 20013000 {
		t.Errorf("ApplyEffect() mutated its input")
	}
}

func TestApplyEffect_Compounds(t *testing.T) {
	plots := plotMap(map[int]int64{1: 1000})
	effect := models.PolicyEffect{
		Target:    1,
		Percent:   -50,
		Neighbors: []models.NeighborEffect{{Plot: 1, Percent: 10}},
	}

	changes, err := ApplyEffect(plots, effect)
	if err != nil {
		t.Fatalf("ApplyEffect() error = %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("Expected 2 changes, got %d", len(changes))
	}
	if changes[1].OldPrice != 500 || changes[1].NewPrice != 550 {
		t.Errorf("Second step = %+v, want 500 -> 550", changes[1])
	}
}

func TestApplyEffect_InvalidTarget(t *testing.T) {
	tests := []struct {
		name   string
		effect models.PolicyEffect
	}{
		{"missing target", models.PolicyEffect{Target: 99, Percent: -10}},
		{"missing neighbour", models.PolicyEffect{
			Target:    1,
			Percent:   -10,
			Neighbors: []models.NeighborEffect{{Plot: 98, Percent: -5}},
		}},
	}

	plots := plotMap(map[int]int64{1: 1000})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes, err := ApplyEffect(plots, tt.effect)
			if !errors.Is(err, ErrInvalidEffectTarget) {
				t.Errorf("Expected ErrInvalidEffectTarget, got %v", err)
			}
			if changes != nil {
				t.Errorf("Expected no changes on failure, got %v", changes)
			}
		})
	}
}

func TestLedger_ActivateOnce(t *testing.T) {
	plots := plotMap(map[int]int64{27: 100, 31: 100, 32: 100, 33: 100, 35: 100})
	l := New()
	card := roundTwoCard()

	if _, err := l.Activate(plots, card); err != nil {
		t.Fatalf("first Activate() error = %v", err)
	}
	if !l.IsApplied(card.Key()) {
		t.Error("Expected card to be marked applied")
	}

	changes, err := l.Activate(plots, card)
	if !errors.Is(err, ErrAlreadyApplied) {
		t.Errorf("Expected ErrAlreadyApplied, got %v", err)
	}
	if changes != nil {
		t.Errorf("Expected no changes on re-application, got %v", changes)
	}
}

func TestLedger_FailedActivationIsNotMarked(t *testing.T) {
	l := New()
	card := roundTwoCard()

	if _, err := l.Activate(plotMap(map[int]int64{31: 100}), card); err == nil {
		t.Fatal("Expected error for missing neighbours")
	}
	if l.IsApplied(card.Key()) {
		t.Error("Failed activation must not be marked applied")
	}
}

func TestLedger_CloneIsIndependent(t *testing.T) {
	l := New()
	l.Restore([]models.PolicyKey{{Round: 2, Question: 1}})

	c := l.Clone()
	c.Restore([]models.PolicyKey{{Round: 3, Question: 1}})

	if l.IsApplied(models.PolicyKey{Round: 3, Question: 1}) {
		t.Error("Clone shares state with original")
	}
	if !c.IsApplied(models.PolicyKey{Round: 2, Question: 1}) {
		t.Error("Clone lost original state")
	}
}

func TestLedger_AppliedOrderAndReset(t *testing.T) {
	l := New()
	l.Restore([]models.PolicyKey{
		{Round: 5, Question: 2},
		{Round: 2, Question: 3},
		{Round: 5, Question: 1},
	})

	got := l.Applied()
	want := []models.PolicyKey{{Round: 2, Question: 3}, {Round: 5, Question: 1}, {Round: 5, Question: 2}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Applied()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	l.Reset()
	if len(l.Applied()) != 0 {
		t.Error("Reset() left applied keys behind")
	}
}
