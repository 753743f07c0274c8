// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/danielhkuo/landbid/auth"
	"github.com/danielhkuo/landbid/models"
	"github.com/danielhkuo/landbid/store"
	"github.com/dustin/go-humanize"
	"github.com/pelletier/go-toml/v2"
)

var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog is the auction's fixed content: teams, plots and policy cards.
type Catalog struct {
	Teams       []Team       `toml:"teams"`
	Plots       []Plot       `toml:"plots"`
	PolicyCards []PolicyCard `toml:"policy_cards"`
}

type Team struct {
	Name     string `toml:"name"`
	Passcode string `toml:"passcode"`
	Budget   int64  `toml:"budget"`
}

type Plot struct {
	Number     int    `toml:"number"`
	Category   string `toml:"category"`
	Round      int    `toml:"round"`
	TotalArea  int64  `toml:"total_area"`
	ActualArea int64  `toml:"actual_area"`
	BasePrice  int64  `toml:"base_price"`
	// TotalPrice defaults to BasePrice * TotalArea
	TotalPrice int64 `toml:"total_price"`
}

type PolicyCard struct {
	Round       int                     `toml:"round"`
	Question    int                     `toml:"question"`
	Description string                  `toml:"description"`
	Target      int                     `toml:"target"`
	Percent     float64                 `toml:"percent"`
	Neighbors   []models.NeighborEffect `toml:"neighbors"`
}

// Load reads and validates a TOML catalog.
func Load(path string) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer file.Close()

	var cat Catalog
	if err := toml.NewDecoder(file).DisallowUnknownFields().Decode(&cat); err != nil {
		return nil, fmt.Errorf("failed to decode catalog %s: %w", path, err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks the catalog is internally consistent.
func (c *Catalog) Validate() error {
	names := make(map[string]bool)
	passcodes := make(map[string]bool)
	for _, t := range c.Teams {
		switch {
		case t.Name == "":
			return fmt.Errorf("%w: team without a name", ErrInvalidCatalog)
		case names[t.Name]:
			return fmt.Errorf("%w: duplicate team %q", ErrInvalidCatalog, t.Name)
		case t.Passcode == "":
			return fmt.Errorf("%w: team %q has no passcode", ErrInvalidCatalog, t.Name)
		case passcodes[t.Passcode]:
			return fmt.Errorf("%w: team %q reuses another team's passcode", ErrInvalidCatalog, t.Name)
		case t.Budget <= 0:
			return fmt.Errorf("%w: team %q needs a positive budget", ErrInvalidCatalog, t.Name)
		}
		names[t.Name] = true
		passcodes[t.Passcode] = true
	}

	plots := make(map[int]bool)
	for _, p := range c.Plots {
		switch {
		case p.Number <= 0:
			return fmt.Errorf("%w: plot number %d must be positive", ErrInvalidCatalog, p.Number)
		case plots[p.Number]:
			return fmt.Errorf("%w: duplicate plot %d", ErrInvalidCatalog, p.Number)
		case p.Round <= 0:
			return fmt.Errorf("%w: plot %d needs a positive round", ErrInvalidCatalog, p.Number)
		case p.BasePrice <= 0 || p.TotalArea < 0 || p.ActualArea < 0 || p.TotalPrice < 0:
			return fmt.Errorf("%w: plot %d has a negative area or price", ErrInvalidCatalog, p.Number)
		}
		plots[p.Number] = true
	}

	type key struct{ round, question int }
	cards := make(map[key]bool)
	for _, pc := range c.PolicyCards {
		k := key{pc.Round, pc.Question}
		switch {
		case pc.Round <= 0 || pc.Question <= 0:
			return fmt.Errorf("%w: policy card %d/%d needs a positive round and question", ErrInvalidCatalog, pc.Round, pc.Question)
		case cards[k]:
			return fmt.Errorf("%w: duplicate policy card %d/%d", ErrInvalidCatalog, pc.Round, pc.Question)
		case !plots[pc.Target]:
			return fmt.Errorf("%w: policy card %d/%d targets unknown plot %d", ErrInvalidCatalog, pc.Round, pc.Question, pc.Target)
		case pc.Percent < -100:
			return fmt.Errorf("%w: policy card %d/%d percent below -100", ErrInvalidCatalog, pc.Round, pc.Question)
		}
		for _, n := range pc.Neighbors {
			if !plots[n.Plot] {
				return fmt.Errorf("%w: policy card %d/%d names unknown neighbour %d", ErrInvalidCatalog, pc.Round, pc.Question, n.Plot)
			}
			if n.Percent < -100 {
				return fmt.Errorf("%w: policy card %d/%d neighbour %d percent below -100", ErrInvalidCatalog, pc.Round, pc.Question, n.Plot)
			}
		}
		cards[k] = true
	}
	return nil
}

// Bootstrap writes the catalog in one transaction, but only into a database
// with no teams. It reports whether anything was written.
func Bootstrap(ctx context.Context, st *store.Store, cat *Catalog, salt string) (bool, error) {
	seeded, err := st.HasTeams(ctx)
	if err != nil {
		return false, err
	}
	if seeded {
		slog.Info("catalog already seeded, skipping")
		return false, nil
	}

	now := time.Now()
	var budget int64
	err = st.RunInTx(ctx, func(w store.Writer) error {
		for _, t := range cat.Teams {
			err := w.InsertTeam(ctx, models.Team{
				ID:             auth.GenerateID(),
				Name:           t.Name,
				PasscodeDigest: auth.PasscodeDigest(t.Passcode, salt),
				Budget:         t.Budget,
				CreatedAt:      now,
			})
			if err != nil {
				return fmt.Errorf("insert team %q: %w", t.Name, err)
			}
			budget += t.Budget
		}
		for _, p := range cat.Plots {
			if err := w.InsertPlot(ctx, p.model()); err != nil {
				return fmt.Errorf("insert plot %d: %w", p.Number, err)
			}
		}
		for _, pc := range cat.PolicyCards {
			if err := w.InsertPolicyCard(ctx, pc.model()); err != nil {
				return fmt.Errorf("insert policy card %d/%d: %w", pc.Round, pc.Question, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	slog.Info("catalog seeded",
		"teams", len(cat.Teams),
		"plots", len(cat.Plots),
		"policy_cards", len(cat.PolicyCards),
		"total_budget", humanize.Comma(budget),
	)
	return true, nil
}

func (p Plot) model() models.Plot {
	total := p.TotalPrice
	if total == 0 {
		total = p.BasePrice * p.TotalArea
	}
	return models.Plot{
		Number:       p.Number,
		Category:     p.Category,
		Round:        p.Round,
		TotalArea:    p.TotalArea,
		ActualArea:   p.ActualArea,
		BasePrice:    p.BasePrice,
		CatalogPrice: total,
		TotalPrice:   total,
		Status:       models.PlotPending,
	}
}

func (pc PolicyCard) model() models.PolicyCard {
	return models.PolicyCard{
		Round:       pc.Round,
		Question:    pc.Question,
		Description: pc.Description,
		Effect: models.PolicyEffect{
			Target:    pc.Target,
			Percent:   pc.Percent,
			Neighbors: pc.Neighbors,
		},
	}
}
