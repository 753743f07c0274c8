// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/landbid/auth"
	"github.com/danielhkuo/landbid/cliparse"
	"github.com/danielhkuo/landbid/db"
	"github.com/danielhkuo/landbid/models"
	"github.com/danielhkuo/landbid/store"
	_ "modernc.org/sqlite"
)

// TestAdminPassword is the admin password accepted by GetTestConfig
const TestAdminPassword = "test-admin-password"

// SetupTestDB creates a fresh in-memory database with the full schema.
// The database lives as long as its single connection.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3318,
		DatabaseURL:      ":memory:",
		DatabaseType:     "sqlite",
		PasscodeSalt:     "test-passcode-salt",
		TokenSecret:      "test-token-secret",
		TokenTTL:         time.Hour,
		AdminPassword:    TestAdminPassword,
		SellCountdown:    50 * time.Millisecond,
		SubscriberBuffer: 64,
		LogLevel:         "error",
		LogFormat:        "text",
	}
}

// Team names in the fixture catalog
const (
	TeamA = "Team A"
	TeamB = "Team B"
	TeamC = "Team C"
)

// Fixture is the seeded catalog
type Fixture struct {
	Teams     map[string]models.Team
	Passcodes map[string]string
}

// TeamID returns the ID of a fixture team by name
func (f Fixture) TeamID(name string) string {
	return f.Teams[name].ID
}

// FixturePlots is the test catalog in auction order.
//
// Round 1: plots 1 and 2. Round 2: 27, 31, 32, 33 and 35 (the policy card
// targets 31). Round 3: plot 40.
func FixturePlots() []models.Plot {
	plot := func(number, round int, base, area, total int64) models.Plot {
		return models.Plot{
			Number:       number,
			Category:     "RESIDENTIAL",
			Round:        round,
			TotalArea:    area,
			ActualArea:   area,
			BasePrice:    base,
			CatalogPrice: total,
			TotalPrice:   total,
			Status:       models.PlotPending,
		}
	}
	return []models.Plot{
		plot(1, 1, 1500, 13342, 20013000),
		plot(2, 1, 1000, 10000, 10000000),
		plot(27, 2, 1000, 10000, 10000000),
		plot(31, 2, 1500, 13342, 20013000),
		plot(32, 2, 1500, 10000, 15000000),
		plot(33, 2, 1250, 10000, 12500001),
		plot(35, 2, 1000, 10000, 9999999),
		plot(40, 3, 500, 10000, 5000000),
	}
}

// FixtureCards returns the policy cards of the test catalog
func FixtureCards() []models.PolicyCard {
	return []models.PolicyCard{
		{
			Round:       2,
			Question:    1,
			Description: "The planned highway is rerouted away from plot 31.",
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
		},
		{
			Round:       3,
			Question:    1,
			Description: "A school opens next to plot 40.",
			Effect: models.PolicyEffect{
				Target:    40,
				Percent:   10,
				Neighbors: []models.NeighborEffect{{Plot: 1, Percent: 5}},
			},
		},
	}
}

// SeedAuction inserts three teams, the fixture plots and the fixture cards
func SeedAuction(t *testing.T, conn *sql.DB, cfg cliparse.Config) Fixture {
	t.Helper()

	f := Fixture{
		Teams: make(map[string]models.Team),
		Passcodes: map[string]string{
			TeamA: "alpha-passcode",
			TeamB: "bravo-passcode",
			TeamC: "charlie-passcode",
		},
	}
	budgets := map[string]int64{
		TeamA: 500000000,
		TeamB: 500000000,
		TeamC: 3000000,
	}

	ctx := context.Background()
	err := store.New(conn).RunInTx(ctx, func(w store.Writer) error {
		for _, name := range []string{TeamA, TeamB, TeamC} {
			team := models.Team{
				ID:             auth.GenerateID(),
				Name:           name,
				PasscodeDigest: auth.PasscodeDigest(f.Passcodes[name], cfg.PasscodeSalt),
				Budget:         budgets[name],
				CreatedAt:      time.Now(),
			}
			if err := w.InsertTeam(ctx, team); err != nil {
				return err
			}
			f.Teams[name] = team
		}
		for _, p := range FixturePlots() {
			if err := w.InsertPlot(ctx, p); err != nil {
				return err
			}
		}
		for _, c := range FixtureCards() {
			if err := w.InsertPolicyCard(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to seed auction: %v", err)
	}

	return f
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
