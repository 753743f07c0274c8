// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"testing"

	"github.com/danielhkuo/landbid/auth"
	"github.com/danielhkuo/landbid/broadcast"
	"github.com/danielhkuo/landbid/cliparse"
	"github.com/danielhkuo/landbid/engine"
	"github.com/danielhkuo/landbid/store"
	"github.com/danielhkuo/landbid/testutil"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	eng      *engine.Engine
	hub      *broadcast.Hub
	verifier *auth.AdminVerifier
	cfg      cliparse.Config
	fix      testutil.Fixture
}

// newTestEnv seeds the fixture catalog and runs an engine publishing to a hub
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	fix := testutil.SeedAuction(t, conn, cfg)

	// Cheapest cost keeps the tests fast
	hash, err := bcrypt.GenerateFromPassword([]byte(testutil.TestAdminPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	verifier, err := auth.NewAdminVerifier("", string(hash))
	if err != nil {
		t.Fatal(err)
	}

	hub := broadcast.NewHub(cfg.SubscriberBuffer, cfg.ReconnectGrace, nil)
	eng, err := engine.New(context.Background(), store.New(conn), hub, engine.Options{SellCountdown: cfg.SellCountdown})
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		eng.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return &testEnv{eng: eng, hub: hub, verifier: verifier, cfg: cfg, fix: fix}
}

// teamHeaders returns the auth headers for a fixture team
func (e *testEnv) teamHeaders(name string) map[string]string {
	id := e.fix.TeamID(name)
	return map[string]string{
		"X-Team-ID":    id,
		"X-Team-Token": e.teamToken(id),
	}
}

func (e *testEnv) teamToken(teamID string) string {
	token, _ := auth.NewTokenIssuer(e.cfg.TokenSecret, e.cfg.TokenTTL).Issue(teamID)
	return token
}

func adminHeaders() map[string]string {
	return map[string]string{"X-Admin-Password": testutil.TestAdminPassword}
}
