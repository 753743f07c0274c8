// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/landbid/models"
	"github.com/danielhkuo/landbid/testutil"
	"github.com/gorilla/websocket"
)

// wireEvent mirrors models.Event with the payload left raw
type wireEvent struct {
	Type    string          `json:"type"`
	Seq     uint64          `json:"seq"`
	Version uint64          `json:"version"`
	Data    json.RawMessage `json:"data"`
}

func startStreamServer(t *testing.T, env *testEnv) *httptest.Server {
	t.Helper()
	handler := NewStreamHandler(env.eng, env.hub, env.verifier, env.cfg)
	srv := httptest.NewServer(http.HandlerFunc(handler.ServeWS))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query url.Values) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + query.Encode()
	conn, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, resp, err
}

func (e *testEnv) teamQuery(name string) url.Values {
	id := e.fix.TeamID(name)
	return url.Values{
		"team_id": {id},
		"token":   {e.teamToken(id)},
	}
}

// readUntil reads messages until one of type want arrives
func readUntil(t *testing.T, conn *websocket.Conn, want string) wireEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var ev wireEvent
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("Waiting for %s: %v", want, err)
		}
		if ev.Type == want {
			return ev
		}
	}
}

func TestStream_Authentication(t *testing.T) {
	env := newTestEnv(t)
	srv := startStreamServer(t, env)

	forged := env.teamQuery(testutil.TeamA)
	forged.Set("token", "forged")

	tests := []struct {
		name           string
		query          url.Values
		expectedStatus int
	}{
		{"team", env.teamQuery(testutil.TeamA), http.StatusSwitchingProtocols},
		{"spectator", url.Values{"role": {"spectator"}}, http.StatusSwitchingProtocols},
		{"no role", url.Values{}, http.StatusSwitchingProtocols},
		{"admin", url.Values{"role": {"admin"}, "password": {testutil.TestAdminPassword}}, http.StatusSwitchingProtocols},
		{"admin wrong password", url.Values{"role": {"admin"}, "password": {"guess"}}, http.StatusUnauthorized},
		{"forged token", forged, http.StatusUnauthorized},
		{"unknown role", url.Values{"role": {"auctioneer"}}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := dial(t, srv, tt.query)
			if resp == nil {
				t.Fatalf("No HTTP response: %v", err)
			}
			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, resp.StatusCode)
			}
		})
	}
}

func TestStream_InitialSnapshotAndEvents(t *testing.T) {
	env := newTestEnv(t)
	srv := startStreamServer(t, env)

	conn, _, err := dial(t, srv, url.Values{"role": {"spectator"}})
	if err != nil {
		t.Fatal(err)
	}

	first := readUntil(t, conn, models.EventAuctionState)
	var snap models.Snapshot
	if err := json.Unmarshal(first.Data, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Status != models.AuctionNotStarted {
		t.Errorf("Expected initial not_started snapshot, got %s", snap.Status)
	}

	if _, err := env.eng.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	plot := readUntil(t, conn, models.EventPlot)
	state := readUntil(t, conn, models.EventAuctionState)
	if plot.Seq == 0 || state.Seq <= plot.Seq {
		t.Errorf("Expected increasing seq, got plot %d state %d", plot.Seq, state.Seq)
	}
	if state.Version != env.eng.Version() {
		t.Errorf("State event version %d, engine at %d", state.Version, env.eng.Version())
	}
}

func TestStream_PlaceBid(t *testing.T) {
	env := newTestEnv(t)
	srv := startStreamServer(t, env)
	if _, err := env.eng.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	teamA, _, err := dial(t, srv, env.teamQuery(testutil.TeamA))
	if err != nil {
		t.Fatal(err)
	}
	teamB, _, err := dial(t, srv, env.teamQuery(testutil.TeamB))
	if err != nil {
		t.Fatal(err)
	}
	readUntil(t, teamA, models.EventAuctionState)
	readUntil(t, teamB, models.EventAuctionState)

	if err := teamA.WriteJSON(models.ClientMessage{Type: "place_bid", PlotNumber: 1, Amount: 2000000}); err != nil {
		t.Fatal(err)
	}

	// Both teams see the accepted bid
	for _, conn := range []*websocket.Conn{teamA, teamB} {
		ev := readUntil(t, conn, models.EventBid)
		var be models.BidEvent
		if err := json.Unmarshal(ev.Data, &be); err != nil {
			t.Fatal(err)
		}
		if be.Bid.Amount != 2000000 || be.TeamName != testutil.TeamA {
			t.Errorf("Unexpected bid event %+v", be)
		}
	}

	// An equal bid is rejected to the sender only
	if err := teamB.WriteJSON(models.ClientMessage{Type: "place_bid", PlotNumber: 1, Amount: 2000000}); err != nil {
		t.Fatal(err)
	}
	ev := readUntil(t, teamB, models.EventBidError)
	var resp models.ErrorResponse
	if err := json.Unmarshal(ev.Data, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != "bid_too_low" {
		t.Errorf("Expected bid_too_low, got %q", resp.Code)
	}

	// get_state answers with a fresh snapshot
	if err := teamB.WriteJSON(models.ClientMessage{Type: "get_state"}); err != nil {
		t.Fatal(err)
	}
	state := readUntil(t, teamB, models.EventAuctionState)
	var snap models.Snapshot
	if err := json.Unmarshal(state.Data, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Plot == nil || snap.Plot.CurrentBid == nil || *snap.Plot.CurrentBid != 2000000 {
		t.Errorf("Snapshot missing the current bid: %+v", snap.Plot)
	}
}

func TestStream_SpectatorCannotBid(t *testing.T) {
	env := newTestEnv(t)
	srv := startStreamServer(t, env)
	if _, err := env.eng.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	conn, _, err := dial(t, srv, url.Values{"role": {"spectator"}})
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(models.ClientMessage{Type: "place_bid", PlotNumber: 1, Amount: 2000000}); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, models.EventBidError)

	if bids, _ := env.eng.Bids(1); len(bids) != 0 {
		t.Errorf("Spectator bid was accepted")
	}
}

func TestStream_SecondConnectionReplacesFirst(t *testing.T) {
	env := newTestEnv(t)
	srv := startStreamServer(t, env)

	first, _, err := dial(t, srv, env.teamQuery(testutil.TeamA))
	if err != nil {
		t.Fatal(err)
	}
	readUntil(t, first, models.EventAuctionState)

	second, _, err := dial(t, srv, env.teamQuery(testutil.TeamA))
	if err != nil {
		t.Fatal(err)
	}
	readUntil(t, second, models.EventAuctionState)

	ev := readUntil(t, first, models.EventForceDisconnect)
	var data map[string]string
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data["reason"] != "replaced" {
		t.Errorf("Expected reason replaced, got %q", data["reason"])
	}

	// The first connection is closed after the notice
	first.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			break
		}
	}

	count, teams := env.hub.Presence()
	if count != 1 || len(teams) != 1 || teams[0] != testutil.TeamA {
		t.Errorf("Presence = %d %v, want 1 [%s]", count, teams, testutil.TeamA)
	}
}

func TestStream_TabVisibility(t *testing.T) {
	env := newTestEnv(t)
	srv := startStreamServer(t, env)

	conn, _, err := dial(t, srv, env.teamQuery(testutil.TeamB))
	if err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, models.EventAuctionState)

	hidden := false
	if err := conn.WriteJSON(models.ClientMessage{Type: "tab_visibility", Visible: &hidden}); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		for _, team := range env.hub.OnlineTeams() {
			if team.TeamName == testutil.TeamB && team.Status == "idle" {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("Team B never shown as idle")
}
