// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strconv"

	"github.com/danielhkuo/landbid/broadcast"
	"github.com/danielhkuo/landbid/engine"
	"github.com/danielhkuo/landbid/middleware"
	"github.com/danielhkuo/landbid/models"
)

// AuctionHandler serves the read side. Every read comes from the engine's
// last committed view.
type AuctionHandler struct {
	eng *engine.Engine
	hub *broadcast.Hub
}

func NewAuctionHandler(eng *engine.Engine, hub *broadcast.Hub) *AuctionHandler {
	return &AuctionHandler{eng: eng, hub: hub}
}

// Health handles GET /health
func (h *AuctionHandler) Health(w http.ResponseWriter, r *http.Request) {
	snap := h.eng.Snapshot()
	middleware.JSONResponse(w, http.StatusOK, models.HealthResponse{
		Status:  "ok",
		Auction: snap.Status,
		Version: snap.Version,
	})
}

// GetState handles GET /api/state
func (h *AuctionHandler) GetState(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, h.eng.Snapshot())
}

// ListPlots handles GET /api/plots
func (h *AuctionHandler) ListPlots(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, h.eng.Plots())
}

// GetPlot handles GET /api/plots/{number}
func (h *AuctionHandler) GetPlot(w http.ResponseWriter, r *http.Request) {
	number, ok := plotNumber(w, r)
	if !ok {
		return
	}
	plot, err := h.eng.Plot(number)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, plot)
}

// ListPlotBids handles GET /api/plots/{number}/bids
func (h *AuctionHandler) ListPlotBids(w http.ResponseWriter, r *http.Request) {
	number, ok := plotNumber(w, r)
	if !ok {
		return
	}
	bids, err := h.eng.Bids(number)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, bids)
}

// ListTeams handles GET /api/teams
func (h *AuctionHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, h.eng.Teams())
}

// GetTeam handles GET /api/teams/{id}
func (h *AuctionHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.eng.Team(r.PathValue("id"))
	if err != nil {
		middleware.EngineError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, team)
}

// GetConnected handles GET /api/connected
func (h *AuctionHandler) GetConnected(w http.ResponseWriter, r *http.Request) {
	count, teams := h.hub.Presence()
	middleware.JSONResponse(w, http.StatusOK, models.ConnectedResponse{
		Count: count,
		Teams: teams,
	})
}

// ListPolicyCards handles GET /api/policy-cards?round=N
func (h *AuctionHandler) ListPolicyCards(w http.ResponseWriter, r *http.Request) {
	round := 0
	if v := r.URL.Query().Get("round"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "round must be a positive integer")
			return
		}
		round = n
	}

	cards := h.eng.PolicyCards(round)
	if cards == nil {
		cards = []models.PolicyCard{}
	}
	middleware.JSONResponse(w, http.StatusOK, cards)
}

func plotNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || n <= 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "plot number must be a positive integer")
		return 0, false
	}
	return n, true
}
