// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/landbid/auth"
	"github.com/danielhkuo/landbid/cliparse"
	"github.com/danielhkuo/landbid/engine"
	"github.com/danielhkuo/landbid/middleware"
	"github.com/danielhkuo/landbid/models"
)

type BidHandler struct {
	eng    *engine.Engine
	tokens *auth.TokenIssuer
}

func NewBidHandler(eng *engine.Engine, cfg cliparse.Config) *BidHandler {
	return &BidHandler{eng: eng, tokens: auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)}
}

// SubmitBid handles POST /api/bids
func (h *BidHandler) SubmitBid(w http.ResponseWriter, r *http.Request) {
	teamID, ok := authenticateTeam(w, r, h.tokens)
	if !ok {
		return
	}

	var req models.SubmitBidRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	bid, err := h.eng.SubmitBid(r.Context(), teamID, req.PlotNumber, req.Amount)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}

	// May already reflect a later bid
	plot, err := h.eng.Plot(bid.PlotNumber)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitBidResponse{
		Bid:  bid,
		Plot: plot,
	})
}
