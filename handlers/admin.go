// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/landbid/auth"
	"github.com/danielhkuo/landbid/engine"
	"github.com/danielhkuo/landbid/middleware"
	"github.com/danielhkuo/landbid/models"
)

type AdminHandler struct {
	eng      *engine.Engine
	verifier *auth.AdminVerifier
}

func NewAdminHandler(eng *engine.Engine, verifier *auth.AdminVerifier) *AdminHandler {
	return &AdminHandler{eng: eng, verifier: verifier}
}

// authorize checks X-Admin-Password and writes the 401 itself on failure.
func (h *AdminHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
	if err := h.verifier.Verify(r.Header.Get("X-Admin-Password")); err != nil {
		slog.Warn("admin request rejected", "path", r.URL.Path, "remote", middleware.GetClientIP(r))
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin password")
		return false
	}
	return true
}

// Verify handles POST /api/admin/verify
func (h *AdminHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req models.AdminVerifyRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.verifier.Verify(req.Password); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin password")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// command adapts a lifecycle operation to a handler
func (h *AdminHandler) command(name string, op func(ctx context.Context) (models.Snapshot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.authorize(w, r) {
			return
		}
		snap, err := op(r.Context())
		if err != nil {
			middleware.EngineError(w, err)
			return
		}
		slog.Info("admin command", "command", name, "status", snap.Status, "version", snap.Version)
		middleware.JSONResponse(w, http.StatusOK, models.CommandResponse{Status: "ok", Snapshot: snap})
	}
}

// Start handles POST /api/admin/start
func (h *AdminHandler) Start() http.HandlerFunc { return h.command("start", h.eng.Start) }

// Pause handles POST /api/admin/pause
func (h *AdminHandler) Pause() http.HandlerFunc { return h.command("pause", h.eng.Pause) }

// Resume handles POST /api/admin/resume
func (h *AdminHandler) Resume() http.HandlerFunc { return h.command("resume", h.eng.Resume) }

// Advance handles POST /api/admin/advance
func (h *AdminHandler) Advance() http.HandlerFunc { return h.command("advance", h.eng.Advance) }

// Sell handles POST /api/admin/sell
func (h *AdminHandler) Sell() http.HandlerFunc { return h.command("sell", h.eng.Sell) }

// Reset handles POST /api/admin/reset
func (h *AdminHandler) Reset() http.HandlerFunc { return h.command("reset", h.eng.Reset) }

// SetRound handles POST /api/admin/round
func (h *AdminHandler) SetRound(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	var req models.SetRoundRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	snap, err := h.eng.SetRound(r.Context(), req.Round)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.CommandResponse{Status: "ok", Snapshot: snap})
}

// PushQuestion handles POST /api/admin/question
func (h *AdminHandler) PushQuestion(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	var req models.PushQuestionRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	snap, err := h.eng.PushQuestion(r.Context(), req.Round, req.Question)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.CommandResponse{Status: "ok", Snapshot: snap})
}

// AdjustPlots handles POST /api/admin/adjust
func (h *AdminHandler) AdjustPlots(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	var req models.AdjustPlotsRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	resp, err := h.eng.AdjustPlots(r.Context(), req.PlotNumbers, req.Percent)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}
	slog.Info("plots adjusted", "batch", resp.BatchID, "plots", len(resp.Changes), "percent", req.Percent)
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// UndoAdjustment handles POST /api/admin/undo-adjustment
func (h *AdminHandler) UndoAdjustment(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	resp, err := h.eng.UndoAdjustment(r.Context())
	if err != nil {
		middleware.EngineError(w, err)
		return
	}
	slog.Info("adjustment undone", "batch", resp.BatchID)
	middleware.JSONResponse(w, http.StatusOK, resp)
}
