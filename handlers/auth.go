// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/landbid/auth"
	"github.com/danielhkuo/landbid/cliparse"
	"github.com/danielhkuo/landbid/engine"
	"github.com/danielhkuo/landbid/middleware"
	"github.com/danielhkuo/landbid/models"
)

type AuthHandler struct {
	eng    *engine.Engine
	cfg    cliparse.Config
	tokens *auth.TokenIssuer
}

func NewAuthHandler(eng *engine.Engine, cfg cliparse.Config) *AuthHandler {
	return &AuthHandler{eng: eng, cfg: cfg, tokens: auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Passcode == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "passcode is required")
		return
	}

	team, ok := h.eng.TeamByDigest(auth.PasscodeDigest(req.Passcode, h.cfg.PasscodeSalt))
	if !ok {
		slog.Warn("login rejected", "remote", middleware.GetClientIP(r))
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid passcode")
		return
	}

	slog.Info("team logged in", "team", team.Name, "remote", middleware.GetClientIP(r))

	token, expires := h.tokens.Issue(team.ID)
	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{
		TeamID:    team.ID,
		TeamName:  team.Name,
		Token:     token,
		ExpiresAt: expires,
	})
}

// authenticateTeam checks the X-Team-ID and X-Team-Token headers and returns
// the team ID. It writes the 401 itself when they do not match.
func authenticateTeam(w http.ResponseWriter, r *http.Request, tokens *auth.TokenIssuer) (string, bool) {
	teamID := r.Header.Get("X-Team-ID")
	token := r.Header.Get("X-Team-Token")
	if err := tokens.Validate(teamID, token); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, tokenMessage(err))
		return "", false
	}
	return teamID, true
}

func tokenMessage(err error) string {
	if errors.Is(err, auth.ErrTokenExpired) {
		return "Team token expired, log in again"
	}
	return "Invalid team token"
}
