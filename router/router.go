// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/landbid/auth"
	"github.com/danielhkuo/landbid/broadcast"
	"github.com/danielhkuo/landbid/cliparse"
	"github.com/danielhkuo/landbid/engine"
	"github.com/danielhkuo/landbid/handlers"
	"github.com/danielhkuo/landbid/metrics"
	"github.com/danielhkuo/landbid/middleware"
)

func NewRouter(eng *engine.Engine, hub *broadcast.Hub, verifier *auth.AdminVerifier, m *metrics.Metrics, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(eng, cfg)
	bidHandler := handlers.NewBidHandler(eng, cfg)
	auctionHandler := handlers.NewAuctionHandler(eng, hub)
	adminHandler := handlers.NewAdminHandler(eng, verifier)
	streamHandler := handlers.NewStreamHandler(eng, hub, verifier, cfg)

	// Operations
	mux.HandleFunc("GET /health", auctionHandler.Health)
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	// Teams
	mux.HandleFunc("POST /api/auth/login", middleware.WithLogging(authHandler.Login))
	mux.HandleFunc("POST /api/bids", middleware.WithLogging(bidHandler.SubmitBid))

	// Reads (public)
	mux.HandleFunc("GET /api/state", middleware.WithLogging(auctionHandler.GetState))
	mux.HandleFunc("GET /api/plots", middleware.WithLogging(auctionHandler.ListPlots))
	mux.HandleFunc("GET /api/plots/{number}", middleware.WithLogging(auctionHandler.GetPlot))
	mux.HandleFunc("GET /api/plots/{number}/bids", middleware.WithLogging(auctionHandler.ListPlotBids))
	mux.HandleFunc("GET /api/teams", middleware.WithLogging(auctionHandler.ListTeams))
	mux.HandleFunc("GET /api/teams/{id}", middleware.WithLogging(auctionHandler.GetTeam))
	mux.HandleFunc("GET /api/connected", middleware.WithLogging(auctionHandler.GetConnected))
	mux.HandleFunc("GET /api/policy-cards", middleware.WithLogging(auctionHandler.ListPolicyCards))

	// Admin
	mux.HandleFunc("POST /api/admin/verify", middleware.WithLogging(adminHandler.Verify))
	mux.HandleFunc("POST /api/admin/start", middleware.WithLogging(adminHandler.Start()))
	mux.HandleFunc("POST /api/admin/pause", middleware.WithLogging(adminHandler.Pause()))
	mux.HandleFunc("POST /api/admin/resume", middleware.WithLogging(adminHandler.Resume()))
	mux.HandleFunc("POST /api/admin/advance", middleware.WithLogging(adminHandler.Advance()))
	mux.HandleFunc("POST /api/admin/sell", middleware.WithLogging(adminHandler.Sell()))
	mux.HandleFunc("POST /api/admin/reset", middleware.WithLogging(adminHandler.Reset()))
	mux.HandleFunc("POST /api/admin/round", middleware.WithLogging(adminHandler.SetRound))
	mux.HandleFunc("POST /api/admin/question", middleware.WithLogging(adminHandler.PushQuestion))
	mux.HandleFunc("POST /api/admin/adjust", middleware.WithLogging(adminHandler.AdjustPlots))
	mux.HandleFunc("POST /api/admin/undo-adjustment", middleware.WithLogging(adminHandler.UndoAdjustment))

	// Push channel
	mux.HandleFunc("GET /ws", middleware.WithLogging(streamHandler.ServeWS))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("landbid API v1"))
	})

	return mux
}
