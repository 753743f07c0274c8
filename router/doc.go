// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the landbid API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(eng, hub, verifier, m, cfg)

# Endpoints

Operations:

	GET /health  - Liveness plus auction status
	GET /metrics - Prometheus metrics

Teams (X-Team-ID and X-Team-Token after login):

	POST /api/auth/login - Exchange a passcode for a team token
	POST /api/bids       - Place a bid on the open plot

Reads (public):

	GET /api/state              - Auction snapshot
	GET /api/plots              - All plots in auction order
	GET /api/plots/{number}     - One plot
	GET /api/plots/{number}/bids - Bid history, newest first
	GET /api/teams              - Teams with budgets
	GET /api/teams/{id}         - One team
	GET /api/connected          - Online teams
	GET /api/policy-cards       - Policy cards, optionally ?round=N

Admin (X-Admin-Password):

	POST /api/admin/verify
	POST /api/admin/{start,pause,resume,advance,sell,reset}
	POST /api/admin/round
	POST /api/admin/question
	POST /api/admin/adjust
	POST /api/admin/undo-adjustment

Push channel:

	GET /ws - WebSocket upgrade, see package handlers

Every route except /health and /metrics goes through middleware.WithLogging.
*/
package router
