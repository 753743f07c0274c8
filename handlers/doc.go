// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP and WebSocket handlers for the landbid API.

# Handler Types

Each handler is a struct over the engine and whatever else it needs:

  - AuthHandler: team login
  - BidHandler: bid submission
  - AuctionHandler: state, plot, team, presence and policy card reads
  - AdminHandler: lifecycle commands and price adjustments
  - StreamHandler: the WebSocket push channel

	bidHandler := handlers.NewBidHandler(eng, cfg)

# Teams

	POST /api/auth/login → Login (passcode in, team_id and token out)
	POST /api/bids       → SubmitBid

Bids require the X-Team-ID and X-Team-Token headers.

# Admin

	POST /api/admin/{start,pause,resume,advance,sell,reset} → lifecycle
	POST /api/admin/round, /question                      → display
	POST /api/admin/adjust, /undo-adjustment              → prices

Admin operations require the X-Admin-Password header. Engine rejections are
returned with their code through middleware.EngineError.

# WebSocket

	GET /ws?team_id=...&token=...
	GET /ws?role=spectator
	GET /ws?role=admin&password=...

The first message is the current snapshot. After that the client receives
every committed event in order, and may send place_bid, get_state,
heartbeat and tab_visibility. A team that connects twice keeps only the
newer connection; the older one gets force_disconnect.
*/
package handlers
