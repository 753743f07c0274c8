// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

	mux.HandleFunc("POST /api/bids", middleware.WithLogging(handler))

Logs the completed request with its status and duration_ms. WebSocket
upgrades pass through the wrapper.

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows the X-Admin-Password, X-Team-ID and X-Team-Token headers.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusUnauthorized, "message")

EngineError maps an engine error to its status (400, 404, 409, 422 or 503)
and includes the machine-readable code:

	if _, err := eng.Start(ctx); err != nil {
		middleware.EngineError(w, err)
		return
	}

ParseJSONBody rejects unknown fields and bodies over MaxBodyBytes.
*/
package middleware
