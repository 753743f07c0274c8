// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/landbid/engine"
	"github.com/danielhkuo/landbid/models"
)

func TestWithLogging_PreservesResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		body       string
	}{
		{"OK", http.StatusOK, "ok"},
		{"Created", http.StatusCreated, `{"id":"123"}`},
		{"Conflict", http.StatusConflict, `{"error":"Conflict"}`},
		{"InternalError", http.StatusInternalServerError, "error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var seen int
			handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				w.Write([]byte(tc.body))
				seen = w.(*statusRecorder).status
			})

			req := httptest.NewRequest("POST", "/api/bids", nil)
			w := httptest.NewRecorder()
			handler(w, req)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if w.Body.String() != tc.body {
				t.Errorf("Expected body '%s', got '%s'", tc.body, w.Body.String())
			}
			if seen != tc.statusCode {
				t.Errorf("Recorder saw status %d, want %d", seen, tc.statusCode)
			}
		})
	}
}

func TestWithLogging_Hijack(t *testing.T) {
	handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := w.(http.Hijacker); !ok {
			t.Error("Expected the wrapped writer to implement http.Hijacker")
		}
		// The recorder does not support hijacking
		if _, _, err := w.(http.Hijacker).Hijack(); err == nil {
			t.Error("Expected an error hijacking a recorder")
		}
	})
	handler(httptest.NewRecorder(), httptest.NewRequest("GET", "/ws", nil))
}

func TestJSONResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		data       interface{}
		expected   string
	}{
		{
			name:       "simple struct",
			statusCode: http.StatusOK,
			data:       map[string]string{"message": "hello"},
			expected:   `{"message":"hello"}`,
		},
		{
			name:       "login response",
			statusCode: http.StatusOK,
			data:       models.LoginResponse{TeamID: "t1", TeamName: "Team A", Token: "tok"},
			expected:   `{"team_id":"t1","team_name":"Team A","token":"tok"}`,
		},
		{
			name:       "error response",
			statusCode: http.StatusBadRequest,
			data:       models.ErrorResponse{Error: "Bad Request", Message: "missing field"},
			expected:   `{"error":"Bad Request","message":"missing field"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			JSONResponse(w, tc.statusCode, tc.data)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
			}
			if body := strings.TrimSpace(w.Body.String()); body != tc.expected {
				t.Errorf("Expected body '%s', got '%s'", tc.expected, body)
			}
		})
	}
}

func TestErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorResponse(w, http.StatusUnauthorized, "invalid team token")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
	var resp models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Error != "Unauthorized" || resp.Message != "invalid team token" || resp.Code != "" {
		t.Errorf("Unexpected error response %+v", resp)
	}
}

func TestEngineError(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		status     int
		code       string
		retryAfter bool
	}{
		{"validation", engine.ErrInvalidRequest, http.StatusBadRequest, "invalid_request", false},
		{"not found", engine.ErrPlotNotFound, http.StatusNotFound, engine.ErrPlotNotFound.Code, false},
		{"conflict", engine.ErrBidTooLow, http.StatusConflict, engine.ErrBidTooLow.Code, false},
		{"wrapped conflict", fmt.Errorf("submit: %w", engine.ErrAuctionNotActive), http.StatusConflict, engine.ErrAuctionNotActive.Code, false},
		{"budget", engine.ErrInsufficientBudget, http.StatusUnprocessableEntity, engine.ErrInsufficientBudget.Code, false},
		{"persistence", engine.ErrPersistence, http.StatusServiceUnavailable, engine.ErrPersistence.Code, true},
		{"stopped", engine.ErrStopped, http.StatusServiceUnavailable, engine.ErrStopped.Code, true},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			EngineError(w, tc.err)

			if w.Code != tc.status {
				t.Errorf("Expected status %d, got %d", tc.status, w.Code)
			}
			if got := w.Header().Get("Retry-After") != ""; got != tc.retryAfter {
				t.Errorf("Retry-After present = %v, want %v", got, tc.retryAfter)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Code != tc.code {
				t.Errorf("Expected code %q, got %q", tc.code, resp.Code)
			}
			if tc.code == "" && resp.Message != "Internal error" {
				t.Errorf("Plain errors must not leak details, got %q", resp.Message)
			}
		})
	}
}

func TestParseJSONBody(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"plot_number":1,"amount":2000000}`, false},
		{"invalid JSON", `{invalid json}`, true},
		{"empty body", ``, true},
		{"unknown field", `{"plot_number":1,"amount":5,"team_id":"x"}`, true},
		{"too large", `{"plot_number":1,"amount":` + strings.Repeat("1", MaxBodyBytes) + `}`, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/bids", strings.NewReader(tc.body))
			w := httptest.NewRecorder()

			var parsed models.SubmitBidRequest
			err := ParseJSONBody(w, req, &parsed)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseJSONBody() error = %v, wantErr %v", err, tc.wantErr)
			}
			if !tc.wantErr && (parsed.PlotNumber != 1 || parsed.Amount != 2000000) {
				t.Errorf("Unexpected parse result %+v", parsed)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("handled"))
	})
	corsHandler := CORS(nextHandler)

	t.Run("preflight OPTIONS request", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/api/bids", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		if w.Body.String() != "" {
			t.Errorf("Expected empty body for preflight, got '%s'", w.Body.String())
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
			t.Error("Expected Access-Control-Allow-Origin to match request origin")
		}

		allowed := w.Header().Get("Access-Control-Allow-Headers")
		for _, h := range []string{"Content-Type", "X-Admin-Password", "X-Team-ID", "X-Team-Token"} {
			if !strings.Contains(allowed, h) {
				t.Errorf("Expected %s in allowed headers", h)
			}
		}
	})

	t.Run("request without origin defaults to wildcard", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/state", nil)
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Body.String() != "handled" {
			t.Error("Expected next handler to be called")
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("Expected Access-Control-Allow-Origin to default to '*'")
		}
	})
}

func TestGetClientIP(t *testing.T) {
	testCases := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expectedIP string
	}{
		{"X-Forwarded-For single IP", map[string]string{"X-Forwarded-For": "192.168.1.100"}, "10.0.0.1:12345", "192.168.1.100"},
		{"X-Forwarded-For chain", map[string]string{"X-Forwarded-For": "203.0.113.195, 70.41.3.18"}, "127.0.0.1:12345", "203.0.113.195"},
		{"X-Real-IP", map[string]string{"X-Real-IP": "203.0.113.50"}, "10.0.0.1:12345", "203.0.113.50"},
		{"RemoteAddr with port", nil, "192.168.1.50:54321", "192.168.1.50"},
		{"RemoteAddr without port", nil, "192.168.1.50", "192.168.1.50"},
		{"IPv6 RemoteAddr with port", nil, "[::1]:12345", "::1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			if got := GetClientIP(req); got != tc.expectedIP {
				t.Errorf("Expected IP '%s', got '%s'", tc.expectedIP, got)
			}
		})
	}
}
