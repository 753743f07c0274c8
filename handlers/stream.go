// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/landbid/auth"
	"github.com/danielhkuo/landbid/broadcast"
	"github.com/danielhkuo/landbid/cliparse"
	"github.com/danielhkuo/landbid/engine"
	"github.com/danielhkuo/landbid/middleware"
	"github.com/danielhkuo/landbid/models"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4 << 10
	bidTimeout     = 5 * time.Second
	replyBuffer    = 16
)

// StreamHandler pushes committed events to WebSocket clients and accepts
// bids over the same connection.
type StreamHandler struct {
	eng      *engine.Engine
	hub      *broadcast.Hub
	verifier *auth.AdminVerifier
	tokens   *auth.TokenIssuer
	upgrader websocket.Upgrader
}

func NewStreamHandler(eng *engine.Engine, hub *broadcast.Hub, verifier *auth.AdminVerifier, cfg cliparse.Config) *StreamHandler {
	return &StreamHandler{
		eng:      eng,
		hub:      hub,
		verifier: verifier,
		tokens:   auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS handles GET /ws
//
// Teams connect with ?team_id=...&token=...; everyone else passes
// ?role=spectator or ?role=admin&password=...
func (h *StreamHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	client, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	s := &session{
		conn:       conn,
		eng:        h.eng,
		hub:        h.hub,
		sub:        h.hub.Subscribe(client),
		replies:    make(chan models.Event, replyBuffer),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
		visible:    true,
	}
	go s.writeLoop()

	s.reply(stateEvent(h.eng.Snapshot()))
	s.readLoop()

	close(s.done)
	s.sub.Close()
	<-s.writerDone
	conn.Close()
}

func (h *StreamHandler) authenticate(w http.ResponseWriter, r *http.Request) (broadcast.Client, bool) {
	q := r.URL.Query()

	if teamID := q.Get("team_id"); teamID != "" {
		if err := h.tokens.Validate(teamID, q.Get("token")); err != nil {
			middleware.ErrorResponse(w, http.StatusUnauthorized, tokenMessage(err))
			return broadcast.Client{}, false
		}
		team, err := h.eng.Team(teamID)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusUnauthorized, "Unknown team")
			return broadcast.Client{}, false
		}
		return broadcast.Client{TeamID: team.ID, TeamName: team.Name, Role: models.RoleTeam}, true
	}

	switch role := q.Get("role"); role {
	case "", models.RoleSpectator:
		return broadcast.Client{Role: models.RoleSpectator}, true
	case models.RoleAdmin:
		if err := h.verifier.Verify(q.Get("password")); err != nil {
			middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin password")
			return broadcast.Client{}, false
		}
		return broadcast.Client{Role: models.RoleAdmin}, true
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "unknown role")
		return broadcast.Client{}, false
	}
}

// session is one WebSocket connection. writeLoop is the only goroutine that
// writes to conn.
type session struct {
	conn *websocket.Conn
	eng  *engine.Engine
	hub  *broadcast.Hub
	sub  *broadcast.Subscription

	replies    chan models.Event
	done       chan struct{}
	writerDone chan struct{}

	// Owned by readLoop
	visible bool
}

func (s *session) writeLoop() {
	defer close(s.writerDone)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-s.sub.Events:
			if !ok {
				s.closeFromHub()
				return
			}
			if err := s.write(ev); err != nil {
				s.conn.Close()
				return
			}
		case ev := <-s.replies:
			if err := s.write(ev); err != nil {
				s.conn.Close()
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.conn.Close()
				return
			}
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// closeFromHub tells the client why the hub dropped it and closes the
// connection, which also ends readLoop.
func (s *session) closeFromHub() {
	reason := s.sub.Reason()
	if reason == broadcast.ReasonReplaced || reason == broadcast.ReasonLagging {
		s.write(models.Event{
			Type: models.EventForceDisconnect,
			At:   time.Now(),
			Data: map[string]string{"reason": reason},
		})
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason))
	s.conn.Close()
}

func (s *session) write(ev models.Event) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(ev)
}

// reply queues a message for this client only
func (s *session) reply(ev models.Event) {
	select {
	case s.replies <- ev:
	case <-s.writerDone:
	}
}

func (s *session) readLoop() {
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("websocket read failed", "subscriber", s.sub.ID, "error", err)
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg models.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.reply(bidError("invalid_message", "message is not valid JSON"))
			continue
		}
		s.handle(msg)
	}
}

func (s *session) handle(msg models.ClientMessage) {
	switch msg.Type {
	case "place_bid":
		s.placeBid(msg)
	case "get_state":
		s.reply(stateEvent(s.eng.Snapshot()))
	case "heartbeat":
		s.hub.Touch(s.sub.ID, s.visible)
	case "tab_visibility":
		if msg.Visible != nil {
			s.visible = *msg.Visible
		}
		s.hub.Touch(s.sub.ID, s.visible)
	default:
		s.reply(bidError("invalid_message", "unknown message type "+msg.Type))
	}
}

func (s *session) placeBid(msg models.ClientMessage) {
	client := s.sub.Client
	if client.Role != models.RoleTeam {
		s.reply(bidError("forbidden", "only teams can bid"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), bidTimeout)
	defer cancel()

	// Success is announced to everyone through bid_update
	_, err := s.eng.SubmitBid(ctx, client.TeamID, msg.PlotNumber, msg.Amount)
	if err == nil {
		return
	}

	var e *engine.Error
	if errors.As(err, &e) {
		s.reply(bidError(e.Code, e.Message))
		return
	}
	slog.Error("websocket bid failed", "team", client.TeamName, "error", err)
	s.reply(bidError("internal", "bid could not be processed"))
}

func stateEvent(snap models.Snapshot) models.Event {
	return models.Event{
		Type:    models.EventAuctionState,
		Version: snap.Version,
		At:      time.Now(),
		Data:    snap,
	}
}

func bidError(code, message string) models.Event {
	return models.Event{
		Type: models.EventBidError,
		At:   time.Now(),
		Data: models.ErrorResponse{Error: "bid rejected", Code: code, Message: message},
	}
}
