// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package broadcast

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/danielhkuo/landbid/metrics"
	"github.com/danielhkuo/landbid/models"
	"github.com/google/uuid"
)

// Reasons a subscription's channel is closed by the hub.
const (
	ReasonLagging  = "lagging"
	ReasonReplaced = "replaced"
	ReasonClosed   = "closed"
)

// Presence statuses
const (
	StatusActive       = "active"
	StatusIdle         = "idle"
	StatusReconnecting = "reconnecting"
)

const DefaultBuffer = 64

// Client describes who is behind a subscription.
type Client struct {
	TeamID   string
	TeamName string
	Role     string
}

// Subscription receives events in publish order until the hub closes it.
type Subscription struct {
	ID     string
	Client Client
	Events <-chan models.Event

	events      chan models.Event
	hub         *Hub
	reason      string
	connectedAt time.Time
	lastSeen    time.Time
	visible     bool
}

// Reason reports why the hub closed the subscription. Only meaningful once
// Events has been closed.
func (s *Subscription) Reason() string {
	return s.reason
}

// Close detaches the subscription. Safe to call after the hub evicted it.
func (s *Subscription) Close() {
	s.hub.remove(s.ID, ReasonClosed)
}

// Hub fans committed events out to every subscriber without blocking the
// publisher. A subscriber whose queue is full is evicted.
//
// A team that drops its connection stays in the online list as
// reconnecting for the grace period, so a short network blip does not show
// it leaving and rejoining.
type Hub struct {
	mu      sync.Mutex
	seq     uint64
	subs    map[string]*Subscription
	byTeam  map[string]string
	away    map[string]*awayTeam
	buffer  int
	grace   time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
}

// awayTeam is a disconnected team held in presence until its timer fires
type awayTeam struct {
	team  models.OnlineTeam
	timer *time.Timer
}

// NewHub creates a hub with per-subscriber queues of buffer events. A zero
// grace drops disconnected teams from presence at once.
func NewHub(buffer int, grace time.Duration, m *metrics.Metrics) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:    make(map[string]*Subscription),
		byTeam:  make(map[string]string),
		away:    make(map[string]*awayTeam),
		buffer:  buffer,
		grace:   grace,
		now:     time.Now,
		metrics: m,
	}
}

// Publish stamps ev with the next sequence number and queues it for every
// subscriber.
func (h *Hub) Publish(ev models.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.publishLocked(ev)
}

func (h *Hub) publishLocked(ev models.Event) {
	h.seq++
	ev.Seq = h.seq
	if ev.At.IsZero() {
		ev.At = h.now()
	}
	h.metrics.EventPublished(ev.Type)

	var lagging []string
	for id, s := range h.subs {
		select {
		case s.events <- ev:
		default:
			lagging = append(lagging, id)
		}
	}

	if len(lagging) == 0 {
		return
	}
	for _, id := range lagging {
		s := h.subs[id]
		slog.Warn("evicting lagging subscriber",
			"subscriber", id,
			"team", s.Client.TeamName,
			"seq", ev.Seq,
		)
		h.evictLocked(s, ReasonLagging)
	}
	h.publishPresenceLocked()
}

// Subscribe registers a new subscriber. A team may hold one live
// subscription; an older one for the same team is closed with
// ReasonReplaced.
func (h *Hub) Subscribe(c Client) *Subscription {
	events := make(chan models.Event, h.buffer)
	now := h.now()
	s := &Subscription{
		ID:          uuid.NewString(),
		Client:      c,
		Events:      events,
		events:      events,
		hub:         h,
		connectedAt: now,
		lastSeen:    now,
		visible:     true,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if c.Role == models.RoleTeam && c.TeamID != "" {
		if a, ok := h.away[c.TeamID]; ok {
			a.timer.Stop()
			delete(h.away, c.TeamID)
			slog.Info("team reconnected", "team", c.TeamName)
		}
		if prevID, ok := h.byTeam[c.TeamID]; ok {
			slog.Info("replacing team connection", "team", c.TeamName, "subscriber", prevID)
			h.evictLocked(h.subs[prevID], ReasonReplaced)
		}
		h.byTeam[c.TeamID] = s.ID
	}
	h.subs[s.ID] = s
	h.metrics.SetSubscribers(len(h.subs))

	slog.Info("subscriber connected", "subscriber", s.ID, "role", c.Role, "team", c.TeamName)
	h.publishPresenceLocked()
	return s
}

func (h *Hub) remove(id, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.subs[id]
	if !ok {
		return
	}
	h.evictLocked(s, reason)
	h.publishPresenceLocked()
}

// evictLocked closes s and forgets it. Closing happens after the reason is
// set so readers observing the closed channel see the reason.
func (h *Hub) evictLocked(s *Subscription, reason string) {
	delete(h.subs, s.ID)
	if h.byTeam[s.Client.TeamID] == s.ID {
		delete(h.byTeam, s.Client.TeamID)
		if reason != ReasonReplaced && h.grace > 0 {
			h.holdLocked(s)
		}
	}
	s.reason = reason
	close(s.events)

	h.metrics.SetSubscribers(len(h.subs))
	if reason != ReasonClosed {
		h.metrics.SubscriberEvicted(reason)
	}
	slog.Info("subscriber disconnected", "subscriber", s.ID, "team", s.Client.TeamName, "reason", reason)
}

// holdLocked keeps s's team in presence as reconnecting until the grace
// period ends or the team subscribes again.
func (h *Hub) holdLocked(s *Subscription) {
	id := s.Client.TeamID
	a := &awayTeam{team: models.OnlineTeam{
		TeamID:      id,
		TeamName:    s.Client.TeamName,
		Status:      StatusReconnecting,
		ConnectedAt: s.connectedAt,
		LastSeen:    s.lastSeen,
	}}
	a.timer = time.AfterFunc(h.grace, func() { h.expire(id, a) })
	if prev, ok := h.away[id]; ok {
		prev.timer.Stop()
	}
	h.away[id] = a
}

func (h *Hub) expire(teamID string, a *awayTeam) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.away[teamID] != a {
		return
	}
	delete(h.away, teamID)
	slog.Info("reconnect grace expired", "team", a.team.TeamName)
	h.publishLocked(models.Event{Type: models.EventOnlineTeams, Data: h.onlineTeamsLocked()})
}

// Touch records a heartbeat and the client's tab visibility.
func (h *Hub) Touch(id string, visible bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.subs[id]
	if !ok {
		return
	}
	s.lastSeen = h.now()
	if s.visible == visible {
		return
	}
	s.visible = visible
	if s.Client.Role == models.RoleTeam {
		h.publishLocked(models.Event{Type: models.EventOnlineTeams, Data: h.onlineTeamsLocked()})
	}
}

// Presence returns the number of connections and the online team names,
// including teams inside their reconnect grace period.
func (h *Hub) Presence() (int, []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	online := h.onlineTeamsLocked()
	teams := make([]string, 0, len(online))
	for _, t := range online {
		teams = append(teams, t.TeamName)
	}
	return len(h.subs), teams
}

func (h *Hub) OnlineTeams() []models.OnlineTeam {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.onlineTeamsLocked()
}

func (h *Hub) onlineTeamsLocked() []models.OnlineTeam {
	teams := make([]models.OnlineTeam, 0, len(h.byTeam)+len(h.away))
	for _, a := range h.away {
		teams = append(teams, a.team)
	}
	for _, id := range h.byTeam {
		s := h.subs[id]
		status := StatusActive
		if !s.visible {
			status = StatusIdle
		}
		teams = append(teams, models.OnlineTeam{
			TeamID:      s.Client.TeamID,
			TeamName:    s.Client.TeamName,
			Status:      status,
			ConnectedAt: s.connectedAt,
			LastSeen:    s.lastSeen,
		})
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].TeamName < teams[j].TeamName })
	return teams
}

func (h *Hub) publishPresenceLocked() {
	h.publishLocked(models.Event{
		Type: models.EventConnections,
		Data: map[string]int{"count": len(h.subs)},
	})
	h.publishLocked(models.Event{Type: models.EventOnlineTeams, Data: h.onlineTeamsLocked()})
}
