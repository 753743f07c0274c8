package models

import "time"

// Event types pushed to subscribers
const (
	EventAuctionState   = "auction_state_update"
	EventBid            = "bid_update"
	EventValuation      = "valuation_update"
	EventReset          = "auction_reset"
	EventPlot           = "plot_update"
	EventTeam           = "team_update"
	EventActiveQuestion = "active_question"
	EventConnections    = "connection_count"
	EventOnlineTeams    = "online_teams_updated"

	// Sent to a single WebSocket client only
	EventBidError        = "bid_error"
	EventForceDisconnect = "force_disconnect"
)

// Event is a committed state change. Seq is stamped by the broadcaster;
// Version is the engine commit that produced it (0 for presence events).
type Event struct {
	Type       string    `json:"type"`
	Seq        uint64    `json:"seq"`
	Version    uint64    `json:"version,omitempty"`
	PlotNumber int       `json:"plot_number,omitempty"`
	At         time.Time `json:"at"`
	Data       any       `json:"data"`
}

type BidEvent struct {
	Bid      Bid    `json:"bid"`
	TeamName string `json:"team_name"`
	Plot     Plot   `json:"plot"`
}

type ValuationEvent struct {
	Source  string            `json:"source"` // "policy", "adjustment" or "undo"
	Policy  *PolicyKey        `json:"policy,omitempty"`
	BatchID string            `json:"batch_id,omitempty"`
	Changes []ValuationChange `json:"changes"`
}

type PlotEvent struct {
	Plot       Plot   `json:"plot"`
	WinnerName string `json:"winner_team,omitempty"`
}

type QuestionEvent struct {
	Round       int    `json:"round"`
	Question    int    `json:"question"`
	Description string `json:"question_text"`
}

// ClientMessage is what a WebSocket client sends.
type ClientMessage struct {
	Type       string `json:"type"` // place_bid, get_state, heartbeat or tab_visibility
	PlotNumber int    `json:"plot_number,omitempty"`
	Amount     int64  `json:"amount,omitempty"`
	Visible    *bool  `json:"visible,omitempty"`
}

type OnlineTeam struct {
	TeamID      string    `json:"team_id"`
	TeamName    string    `json:"team_name"`
	Status      string    `json:"status"`
	ConnectedAt time.Time `json:"connected_at"`
	LastSeen    time.Time `json:"last_heartbeat"`
}
