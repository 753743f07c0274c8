package models

import "time"

// Auction status constants
const (
	AuctionNotStarted = "not_started"
	AuctionActive     = "active"
	AuctionPaused     = "paused"
	AuctionFinished   = "finished"
)

// Plot status constants
const (
	PlotPending = "pending"
	PlotActive  = "active"
	PlotSold    = "sold"
	PlotUnsold  = "unsold"
)

// Connection roles
const (
	RoleTeam      = "team"
	RoleAdmin     = "admin"
	RoleSpectator = "spectator"
)

// Request types

type LoginRequest struct {
	Passcode string `json:"passcode"`
}

type SubmitBidRequest struct {
	PlotNumber int   `json:"plot_number"`
	Amount     int64 `json:"amount"`
}

type AdminVerifyRequest struct {
	Password string `json:"password"`
}

type SetRoundRequest struct {
	Round int `json:"round"`
}

type PushQuestionRequest struct {
	Round    int `json:"round"`
	Question int `json:"question"`
}

type AdjustPlotsRequest struct {
	PlotNumbers []int   `json:"plot_numbers"`
	Percent     float64 `json:"adjustment_percent"`
}

// Response types

type LoginResponse struct {
	TeamID    string    `json:"team_id"`
	TeamName  string    `json:"team_name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SubmitBidResponse struct {
	Bid  Bid  `json:"bid"`
	Plot Plot `json:"plot"`
}

type CommandResponse struct {
	Status   string   `json:"status"`
	Snapshot Snapshot `json:"snapshot"`
}

type AdjustPlotsResponse struct {
	BatchID string            `json:"batch_id"`
	Changes []ValuationChange `json:"changes"`
}

type ConnectedResponse struct {
	Count int      `json:"count"`
	Teams []string `json:"teams"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Auction string `json:"auction"`
	Version uint64 `json:"version"`
}

// Domain types

type Team struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	PasscodeDigest string    `json:"-"` // Never expose in JSON
	Budget         int64     `json:"budget"`
	Spent          int64     `json:"spent"`
	PlotsWon       int       `json:"plots_won"`
	CreatedAt      time.Time `json:"created_at"`
}

// Remaining is the amount the team can still commit to a bid.
func (t Team) Remaining() int64 {
	return t.Budget - t.Spent
}

type Plot struct {
	Number        int     `json:"number"`
	Category      string  `json:"category"`
	Round         int     `json:"round"`
	TotalArea     int64   `json:"total_area"`
	ActualArea    int64   `json:"actual_area"`
	BasePrice     int64   `json:"base_price"`
	CatalogPrice  int64   `json:"catalog_price"`
	TotalPrice    int64   `json:"total_price"`
	CurrentBid    *int64  `json:"current_bid"`
	LeaderTeamID  *string `json:"leader_team_id"`
	PurchasePrice *int64  `json:"purchase_price"`
	Status        string  `json:"status"`
}

type Bid struct {
	ID         string    `json:"id"`
	PlotNumber int       `json:"plot_number"`
	TeamID     string    `json:"team_id"`
	Amount     int64     `json:"amount"`
	PlacedAt   time.Time `json:"placed_at"`
}

// PolicyKey identifies a policy card within an auction run.
type PolicyKey struct {
	Round    int `json:"round"`
	Question int `json:"question"`
}

type NeighborEffect struct {
	Plot    int     `json:"plot" toml:"plot"`
	Percent float64 `json:"percent" toml:"percent"`
}

type PolicyEffect struct {
	Target    int              `json:"target"`
	Percent   float64          `json:"percent"`
	Neighbors []NeighborEffect `json:"neighbors"`
}

type PolicyCard struct {
	Round       int          `json:"round"`
	Question    int          `json:"question"`
	Description string       `json:"description"`
	Effect      PolicyEffect `json:"effect"`
}

func (c PolicyCard) Key() PolicyKey {
	return PolicyKey{Round: c.Round, Question: c.Question}
}

// ValuationChange describes one plot's total price moving from Old to New.
type ValuationChange struct {
	PlotNumber int     `json:"plot_number"`
	OldPrice   int64   `json:"old_price"`
	NewPrice   int64   `json:"new_price"`
	Percent    float64 `json:"percent"`
}

type Adjustment struct {
	ID         string    `json:"id"`
	BatchID    string    `json:"batch_id"`
	PlotNumber int       `json:"plot_number"`
	OldPrice   int64     `json:"old_price"`
	NewPrice   int64     `json:"new_price"`
	Percent    float64   `json:"percent"`
	CreatedAt  time.Time `json:"created_at"`
}

type AuctionState struct {
	Status         string    `json:"status"`
	CurrentPlot    *int      `json:"current_plot_number"`
	CurrentRound   int       `json:"current_round"`
	RoundOverride  bool      `json:"round_override"`
	ActiveQuestion string    `json:"active_question"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Snapshot is the full view a client needs to (re)synchronise.
type Snapshot struct {
	AuctionState
	Plot            *Plot       `json:"current_plot"`
	AppliedPolicies []PolicyKey `json:"applied_policies"`
	ClosingAt       *time.Time  `json:"closing_at,omitempty"`
	Version         uint64      `json:"version"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
