// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, domain, and event types.

# Request Types

Types for parsing incoming JSON:

  - LoginRequest: passcode
  - SubmitBidRequest: plot_number, amount
  - AdminVerifyRequest: password
  - SetRoundRequest: round
  - PushQuestionRequest: round, question
  - AdjustPlotsRequest: plot_numbers, adjustment_percent

# Response Types

Types for JSON responses:

  - LoginResponse: team_id, team_name, token
  - SubmitBidResponse: bid, plot
  - CommandResponse: status, snapshot
  - AdjustPlotsResponse: batch_id, changes
  - ConnectedResponse: count, teams
  - ErrorResponse: error, code, message

# Domain Types

  - Team: budget and spend of one bidding team
  - Plot: a lot with its price envelope and status
  - Bid: immutable accepted bid
  - PolicyCard: round-scoped valuation shock with a declarative effect
  - AuctionState: the singleton lifecycle row
  - Snapshot: state + open plot + applied policies, stamped with a version

# Events

Event wraps every pushed change. Data holds one of BidEvent, ValuationEvent,
PlotEvent, QuestionEvent, Snapshot, Team, ConnectedResponse or []OnlineTeam
depending on Type.

# Constants

Auction status values:

	AuctionNotStarted = "not_started"
	AuctionActive     = "active"
	AuctionPaused     = "paused"
	AuctionFinished   = "finished"

Plot status values:

	PlotPending = "pending"
	PlotActive  = "active"
	PlotSold    = "sold"
	PlotUnsold  = "unsold"
*/
package models
