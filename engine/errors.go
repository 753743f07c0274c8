// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

// Kind classifies an engine error for the transport layer.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindBudget
	KindPersistence
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "state_conflict"
	case KindBudget:
		return "budget"
	case KindPersistence:
		return "persistence"
	case KindUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// Error is returned by every engine operation. Two errors match under
// errors.Is when their codes are equal, so a sentinel still matches after
// with() has attached a detailed message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Retryable reports whether the same command may succeed if sent again.
func (e *Error) Retryable() bool {
	return e.Kind == KindPersistence || e.Kind == KindUnavailable
}

func (e *Error) with(format string, args ...any) *Error {
	c := *e
	c.Message = fmt.Sprintf(format, args...)
	return &c
}

var (
	ErrInvalidRequest      = &Error{Kind: KindValidation, Code: "invalid_request", Message: "invalid request"}
	ErrUnknownTeam         = &Error{Kind: KindValidation, Code: "unknown_team", Message: "unknown team"}
	ErrInvalidEffectTarget = &Error{Kind: KindValidation, Code: "invalid_effect_target", Message: "effect references an unknown plot"}

	ErrPlotNotFound       = &Error{Kind: KindNotFound, Code: "plot_not_found", Message: "plot not found"}
	ErrTeamNotFound       = &Error{Kind: KindNotFound, Code: "team_not_found", Message: "team not found"}
	ErrUnknownPolicyCard  = &Error{Kind: KindNotFound, Code: "unknown_policy_card", Message: "no policy card for that round and question"}
	ErrAuctionNotActive   = &Error{Kind: KindConflict, Code: "auction_not_active", Message: "auction is not active"}
	ErrWrongPlot          = &Error{Kind: KindConflict, Code: "wrong_plot", Message: "plot is not open for bidding"}
	ErrBidTooLow          = &Error{Kind: KindConflict, Code: "bid_too_low", Message: "bid is too low"}
	ErrAlreadyStarted     = &Error{Kind: KindConflict, Code: "already_started", Message: "auction has already started"}
	ErrNotPaused          = &Error{Kind: KindConflict, Code: "not_paused", Message: "auction is not paused"}
	ErrAlreadyLeading     = &Error{Kind: KindConflict, Code: "already_leading", Message: "team already holds the highest bid"}
	ErrNothingToUndo      = &Error{Kind: KindConflict, Code: "nothing_to_undo", Message: "no adjustment to undo"}
	ErrInsufficientBudget = &Error{Kind: KindBudget, Code: "insufficient_budget", Message: "insufficient budget"}

	ErrPersistence = &Error{Kind: KindPersistence, Code: "persistence_failure", Message: "could not save the change, try again"}
	ErrStopped     = &Error{Kind: KindUnavailable, Code: "engine_stopped", Message: "auction engine is not running"}
)

// KindOf returns the kind of err, or 0 when err is not an engine error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func invalid(format string, args ...any) *Error {
	return ErrInvalidRequest.with(format, args...)
}

func persistenceFailure(err error) *Error {
	c := *ErrPersistence
	c.Err = err
	return &c
}

func money(v int64) string {
	return humanize.Comma(v)
}
