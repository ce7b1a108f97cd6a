package squares

import (
	"errors"
	"fmt"
)

// Kind classifies a business-rule failure so callers can map it to a
// transport-level response. Storage failures are never wrapped in an
// *Error; they propagate as ordinary wrapped errors and abort the
// surrounding transaction.
type Kind string

const (
	KindPoolNotFound       Kind = "pool_not_found"
	KindSquareNotFound     Kind = "square_not_found"
	KindPlayerNotFound     Kind = "player_not_found"
	KindNotMember          Kind = "not_member"
	KindBanned             Kind = "player_banned"
	KindPoolNotOpen        Kind = "pool_not_open"
	KindPoolFinal          Kind = "pool_final"
	KindLimitReached       Kind = "limit_reached"
	KindNotAvailable       Kind = "square_not_available"
	KindNotPending         Kind = "square_not_pending"
	KindNotOccupied        Kind = "square_not_occupied"
	KindNotRequester       Kind = "not_requester"
	KindNothingPending     Kind = "nothing_pending"
	KindPendingSquares     Kind = "pending_squares"
	KindInsufficientCredit Kind = "insufficient_credit"
	KindInvalidAmount      Kind = "invalid_amount"
	KindInvalidStatus      Kind = "invalid_status"
	KindNotLocked          Kind = "pool_not_locked"
)

// Error is a structured business-rule violation. Operations return it
// instead of panicking or retrying; the caller surfaces Message verbatim.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func failf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the failure kind of err, or "" if err is not a
// business-rule violation.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
