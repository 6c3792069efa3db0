package core

import "errors"

// Error classes. Every error returned by a run wraps exactly one of them so
// callers can tell bad input from bad settings from a broken engine.
var (
	ErrData      = errors.New("data error")
	ErrConfig    = errors.New("configuration error")
	ErrInvariant = errors.New("invariant violation")
)

var (
	ErrNoData          = classError{ErrData, "no candles"}
	ErrNonMonotonic    = classError{ErrData, "non-monotonic timestamps"}
	ErrMalformedCandle = classError{ErrData, "malformed candle"}
	ErrOutOfOrder      = classError{ErrData, "bar evaluated out of order"}
	ErrIndexOutOfRange = classError{ErrData, "bar index out of range"}
	ErrPositionOpen    = classError{ErrInvariant, "position already open"}
)

// classError is a sentinel that also matches its error class with errors.Is
type classError struct {
	class error
	msg   string
}

func (e classError) Error() string { return e.msg }

func (e classError) Is(target error) bool { return target == e.class }
