package engine

import (
	"errors"
	"fmt"

	"github.com/iwvelando/initiative-sim/pkg/catalog"
)

// Turn rejection causes. Each is recoverable: the caller re-prompts for the
// same year.
var (
	ErrEmptySelection     = errors.New("select at least one initiative")
	ErrTooManySelections  = errors.New("too many initiatives selected")
	ErrUnknownInitiative  = catalog.ErrUnknownInitiative
	ErrInsufficientBudget = errors.New("not enough budget to implement these initiatives")
	ErrInvalidYear        = errors.New("year must be a positive integer")
)

// ErrorKind classifies a rejected turn.
type ErrorKind int

const (
	KindUnspecified ErrorKind = iota
	KindEmptySelection
	KindTooManySelections
	KindUnknownInitiative
	KindInsufficientBudget
	KindInvalidYear
)

func (k ErrorKind) String() string {
	switch k {
	case KindEmptySelection:
		return "EmptySelection"
	case KindTooManySelections:
		return "TooManySelections"
	case KindUnknownInitiative:
		return "UnknownInitiative"
	case KindInsufficientBudget:
		return "InsufficientBudget"
	case KindInvalidYear:
		return "InvalidYear"
	default:
		return "Unspecified"
	}
}

// TurnError describes why a turn was rejected. It unwraps to one of the
// package's sentinel errors.
type TurnError struct {
	Kind ErrorKind
	Year int
	Err  error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("year %d: %v", e.Year, e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind carried by err, or KindUnspecified.
func KindOf(err error) ErrorKind {
	var turnErr *TurnError
	if errors.As(err, &turnErr) {
		return turnErr.Kind
	}
	return KindUnspecified
}

// IsRecoverable reports whether err is a rejected turn the caller should
// re-prompt for rather than treat as fatal.
func IsRecoverable(err error) bool {
	return KindOf(err) != KindUnspecified
}

func newTurnError(kind ErrorKind, year int, err error) *TurnError {
	return &TurnError{Kind: kind, Year: year, Err: err}
}
