package daterange

import "errors"

// Kind classifies why a candidate range was rejected.
type Kind int

// Rejection kinds.
const (
	OrderingViolation Kind = iota + 1
	RangeTooLarge
	BelowMinimumBound
	AboveMaximumBound
)

func (k Kind) String() string {
	switch k {
	case OrderingViolation:
		return "start after end"
	case RangeTooLarge:
		return "range too large"
	case BelowMinimumBound:
		return "start before minimum"
	case AboveMaximumBound:
		return "end after maximum"
	}
	return "unknown"
}

// ValidationError is returned for a candidate range that breaks a constraint.
// Message is meant for display to the user.
type ValidationError struct {
	Kind    Kind
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

// Is matches any ValidationError of the same Kind.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrStartAfterEnd = &ValidationError{Kind: OrderingViolation}
	ErrRangeTooLarge = &ValidationError{Kind: RangeTooLarge}
	ErrBeforeMinimum = &ValidationError{Kind: BelowMinimumBound}
	ErrAfterMaximum  = &ValidationError{Kind: AboveMaximumBound}
	ErrUnknownPreset = errors.New("unknown preset")
)
