package daterange

import (
	"fmt"
	"time"
)

// DefaultMaxDays caps the span of a manually selected range.
const DefaultMaxDays = 1825

// Options configures the selector bounds and presets.
type Options struct {
	// MaxDays is the largest accepted span; 0 means DefaultMaxDays.
	MaxDays int
	// Min is the earliest selectable date; nil means unbounded.
	Min *time.Time
	// Max is the latest selectable date; nil means today per the clock.
	Max *time.Time
	// Presets replaces DefaultPresets when non-nil.
	Presets []Preset
	// ValidatePresets runs preset ranges through the same checks as
	// manual selection. Off by default: presets commit unconditionally.
	ValidatePresets bool
}

// State is the selector's position in the pick/validate cycle.
type State int

// Selector states.
const (
	StateEmpty State = iota
	StatePartialFrom
	StateCommitted
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePartialFrom:
		return "partial"
	case StateCommitted:
		return "committed"
	case StateRejected:
		return "rejected"
	}
	return "unknown"
}

// Selector holds the committed range of a view and validates every
// candidate before replacing it. A rejected candidate leaves the committed
// value untouched and sets Message until the next selection attempt.
type Selector struct {
	clock   Clock
	opts    Options
	value   *Range
	message string

	// OnChange receives every committed value; nil means "no range".
	OnChange func(*Range)
}

// NewSelector creates a selector reading "now" from clock and starting
// from initial, which may be nil.
func NewSelector(clock Clock, opts Options, initial *Range) *Selector {
	if opts.MaxDays <= 0 {
		opts.MaxDays = DefaultMaxDays
	}
	if opts.Presets == nil {
		opts.Presets = DefaultPresets
	}
	s := &Selector{clock: clock, opts: opts}
	if initial != nil && !initial.IsZero() {
		r := s.normalize(*initial)
		s.value = &r
	}
	return s
}

// Value returns a copy of the committed range, or nil.
func (s *Selector) Value() *Range {
	if s.value == nil {
		return nil
	}
	r := *s.value
	return &r
}

// Message returns the reason the last attempt was rejected, if any.
func (s *Selector) Message() string {
	return s.message
}

// Presets returns the configured presets.
func (s *Selector) Presets() []Preset {
	return s.opts.Presets
}

// MaxDays returns the effective span limit.
func (s *Selector) MaxDays() int {
	return s.opts.MaxDays
}

// Location returns the clock's location, in which all days are expressed.
func (s *Selector) Location() *time.Location {
	return s.clock.Now().Location()
}

// State reports the current selector state.
func (s *Selector) State() State {
	switch {
	case s.message != "":
		return StateRejected
	case s.value == nil:
		return StateEmpty
	case s.value.IsPartial():
		return StatePartialFrom
	default:
		return StateCommitted
	}
}

// SelectPreset commits the range of the preset named key computed from now.
func (s *Selector) SelectPreset(key string) error {
	s.message = ""
	for _, p := range s.opts.Presets {
		if p.Key != key {
			continue
		}
		r := p.Compute(s.clock.Now())
		if s.opts.ValidatePresets {
			return s.SelectRange(&r)
		}
		s.commit(&r)
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownPreset, key)
}

// SelectRange validates candidate and commits it on success.
// A nil or empty candidate clears the range; a lone start date is
// committed as an in-progress range.
func (s *Selector) SelectRange(candidate *Range) error {
	s.message = ""
	if candidate == nil || candidate.IsZero() {
		s.commit(nil)
		return nil
	}

	r := s.normalize(*candidate)
	if err := s.Validate(r); err != nil {
		s.message = err.Error()
		return err
	}
	s.commit(&r)
	return nil
}

// Validate runs the ordered range checks without touching selector state.
func (s *Selector) Validate(r Range) error {
	if r.IsPartial() {
		return nil
	}
	if r.From.After(r.To) {
		return &ValidationError{
			Kind:    OrderingViolation,
			Message: "Start date must be on or before the end date.",
		}
	}
	if span := r.SpanDays(); span > s.opts.MaxDays {
		return &ValidationError{
			Kind:    RangeTooLarge,
			Message: fmt.Sprintf("Date range too large: %d days selected, the limit is %d days.", span, s.opts.MaxDays),
		}
	}
	if lo := s.minBound(); !lo.IsZero() && r.From.Before(lo) {
		return &ValidationError{
			Kind:    BelowMinimumBound,
			Message: fmt.Sprintf("Start date cannot be before %s.", FormatDay(lo)),
		}
	}
	if hi := s.maxBound(); r.To.After(hi) {
		return &ValidationError{
			Kind:    AboveMaximumBound,
			Message: fmt.Sprintf("End date cannot be after %s.", FormatDay(hi)),
		}
	}
	return nil
}

// PickDay applies a single calendar pick. While a start date is pending
// the pick completes the range; otherwise it starts a new one.
// Disabled days are refused with the matching bound error.
func (s *Selector) PickDay(day time.Time) error {
	s.message = ""
	d := dayIn(day, s.Location())

	if err := s.dayBoundError(d); err != nil {
		s.message = err.Error()
		return err
	}

	if s.value != nil && s.value.IsPartial() {
		return s.SelectRange(&Range{From: s.value.From, To: d})
	}
	return s.SelectRange(&Range{From: d})
}

// Dismiss drops a pending rejection so the selector reports the state of
// its committed value again. The value itself is untouched.
func (s *Selector) Dismiss() {
	s.message = ""
}

// Clear commits "no range".
func (s *Selector) Clear() {
	s.message = ""
	s.commit(nil)
}

// Disabled reports whether day is outside the selectable bounds. It uses
// the same inclusive comparisons as the bound checks in Validate.
func (s *Selector) Disabled(day time.Time) bool {
	return s.dayBoundError(dayIn(day, s.Location())) != nil
}

func (s *Selector) dayBoundError(d time.Time) error {
	if lo := s.minBound(); !lo.IsZero() && d.Before(lo) {
		return &ValidationError{
			Kind:    BelowMinimumBound,
			Message: fmt.Sprintf("%s is before the earliest selectable date %s.", FormatDay(d), FormatDay(lo)),
		}
	}
	if hi := s.maxBound(); d.After(hi) {
		return &ValidationError{
			Kind:    AboveMaximumBound,
			Message: fmt.Sprintf("%s is after the latest selectable date %s.", FormatDay(d), FormatDay(hi)),
		}
	}
	return nil
}

// MatchingPresetKey returns the key of the preset whose range, computed
// now, equals r by calendar date. It returns "" when none matches.
func (s *Selector) MatchingPresetKey(r *Range) string {
	if r == nil || r.IsPartial() {
		return ""
	}
	now := s.clock.Now()
	for _, p := range s.opts.Presets {
		if p.Compute(now).Equal(*r) {
			return p.Key
		}
	}
	return ""
}

func (s *Selector) commit(r *Range) {
	s.value = r
	if s.OnChange != nil {
		s.OnChange(s.Value())
	}
}

// normalize moves both ends to midnight in the clock's location and turns
// an end-only candidate into a lone start date.
func (s *Selector) normalize(r Range) Range {
	loc := s.Location()
	out := Range{From: dayIn(r.From, loc), To: dayIn(r.To, loc)}
	if out.From.IsZero() && !out.To.IsZero() {
		out.From, out.To = out.To, time.Time{}
	}
	return out
}

func (s *Selector) minBound() time.Time {
	if s.opts.Min == nil {
		return time.Time{}
	}
	return dayIn(*s.opts.Min, s.Location())
}

func (s *Selector) maxBound() time.Time {
	if s.opts.Max != nil {
		return dayIn(*s.opts.Max, s.Location())
	}
	return Day(s.clock.Now())
}
