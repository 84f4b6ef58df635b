package daterange

import "time"

const (
	displayLayout = "Jan 02, 2006"
	placeholder   = "Pick a date range"
)

// FormatDay renders a single date for display.
func FormatDay(t time.Time) string {
	return t.Format(displayLayout)
}

// FormatDisplay renders a range label: a placeholder when empty, one date
// when the range covers a single day, "date –" while only the start is
// chosen and "date – date" otherwise.
func FormatDisplay(r *Range) string {
	switch {
	case r == nil || r.IsZero():
		return placeholder
	case r.IsPartial():
		return FormatDay(r.From) + " –"
	case r.From.IsZero():
		return "– " + FormatDay(r.To)
	case r.IsSingleDay():
		return FormatDay(r.From)
	default:
		return FormatDay(r.From) + " – " + FormatDay(r.To)
	}
}
