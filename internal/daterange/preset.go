package daterange

import "time"

// Preset is a named shortcut deriving a range from the current instant.
type Preset struct {
	Key   string
	Label string
	Days  int
}

// Compute returns [today − Days, today] for the given now.
func (p Preset) Compute(now time.Time) Range {
	to := Day(now)
	return Range{From: to.AddDate(0, 0, -p.Days), To: to}
}

// DefaultPresets are offered when Options.Presets is nil.
var DefaultPresets = []Preset{
	{Key: "today", Label: "Today", Days: 0},
	{Key: "7d", Label: "Last 7 days", Days: 7},
	{Key: "30d", Label: "Last 30 days", Days: 30},
	{Key: "90d", Label: "Last 3 months", Days: 90},
	{Key: "180d", Label: "Last 6 months", Days: 180},
	{Key: "1y", Label: "Last year", Days: 365},
	{Key: "5y", Label: "Last 5 years", Days: 1825},
}
