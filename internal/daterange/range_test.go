package daterange

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestFormatDisplay(t *testing.T) {
	tests := []struct {
		name string
		r    *Range
		want string
	}{
		{"nil", nil, "Pick a date range"},
		{"zero", &Range{}, "Pick a date range"},
		{"single day", &Range{From: day(2025, 3, 4), To: day(2025, 3, 4)}, "Mar 04, 2025"},
		{"open ended", &Range{From: day(2025, 3, 4)}, "Mar 04, 2025 –"},
		{"full", &Range{From: day(2025, 3, 4), To: day(2025, 4, 1)}, "Mar 04, 2025 – Apr 01, 2025"},
		{"same day different times", &Range{From: day(2025, 3, 4), To: time.Date(2025, 3, 4, 18, 0, 0, 0, time.UTC)}, "Mar 04, 2025"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, FormatDisplay(tt.r)); diff != "" {
				t.Errorf("FormatDisplay() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSelectRange_SingleDayDisplaysOneDate(t *testing.T) {
	s := NewSelector(FixedClock(now), Options{}, nil)
	d := day(2025, 5, 5)
	if err := s.SelectRange(&Range{From: d, To: d}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff("May 05, 2025", FormatDisplay(s.Value())); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRange_SpanDays(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	tests := []struct {
		name string
		r    Range
		want int
	}{
		{"partial", Range{From: day(2025, 1, 1)}, 0},
		{"same day", Range{From: day(2025, 1, 1), To: day(2025, 1, 1)}, 0},
		{"ten days", Range{From: day(2025, 1, 1), To: day(2025, 1, 11)}, 10},
		{"leap year", Range{From: day(2024, 2, 28), To: day(2024, 3, 1)}, 2},
		{
			name: "across DST change",
			r: Range{
				From: time.Date(2025, 3, 29, 0, 0, 0, 0, berlin),
				To:   time.Date(2025, 3, 31, 0, 0, 0, 0, berlin),
			},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.r.SpanDays()); diff != "" {
				t.Errorf("SpanDays() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRange_Contains(t *testing.T) {
	r := Range{From: day(2025, 1, 10), To: day(2025, 1, 20)}

	tests := []struct {
		name string
		r    Range
		t    time.Time
		want bool
	}{
		{"before", r, day(2025, 1, 9), false},
		{"first day late evening", r, time.Date(2025, 1, 10, 23, 0, 0, 0, time.UTC), true},
		{"last day", r, time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC), true},
		{"after", r, day(2025, 1, 21), false},
		{"open ended", Range{From: day(2025, 1, 10)}, day(2030, 1, 1), true},
		{"empty", Range{}, day(1999, 1, 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.r.Contains(tt.t)); diff != "" {
				t.Errorf("Contains() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRange_ContainsInRangeLocation(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	r := Range{From: time.Date(2025, 6, 14, 0, 0, 0, 0, la), To: time.Date(2025, 6, 14, 0, 0, 0, 0, la)}

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"evening local stored as utc", time.Date(2025, 6, 15, 1, 0, 0, 0, time.UTC), true},
		{"next local day", time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC), false},
		{"previous local day", time.Date(2025, 6, 14, 6, 0, 0, 0, time.UTC), false},
		{"local midnight", time.Date(2025, 6, 14, 0, 0, 0, 0, la), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, r.Contains(tt.t)); diff != "" {
				t.Errorf("Contains() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRange_InAndBounds(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	r := Range{From: day(2025, 6, 14), To: day(2025, 6, 15)}.In(la)
	if diff := cmp.Diff(la.String(), r.Location().String()); diff != "" {
		t.Errorf("location (-want +got):\n%s", diff)
	}

	start, end := r.Bounds()
	if diff := cmp.Diff(time.Date(2025, 6, 14, 7, 0, 0, 0, time.UTC), start.UTC()); diff != "" {
		t.Errorf("start (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(time.Date(2025, 6, 16, 7, 0, 0, 0, time.UTC), end.UTC()); diff != "" {
		t.Errorf("end (-want +got):\n%s", diff)
	}

	start, end = Range{From: day(2025, 6, 14)}.Bounds()
	if start.IsZero() || !end.IsZero() {
		t.Errorf("open range bounds = %v, %v", start, end)
	}
}

func TestParseDay(t *testing.T) {
	got, err := ParseDay("2025-02-03", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(day(2025, 2, 3), got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"", "03/02/2025", "2025-13-01", "yesterday"} {
		if _, err := ParseDay(bad, time.UTC); err == nil {
			t.Errorf("ParseDay(%q) expected error", bad)
		}
	}
}

func TestPreset_Compute(t *testing.T) {
	for _, p := range DefaultPresets {
		t.Run(p.Key, func(t *testing.T) {
			r := p.Compute(now)
			if diff := cmp.Diff(p.Days, r.SpanDays()); diff != "" {
				t.Errorf("span mismatch (-want +got):\n%s", diff)
			}
			if !SameDay(r.To, now) {
				t.Errorf("preset %s ends %v, want today", p.Key, r.To)
			}
		})
	}
}
