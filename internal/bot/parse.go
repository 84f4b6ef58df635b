package bot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cve_bot/internal/daterange"
	"cve_bot/internal/model"
)

var (
	cveIDRe    = regexp.MustCompile(`^CVE-\d{4}-\d{4,}$`)
	dateLikeRe = regexp.MustCompile(`^\d+[-/.]`)
)

// RangeArgs holds the parsed arguments of /range. At most one of Clear,
// Preset and Range is set; none means "show the current range".
type RangeArgs struct {
	Clear  bool
	Preset string
	Range  *daterange.Range
}

// ParseRangeArgs parses /range arguments.
// Format: [clear | <preset> | <from> [<to>]] with dates as YYYY-MM-DD.
func ParseRangeArgs(args string, loc *time.Location) (RangeArgs, error) {
	parts := strings.Fields(args)
	switch len(parts) {
	case 0:
		return RangeArgs{}, nil
	case 1:
		if strings.EqualFold(parts[0], "clear") {
			return RangeArgs{Clear: true}, nil
		}
		if !dateLikeRe.MatchString(parts[0]) {
			return RangeArgs{Preset: strings.ToLower(parts[0])}, nil
		}
		from, err := daterange.ParseDay(parts[0], loc)
		if err != nil {
			return RangeArgs{}, err
		}
		return RangeArgs{Range: &daterange.Range{From: from}}, nil
	case 2:
		from, err := daterange.ParseDay(parts[0], loc)
		if err != nil {
			return RangeArgs{}, err
		}
		to, err := daterange.ParseDay(parts[1], loc)
		if err != nil {
			return RangeArgs{}, err
		}
		return RangeArgs{Range: &daterange.Range{From: from, To: to}}, nil
	default:
		return RangeArgs{}, fmt.Errorf("usage: /range [clear | <preset> | <from> [<to>]]")
	}
}

// ParseCVEID validates and normalizes a CVE identifier argument.
func ParseCVEID(args string) (string, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return "", fmt.Errorf("CVE ID is required")
	}
	id := strings.ToUpper(strings.Fields(s)[0])
	if !cveIDRe.MatchString(id) {
		return "", fmt.Errorf("invalid CVE ID %q", id)
	}
	return id, nil
}

// ParseStatusArgs extracts a CVE ID and a workflow status.
func ParseStatusArgs(args string) (string, model.Status, error) {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("usage: /status <cve_id> <new|in_progress|done|unlisted>")
	}
	id, err := ParseCVEID(parts[0])
	if err != nil {
		return "", "", err
	}
	st, ok := model.ParseStatus(parts[1])
	if !ok {
		return "", "", fmt.Errorf("invalid status %q, use: new, in_progress, done, unlisted", parts[1])
	}
	return id, st, nil
}

// ParsePage parses an optional 1-based page number.
func ParsePage(args string) (int, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(strings.Fields(s)[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("page must be a positive number")
	}
	return n, nil
}
