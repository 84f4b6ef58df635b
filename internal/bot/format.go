package bot

import (
	"fmt"
	"strings"
	"time"

	"cve_bot/internal/daterange"
	"cve_bot/internal/filter"
	"cve_bot/internal/model"
	"cve_bot/internal/stats"
)

const (
	maxDescription = 300
	anyValue       = "any"
)

var flagLabels = map[filter.Flag]string{
	filter.FlagPublicPoc: "PoC",
	filter.FlagDocker:    "Docker",
	filter.FlagCurl:      "curl",
	filter.FlagPriority:  "Priority",
	filter.FlagHideDone:  "Hide done",
}

// FormatNotification formats a newly ingested CVE as a push message.
func FormatNotification(c model.CVE) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s\n", c.Severity, c.ID)
	if c.Title != "" && c.Title != c.ID {
		b.WriteString(c.Title)
		b.WriteString("\n")
	}
	if desc := truncate(c.Description, maxDescription); desc != "" {
		b.WriteString("\n")
		b.WriteString(desc)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if len(c.Technologies) > 0 {
		fmt.Fprintf(&b, "Tech: %s\n", strings.Join(c.Technologies, ", "))
	}
	if attrs := recordFlags(c); len(attrs) > 0 {
		fmt.Fprintf(&b, "Flags: %s\n", strings.Join(attrs, ", "))
	}
	if !c.PublishedAt.IsZero() {
		fmt.Fprintf(&b, "Published: %s\n", c.PublishedAt.Format("2006-01-02"))
	}
	if c.URL != "" {
		b.WriteString("\n")
		b.WriteString(c.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatCVE formats the full details of a single record.
func FormatCVE(c *model.CVE) string {
	var b strings.Builder
	b.WriteString(FormatNotification(*c))
	fmt.Fprintf(&b, "\n\nStatus: %s", c.Status)
	if c.Source != "" {
		fmt.Fprintf(&b, "\nSource: %s", c.Source)
	}
	return b.String()
}

// FormatCVEList formats one page of query results.
func FormatCVEList(recs []model.CVE, total, page, pageSize int, criteria filter.Criteria, rangeLabel string) string {
	var b strings.Builder
	if total == 0 || len(recs) == 0 {
		b.WriteString("No CVEs match the current filters.\n")
	} else {
		first := (page-1)*pageSize + 1
		fmt.Fprintf(&b, "CVEs %d-%d of %d (page %d/%d)\n", first, first+len(recs)-1, total, page, pageCount(total, pageSize))
	}
	fmt.Fprintf(&b, "Filters: %s\n", FormatCriteriaInline(criteria))
	fmt.Fprintf(&b, "Range: %s\n", rangeLabel)

	for _, c := range recs {
		b.WriteString("\n")
		b.WriteString(formatCVELine(c))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatCVELine(c model.CVE) string {
	var b strings.Builder
	star := ""
	if c.IsPriority {
		star = " *"
	}
	fmt.Fprintf(&b, "%s [%s]%s %s\n", c.ID, c.Severity, star, truncate(c.Title, 80))

	details := []string{string(c.Status)}
	if len(c.Technologies) > 0 {
		details = append(details, strings.Join(c.Technologies, ", "))
	}
	if attrs := recordFlags(c); len(attrs) > 0 {
		details = append(details, strings.Join(attrs, ", "))
	}
	if !c.PublishedAt.IsZero() {
		details = append(details, c.PublishedAt.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "   %s\n", strings.Join(details, " | "))
	return b.String()
}

// FormatCriteria renders the filter as one line per dimension.
func FormatCriteria(c filter.Criteria) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Severity: %s\n", joinOrAny(c.Severity.Values()))
	fmt.Fprintf(&b, "Technology: %s\n", joinOrAny(c.Technology.Values()))
	fmt.Fprintf(&b, "Status: %s\n", joinOrAny(c.Status.Values()))
	flags := activeFlags(c)
	if len(flags) == 0 {
		b.WriteString("Flags: none")
	} else {
		fmt.Fprintf(&b, "Flags: %s", strings.Join(flags, ", "))
	}
	return b.String()
}

// FormatCriteriaInline renders the filter on a single line.
func FormatCriteriaInline(c filter.Criteria) string {
	if c.IsEmpty() {
		return "none"
	}
	var parts []string
	if !c.Severity.Empty() {
		parts = append(parts, "severity "+join(c.Severity.Values()))
	}
	if !c.Technology.Empty() {
		parts = append(parts, "tech "+join(c.Technology.Values()))
	}
	if !c.Status.Empty() {
		parts = append(parts, "status "+join(c.Status.Values()))
	}
	parts = append(parts, activeFlags(c)...)
	return strings.Join(parts, "; ")
}

// FormatRange renders the committed range of sel, naming the preset it
// corresponds to when there is one.
func FormatRange(sel *daterange.Selector) string {
	r := sel.Value()
	label := daterange.FormatDisplay(r)
	if key := sel.MatchingPresetKey(r); key != "" {
		for _, p := range sel.Presets() {
			if p.Key == key {
				return fmt.Sprintf("%s (%s)", label, p.Label)
			}
		}
	}
	return label
}

// FormatPresets lists the presets with the range each covers at now.
func FormatPresets(presets []daterange.Preset, now time.Time) string {
	var b strings.Builder
	b.WriteString("Date presets:\n")
	for _, p := range presets {
		r := p.Compute(now)
		fmt.Fprintf(&b, "\n%s: %s\n   /range %s", p.Label, daterange.FormatDisplay(&r), p.Key)
	}
	return b.String()
}

// FormatStats renders a summary of the records in the current view.
func FormatStats(s stats.Summary, rangeLabel string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Statistics (%s)\n\n", rangeLabel)
	fmt.Fprintf(&b, "Total: %d\n", s.Total)
	if s.Total == 0 {
		return strings.TrimRight(b.String(), "\n")
	}

	b.WriteString("\nBy severity:\n")
	for _, sev := range model.Severities {
		fmt.Fprintf(&b, "  %s: %d\n", sev, s.BySeverity[sev])
	}
	b.WriteString("\nBy status:\n")
	for _, st := range model.Statuses {
		fmt.Fprintf(&b, "  %s: %d\n", st, s.ByStatus[st])
	}
	if top := s.TopTechnologies(5); len(top) > 0 {
		b.WriteString("\nTop technologies:\n")
		for _, tc := range top {
			fmt.Fprintf(&b, "  %s: %d\n", tc.Tech, tc.Count)
		}
	}
	fmt.Fprintf(&b, "\nPublic PoC: %d\nDocker: %d\ncurl: %d\nPriority: %d",
		s.WithPoc, s.DockerDeployable, s.CurlTestable, s.Priority)
	return b.String()
}

func recordFlags(c model.CVE) []string {
	var out []string
	if c.HasPublicPoc {
		out = append(out, flagLabels[filter.FlagPublicPoc])
	}
	if c.IsDockerDeployable {
		out = append(out, flagLabels[filter.FlagDocker])
	}
	if c.IsCurlTestable {
		out = append(out, flagLabels[filter.FlagCurl])
	}
	return out
}

func activeFlags(c filter.Criteria) []string {
	var out []string
	for _, f := range filter.Flags {
		if c.FlagValue(f) {
			out = append(out, flagLabels[f])
		}
	}
	return out
}

func join[T ~string](vals []T) string {
	s := make([]string, len(vals))
	for i, v := range vals {
		s[i] = string(v)
	}
	return strings.Join(s, ", ")
}

func joinOrAny[T ~string](vals []T) string {
	if len(vals) == 0 {
		return anyValue
	}
	return join(vals)
}

func pageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
