// Package fetcher downloads advisory feeds and turns their items into CVE records.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"cve_bot/internal/model"
)

const maxBodySize = 5 * 1024 * 1024

var (
	cveIDRe    = regexp.MustCompile(`(?i)\bCVE-\d{4}-\d{4,}\b`)
	severityRe = regexp.MustCompile(`(?i)\bseverity\s*[:=]?\s*(critical|high|medium|moderate|low)\b`)
	cvssRe     = regexp.MustCompile(`(?i)\bcvss(?:v?3(?:\.\d)?)?\s*(?:score)?\s*[:=]?\s*(\d{1,2}(?:\.\d)?)\b`)
	pocRe      = regexp.MustCompile(`(?i)\b(poc|proof[- ]of[- ]concept|exploit)\b`)
	dockerRe   = regexp.MustCompile(`(?i)\bdocker\b`)
	curlRe     = regexp.MustCompile(`(?i)\bcurl\b`)
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads and parses advisory feeds.
type Fetcher struct {
	client HTTPClient
}

// New creates a Fetcher with the given HTTP client.
func New(client HTTPClient) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch downloads and parses an RSS or Atom feed from the given URL.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "CVETriageBot/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// FetchSource downloads src and converts its items.
func (f *Fetcher) FetchSource(ctx context.Context, src model.FeedSource) ([]model.CVE, error) {
	feed, err := f.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	return ParseItems(feed.Items, src, time.Now().UTC()), nil
}

// ParseItems converts feed items into CVE records. Items without a CVE
// identifier are skipped, and a repeated identifier keeps its first item.
// fetchedAt stands in for items that carry no date.
func ParseItems(items []*gofeed.Item, src model.FeedSource, fetchedAt time.Time) []model.CVE {
	seen := make(map[string]bool)
	var out []model.CVE
	for _, item := range items {
		id := ExtractID(item)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		text := item.Title + "\n" + item.Description + "\n" + item.Content
		out = append(out, model.CVE{
			ID:                 id,
			Title:              strings.TrimSpace(item.Title),
			Description:        strings.TrimSpace(item.Description),
			Severity:           detectSeverity(item.Categories, text),
			Technologies:       technologies(item.Categories, src.Technologies),
			Status:             model.StatusNew,
			HasPublicPoc:       pocRe.MatchString(text),
			IsDockerDeployable: dockerRe.MatchString(text),
			IsCurlTestable:     curlRe.MatchString(text),
			URL:                item.Link,
			Source:             src.Name,
			PublishedAt:        publishedAt(item, fetchedAt),
		})
	}
	return out
}

// ExtractID returns the first CVE identifier found in the item's title,
// GUID or link, upper-cased. It returns "" when there is none.
func ExtractID(item *gofeed.Item) string {
	for _, s := range []string{item.Title, item.GUID, item.Link} {
		if m := cveIDRe.FindString(s); m != "" {
			return strings.ToUpper(m)
		}
	}
	return ""
}

func detectSeverity(categories []string, text string) model.Severity {
	for _, c := range categories {
		if sev, ok := model.ParseSeverity(c); ok {
			return sev
		}
	}
	if m := severityRe.FindStringSubmatch(text); m != nil {
		if strings.EqualFold(m[1], "moderate") {
			return model.SeverityMedium
		}
		if sev, ok := model.ParseSeverity(m[1]); ok {
			return sev
		}
	}
	if m := cvssRe.FindStringSubmatch(text); m != nil {
		if score, err := strconv.ParseFloat(m[1], 64); err == nil && score <= 10 {
			return severityFromScore(score)
		}
	}
	return model.SeverityMedium
}

// severityFromScore maps a CVSS v3 base score to its qualitative rating.
func severityFromScore(score float64) model.Severity {
	switch {
	case score >= 9:
		return model.SeverityCritical
	case score >= 7:
		return model.SeverityHigh
	case score >= 4:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

func technologies(categories, defaults []string) []string {
	set := make(map[string]bool)
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			return
		}
		if _, ok := model.ParseSeverity(s); ok {
			return
		}
		if pocRe.MatchString(s) && !strings.Contains(s, " ") {
			return
		}
		set[s] = true
	}
	for _, c := range categories {
		add(c)
	}
	for _, d := range defaults {
		add(d)
	}
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func publishedAt(item *gofeed.Item, fallback time.Time) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC()
	default:
		return fallback.UTC()
	}
}
