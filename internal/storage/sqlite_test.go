package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"cve_bot/internal/daterange"
	"cve_bot/internal/filter"
	"cve_bot/internal/model"
)

var ignoreTimestamps = cmpopts.IgnoreFields(model.CVE{}, "CreatedAt", "UpdatedAt")

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func published(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func sampleCVEs() []model.CVE {
	return []model.CVE{
		{
			ID:           "CVE-2025-1000",
			Title:        "nginx request smuggling",
			Severity:     model.SeverityCritical,
			Technologies: []string{"linux", "nginx"},
			Status:       model.StatusNew,
			HasPublicPoc: true,
			URL:          "https://example.com/CVE-2025-1000",
			Source:       "nvd",
			PublishedAt:  published(2025, 6, 10, 8),
		},
		{
			ID:                 "CVE-2025-1001",
			Title:              "wordpress plugin xss",
			Severity:           model.SeverityMedium,
			Technologies:       []string{"wordpress"},
			Status:             model.StatusDone,
			IsDockerDeployable: true,
			IsCurlTestable:     true,
			Source:             "nvd",
			PublishedAt:        published(2025, 6, 1, 23),
		},
		{
			ID:           "CVE-2025-1002",
			Title:        "redis lua sandbox escape",
			Severity:     model.SeverityHigh,
			Technologies: []string{"redis"},
			Status:       model.StatusInProgress,
			IsPriority:   true,
			Source:       "ghsa",
			PublishedAt:  published(2025, 5, 20, 12),
		},
		{
			ID:          "CVE-2025-1003",
			Title:       "unlisted kernel issue",
			Severity:    model.SeverityLow,
			Status:      model.StatusUnlisted,
			Source:      "ghsa",
			PublishedAt: published(2025, 6, 15, 0),
		},
	}
}

func seed(t *testing.T, s *SQLite) []model.CVE {
	t.Helper()
	recs := sampleCVEs()
	for i := range recs {
		inserted, err := s.UpsertCVE(context.Background(), &recs[i])
		if err != nil {
			t.Fatalf("upsert %s: %v", recs[i].ID, err)
		}
		if !inserted {
			t.Fatalf("upsert %s: expected insert", recs[i].ID)
		}
	}
	return recs
}

func ids(recs []model.CVE) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func TestCVERoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)
	recs := seed(t, s)

	for _, want := range recs {
		t.Run(want.ID, func(t *testing.T) {
			got, err := s.GetCVE(ctx, want.ID)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if diff := cmp.Diff(want, *got, ignoreTimestamps); diff != "" {
				t.Errorf("GetCVE mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := s.GetCVE(ctx, "CVE-1999-0001"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetCVE unknown: got %v, want sql.ErrNoRows", err)
	}
}

func TestUpsertCVE_KeepsTriageFields(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)
	seed(t, s)

	if err := s.UpdateStatus(ctx, "CVE-2025-1000", model.StatusInProgress); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := s.SetPriority(ctx, "CVE-2025-1000", true); err != nil {
		t.Fatalf("set priority: %v", err)
	}

	refreshed := model.CVE{
		ID:             "CVE-2025-1000",
		Title:          "nginx request smuggling (updated)",
		Severity:       model.SeverityHigh,
		Technologies:   []string{"nginx", "openresty"},
		Status:         model.StatusNew,
		IsCurlTestable: true,
		Source:         "nvd",
		PublishedAt:    published(2025, 6, 10, 8),
	}
	inserted, err := s.UpsertCVE(ctx, &refreshed)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if inserted {
		t.Error("expected update, got insert")
	}

	got, err := s.GetCVE(ctx, "CVE-2025-1000")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := model.CVE{
		ID:             "CVE-2025-1000",
		Title:          "nginx request smuggling (updated)",
		Severity:       model.SeverityHigh,
		Technologies:   []string{"linux", "nginx", "openresty"},
		Status:         model.StatusInProgress,
		HasPublicPoc:   true,
		IsCurlTestable: true,
		IsPriority:     true,
		Source:         "nvd",
		PublishedAt:    published(2025, 6, 10, 8),
	}
	if diff := cmp.Diff(want, *got, ignoreTimestamps); diff != "" {
		t.Errorf("after upsert mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateStatus_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)
	seed(t, s)

	if err := s.UpdateStatus(ctx, "CVE-1999-0001", model.StatusDone); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("unknown id: got %v, want sql.ErrNoRows", err)
	}
	if err := s.UpdateStatus(ctx, "CVE-2025-1000", model.Status("archived")); err == nil {
		t.Error("expected error for invalid status")
	}
	if err := s.SetPriority(ctx, "CVE-1999-0001", true); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("priority unknown id: got %v, want sql.ErrNoRows", err)
	}
}

func TestListCVEs(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)
	seed(t, s)

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{
			name:  "everything newest first",
			query: Query{},
			want:  []string{"CVE-2025-1003", "CVE-2025-1000", "CVE-2025-1001", "CVE-2025-1002"},
		},
		{
			name:  "severity set",
			query: Query{Criteria: filter.Criteria{Severity: filter.NewSet(model.SeverityCritical, model.SeverityHigh)}},
			want:  []string{"CVE-2025-1000", "CVE-2025-1002"},
		},
		{
			name:  "technology any",
			query: Query{Criteria: filter.Criteria{Technology: filter.NewSet("linux", "redis")}},
			want:  []string{"CVE-2025-1000", "CVE-2025-1002"},
		},
		{
			name:  "status and flag",
			query: Query{Criteria: filter.Criteria{Status: filter.NewSet(model.StatusDone), IsCurlTestable: true}},
			want:  []string{"CVE-2025-1001"},
		},
		{
			name:  "hide done",
			query: Query{Criteria: filter.Criteria{HideDone: true}},
			want:  []string{"CVE-2025-1003", "CVE-2025-1000", "CVE-2025-1002"},
		},
		{
			name:  "hide done wins over status set",
			query: Query{Criteria: filter.Criteria{Status: filter.NewSet(model.StatusDone), HideDone: true}},
			want:  []string{},
		},
		{
			name: "range is inclusive on both days",
			query: Query{Range: &daterange.Range{
				From: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
				To:   time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
			}},
			want: []string{"CVE-2025-1000", "CVE-2025-1001"},
		},
		{
			name:  "open ended range",
			query: Query{Range: &daterange.Range{From: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)}},
			want:  []string{"CVE-2025-1003", "CVE-2025-1000"},
		},
		{
			name:  "limit and offset",
			query: Query{Limit: 2, Offset: 1},
			want:  []string{"CVE-2025-1000", "CVE-2025-1001"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListCVEs(ctx, tt.query)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("ListCVEs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListCVEs_AgreesWithMatch(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)
	recs := seed(t, s)

	criteria := []filter.Criteria{
		{},
		{Severity: filter.NewSet(model.SeverityLow, model.SeverityMedium)},
		{Technology: filter.NewSet("nginx"), HasPublicPoc: true},
		{IsDockerDeployable: true},
		{IsPriority: true, HideDone: true},
		{Status: filter.NewSet(model.StatusNew, model.StatusUnlisted)},
	}

	for i, c := range criteria {
		got, err := s.ListCVEs(ctx, Query{Criteria: c})
		if err != nil {
			t.Fatalf("list %d: %v", i, err)
		}
		n, err := s.CountCVEs(ctx, Query{Criteria: c, Limit: 1})
		if err != nil {
			t.Fatalf("count %d: %v", i, err)
		}
		want := filter.FilterRecords(recs, c)
		if diff := cmp.Diff(len(want), n); diff != "" {
			t.Errorf("criteria %d count mismatch (-want +got):\n%s", i, diff)
		}
		if diff := cmp.Diff(ids(want), ids(got), cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
			t.Errorf("criteria %d ids mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestListCVEs_RangeInClockLocation(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	ctx := context.Background()
	s := newTestDB(t)

	recs := []model.CVE{
		{ID: "CVE-2025-2000", Severity: model.SeverityHigh, PublishedAt: time.Date(2025, 6, 14, 18, 0, 0, 0, la)},
		{ID: "CVE-2025-2001", Severity: model.SeverityHigh, PublishedAt: time.Date(2025, 6, 13, 23, 30, 0, 0, la)},
		{ID: "CVE-2025-2002", Severity: model.SeverityHigh, PublishedAt: time.Date(2025, 6, 14, 0, 0, 0, 0, la)},
	}
	for i := range recs {
		if _, err := s.UpsertCVE(ctx, &recs[i]); err != nil {
			t.Fatalf("upsert %s: %v", recs[i].ID, err)
		}
	}

	sel := daterange.NewSelector(daterange.FixedClock(time.Date(2025, 6, 14, 20, 0, 0, 0, la)), daterange.Options{}, nil)
	if err := sel.SelectPreset("today"); err != nil {
		t.Fatalf("select preset: %v", err)
	}
	r := sel.Value()

	got, err := s.ListCVEs(ctx, Query{Range: r})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]string{"CVE-2025-2000", "CVE-2025-2002"}, ids(got)); diff != "" {
		t.Errorf("today in LA mismatch (-want +got):\n%s", diff)
	}

	for _, rec := range recs {
		listed := false
		for _, g := range got {
			listed = listed || g.ID == rec.ID
		}
		if diff := cmp.Diff(r.Contains(rec.PublishedAt), listed); diff != "" {
			t.Errorf("%s: SQL and Contains disagree (-contains +sql):\n%s", rec.ID, diff)
		}
	}
}

func TestTechnologiesWithCommaRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	in := model.CVE{
		ID:           "CVE-2025-3000",
		Severity:     model.SeverityLow,
		Technologies: []string{"apache, tomcat", "java"},
		PublishedAt:  published(2025, 6, 1, 0),
	}
	if _, err := s.UpsertCVE(ctx, &in); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := s.GetCVE(ctx, in.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff([]string{"apache, tomcat", "java"}, got.Technologies); diff != "" {
		t.Errorf("technologies mismatch (-want +got):\n%s", diff)
	}
}

func TestListTechnologies(t *testing.T) {
	s := newTestDB(t)
	seed(t, s)

	got, err := s.ListTechnologies(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"linux", "nginx", "redis", "wordpress"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListTechnologies mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	empty, err := s.GetSession(ctx, 42)
	if err != nil {
		t.Fatalf("get empty: %v", err)
	}
	if diff := cmp.Diff(&Session{ChatID: 42}, empty); diff != "" {
		t.Errorf("empty session mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		name string
		sess Session
	}{
		{
			name: "criteria and full range",
			sess: Session{
				ChatID: 42,
				Criteria: filter.Criteria{
					Severity:   filter.NewSet(model.SeverityHigh, model.SeverityCritical),
					Technology: filter.NewSet("nginx"),
					Status:     filter.NewSet(model.StatusNew),
					IsPriority: true,
					HideDone:   true,
				},
				Range: &daterange.Range{
					From: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
					To:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
				},
			},
		},
		{
			name: "partial range only",
			sess: Session{
				ChatID: 42,
				Range:  &daterange.Range{From: time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC)},
			},
		},
		{
			name: "cleared",
			sess: Session{ChatID: 42},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := tt.sess
			if err := s.SaveSession(ctx, &sess); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err := s.GetSession(ctx, 42)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if diff := cmp.Diff(tt.sess, *got, cmpopts.IgnoreFields(Session{}, "UpdatedAt")); diff != "" {
				t.Errorf("session mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeCriteria_DropsUnknownValues(t *testing.T) {
	got, err := decodeCriteria("severity: [HIGH, SEVERE]\nstatus: [done, archived]\npoc: true\n")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := filter.Criteria{
		Severity:     filter.NewSet(model.SeverityHigh),
		Status:       filter.NewSet(model.StatusDone),
		HasPublicPoc: true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decodeCriteria mismatch (-want +got):\n%s", diff)
	}
}

func TestSubscriptions(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	for _, id := range []int64{300, 100, 200, 100} {
		if err := s.Subscribe(ctx, id); err != nil {
			t.Fatalf("subscribe %d: %v", id, err)
		}
	}
	if err := s.Unsubscribe(ctx, 200); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}

	subs, err := s.ListSubscriptions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got []int64
	for _, sub := range subs {
		got = append(got, sub.ChatID)
		if sub.CreatedAt.IsZero() {
			t.Errorf("subscription %d has zero CreatedAt", sub.ChatID)
		}
	}
	if diff := cmp.Diff([]int64{100, 300}, got); diff != "" {
		t.Errorf("ListSubscriptions mismatch (-want +got):\n%s", diff)
	}
}
