package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"cve_bot/internal/model"
)

var envKeys = []string{
	"TELEGRAM_BOT_TOKEN", "DATABASE_PATH", "LOG_LEVEL", "ALLOWED_USERS",
	"FEEDS_FILE", "POLL_INTERVAL_MINUTES", "MAX_RANGE_DAYS", "MIN_DATE", "PAGE_SIZE",
	"TIMEZONE",
}

func defaults(token string) *Config {
	return &Config{
		TelegramBotToken: token,
		DatabasePath:     "./data/bot.db",
		LogLevel:         "info",
		FeedsFile:        "./feeds.yaml",
		PollInterval:     15 * time.Minute,
		MaxRangeDays:     1825,
		PageSize:         10,
		Timezone:         "UTC",
	}
}

func TestLoad(t *testing.T) {
	minDate := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		env     map[string]string
		want    *Config
		wantErr bool
	}{
		{
			name:    "missing token",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name: "token only, defaults applied",
			env:  map[string]string{"TELEGRAM_BOT_TOKEN": "test-token"},
			want: defaults("test-token"),
		},
		{
			name: "all values set",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN":    "tok",
				"DATABASE_PATH":         "/tmp/bot.db",
				"LOG_LEVEL":             "debug",
				"ALLOWED_USERS":         "111,222,333",
				"FEEDS_FILE":            "/etc/cve/feeds.yaml",
				"POLL_INTERVAL_MINUTES": "5",
				"MAX_RANGE_DAYS":        "365",
				"MIN_DATE":              "2020-01-01",
				"PAGE_SIZE":             "25",
				"TIMEZONE":              "Europe/Berlin",
			},
			want: &Config{
				TelegramBotToken: "tok",
				DatabasePath:     "/tmp/bot.db",
				LogLevel:         "debug",
				AllowedUsers:     []int64{111, 222, 333},
				FeedsFile:        "/etc/cve/feeds.yaml",
				PollInterval:     5 * time.Minute,
				MaxRangeDays:     365,
				MinDate:          &minDate,
				PageSize:         25,
				Timezone:         "Europe/Berlin",
			},
		},
		{
			name: "allowed users with spaces",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "tok",
				"ALLOWED_USERS":      " 10 , 20 , ",
			},
			want: func() *Config {
				c := defaults("tok")
				c.AllowedUsers = []int64{10, 20}
				return c
			}(),
		},
		{
			name: "invalid user id",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "tok",
				"ALLOWED_USERS":      "123,abc",
			},
			wantErr: true,
		},
		{
			name: "non-numeric max range",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "tok",
				"MAX_RANGE_DAYS":     "forever",
			},
			wantErr: true,
		},
		{
			name: "zero page size",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "tok",
				"PAGE_SIZE":          "0",
			},
			wantErr: true,
		},
		{
			name: "unknown timezone",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "tok",
				"TIMEZONE":           "Mars/Olympus",
			},
			wantErr: true,
		},
		{
			name: "bad min date",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "tok",
				"MIN_DATE":           "01/01/2020",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range envKeys {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	tests := []struct {
		tz   string
		want string
	}{
		{"", "UTC"},
		{"UTC", "UTC"},
		{"America/Los_Angeles", "America/Los_Angeles"},
		{"Nowhere/Special", "UTC"},
	}
	for _, tt := range tests {
		t.Run(tt.tz, func(t *testing.T) {
			c := &Config{Timezone: tt.tz}
			if diff := cmp.Diff(tt.want, c.Location().String()); diff != "" {
				t.Errorf("Location() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIsUserAllowed(t *testing.T) {
	tests := []struct {
		name         string
		allowedUsers []int64
		userID       int64
		want         bool
	}{
		{
			name:         "empty list allows everyone",
			allowedUsers: nil,
			userID:       42,
			want:         true,
		},
		{
			name:         "user in list",
			allowedUsers: []int64{10, 20, 30},
			userID:       20,
			want:         true,
		},
		{
			name:         "user not in list",
			allowedUsers: []int64{10, 20, 30},
			userID:       99,
			want:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{AllowedUsers: tt.allowedUsers}
			got := cfg.IsUserAllowed(tt.userID)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("IsUserAllowed() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseFeeds(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    []model.FeedSource
		wantErr bool
	}{
		{
			name: "valid list",
			yaml: `
feeds:
  - name: nvd
    url: https://nvd.example.com/rss
  - name: nginx
    url: https://nginx.example.com/security.rss
    technologies: [nginx]
`,
			want: []model.FeedSource{
				{Name: "nvd", URL: "https://nvd.example.com/rss"},
				{Name: "nginx", URL: "https://nginx.example.com/security.rss", Technologies: []string{"nginx"}},
			},
		},
		{
			name:    "empty list",
			yaml:    "feeds: []\n",
			wantErr: true,
		},
		{
			name:    "missing url",
			yaml:    "feeds:\n  - name: nvd\n",
			wantErr: true,
		},
		{
			name:    "malformed url",
			yaml:    "feeds:\n  - name: nvd\n    url: not a url\n",
			wantErr: true,
		},
		{
			name:    "blank technology",
			yaml:    "feeds:\n  - name: nvd\n    url: https://nvd.example.com/rss\n    technologies: [\"\"]\n",
			wantErr: true,
		},
		{
			name:    "duplicate names",
			yaml:    "feeds:\n  - name: a\n    url: https://a.example.com\n  - name: a\n    url: https://b.example.com\n",
			wantErr: true,
		},
		{
			name:    "not yaml",
			yaml:    "feeds: [unterminated",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFeeds([]byte(tt.yaml))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseFeeds() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadFeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	if err := os.WriteFile(path, []byte("feeds:\n  - name: nvd\n    url: https://nvd.example.com/rss\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := LoadFeeds(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]model.FeedSource{{Name: "nvd", URL: "https://nvd.example.com/rss"}}, got); diff != "" {
		t.Errorf("LoadFeeds() mismatch (-want +got):\n%s", diff)
	}

	if _, err := LoadFeeds(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
