// Package config handles application configuration from environment variables
// and the advisory feed list.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	DatabasePath     string
	LogLevel         string
	AllowedUsers     []int64
	FeedsFile        string
	PollInterval     time.Duration
	MaxRangeDays     int
	MinDate          *time.Time
	PageSize         int
	Timezone         string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/bot.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	var allowedUsers []int64
	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
			}
			allowedUsers = append(allowedUsers, uid)
		}
	}

	feedsFile := os.Getenv("FEEDS_FILE")
	if feedsFile == "" {
		feedsFile = "./feeds.yaml"
	}

	pollMinutes, err := positiveInt("POLL_INTERVAL_MINUTES", 15)
	if err != nil {
		return nil, err
	}
	maxRangeDays, err := positiveInt("MAX_RANGE_DAYS", 1825)
	if err != nil {
		return nil, err
	}
	pageSize, err := positiveInt("PAGE_SIZE", 10)
	if err != nil {
		return nil, err
	}

	var minDate *time.Time
	if raw := strings.TrimSpace(os.Getenv("MIN_DATE")); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("invalid MIN_DATE %q, use YYYY-MM-DD: %w", raw, err)
		}
		minDate = &d
	}

	timezone := strings.TrimSpace(os.Getenv("TIMEZONE"))
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", timezone, err)
	}

	return &Config{
		TelegramBotToken: token,
		DatabasePath:     dbPath,
		LogLevel:         logLevel,
		AllowedUsers:     allowedUsers,
		FeedsFile:        feedsFile,
		PollInterval:     time.Duration(pollMinutes) * time.Minute,
		MaxRangeDays:     maxRangeDays,
		MinDate:          minDate,
		PageSize:         pageSize,
		Timezone:         timezone,
	}, nil
}

func positiveInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// Location returns the zone in which calendar days are counted.
// An empty or unknown Timezone means UTC.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
