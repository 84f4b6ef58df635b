// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"time"

	"cve_bot/internal/daterange"
	"cve_bot/internal/filter"
	"cve_bot/internal/model"
)

// Query selects CVE records. Empty criteria and a nil range select
// everything; Limit 0 means no limit.
type Query struct {
	Criteria filter.Criteria
	Range    *daterange.Range
	Limit    int
	Offset   int
}

// Session is the persisted dashboard state of one chat.
type Session struct {
	ChatID    int64
	Criteria  filter.Criteria
	Range     *daterange.Range
	UpdatedAt time.Time
}

// Storage is the interface for all persistence operations.
type Storage interface {
	UpsertCVE(ctx context.Context, c *model.CVE) (inserted bool, err error)
	GetCVE(ctx context.Context, id string) (*model.CVE, error)
	ListCVEs(ctx context.Context, q Query) ([]model.CVE, error)
	CountCVEs(ctx context.Context, q Query) (int, error)
	UpdateStatus(ctx context.Context, id string, status model.Status) error
	SetPriority(ctx context.Context, id string, priority bool) error
	ListTechnologies(ctx context.Context) ([]string, error)

	GetSession(ctx context.Context, chatID int64) (*Session, error)
	SaveSession(ctx context.Context, s *Session) error

	Subscribe(ctx context.Context, chatID int64) error
	Unsubscribe(ctx context.Context, chatID int64) error
	ListSubscriptions(ctx context.Context) ([]model.Subscription, error)

	Close() error
}
