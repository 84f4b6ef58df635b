// Package scheduler polls advisory feeds, stores new records and pushes
// them to subscribers whose saved filter matches.
package scheduler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"cve_bot/internal/bot"
	"cve_bot/internal/fetcher"
	"cve_bot/internal/filter"
	"cve_bot/internal/model"
	"cve_bot/internal/storage"
)

// Telegram allows roughly 20 messages per second across chats.
const defaultSendInterval = 50 * time.Millisecond

// Sender is the interface for sending Telegram messages.
type Sender interface {
	SendMessage(chatID int64, text string)
}

// Scheduler periodically fetches the configured sources.
type Scheduler struct {
	store   storage.Storage
	fetcher *fetcher.Fetcher
	sources []model.FeedSource
	sender  Sender
	limiter *rate.Limiter
	log     *slog.Logger
	tick    time.Duration
	loc     *time.Location
}

// New creates a Scheduler with the default HTTP client.
func New(store storage.Storage, sources []model.FeedSource, sender Sender, log *slog.Logger) *Scheduler {
	return NewWithFetcher(store, fetcher.New(http.DefaultClient), sources, sender, log)
}

// NewWithFetcher creates a Scheduler with a custom fetcher (useful for testing).
func NewWithFetcher(store storage.Storage, f *fetcher.Fetcher, sources []model.FeedSource, sender Sender, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:   store,
		fetcher: f,
		sources: sources,
		sender:  sender,
		limiter: rate.NewLimiter(rate.Every(defaultSendInterval), 1),
		log:     log,
		tick:    15 * time.Minute,
		loc:     time.UTC,
	}
}

// SetTickInterval overrides the default 15-minute poll interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// SetLocation sets the zone in which saved date ranges are interpreted.
// It must match the zone the bot counts days in.
func (s *Scheduler) SetLocation(loc *time.Location) {
	s.loc = loc
}

// SetSendRate overrides the outbound message rate.
func (s *Scheduler) SetSendRate(r rate.Limit) {
	s.limiter.SetLimit(r)
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.checkAll(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAll(ctx)
		}
	}
}

func (s *Scheduler) checkAll(ctx context.Context) {
	var fresh []model.CVE
	for _, src := range s.sources {
		if ctx.Err() != nil {
			return
		}
		fresh = append(fresh, s.processSource(ctx, src)...)
	}

	if len(fresh) > 0 {
		s.notify(ctx, fresh)
	}
}

// processSource stores every record of src and returns those seen for the
// first time.
func (s *Scheduler) processSource(ctx context.Context, src model.FeedSource) []model.CVE {
	s.log.Debug("checking source", "name", src.Name)

	recs, err := s.fetcher.FetchSource(ctx, src)
	if err != nil {
		s.log.Error("fetch source", "name", src.Name, "url", src.URL, "error", err)
		return nil
	}

	var fresh []model.CVE
	for i := range recs {
		inserted, err := s.store.UpsertCVE(ctx, &recs[i])
		if err != nil {
			s.log.Error("upsert cve", "source", src.Name, "id", recs[i].ID, "error", err)
			continue
		}
		if inserted {
			fresh = append(fresh, recs[i])
		}
	}

	s.log.Info("source checked", "name", src.Name, "items", len(recs), "new", len(fresh))
	return fresh
}

// notify pushes fresh records to every subscriber whose saved criteria
// and range admit them.
func (s *Scheduler) notify(ctx context.Context, fresh []model.CVE) {
	subs, err := s.store.ListSubscriptions(ctx)
	if err != nil {
		s.log.Error("list subscriptions", "error", err)
		return
	}

	for _, sub := range subs {
		sess, err := s.store.GetSession(ctx, sub.ChatID)
		if err != nil {
			s.log.Error("get session", "chat_id", sub.ChatID, "error", err)
			continue
		}

		sent := 0
		for _, rec := range fresh {
			if !filter.Match(rec, sess.Criteria) {
				continue
			}
			if sess.Range != nil && !sess.Range.In(s.loc).Contains(rec.PublishedAt) {
				continue
			}
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
			s.sender.SendMessage(sub.ChatID, bot.FormatNotification(rec))
			sent++
		}

		if sent > 0 {
			s.log.Info("sent notifications", "chat_id", sub.ChatID, "count", sent)
		}
	}
}
