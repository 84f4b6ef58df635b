package bot

import (
	"context"
	"fmt"
	"time"

	"cve_bot/internal/daterange"
	"cve_bot/internal/filter"
	"cve_bot/internal/storage"
)

const hookTimeout = 5 * time.Second

// session is the live dashboard state of one chat.
type session struct {
	chatID   int64
	composer *filter.Composer
	selector *daterange.Selector
}

// query returns the storage query for the current criteria and the
// committed range. A start date without an end filters from that day on.
func (s *session) query() storage.Query {
	return storage.Query{
		Criteria: s.composer.Criteria(),
		Range:    s.selector.Value(),
	}
}

// loadSession returns the cached state of chatID, loading it from storage on
// a cache miss.
func (b *Bot) loadSession(ctx context.Context, chatID int64) (*session, error) {
	if s, ok := b.sessions.Get(chatID); ok {
		return s, nil
	}

	saved, err := b.store.GetSession(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	s := &session{
		chatID:   chatID,
		composer: filter.NewComposer(saved.Criteria),
		selector: daterange.NewSelector(b.clock, b.rangeOpts, saved.Range),
	}
	s.selector.OnChange = func(*daterange.Range) {
		ctx, cancel := hookContext()
		defer cancel()
		b.persist(ctx, s)
	}
	s.composer.OnApply = func(filter.Criteria) {
		ctx, cancel := hookContext()
		defer cancel()
		b.persist(ctx, s)
		b.sendPage(ctx, s, 1)
	}
	s.composer.OnClear = func() {
		ctx, cancel := hookContext()
		defer cancel()
		b.persist(ctx, s)
	}

	b.sessions.Add(chatID, s)
	return s, nil
}

// hookContext bounds the storage work done from composer and selector
// callbacks, which do not receive the request context.
func hookContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), hookTimeout)
}

// persist stores the session's current criteria and committed range.
func (b *Bot) persist(ctx context.Context, s *session) {
	err := b.store.SaveSession(ctx, &storage.Session{
		ChatID:   s.chatID,
		Criteria: s.composer.Criteria(),
		Range:    s.selector.Value(),
	})
	if err != nil {
		b.log.Error("save session", "chat_id", s.chatID, "error", err)
	}
}

// sendPage renders page of the session's current query.
func (b *Bot) sendPage(ctx context.Context, s *session, page int) {
	q := s.query()
	total, err := b.store.CountCVEs(ctx, q)
	if err != nil {
		b.log.Error("count cves", "chat_id", s.chatID, "error", err)
		b.reply(s.chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	size := b.pageSize()
	pages := pageCount(total, size)
	if page > pages {
		page = pages
	}
	q.Limit = size
	q.Offset = (page - 1) * size

	recs, err := b.store.ListCVEs(ctx, q)
	if err != nil {
		b.log.Error("list cves", "chat_id", s.chatID, "error", err)
		b.reply(s.chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	text := FormatCVEList(recs, total, page, size, q.Criteria, FormatRange(s.selector))
	b.replyWithKeyboard(s.chatID, text, pageKeyboard(page, pages))
}
