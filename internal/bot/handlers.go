package bot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cve_bot/internal/daterange"
	"cve_bot/internal/filter"
	"cve_bot/internal/stats"
	"cve_bot/internal/storage"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to CVE Triage Bot!

Browse and triage the CVEs collected from your advisory feeds.

Quick start:
1. /filter — choose severities, statuses, technologies and flags
2. /range 30d — limit the list to the last 30 days
3. /cves — show the matching CVEs

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Browsing:
/cves [page] — list CVEs matching the current filters
/cve <id> — show one CVE
/stats — statistics for the current view

Filters:
/filter — open the filter panel
/tech <tag> — toggle a technology
/clear — reset filters and date range

Date range:
/range — show the current range and presets
/range <preset> — use a preset (see /presets)
/range <from> [<to>] — dates as YYYY-MM-DD
/range clear — remove the date range
/pick <date> — pick a start date, then an end date
/presets — list presets

Triage:
/status <id> <new|in_progress|done|unlisted> — set workflow status
/priority <id> — toggle the priority mark

Notifications:
/subscribe — push new CVEs matching your filters
/unsubscribe — stop pushes`)
}

// session loads the chat's state for a new interaction. A rejection left
// by the previous interaction is dismissed.
func (b *Bot) session(ctx context.Context, chatID int64) (*session, bool) {
	s, err := b.loadSession(ctx, chatID)
	if err != nil {
		b.log.Error("load session", "chat_id", chatID, "error", err)
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return nil, false
	}
	s.selector.Dismiss()
	return s, true
}

func (b *Bot) handleCVEs(ctx context.Context, chatID int64, args string) {
	page, err := ParsePage(args)
	if err != nil {
		b.reply(chatID, "Usage: /cves [page]")
		return
	}
	s, ok := b.session(ctx, chatID)
	if !ok {
		return
	}
	b.sendPage(ctx, s, page)
}

func (b *Bot) handleCVE(ctx context.Context, chatID int64, args string) {
	id, err := ParseCVEID(args)
	if err != nil {
		b.reply(chatID, "Usage: /cve <cve_id>")
		return
	}
	c, err := b.store.GetCVE(ctx, id)
	if err != nil {
		b.replyLookupError(chatID, id, err)
		return
	}
	b.reply(chatID, FormatCVE(c))
}

func (b *Bot) handleFilter(ctx context.Context, chatID int64) {
	s, ok := b.session(ctx, chatID)
	if !ok {
		return
	}
	techs, err := b.store.ListTechnologies(ctx)
	if err != nil {
		b.log.Error("list technologies", "error", err)
	}
	b.replyWithKeyboard(chatID, filterPanelText(s.composer.Criteria()), filterKeyboard(s.composer.Criteria(), techs))
}

func filterPanelText(c filter.Criteria) string {
	return "Filter CVEs\n\n" + FormatCriteria(c) + "\n\nToggle options, then press Apply."
}

func (b *Bot) handleTech(ctx context.Context, chatID int64, args string) {
	tag := strings.ToLower(strings.TrimSpace(args))
	if tag == "" {
		b.reply(chatID, "Usage: /tech <tag>")
		return
	}
	s, ok := b.session(ctx, chatID)
	if !ok {
		return
	}

	included := !s.composer.Criteria().Technology.Has(tag)
	c := s.composer.Toggle(filter.FieldTechnology, tag, included)
	b.persist(ctx, s)

	verb := "removed from"
	if included {
		verb = "added to"
	}
	b.reply(chatID, fmt.Sprintf("Technology %q %s the filter.\nFilters: %s\nUse /cves to see the results.",
		tag, verb, FormatCriteriaInline(c)))
}

func (b *Bot) handleStatus(ctx context.Context, chatID int64, args string) {
	id, status, err := ParseStatusArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	if err := b.store.UpdateStatus(ctx, id, status); err != nil {
		b.replyLookupError(chatID, id, err)
		return
	}
	b.reply(chatID, fmt.Sprintf("%s marked as %s.", id, status))
}

func (b *Bot) replyLookupError(chatID int64, id string, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		b.reply(chatID, fmt.Sprintf("%s not found.", id))
		return
	}
	b.log.Error("cve lookup", "id", id, "error", err)
	b.reply(chatID, fmt.Sprintf("Error: %v", err))
}

func (b *Bot) handlePriority(ctx context.Context, chatID int64, args string) {
	id, err := ParseCVEID(args)
	if err != nil {
		b.reply(chatID, "Usage: /priority <cve_id>")
		return
	}
	c, err := b.store.GetCVE(ctx, id)
	if err != nil {
		b.replyLookupError(chatID, id, err)
		return
	}
	if err := b.store.SetPriority(ctx, id, !c.IsPriority); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if c.IsPriority {
		b.reply(chatID, fmt.Sprintf("%s is no longer a priority.", id))
		return
	}
	b.reply(chatID, fmt.Sprintf("%s marked as priority.", id))
}

func (b *Bot) handleRange(ctx context.Context, chatID int64, args string) {
	s, ok := b.session(ctx, chatID)
	if !ok {
		return
	}

	ra, err := ParseRangeArgs(args, s.selector.Location())
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	switch {
	case ra.Clear:
		s.selector.Clear()
		b.reply(chatID, "Date range cleared.")
	case ra.Preset != "":
		b.applyPreset(chatID, s, ra.Preset)
	case ra.Range != nil:
		if err := s.selector.SelectRange(ra.Range); err != nil {
			b.replyRejected(chatID, s)
			return
		}
		b.replyRange(chatID, s)
	default:
		text := fmt.Sprintf("Date range: %s\n\nChoose a preset or use /range <from> [<to>].", FormatRange(s.selector))
		b.replyWithKeyboard(chatID, text, presetKeyboard(s.selector.Presets(), s.selector.MatchingPresetKey(s.selector.Value())))
	}
}

func (b *Bot) applyPreset(chatID int64, s *session, key string) {
	if err := s.selector.SelectPreset(key); err != nil {
		if errors.Is(err, daterange.ErrUnknownPreset) {
			b.reply(chatID, fmt.Sprintf("Unknown preset %q. Use /presets to list them.", key))
			return
		}
		b.replyRejected(chatID, s)
		return
	}
	b.replyRange(chatID, s)
}

func (b *Bot) handlePick(ctx context.Context, chatID int64, args string) {
	if strings.TrimSpace(args) == "" {
		b.reply(chatID, "Usage: /pick <YYYY-MM-DD>")
		return
	}
	s, ok := b.session(ctx, chatID)
	if !ok {
		return
	}
	day, err := daterange.ParseDay(strings.Fields(args)[0], s.selector.Location())
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	if err := s.selector.PickDay(day); err != nil {
		b.replyRejected(chatID, s)
		return
	}
	b.replyRange(chatID, s)
}

func (b *Bot) replyRange(chatID int64, s *session) {
	if s.selector.State() == daterange.StatePartialFrom {
		b.reply(chatID, fmt.Sprintf("Date range: %s\nStart date set. Use /pick <date> to choose the end date.",
			FormatRange(s.selector)))
		return
	}
	b.reply(chatID, fmt.Sprintf("Date range: %s", FormatRange(s.selector)))
}

// replyRejected reports the selector's validation message. The committed
// range is unchanged and shown alongside.
func (b *Bot) replyRejected(chatID int64, s *session) {
	b.reply(chatID, fmt.Sprintf("%s\nDate range unchanged: %s", s.selector.Message(), FormatRange(s.selector)))
}

func (b *Bot) handlePresets(ctx context.Context, chatID int64) {
	s, ok := b.session(ctx, chatID)
	if !ok {
		return
	}
	b.replyWithKeyboard(chatID, FormatPresets(s.selector.Presets(), b.clock.Now()),
		presetKeyboard(s.selector.Presets(), s.selector.MatchingPresetKey(s.selector.Value())))
}

func (b *Bot) handleStats(ctx context.Context, chatID int64) {
	s, ok := b.session(ctx, chatID)
	if !ok {
		return
	}
	// storage narrows by date only; the criteria are applied in memory
	recs, err := b.store.ListCVEs(ctx, storage.Query{Range: s.selector.Value()})
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	matched := filter.FilterRecords(recs, s.composer.Criteria())
	b.reply(chatID, FormatStats(stats.Summarize(matched), FormatRange(s.selector)))
}

func (b *Bot) handleSubscribe(ctx context.Context, chatID int64) {
	if err := b.store.Subscribe(ctx, chatID); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, "Subscribed. New CVEs matching your filters and date range will be sent here.")
}

func (b *Bot) handleUnsubscribe(ctx context.Context, chatID int64) {
	if err := b.store.Unsubscribe(ctx, chatID); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, "Unsubscribed.")
}

func (b *Bot) handleClear(ctx context.Context, chatID int64) {
	s, ok := b.session(ctx, chatID)
	if !ok {
		return
	}
	s.composer.Clear()
	s.selector.Clear()
	b.reply(chatID, "Filters and date range cleared.")
}
