package bot

import (
	"context"
	"slices"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cve_bot/internal/filter"
	"cve_bot/internal/model"
)

const (
	cmdCVEs   = "cves"
	cmdFilter = "filter"
	cmdRange  = "range"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Send(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	action, value, _ := strings.Cut(cb.Data, ":")

	b.log.Info("callback",
		"action", action,
		"value", value,
		"chat_id", chatID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	s, ok := b.session(ctx, chatID)
	if !ok {
		return
	}
	criteria := s.composer.Criteria()

	switch action {
	case cbSeverity:
		sev, ok := model.ParseSeverity(value)
		if !ok {
			return
		}
		s.composer.Toggle(filter.FieldSeverity, string(sev), !criteria.Severity.Has(sev))
		b.refreshFilter(ctx, s, messageID)
	case cbStatus:
		st, ok := model.ParseStatus(value)
		if !ok {
			return
		}
		s.composer.Toggle(filter.FieldStatus, string(st), !criteria.Status.Has(st))
		b.refreshFilter(ctx, s, messageID)
	case cbTech:
		if value == "" {
			return
		}
		s.composer.Toggle(filter.FieldTechnology, value, !criteria.Technology.Has(value))
		b.refreshFilter(ctx, s, messageID)
	case cbFlag:
		f := filter.Flag(value)
		if !slices.Contains(filter.Flags, f) {
			return
		}
		s.composer.SetFlag(f, !criteria.FlagValue(f))
		b.refreshFilter(ctx, s, messageID)
	case cbApply:
		s.composer.Apply()
	case cbClear:
		s.composer.Clear()
		b.refreshFilter(ctx, s, messageID)
	case cbPreset:
		b.applyPreset(chatID, s, value)
	case cbPage:
		page, err := strconv.Atoi(value)
		if err != nil || page < 1 {
			return
		}
		b.sendPage(ctx, s, page)
	}
}

// refreshFilter persists the composer state and redraws the filter panel
// in place.
func (b *Bot) refreshFilter(ctx context.Context, s *session, messageID int) {
	b.persist(ctx, s)

	techs, err := b.store.ListTechnologies(ctx)
	if err != nil {
		b.log.Error("list technologies", "error", err)
	}
	c := s.composer.Criteria()
	b.editWithKeyboard(s.chatID, messageID, filterPanelText(c), filterKeyboard(c, techs))
}
