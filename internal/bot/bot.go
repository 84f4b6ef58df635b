// Package bot implements the Telegram dashboard: per-chat filter and date
// range sessions, the CVE list and triage commands.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	lru "github.com/hashicorp/golang-lru/v2"

	"cve_bot/internal/config"
	"cve_bot/internal/daterange"
	"cve_bot/internal/storage"
)

const (
	sessionCacheSize = 1024
	defaultPageSize  = 10
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram bot that handles user commands and sends notifications.
type Bot struct {
	api       telegramAPI
	store     storage.Storage
	cfg       *config.Config
	clock     daterange.Clock
	rangeOpts daterange.Options
	sessions  *lru.Cache[int64, *session]
	log       *slog.Logger
}

// New creates a Bot with the given Telegram token, storage, and config.
func New(token string, store storage.Storage, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return newBot(api, store, cfg, daterange.ClockIn(cfg.Location()), log)
}

func newBot(api telegramAPI, store storage.Storage, cfg *config.Config, clock daterange.Clock, log *slog.Logger) (*Bot, error) {
	sessions, err := lru.New[int64, *session](sessionCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &Bot{
		api:   api,
		store: store,
		cfg:   cfg,
		clock: clock,
		rangeOpts: daterange.Options{
			MaxDays: cfg.MaxRangeDays,
			Min:     cfg.MinDate,
		},
		sessions: sessions,
		log:      log,
	}, nil
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.CallbackQuery != nil {
				if !b.cfg.IsUserAllowed(update.CallbackQuery.From.ID) {
					continue
				}
				b.handleCallback(ctx, update.CallbackQuery)
				continue
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if !b.cfg.IsUserAllowed(update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) replyWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if len(kb.InlineKeyboard) > 0 {
		msg.ReplyMarkup = kb
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) editWithKeyboard(chatID int64, messageID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, kb)
	if _, err := b.api.Send(edit); err != nil {
		b.log.Error("edit message", "chat_id", chatID, "message_id", messageID, "error", err)
	}
}

func (b *Bot) pageSize() int {
	if b.cfg.PageSize > 0 {
		return b.cfg.PageSize
	}
	return defaultPageSize
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case cmdCVEs:
		b.handleCVEs(ctx, chatID, args)
	case "cve":
		b.handleCVE(ctx, chatID, args)
	case cmdFilter:
		b.handleFilter(ctx, chatID)
	case "tech":
		b.handleTech(ctx, chatID, args)
	case "status":
		b.handleStatus(ctx, chatID, args)
	case "priority":
		b.handlePriority(ctx, chatID, args)
	case cmdRange:
		b.handleRange(ctx, chatID, args)
	case "pick":
		b.handlePick(ctx, chatID, args)
	case "presets":
		b.handlePresets(ctx, chatID)
	case "stats":
		b.handleStats(ctx, chatID)
	case "subscribe":
		b.handleSubscribe(ctx, chatID)
	case "unsubscribe":
		b.handleUnsubscribe(ctx, chatID)
	case "clear":
		b.handleClear(ctx, chatID)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
