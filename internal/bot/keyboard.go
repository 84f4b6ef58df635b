package bot

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cve_bot/internal/daterange"
	"cve_bot/internal/filter"
	"cve_bot/internal/model"
)

// Callback data prefixes.
const (
	cbSeverity = "sev"
	cbStatus   = "st"
	cbTech     = "tech"
	cbFlag     = "flag"
	cbApply    = "apply"
	cbClear    = "clear"
	cbPreset   = "preset"
	cbPage     = "page"
)

const (
	maxTechButtons  = 8
	maxCallbackData = 64
	checkMark       = "✓ "
)

func button(label, action, value string) tgbotapi.InlineKeyboardButton {
	data := action
	if value != "" {
		data = action + ":" + value
	}
	return tgbotapi.NewInlineKeyboardButtonData(label, data)
}

func checked(label string, on bool) string {
	if on {
		return checkMark + label
	}
	return label
}

// filterKeyboard renders the filter composer with the current selections
// marked. Only the first maxTechButtons technologies get a button; the
// rest are reachable through /tech.
func filterKeyboard(c filter.Criteria, techs []string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	var sev []tgbotapi.InlineKeyboardButton
	for _, s := range model.Severities {
		sev = append(sev, button(checked(string(s), c.Severity.Has(s)), cbSeverity, string(s)))
	}
	rows = append(rows, sev)

	var st []tgbotapi.InlineKeyboardButton
	for _, s := range model.Statuses {
		st = append(st, button(checked(string(s), c.Status.Has(s)), cbStatus, string(s)))
	}
	rows = append(rows, st)

	var row []tgbotapi.InlineKeyboardButton
	shown := 0
	for _, t := range techs {
		if shown == maxTechButtons {
			break
		}
		if len(cbTech)+1+len(t) > maxCallbackData {
			continue
		}
		shown++
		row = append(row, button(checked(t, c.Technology.Has(t)), cbTech, t))
		if len(row) == 4 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	var flags []tgbotapi.InlineKeyboardButton
	for _, f := range filter.Flags {
		flags = append(flags, button(checked(flagLabels[f], c.FlagValue(f)), cbFlag, string(f)))
	}
	rows = append(rows, flags[:3], flags[3:])

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		button("Apply", cbApply, ""),
		button("Clear", cbClear, ""),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// presetKeyboard lays the presets out two per row, marking the active one.
func presetKeyboard(presets []daterange.Preset, activeKey string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, p := range presets {
		row = append(row, button(checked(p.Label, p.Key == activeKey), cbPreset, p.Key))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// pageKeyboard returns previous/next buttons, or an empty markup when
// everything fits on one page.
func pageKeyboard(page, pages int) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	if page > 1 {
		row = append(row, button("« Prev", cbPage, strconv.Itoa(page-1)))
	}
	if page < pages {
		row = append(row, button("Next »", cbPage, strconv.Itoa(page+1)))
	}
	if len(row) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}
