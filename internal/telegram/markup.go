package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/askuser/askuser/internal/interact"
)

const selectedMark = "✅ "

// optionsKeyboard builds the inline toggle keyboard, one option per row.
// The callback payload carries the option label verbatim so it round-trips
// exactly; only the visible button text gets the selection mark.
func optionsKeyboard(options, selected []string) tgbotapi.InlineKeyboardMarkup {
	selectedSet := make(map[string]bool, len(selected))
	for _, s := range selected {
		selectedSet[s] = true
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(options))
	for _, opt := range options {
		label := opt
		if selectedSet[opt] {
			label = selectedMark + opt
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, interact.TogglePrefix+opt),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// operationKeyboard builds the reply keyboard carrying the commit commands.
func operationKeyboard(continueEnabled bool) tgbotapi.ReplyKeyboardMarkup {
	buttons := []tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButton(interact.SendButtonLabel),
	}
	if continueEnabled {
		buttons = append(buttons, tgbotapi.NewKeyboardButton(interact.ContinueButtonLabel))
	}

	keyboard := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(buttons...))
	keyboard.ResizeKeyboard = true
	return keyboard
}

// hasToggleMarkup reports whether an incoming message carries our toggle
// button schema, which re-identifies the options message for edit targeting.
func hasToggleMarkup(markup *tgbotapi.InlineKeyboardMarkup) bool {
	if markup == nil {
		return false
	}
	for _, row := range markup.InlineKeyboard {
		for _, button := range row {
			if button.CallbackData != nil && strings.HasPrefix(*button.CallbackData, interact.TogglePrefix) {
				return true
			}
		}
	}
	return false
}
