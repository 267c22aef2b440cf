package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-ecommerce-bot/internal/domain/model"
)

// ToEvent maps a Telegram update to an event. ok is false for updates the
// bot does not react to (edits, stickers, channel posts without text).
func ToEvent(up tgbotapi.Update) (ev model.Event, ok bool) {
	if q := up.CallbackQuery; q != nil {
		cb := model.CallbackEvent{CallbackID: q.ID, Data: q.Data}
		if q.From != nil {
			cb.UserID = q.From.ID
			cb.ChatID = q.From.ID
		}
		if q.Message != nil {
			cb.MessageID = q.Message.MessageID
			if q.Message.Chat != nil {
				cb.ChatID = q.Message.Chat.ID
			}
		}
		return cb, cb.ChatID != 0
	}

	m := up.Message
	if m == nil || m.Chat == nil {
		return nil, false
	}
	var userID int64
	if m.From != nil {
		userID = m.From.ID
	}
	if m.Location != nil {
		return model.LocationEvent{
			UserID:    userID,
			ChatID:    m.Chat.ID,
			Latitude:  m.Location.Latitude,
			Longitude: m.Location.Longitude,
		}, true
	}
	if m.Text == "" {
		return nil, false
	}
	return model.MessageEvent{
		UserID:    userID,
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
		Text:      m.Text,
	}, true
}
