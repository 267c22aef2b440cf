package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-ecommerce-bot/internal/config"
	"telegram-ecommerce-bot/internal/domain/model"
	"telegram-ecommerce-bot/internal/domain/ports/adapter"
	"telegram-ecommerce-bot/internal/infra/i18n"
	"telegram-ecommerce-bot/internal/infra/logging"
	"telegram-ecommerce-bot/internal/infra/worker"
)

var _ adapter.ChatAdapter = (*RealTelegramBotAdapter)(nil)

// botAPI is the part of *tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// EventHandler consumes mapped updates; the bot facade implements it.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev model.Event) error
}

// Submitter schedules work per user; *worker.KeyedPool implements it.
type Submitter interface {
	Submit(ctx context.Context, key int64, task worker.Task) error
}

// RealTelegramBotAdapter polls updates and implements adapter.ChatAdapter on top of tgbotapi.
type RealTelegramBotAdapter struct {
	bot botAPI
	t   *i18n.Translator
	log *zerolog.Logger

	pollTimeout int
}

func NewRealTelegramBotAdapter(cfg *config.BotConfig, translator *i18n.Translator, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram bot authorized")
	return newAdapter(bot, translator, logger), nil
}

func newAdapter(bot botAPI, translator *i18n.Translator, logger *zerolog.Logger) *RealTelegramBotAdapter {
	return &RealTelegramBotAdapter{bot: bot, t: translator, log: logger, pollTimeout: 60}
}

// StartPolling maps every update to an event and hands it to the pool lane
// of its user. It returns when ctx is canceled or the update channel closes.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context, handler EventHandler, pool Submitter) error {
	if handler == nil || pool == nil {
		return errors.New("handler and pool are required")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = r.pollTimeout
	updates := r.bot.GetUpdatesChan(u)
	defer r.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			ev, ok := ToEvent(up)
			if !ok {
				r.log.Trace().Int("update_id", up.UpdateID).Msg("update ignored")
				continue
			}
			if err := r.dispatch(ctx, handler, pool, ev); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				r.log.Warn().Err(err).Int64("tg_id", ev.User()).Msg("failed to enqueue update")
			}
		}
	}
}

func (r *RealTelegramBotAdapter) dispatch(ctx context.Context, handler EventHandler, pool Submitter, ev model.Event) error {
	traceID := logging.NewTraceID()
	key := ev.User()
	if key == 0 {
		key = ev.Chat()
	}
	return pool.Submit(ctx, key, func(c context.Context) error {
		return handler.HandleEvent(logging.WithTraceID(c, traceID), ev)
	})
}

// SetMenuCommands registers the command menu shown by Telegram clients.
func (r *RealTelegramBotAdapter) SetMenuCommands(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmds := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: r.t.T("menu_start")},
		tgbotapi.BotCommand{Command: "register", Description: r.t.T("menu_register")},
		tgbotapi.BotCommand{Command: "login", Description: r.t.T("menu_login")},
		tgbotapi.BotCommand{Command: "products", Description: r.t.T("menu_products")},
		tgbotapi.BotCommand{Command: "my_cart", Description: r.t.T("menu_my_cart")},
	)
	_, err := r.bot.Request(cmds)
	return err
}

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendButtons sends a message with inline buttons using tgbotapi.
// - If btn.URL is set, the button opens a link
// - Else the button sends btn.Data as callback data
func (r *RealTelegramBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if kb, ok := inlineKeyboard(rows); ok {
		msg.ReplyMarkup = kb
	}
	_, err := r.bot.Send(msg)
	return err
}

// EditButtons replaces text and keyboard of messageID. An unchanged message
// is not an error.
func (r *RealTelegramBotAdapter) EditButtons(ctx context.Context, chatID int64, messageID int, text string, rows [][]adapter.InlineButton) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if kb, ok := inlineKeyboard(rows); ok {
		edit.ReplyMarkup = &kb
	}
	_, err := r.bot.Send(edit)
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}

func (r *RealTelegramBotAdapter) RequestLocation(ctx context.Context, chatID int64, text, buttonLabel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	kb := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonLocation(buttonLabel)))
	kb.OneTimeKeyboard = true
	kb.ResizeKeyboard = true

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	if callbackID == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.NewCallback(callbackID, text)
	if alert {
		cfg = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}
	_, err := r.bot.Request(cfg)
	return err
}

func inlineKeyboard(rows [][]adapter.InlineButton) (tgbotapi.InlineKeyboardMarkup, bool) {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kr := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			if btn.URL != "" {
				kr = append(kr, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			} else {
				kr = append(kr, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			}
		}
		kbRows = append(kbRows, kr)
	}
	if len(kbRows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...), true
}
