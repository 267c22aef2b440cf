//go:build !integration

package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-ecommerce-bot/internal/domain/model"
	"telegram-ecommerce-bot/internal/domain/ports/adapter"
	"telegram-ecommerce-bot/internal/infra/i18n"
	"telegram-ecommerce-bot/internal/infra/logging"
	"telegram-ecommerce-bot/internal/infra/worker"
)

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  error
	updates  chan tgbotapi.Update
	stopped  bool
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.sendErr
}

func (f *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel { return f.updates }

func (f *fakeBot) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func newTestAdapter(bot *fakeBot) *RealTelegramBotAdapter {
	logger := zerolog.Nop()
	return newAdapter(bot, i18n.NewStatic(map[string]string{"menu_start": "Start bot"}), &logger)
}

func TestSendButtons_BuildsInlineKeyboard(t *testing.T) {
	bot := &fakeBot{}
	r := newTestAdapter(bot)

	err := r.SendButtons(context.Background(), 10, "Products", [][]adapter.InlineButton{
		{{Text: "📦 Mug", Data: "product:1"}, {Text: "📦 Tea", Data: "product:2"}},
		{},
		{{Text: "Pay now", URL: "https://pay.example/cs_1"}},
	})
	require.NoError(t, err)

	require.Len(t, bot.sent, 1)
	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(10), msg.ChatID)
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 2, "empty rows are dropped")
	assert.Equal(t, "product:2", *kb.InlineKeyboard[0][1].CallbackData)
	assert.Equal(t, "https://pay.example/cs_1", *kb.InlineKeyboard[1][0].URL)
}

func TestEditButtons(t *testing.T) {
	t.Run("edits text and markup", func(t *testing.T) {
		bot := &fakeBot{}
		r := newTestAdapter(bot)
		require.NoError(t, r.EditButtons(context.Background(), 10, 55, "Detail",
			[][]adapter.InlineButton{{{Text: "Add", Data: "to_card:1"}}}))

		edit, ok := bot.sent[0].(tgbotapi.EditMessageTextConfig)
		require.True(t, ok)
		assert.Equal(t, 55, edit.MessageID)
		require.NotNil(t, edit.ReplyMarkup)
		assert.Equal(t, "to_card:1", *edit.ReplyMarkup.InlineKeyboard[0][0].CallbackData)
	})

	t.Run("unchanged message is not an error", func(t *testing.T) {
		bot := &fakeBot{sendErr: errors.New("Bad Request: message is not modified")}
		r := newTestAdapter(bot)
		assert.NoError(t, r.EditButtons(context.Background(), 10, 55, "same", nil))
	})
}

func TestRequestLocation_OneTimeKeyboard(t *testing.T) {
	bot := &fakeBot{}
	r := newTestAdapter(bot)

	require.NoError(t, r.RequestLocation(context.Background(), 10, "Share location", "📍 Send"))

	msg := bot.sent[0].(tgbotapi.MessageConfig)
	kb, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	assert.True(t, kb.OneTimeKeyboard)
	assert.True(t, kb.ResizeKeyboard)
	assert.True(t, kb.Keyboard[0][0].RequestLocation)
	assert.Equal(t, "📍 Send", kb.Keyboard[0][0].Text)
}

func TestAnswerCallback(t *testing.T) {
	bot := &fakeBot{}
	r := newTestAdapter(bot)

	require.NoError(t, r.AnswerCallback(context.Background(), "cb-1", "Please log in", true))
	require.NoError(t, r.AnswerCallback(context.Background(), "", "ignored", false))

	require.Len(t, bot.requests, 1)
	cfg := bot.requests[0].(tgbotapi.CallbackConfig)
	assert.Equal(t, "cb-1", cfg.CallbackQueryID)
	assert.True(t, cfg.ShowAlert)
}

func TestSetMenuCommands(t *testing.T) {
	bot := &fakeBot{}
	r := newTestAdapter(bot)

	require.NoError(t, r.SetMenuCommands(context.Background()))

	cfg := bot.requests[0].(tgbotapi.SetMyCommandsConfig)
	require.Len(t, cfg.Commands, 5)
	assert.Equal(t, "start", cfg.Commands[0].Command)
	assert.Equal(t, "Start bot", cfg.Commands[0].Description)
	assert.Equal(t, "my_cart", cfg.Commands[4].Command)
}

type handlerFunc func(ctx context.Context, ev model.Event) error

func (f handlerFunc) HandleEvent(ctx context.Context, ev model.Event) error { return f(ctx, ev) }

func TestStartPolling_DispatchesToUserLanes(t *testing.T) {
	// --- Arrange ---
	bot := &fakeBot{updates: make(chan tgbotapi.Update, 3)}
	r := newTestAdapter(bot)
	logger := zerolog.Nop()
	pool := worker.NewKeyedPool(2, 4, &logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	got := make(chan model.Event, 3)
	traces := make(chan string, 3)
	handler := handlerFunc(func(ctx context.Context, ev model.Event) error {
		traces <- logging.TraceIDFrom(ctx)
		got <- ev
		return nil
	})

	bot.updates <- tgbotapi.Update{UpdateID: 1, Message: &tgbotapi.Message{
		MessageID: 3, Text: "/products", From: &tgbotapi.User{ID: 7}, Chat: &tgbotapi.Chat{ID: 7},
	}}
	bot.updates <- tgbotapi.Update{UpdateID: 2, EditedMessage: &tgbotapi.Message{Text: "edited"}}
	bot.updates <- tgbotapi.Update{UpdateID: 3, CallbackQuery: &tgbotapi.CallbackQuery{
		ID: "cb", Data: "to_order", From: &tgbotapi.User{ID: 8},
	}}
	close(bot.updates)

	// --- Act ---
	err := r.StartPolling(ctx, handler, pool)

	// --- Assert ---
	require.NoError(t, err)
	received := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case ev := <-got:
			received[ev.Kind()] = true
			assert.NotEmpty(t, <-traces)
		case <-time.After(2 * time.Second):
			t.Fatal("event was not handled")
		}
	}
	assert.True(t, received["message"])
	assert.True(t, received["callback"])
	assert.True(t, bot.stopped)
}
