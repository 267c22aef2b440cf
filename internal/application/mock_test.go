//go:build !integration

package application_test

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-ecommerce-bot/internal/domain/model"
	"telegram-ecommerce-bot/internal/domain/ports/adapter"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// calls records which use case method ran and with what argument.
type calls struct {
	mu  sync.Mutex
	log []string
}

func (c *calls) add(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = append(c.log, s)
}

func (c *calls) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.log...)
}

// ---- sessions ----

type mockSessions struct {
	sessions map[int64]*model.Session
	err      error
}

func loggedIn(userID int64, issuedAt time.Time) *mockSessions {
	token, hours := "jwt", 50
	return &mockSessions{sessions: map[int64]*model.Session{
		userID: {ChatID: userID, Token: &token, LifetimeHours: &hours, CreatedAt: issuedAt, UpdatedAt: issuedAt},
	}}
}

func (m *mockSessions) Lookup(ctx context.Context, chatID int64) (*model.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.sessions[chatID], nil
}

// ---- use cases ----

type mockAccount struct {
	c       *calls
	StartFn func() error
}

func (m *mockAccount) Start(ctx context.Context, chatID, userID int64) error {
	m.c.add("start")
	if m.StartFn != nil {
		return m.StartFn()
	}
	return nil
}

func (m *mockAccount) Register(ctx context.Context, chatID, userID int64, args []string) error {
	m.c.add("register:" + strings.Join(args, ","))
	return nil
}

func (m *mockAccount) Login(ctx context.Context, chatID, userID int64, args []string) error {
	m.c.add("login:" + strings.Join(args, ","))
	return nil
}

type mockCatalog struct {
	c      *calls
	ListFn func() error
}

func (m *mockCatalog) ListProducts(ctx context.Context, chatID int64) error {
	m.c.add("products")
	if m.ListFn != nil {
		return m.ListFn()
	}
	return nil
}

func (m *mockCatalog) Paginate(ctx context.Context, chatID int64, messageID int, data string) error {
	m.c.add("paginate:" + data)
	return nil
}

func (m *mockCatalog) ProductDetail(ctx context.Context, chatID int64, messageID int, productID string) error {
	m.c.add("detail:" + productID)
	return nil
}

type mockCart struct{ c *calls }

func (m *mockCart) ViewCart(ctx context.Context, chatID, userID int64) error {
	m.c.add("cart")
	return nil
}

func (m *mockCart) ShowItemsForUpdate(ctx context.Context, chatID int64, messageID int, userID int64) error {
	m.c.add("cart_items")
	return nil
}

type mockEngine struct {
	c            *calls
	HandleTextFn func(ev model.MessageEvent) (bool, error)
	LocationFn   func(ev model.LocationEvent) (bool, error)
	CheckFn      func() error
}

func (m *mockEngine) StartAddToCart(ctx context.Context, chatID, userID int64, productID string) error {
	m.c.add("add_to_cart:" + productID)
	return nil
}

func (m *mockEngine) StartCartUpdate(ctx context.Context, chatID, userID int64, cardProductID string) error {
	m.c.add("cart_update:" + cardProductID)
	return nil
}

func (m *mockEngine) StartCheckout(ctx context.Context, chatID, userID int64) error {
	m.c.add("checkout")
	return nil
}

func (m *mockEngine) HandleText(ctx context.Context, ev model.MessageEvent) (bool, error) {
	m.c.add("text:" + ev.Text)
	if m.HandleTextFn != nil {
		return m.HandleTextFn(ev)
	}
	return false, nil
}

func (m *mockEngine) HandleLocation(ctx context.Context, ev model.LocationEvent) (bool, error) {
	m.c.add("location")
	if m.LocationFn != nil {
		return m.LocationFn(ev)
	}
	return false, nil
}

func (m *mockEngine) CheckPayment(ctx context.Context, chatID, userID int64) error {
	m.c.add("check_payment")
	if m.CheckFn != nil {
		return m.CheckFn()
	}
	return nil
}

func (m *mockEngine) Cancel(ctx context.Context, chatID, userID int64) error {
	m.c.add("cancel")
	return nil
}

// ---- chat ----

type reply struct {
	Op    string // send|answer
	Text  string
	Alert bool
}

type recordingChat struct {
	mu      sync.Mutex
	replies []reply
}

var _ adapter.ChatAdapter = (*recordingChat)(nil)

func (r *recordingChat) add(rp reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, rp)
	return nil
}

func (r *recordingChat) SendMessage(ctx context.Context, chatID int64, text string) error {
	return r.add(reply{Op: "send", Text: text})
}

func (r *recordingChat) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	return r.add(reply{Op: "send", Text: text})
}

func (r *recordingChat) EditButtons(ctx context.Context, chatID int64, messageID int, text string, rows [][]adapter.InlineButton) error {
	return r.add(reply{Op: "send", Text: text})
}

func (r *recordingChat) RequestLocation(ctx context.Context, chatID int64, text, buttonLabel string) error {
	return r.add(reply{Op: "send", Text: text})
}

func (r *recordingChat) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	return r.add(reply{Op: "answer", Text: text, Alert: alert})
}

func (r *recordingChat) all() []reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]reply(nil), r.replies...)
}

// ---- rate limiter ----

type mockLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (m *mockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.keys = append(m.keys, key)
	return m.allow, m.err
}
