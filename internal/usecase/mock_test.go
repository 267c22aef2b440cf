//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-ecommerce-bot/internal/domain"
	"telegram-ecommerce-bot/internal/domain/model"
	"telegram-ecommerce-bot/internal/domain/ports/adapter"
	"telegram-ecommerce-bot/internal/infra/i18n"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// newTestTranslator echoes keys, so assertions compare against message keys
// followed by their arguments.
func newTestTranslator() *i18n.Translator {
	return i18n.NewStatic(nil)
}

func strPtr(s string) *string { return &s }

// -----------------------------
// Session repository
// -----------------------------

type memSessionRepo struct {
	mu        sync.Mutex
	store     map[int64]model.Session
	findErr   error
	createErr error
	inserts   int
	// onCreate runs before the insert; tests use it to simulate a concurrent writer.
	onCreate func(s *model.Session)
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{store: make(map[int64]model.Session)}
}

func (m *memSessionRepo) seed(chatID int64, token string, issuedAt time.Time, lifetimeHours int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := model.Session{ChatID: chatID, CreatedAt: issuedAt, UpdatedAt: issuedAt}
	if token != "" {
		s.Token = &token
		s.LifetimeHours = &lifetimeHours
	}
	m.store[chatID] = s
}

func (m *memSessionRepo) FindByChatID(ctx context.Context, chatID int64) (*model.Session, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[chatID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *memSessionRepo) Create(ctx context.Context, s *model.Session) error {
	if m.onCreate != nil {
		m.onCreate(s)
	}
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[s.ChatID]; ok {
		return domain.ErrAlreadyExists
	}
	m.store[s.ChatID] = *s
	m.inserts++
	return nil
}

func (m *memSessionRepo) UpdateToken(ctx context.Context, chatID int64, token string, lifetimeHours int, issuedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[chatID]
	if !ok {
		return domain.ErrNotFound
	}
	s.Token = &token
	s.LifetimeHours = &lifetimeHours
	s.UpdatedAt = issuedAt
	m.store[chatID] = s
	return nil
}

// -----------------------------
// Shop API
// -----------------------------

type cartCall struct {
	Token string
	ID    string
	Qty   int
}

type mockShop struct {
	host string

	ListProductsFunc   func(ctx context.Context, pageURL string) (*model.ProductPage, error)
	GetProductFunc     func(ctx context.Context, productID string) (*model.Product, error)
	AddToCartFunc      func(ctx context.Context, token, productID string, quantity int) error
	GetCartFunc        func(ctx context.Context, token string) (*model.Cart, error)
	UpdateCartItemFunc func(ctx context.Context, token, cardProductID string, quantity int) error
	RemoveCartItemFunc func(ctx context.Context, token, cardProductID string) error
	CreateOrderFunc    func(ctx context.Context, token string, lat, lon float64) (*model.Checkout, error)
	RegisterFunc       func(ctx context.Context, email, password, confirm string) error
	ObtainTokenFunc    func(ctx context.Context, identifier, password string) (string, error)

	mu       sync.Mutex
	added    []cartCall
	updated  []cartCall
	removed  []cartCall
	pages    []string
	register int
	orders   int
}

var _ adapter.ShopAPI = (*mockShop)(nil)

func newMockShop() *mockShop { return &mockShop{host: "http://shop.test"} }

func (m *mockShop) Host() string { return m.host }

func (m *mockShop) ListProducts(ctx context.Context, pageURL string) (*model.ProductPage, error) {
	m.mu.Lock()
	m.pages = append(m.pages, pageURL)
	m.mu.Unlock()
	if m.ListProductsFunc == nil {
		return &model.ProductPage{}, nil
	}
	return m.ListProductsFunc(ctx, pageURL)
}

func (m *mockShop) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	return m.GetProductFunc(ctx, productID)
}

func (m *mockShop) AddToCart(ctx context.Context, token, productID string, quantity int) error {
	m.mu.Lock()
	m.added = append(m.added, cartCall{Token: token, ID: productID, Qty: quantity})
	m.mu.Unlock()
	if m.AddToCartFunc == nil {
		return nil
	}
	return m.AddToCartFunc(ctx, token, productID, quantity)
}

func (m *mockShop) GetCart(ctx context.Context, token string) (*model.Cart, error) {
	return m.GetCartFunc(ctx, token)
}

func (m *mockShop) UpdateCartItem(ctx context.Context, token, cardProductID string, quantity int) error {
	m.mu.Lock()
	m.updated = append(m.updated, cartCall{Token: token, ID: cardProductID, Qty: quantity})
	m.mu.Unlock()
	if m.UpdateCartItemFunc == nil {
		return nil
	}
	return m.UpdateCartItemFunc(ctx, token, cardProductID, quantity)
}

func (m *mockShop) RemoveCartItem(ctx context.Context, token, cardProductID string) error {
	m.mu.Lock()
	m.removed = append(m.removed, cartCall{Token: token, ID: cardProductID})
	m.mu.Unlock()
	if m.RemoveCartItemFunc == nil {
		return nil
	}
	return m.RemoveCartItemFunc(ctx, token, cardProductID)
}

func (m *mockShop) CreateOrder(ctx context.Context, token string, lat, lon float64) (*model.Checkout, error) {
	m.mu.Lock()
	m.orders++
	m.mu.Unlock()
	return m.CreateOrderFunc(ctx, token, lat, lon)
}

func (m *mockShop) Register(ctx context.Context, email, password, confirm string) error {
	m.mu.Lock()
	m.register++
	m.mu.Unlock()
	if m.RegisterFunc == nil {
		return nil
	}
	return m.RegisterFunc(ctx, email, password, confirm)
}

func (m *mockShop) ObtainToken(ctx context.Context, identifier, password string) (string, error) {
	return m.ObtainTokenFunc(ctx, identifier, password)
}

// -----------------------------
// Payment checker
// -----------------------------

type mockPayments struct {
	CheckoutStatusFunc func(ctx context.Context, sessionID string) (string, error)
	calls              []string
}

var _ adapter.PaymentChecker = (*mockPayments)(nil)

func (m *mockPayments) Name() string { return "mock" }

func (m *mockPayments) CheckoutStatus(ctx context.Context, sessionID string) (string, error) {
	m.calls = append(m.calls, sessionID)
	return m.CheckoutStatusFunc(ctx, sessionID)
}

// -----------------------------
// Chat adapter
// -----------------------------

type sent struct {
	Op        string // send|buttons|edit|location|answer
	ChatID    int64
	MessageID int
	Text      string
	Rows      [][]adapter.InlineButton
	Alert     bool
}

type recordingChat struct {
	mu   sync.Mutex
	msgs []sent
}

var _ adapter.ChatAdapter = (*recordingChat)(nil)

func (r *recordingChat) add(s sent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, s)
	return nil
}

func (r *recordingChat) SendMessage(ctx context.Context, chatID int64, text string) error {
	return r.add(sent{Op: "send", ChatID: chatID, Text: text})
}

func (r *recordingChat) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	return r.add(sent{Op: "buttons", ChatID: chatID, Text: text, Rows: rows})
}

func (r *recordingChat) EditButtons(ctx context.Context, chatID int64, messageID int, text string, rows [][]adapter.InlineButton) error {
	return r.add(sent{Op: "edit", ChatID: chatID, MessageID: messageID, Text: text, Rows: rows})
}

func (r *recordingChat) RequestLocation(ctx context.Context, chatID int64, text, buttonLabel string) error {
	return r.add(sent{Op: "location", ChatID: chatID, Text: text + "|" + buttonLabel})
}

func (r *recordingChat) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	return r.add(sent{Op: "answer", Text: text, Alert: alert})
}

func (r *recordingChat) last() sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return sent{}
	}
	return r.msgs[len(r.msgs)-1]
}

func (r *recordingChat) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}
