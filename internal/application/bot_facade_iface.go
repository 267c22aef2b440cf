package application

import (
	"context"
	"time"

	"telegram-ecommerce-bot/internal/domain/model"
)

// ---- small interfaces to decouple the facade from concrete usecase structs ----
// These describe the minimal surface that the facade needs. Using interfaces
// enables tests to pass in light-weight mocks.

type SessionReaderIface interface {
	Lookup(ctx context.Context, chatID int64) (*model.Session, error)
}

type AccountUseCaseIface interface {
	Start(ctx context.Context, chatID, userID int64) error
	Register(ctx context.Context, chatID, userID int64, args []string) error
	Login(ctx context.Context, chatID, userID int64, args []string) error
}

type CatalogUseCaseIface interface {
	ListProducts(ctx context.Context, chatID int64) error
	Paginate(ctx context.Context, chatID int64, messageID int, data string) error
	ProductDetail(ctx context.Context, chatID int64, messageID int, productID string) error
}

type CartUseCaseIface interface {
	ViewCart(ctx context.Context, chatID, userID int64) error
	ShowItemsForUpdate(ctx context.Context, chatID int64, messageID int, userID int64) error
}

type ConversationIface interface {
	StartAddToCart(ctx context.Context, chatID, userID int64, productID string) error
	StartCartUpdate(ctx context.Context, chatID, userID int64, cardProductID string) error
	StartCheckout(ctx context.Context, chatID, userID int64) error
	HandleText(ctx context.Context, ev model.MessageEvent) (bool, error)
	HandleLocation(ctx context.Context, ev model.LocationEvent) (bool, error)
	CheckPayment(ctx context.Context, chatID, userID int64) error
	Cancel(ctx context.Context, chatID, userID int64) error
}

// RateLimiter is satisfied by both the redis and the in-process limiter.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
