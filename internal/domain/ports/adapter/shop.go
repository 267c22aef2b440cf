package adapter

import (
	"context"

	"telegram-ecommerce-bot/internal/domain/model"
)

// ShopAPI is the upstream e-commerce API. Non-expected status codes come back
// as *domain.UpstreamError; undecodable bodies wrap domain.ErrMalformedResponse.
type ShopAPI interface {
	// ListProducts fetches the first page when pageURL is empty.
	ListProducts(ctx context.Context, pageURL string) (*model.ProductPage, error)
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	AddToCart(ctx context.Context, token, productID string, quantity int) error
	GetCart(ctx context.Context, token string) (*model.Cart, error)
	UpdateCartItem(ctx context.Context, token, cardProductID string, quantity int) error
	RemoveCartItem(ctx context.Context, token, cardProductID string) error
	CreateOrder(ctx context.Context, token string, latitude, longitude float64) (*model.Checkout, error)
	Register(ctx context.Context, email, password, passwordConfirm string) error
	ObtainToken(ctx context.Context, identifier, password string) (string, error)
	// Host is the configured base URL used to strip and rebuild page links.
	Host() string
}
