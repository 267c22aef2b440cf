package shop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"telegram-ecommerce-bot/internal/domain"
	"telegram-ecommerce-bot/internal/domain/model"
	"telegram-ecommerce-bot/internal/domain/ports/adapter"
	"telegram-ecommerce-bot/internal/infra/logging"
	"telegram-ecommerce-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ adapter.ShopAPI = (*Client)(nil)

const maxBodyBytes = 1 << 20

// Client talks to the e-commerce REST API. Every call is attempted once.
type Client struct {
	host   string
	client *http.Client
	log    *zerolog.Logger
}

func NewClient(host string, timeout time.Duration, logger *zerolog.Logger) (*Client, error) {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	u, err := url.Parse(host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid shop host %q", host)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	sub := logger.With().Str("component", "shop_client").Logger()
	return &Client{
		host:   host,
		client: &http.Client{Timeout: timeout},
		log:    &sub,
	}, nil
}

func (c *Client) Host() string { return c.host }

func (c *Client) endpoint(path string) string { return c.host + path }

func (c *Client) ListProducts(ctx context.Context, pageURL string) (*model.ProductPage, error) {
	if pageURL == "" {
		pageURL = c.endpoint("/api/v1/products/")
	}
	var page model.ProductPage
	if err := c.do(ctx, "products", http.MethodGet, pageURL, "", nil, http.StatusOK, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	var p model.Product
	u := c.endpoint("/api/v1/products/" + url.PathEscape(productID))
	if err := c.do(ctx, "product", http.MethodGet, u, "", nil, http.StatusOK, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) AddToCart(ctx context.Context, token, productID string, quantity int) error {
	payload := map[string]any{"product_id": productID, "quantity": quantity}
	return c.do(ctx, "to_card", http.MethodPost, c.endpoint("/api/v1/to_card/"), token, payload, http.StatusOK, nil)
}

func (c *Client) GetCart(ctx context.Context, token string) (*model.Cart, error) {
	var cart model.Cart
	if err := c.do(ctx, "card", http.MethodGet, c.endpoint("/api/v1/card/"), token, nil, http.StatusOK, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) UpdateCartItem(ctx context.Context, token, cardProductID string, quantity int) error {
	payload := map[string]any{"card_product_id": cardProductID, "quantity": quantity}
	return c.do(ctx, "update_card", http.MethodPost, c.endpoint("/api/v1/update_card/"), token, payload, http.StatusOK, nil)
}

func (c *Client) RemoveCartItem(ctx context.Context, token, cardProductID string) error {
	u := c.endpoint("/api/v1/remove_card/" + url.PathEscape(cardProductID))
	return c.do(ctx, "remove_card", http.MethodDelete, u, token, nil, http.StatusNoContent, nil)
}

func (c *Client) CreateOrder(ctx context.Context, token string, latitude, longitude float64) (*model.Checkout, error) {
	payload := map[string]any{"latitude": latitude, "longitude": longitude}
	var out model.Checkout
	if err := c.do(ctx, "to_order", http.MethodPost, c.endpoint("/api/v1/to_order/"), token, payload, http.StatusOK, &out); err != nil {
		return nil, err
	}
	if out.SessionID == "" || out.CheckoutURL == "" {
		return nil, fmt.Errorf("%w: to_order without session_id/checkout_url", domain.ErrMalformedResponse)
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, email, password, passwordConfirm string) error {
	payload := map[string]any{"email": email, "password": password, "password_confirm": passwordConfirm}
	return c.do(ctx, "register", http.MethodPost, c.endpoint("/api/v1/register/"), "", payload, http.StatusCreated, nil)
}

func (c *Client) ObtainToken(ctx context.Context, identifier, password string) (string, error) {
	payload := map[string]any{"identifier": identifier, "password": password}
	var out struct {
		Access string `json:"access"`
	}
	if err := c.do(ctx, "token", http.MethodPost, c.endpoint("/api/v1/token/"), "", payload, http.StatusOK, &out); err != nil {
		return "", err
	}
	if out.Access == "" {
		return "", fmt.Errorf("%w: token response without access", domain.ErrMalformedResponse)
	}
	return out.Access, nil
}

// do sends one request. A status other than want becomes *domain.UpstreamError;
// a body that does not decode into out wraps domain.ErrMalformedResponse.
func (c *Client) do(ctx context.Context, name, method, u, token string, payload any, want int, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", name, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", name, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	l := logging.With(ctx, c.log)
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.ObserveUpstream(name, 0, time.Since(start))
		l.Warn().Err(err).Str("endpoint", name).Msg("shop request failed")
		return fmt.Errorf("%s request: %w", name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.ObserveUpstream(name, resp.StatusCode, time.Since(start))
	if err != nil {
		return fmt.Errorf("read %s response: %w", name, err)
	}
	l.Debug().
		Str("endpoint", name).
		Str("method", method).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("shop request")

	if resp.StatusCode != want {
		return parseUpstreamError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrMalformedResponse, name, err)
	}
	return nil
}

// parseUpstreamError flattens a DRF style error body: every top-level key maps
// to a string, a list of strings, or objects carrying a "message".
func parseUpstreamError(status int, raw []byte) *domain.UpstreamError {
	ue := &domain.UpstreamError{StatusCode: status, Fields: map[string][]string{}}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return ue
	}
	for k, v := range top {
		if msgs := flattenValue(v); len(msgs) > 0 {
			ue.Fields[k] = msgs
		}
	}
	return ue
}

func flattenValue(v json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return []string{s}
	}
	var list []json.RawMessage
	if err := json.Unmarshal(v, &list); err == nil {
		var out []string
		for _, item := range list {
			out = append(out, flattenValue(item)...)
		}
		return out
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(v, &obj); err == nil {
		if m, ok := obj["message"]; ok {
			return flattenValue(m)
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []string
		for _, k := range keys {
			out = append(out, flattenValue(obj[k])...)
		}
		return out
	}
	if t := strings.TrimSpace(string(v)); t != "" && t != "null" {
		return []string{t}
	}
	return nil
}
