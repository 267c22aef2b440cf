package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"telegram-ecommerce-bot/internal/domain"
	"telegram-ecommerce-bot/internal/domain/ports/adapter"
	"telegram-ecommerce-bot/internal/infra/metrics"
)

var _ adapter.PaymentChecker = (*StripeChecker)(nil)

// StripeChecker reads checkout session status through the Stripe SDK.
type StripeChecker struct {
	api *client.API
}

// NewStripeChecker builds a client against apiBase (https://api.stripe.com
// when empty). Retries are off: the user repeats check_payment instead.
func NewStripeChecker(secretKey, apiBase string, timeout time.Duration) (*StripeChecker, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, errors.New("stripe secret key empty")
	}
	if apiBase == "" {
		apiBase = stripe.APIURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(strings.TrimRight(apiBase, "/")),
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	api := &client.API{}
	api.Init(secretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return &StripeChecker{api: api}, nil
}

func (s *StripeChecker) Name() string { return "stripe" }

// CheckoutStatus retrieves the checkout session and returns its payment_status.
func (s *StripeChecker) CheckoutStatus(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", domain.ErrNoActiveOrder
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	cs, err := s.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		metrics.IncPaymentCheck(s.Name(), "error")
		var se *stripe.Error
		if errors.As(err, &se) {
			return "", toProcessorError(se)
		}
		return "", fmt.Errorf("stripe checkout session: %w", err)
	}
	if cs == nil || cs.PaymentStatus == "" {
		metrics.IncPaymentCheck(s.Name(), "error")
		return "", fmt.Errorf("%w: stripe checkout session", domain.ErrMalformedResponse)
	}
	status := string(cs.PaymentStatus)
	metrics.IncPaymentCheck(s.Name(), status)
	return status, nil
}

func toProcessorError(se *stripe.Error) *domain.ProcessorError {
	pe := &domain.ProcessorError{
		StatusCode: se.HTTPStatusCode,
		Type:       string(se.Type),
		Code:       string(se.Code),
		Message:    se.Msg,
	}
	if pe.Type == "" {
		pe.Type = "api_error"
	}
	if pe.Message == "" {
		pe.Message = http.StatusText(se.HTTPStatusCode)
	}
	return pe
}
