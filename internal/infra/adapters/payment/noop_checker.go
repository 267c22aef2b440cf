package payment

import (
	"context"
	"sync"

	"telegram-ecommerce-bot/internal/domain"
	"telegram-ecommerce-bot/internal/domain/ports/adapter"
)

var _ adapter.PaymentChecker = (*NoopPaymentChecker)(nil)

// NoopPaymentChecker is an in-memory checker for local runs against a shop
// backend without a Stripe account. Sessions are unpaid on the first check
// and paid afterwards.
type NoopPaymentChecker struct {
	mu     sync.Mutex
	checks map[string]int
}

func NewNoopPaymentChecker() *NoopPaymentChecker {
	return &NoopPaymentChecker{checks: make(map[string]int)}
}

func (n *NoopPaymentChecker) Name() string { return "noop" }

func (n *NoopPaymentChecker) CheckoutStatus(_ context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", domain.ErrNoActiveOrder
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.checks[sessionID]++
	if n.checks[sessionID] == 1 {
		return adapter.PaymentUnpaid, nil
	}
	return adapter.PaymentPaid, nil
}
