package adapter

import "context"

// Checkout session payment statuses.
const (
	PaymentPaid   = "paid"
	PaymentUnpaid = "unpaid"
)

// PaymentChecker retrieves the payment status of a checkout session.
// Processor failures are reported as *domain.ProcessorError.
type PaymentChecker interface {
	Name() string
	CheckoutStatus(ctx context.Context, sessionID string) (string, error)
}
