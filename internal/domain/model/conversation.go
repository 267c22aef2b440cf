package model

import "time"

// Step is the current position of a user inside a multi-turn flow.
type Step string

const (
	StepIdle                    Step = "idle"
	StepAwaitingCartQuantity    Step = "awaiting_cart_quantity"
	StepAwaitingCartUpdateValue Step = "awaiting_cart_update_value"
	StepAwaitingLocation        Step = "awaiting_location"
	// StepAwaitingPaymentCheck accepts no text; it marks that scratch holds a
	// checkout session the check_payment action can read.
	StepAwaitingPaymentCheck Step = "awaiting_payment_check"
)

// Scratch keys.
const (
	KeyProductID     = "product_id"
	KeyCardProductID = "card_product_id"
	KeySessionID     = "session_id"
	KeyCheckoutURL   = "checkout_url"
)

func (s Step) Valid() bool {
	switch s {
	case StepIdle, StepAwaitingCartQuantity, StepAwaitingCartUpdateValue,
		StepAwaitingLocation, StepAwaitingPaymentCheck:
		return true
	}
	return false
}

// AcceptsText reports whether free text typed by the user belongs to this step.
func (s Step) AcceptsText() bool {
	return s == StepAwaitingCartQuantity || s == StepAwaitingCartUpdateValue
}

// ConversationState holds the user's progress in a flow. The json and cbor
// tags are the persisted encoding shared by all durable backends.
type ConversationState struct {
	Step      Step              `json:"step" cbor:"step"`
	Scratch   map[string]string `json:"scratch,omitempty" cbor:"scratch,omitempty"`
	UpdatedAt time.Time         `json:"updated_at" cbor:"updated_at"`
}

func IdleState() *ConversationState {
	return &ConversationState{Step: StepIdle, Scratch: map[string]string{}}
}

// Enter moves to step with a fresh scratch. Previous flows are overwritten.
func (c *ConversationState) Enter(step Step, scratch map[string]string, now time.Time) {
	c.Step = step
	c.Scratch = make(map[string]string, len(scratch))
	for k, v := range scratch {
		c.Scratch[k] = v
	}
	c.UpdatedAt = now.UTC()
}

func (c *ConversationState) Get(key string) string {
	if c == nil || c.Scratch == nil {
		return ""
	}
	return c.Scratch[key]
}

func (c *ConversationState) IsIdle() bool {
	return c == nil || c.Step == "" || c.Step == StepIdle
}
