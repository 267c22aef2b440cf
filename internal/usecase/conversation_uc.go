package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"telegram-ecommerce-bot/internal/domain"
	"telegram-ecommerce-bot/internal/domain/model"
	"telegram-ecommerce-bot/internal/domain/ports/adapter"
	"telegram-ecommerce-bot/internal/domain/ports/repository"
	"telegram-ecommerce-bot/internal/infra/i18n"
	"telegram-ecommerce-bot/internal/infra/logging"
	"telegram-ecommerce-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

const (
	flowAddToCart    = "add_to_cart"
	flowCartUpdate   = "cart_update"
	flowCheckout     = "checkout"
	flowPaymentCheck = "payment_check"
)

// ConversationEngine drives the multi-turn flows. Every method reads the
// user's state, acts, and writes it back within one call; callers must not
// run two calls for the same user concurrently.
type ConversationEngine struct {
	states   repository.StateRepository
	shop     adapter.ShopAPI
	payments adapter.PaymentChecker
	sessions SessionUseCase
	chat     adapter.ChatAdapter
	t        *i18n.Translator
	log      *zerolog.Logger
	now      func() time.Time
}

func NewConversationEngine(
	states repository.StateRepository,
	shop adapter.ShopAPI,
	payments adapter.PaymentChecker,
	sessions SessionUseCase,
	chat adapter.ChatAdapter,
	translator *i18n.Translator,
	logger *zerolog.Logger,
) *ConversationEngine {
	return &ConversationEngine{
		states:   states,
		shop:     shop,
		payments: payments,
		sessions: sessions,
		chat:     chat,
		t:        translator,
		log:      logger,
		now:      time.Now,
	}
}

func (e *ConversationEngine) enter(ctx context.Context, userID int64, step model.Step, scratch map[string]string) error {
	st := model.IdleState()
	st.Enter(step, scratch, e.now())
	if err := e.states.SetState(ctx, userID, st); err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	return nil
}

func (e *ConversationEngine) clear(ctx context.Context, userID int64) {
	if err := e.states.ClearState(ctx, userID); err != nil {
		e.log.Error().Err(err).Int64("tg_id", userID).Msg("failed to clear conversation state")
	}
}

func (e *ConversationEngine) token(ctx context.Context, userID int64) (string, error) {
	s, err := e.sessions.Lookup(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("lookup session: %w", err)
	}
	if s == nil {
		return "", nil
	}
	return s.BearerToken(), nil
}

// StartAddToCart asks for a quantity and remembers which product it is for.
// Any other active flow is discarded.
func (e *ConversationEngine) StartAddToCart(ctx context.Context, chatID, userID int64, productID string) error {
	defer logging.TraceDuration(e.log, "ConversationEngine.StartAddToCart")()
	if err := e.enter(ctx, userID, model.StepAwaitingCartQuantity, map[string]string{model.KeyProductID: productID}); err != nil {
		return err
	}
	metrics.IncFlow(flowAddToCart, "started")
	return e.chat.SendMessage(ctx, chatID, e.t.T("cart_quantity_prompt"))
}

func (e *ConversationEngine) StartCartUpdate(ctx context.Context, chatID, userID int64, cardProductID string) error {
	defer logging.TraceDuration(e.log, "ConversationEngine.StartCartUpdate")()
	if err := e.enter(ctx, userID, model.StepAwaitingCartUpdateValue, map[string]string{model.KeyCardProductID: cardProductID}); err != nil {
		return err
	}
	metrics.IncFlow(flowCartUpdate, "started")
	return e.chat.SendMessage(ctx, chatID, e.t.T("cart_update_prompt"))
}

func (e *ConversationEngine) StartCheckout(ctx context.Context, chatID, userID int64) error {
	defer logging.TraceDuration(e.log, "ConversationEngine.StartCheckout")()
	if err := e.enter(ctx, userID, model.StepAwaitingLocation, nil); err != nil {
		return err
	}
	metrics.IncFlow(flowCheckout, "started")
	return e.chat.RequestLocation(ctx, chatID, e.t.T("order_location_prompt"), e.t.T("order_location_button"))
}

// HandleText feeds free text to the active step. handled is false when no
// step expects text.
func (e *ConversationEngine) HandleText(ctx context.Context, ev model.MessageEvent) (handled bool, err error) {
	st, err := e.states.GetState(ctx, ev.UserID)
	if err != nil {
		return false, fmt.Errorf("get state: %w", err)
	}
	if !st.Step.AcceptsText() {
		return false, nil
	}
	switch st.Step {
	case model.StepAwaitingCartQuantity:
		return true, e.handleQuantity(ctx, ev, st)
	case model.StepAwaitingCartUpdateValue:
		return true, e.handleUpdateValue(ctx, ev, st)
	}
	return false, nil
}

func (e *ConversationEngine) handleQuantity(ctx context.Context, ev model.MessageEvent, st *model.ConversationState) error {
	defer logging.TraceDuration(e.log, "ConversationEngine.handleQuantity")()

	qty, ok := parseQuantity(ev.Text)
	if !ok {
		return e.chat.SendMessage(ctx, ev.ChatID, e.t.T("cart_quantity_invalid"))
	}
	if qty <= 0 {
		return e.chat.SendMessage(ctx, ev.ChatID, e.t.T("cart_quantity_positive"))
	}

	token, err := e.token(ctx, ev.UserID)
	if err != nil {
		return err
	}
	err = e.shop.AddToCart(ctx, token, st.Get(model.KeyProductID), qty)
	e.clear(ctx, ev.UserID)

	var ue *domain.UpstreamError
	switch {
	case err == nil:
		metrics.IncFlow(flowAddToCart, "ok")
		return e.chat.SendMessage(ctx, ev.ChatID, e.t.T("cart_added"))
	case errors.As(err, &ue):
		metrics.IncFlow(flowAddToCart, "rejected")
		if q := ue.Field("quantity"); len(q) > 0 {
			return e.chat.SendMessage(ctx, ev.ChatID, e.t.T("cart_quantity_errors", strings.Join(q, "\n")))
		}
		if m := ue.Message(); m != "" {
			return e.chat.SendMessage(ctx, ev.ChatID, e.t.T("cart_upstream_message", m))
		}
		return e.chat.SendMessage(ctx, ev.ChatID, e.t.T("cart_add_failed"))
	default:
		metrics.IncFlow(flowAddToCart, "error")
		return fmt.Errorf("add to cart: %w", err)
	}
}

func (e *ConversationEngine) handleUpdateValue(ctx context.Context, ev model.MessageEvent, st *model.ConversationState) error {
	defer logging.TraceDuration(e.log, "ConversationEngine.handleUpdateValue")()

	input := strings.ToLower(strings.TrimSpace(ev.Text))
	cardProductID := st.Get(model.KeyCardProductID)

	switch input {
	case "cancel":
		e.clear(ctx, ev.UserID)
		metrics.IncFlow(flowCartUpdate, "cancelled")
		return e.chat.SendMessage(ctx, ev.ChatID, e.t.T("cart_update_cancelled"))

	case "delete":
		token, err := e.token(ctx, ev.UserID)
		if err != nil {
			return err
		}
		err = e.shop.RemoveCartItem(ctx, token, cardProductID)
		e.clear(ctx, ev.UserID)

		var ue *domain.UpstreamError
		switch {
		case err == nil:
			metrics.IncFlow(flowCartUpdate, "removed")
			return e.chat.SendMessage(ctx, ev.ChatID, e.t.T("cart_item_removed"))
		case errors.As(err, &ue):
			metrics.IncFlow(flowCartUpdate, "rejected")
			if d := ue.Detail(); d != "" {
				return e.chat.SendMessage(ctx, ev.ChatID, e.t.T("cart_upstream_message", d))
			}
			if m := ue.Message(); m != "" {
				return e.chat.SendMessage(ctx, ev.ChatID, e.t.T("cart_upstream_message", m))
			}
			return e.chat.SendMessage(ctx, ev.ChatID, e.t.T("cart_remove_failed"))
		default:
			metrics.IncFlow(flowCartUpdate, "error")
			return fmt.Errorf("remove cart item: %w", err)
		}
	}

	qty, ok := parseQuantity(input)
	if !ok || qty <= 0 {
		return e.chat.SendMessage(ctx, ev.ChatID, e.t.T("cart_update_invalid"))
	}

	token, err := e.token(ctx, ev.UserID)
	if err != nil {
		return err
	}
	err = e.shop.UpdateCartItem(ctx, token, cardProductID, qty)
	e.clear(ctx, ev.UserID)

	var ue *domain.UpstreamError
	switch {
	case err == nil:
		metrics.IncFlow(flowCartUpdate, "ok")
		return e.chat.SendMessage(ctx, ev.ChatID, e.t.T("cart_updated"))
	case errors.As(err, &ue):
		metrics.IncFlow(flowCartUpdate, "rejected")
		if m := ue.Message(); m != "" {
			return e.chat.SendMessage(ctx, ev.ChatID, e.t.T("cart_upstream_message", m))
		}
		return e.chat.SendMessage(ctx, ev.ChatID, e.t.T("cart_update_failed"))
	default:
		metrics.IncFlow(flowCartUpdate, "error")
		return fmt.Errorf("update cart item: %w", err)
	}
}

// HandleLocation creates the order when the user is in the checkout step.
func (e *ConversationEngine) HandleLocation(ctx context.Context, ev model.LocationEvent) (handled bool, err error) {
	defer logging.TraceDuration(e.log, "ConversationEngine.HandleLocation")()

	st, err := e.states.GetState(ctx, ev.UserID)
	if err != nil {
		return false, fmt.Errorf("get state: %w", err)
	}
	if st.Step != model.StepAwaitingLocation {
		return false, nil
	}

	token, err := e.token(ctx, ev.UserID)
	if err != nil {
		return true, err
	}
	checkout, err := e.shop.CreateOrder(ctx, token, ev.Latitude, ev.Longitude)
	switch {
	case errors.Is(err, domain.ErrMalformedResponse):
		// state is kept so the user can resend the location
		metrics.IncFlow(flowCheckout, "malformed")
		e.log.Warn().Err(err).Int64("tg_id", ev.UserID).Msg("order endpoint returned an unusable body")
		return true, e.chat.SendMessage(ctx, ev.ChatID, e.t.T("order_server_error"))
	case err != nil:
		metrics.IncFlow(flowCheckout, "failed")
		e.log.Warn().Err(err).Int64("tg_id", ev.UserID).Msg("order creation failed")
		e.clear(ctx, ev.UserID)
		return true, e.chat.SendMessage(ctx, ev.ChatID, e.t.T("order_failed"))
	}

	if err := e.enter(ctx, ev.UserID, model.StepAwaitingPaymentCheck, map[string]string{
		model.KeySessionID:   checkout.SessionID,
		model.KeyCheckoutURL: checkout.CheckoutURL,
	}); err != nil {
		return true, err
	}
	metrics.IncFlow(flowCheckout, "ok")

	rows := [][]adapter.InlineButton{
		{{Text: e.t.T("order_pay_button"), URL: checkout.CheckoutURL}},
		{{Text: e.t.T("order_check_button"), Data: model.CbCheckPayment}},
	}
	return true, e.chat.SendButtons(ctx, ev.ChatID, e.t.T("order_created"), rows)
}

// CheckPayment asks the payment processor about the checkout session held in
// the user's state. Only a paid session ends the flow.
func (e *ConversationEngine) CheckPayment(ctx context.Context, chatID, userID int64) error {
	defer logging.TraceDuration(e.log, "ConversationEngine.CheckPayment")()

	st, err := e.states.GetState(ctx, userID)
	if err != nil {
		return fmt.Errorf("get state: %w", err)
	}
	sessionID := st.Get(model.KeySessionID)
	if sessionID == "" {
		metrics.IncFlow(flowPaymentCheck, "no_session")
		return e.chat.SendMessage(ctx, chatID, e.t.T("payment_no_session"))
	}

	status, err := e.payments.CheckoutStatus(ctx, sessionID)
	if err != nil {
		metrics.IncFlow(flowPaymentCheck, "error")
		var pe *domain.ProcessorError
		if errors.As(err, &pe) {
			e.log.Warn().Err(err).Str("session_id", sessionID).Msg("payment processor rejected status check")
			return e.chat.SendMessage(ctx, chatID, e.t.T("payment_processor_error", pe.Message))
		}
		e.log.Error().Err(err).Str("session_id", sessionID).Msg("payment status check failed")
		return e.chat.SendMessage(ctx, chatID, e.t.T("payment_check_failed"))
	}

	switch status {
	case adapter.PaymentPaid:
		e.clear(ctx, userID)
		metrics.IncFlow(flowPaymentCheck, "paid")
		return e.chat.SendMessage(ctx, chatID, e.t.T("payment_paid"))
	case adapter.PaymentUnpaid:
		metrics.IncFlow(flowPaymentCheck, "unpaid")
		return e.chat.SendMessage(ctx, chatID, e.t.T("payment_unpaid"))
	default:
		metrics.IncFlow(flowPaymentCheck, "other")
		return e.chat.SendMessage(ctx, chatID, e.t.T("payment_status", status))
	}
}

// Cancel drops whatever flow the user is in.
func (e *ConversationEngine) Cancel(ctx context.Context, chatID, userID int64) error {
	st, err := e.states.GetState(ctx, userID)
	if err != nil {
		return fmt.Errorf("get state: %w", err)
	}
	if st.IsIdle() {
		return e.chat.SendMessage(ctx, chatID, e.t.T("cancel_nothing"))
	}
	e.clear(ctx, userID)
	metrics.IncFlow(string(st.Step), "cancelled")
	return e.chat.SendMessage(ctx, chatID, e.t.T("cancel_done"))
}
