package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"telegram-ecommerce-bot/internal/domain"
	"telegram-ecommerce-bot/internal/domain/model"
	"telegram-ecommerce-bot/internal/domain/ports/adapter"
	"telegram-ecommerce-bot/internal/infra/i18n"
	"telegram-ecommerce-bot/internal/infra/logging"

	"github.com/rs/zerolog"
	"golang.org/x/text/message"
)

type CartUseCase struct {
	shop     adapter.ShopAPI
	sessions SessionUseCase
	chat     adapter.ChatAdapter
	t        *i18n.Translator
	printer  *message.Printer
	log      *zerolog.Logger
}

func NewCartUseCase(shop adapter.ShopAPI, sessions SessionUseCase, chat adapter.ChatAdapter, translator *i18n.Translator, logger *zerolog.Logger) *CartUseCase {
	return &CartUseCase{
		shop:     shop,
		sessions: sessions,
		chat:     chat,
		t:        translator,
		printer:  newPrinter(translator.Lang()),
		log:      logger,
	}
}

func (u *CartUseCase) loadCart(ctx context.Context, userID int64) (*model.Cart, error) {
	s, err := u.sessions.Lookup(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	var token string
	if s != nil {
		token = s.BearerToken()
	}
	return u.shop.GetCart(ctx, token)
}

// ViewCart sends the numbered cart summary with the update and order buttons.
func (u *CartUseCase) ViewCart(ctx context.Context, chatID, userID int64) error {
	defer logging.TraceDuration(u.log, "CartUC.ViewCart")()

	cart, err := u.loadCart(ctx, userID)
	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		return u.chat.SendMessage(ctx, chatID, u.t.T("cart_error"))
	}
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	if cart.IsEmpty() {
		return u.chat.SendMessage(ctx, chatID, u.t.T("cart_empty"))
	}

	lines := make([]string, 0, len(cart.Products))
	for i, line := range cart.Products {
		lines = append(lines, u.t.T("cart_line",
			i+1,
			line.Name,
			line.Quantity,
			money(u.printer, line.Price),
			money(u.printer, line.TotalPrice),
		))
	}
	text := u.t.T("cart_title", strings.Join(lines, "\n"), money(u.printer, cart.TotalPrice))
	rows := [][]adapter.InlineButton{
		{{Text: u.t.T("cart_update_button"), Data: model.CbUpdateCart}},
		{{Text: u.t.T("cart_order_button"), Data: model.CbToOrder}},
	}
	return u.chat.SendButtons(ctx, chatID, text, rows)
}

// ShowItemsForUpdate re-fetches the cart and replaces messageID with one
// button per line.
func (u *CartUseCase) ShowItemsForUpdate(ctx context.Context, chatID int64, messageID int, userID int64) error {
	defer logging.TraceDuration(u.log, "CartUC.ShowItemsForUpdate")()

	cart, err := u.loadCart(ctx, userID)
	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		return u.chat.SendMessage(ctx, chatID, u.t.T("cart_error"))
	}
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	if cart.IsEmpty() {
		return u.chat.EditButtons(ctx, chatID, messageID, u.t.T("cart_empty"), nil)
	}

	rows := make([][]adapter.InlineButton, 0, len(cart.Products))
	for _, line := range cart.Products {
		data, err := model.UpdateItemCallback(line.ID.String())
		if err != nil {
			u.log.Warn().Err(err).Str("card_product_id", line.ID.String()).Msg("cart item button omitted")
			continue
		}
		rows = append(rows, []adapter.InlineButton{{
			Text: u.t.T("product_button", truncateRunes(line.Name, maxButtonNameRunes)),
			Data: data,
		}})
	}
	return u.chat.EditButtons(ctx, chatID, messageID, u.t.T("cart_select_item"), rows)
}
