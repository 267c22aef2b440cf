package usecase

import (
	"context"
	"fmt"
	"net/http"

	"telegram-ecommerce-bot/internal/domain"
	"telegram-ecommerce-bot/internal/domain/model"
	"telegram-ecommerce-bot/internal/domain/ports/adapter"
	"telegram-ecommerce-bot/internal/infra/i18n"
	"telegram-ecommerce-bot/internal/infra/logging"

	"github.com/rs/zerolog"
	"golang.org/x/text/message"
)

// CatalogUseCase renders the product list, its pages and product details.
type CatalogUseCase struct {
	shop    adapter.ShopAPI
	chat    adapter.ChatAdapter
	t       *i18n.Translator
	printer *message.Printer
	log     *zerolog.Logger
}

func NewCatalogUseCase(shop adapter.ShopAPI, chat adapter.ChatAdapter, translator *i18n.Translator, logger *zerolog.Logger) *CatalogUseCase {
	return &CatalogUseCase{
		shop:    shop,
		chat:    chat,
		t:       translator,
		printer: newPrinter(translator.Lang()),
		log:     logger,
	}
}

func (u *CatalogUseCase) ListProducts(ctx context.Context, chatID int64) error {
	defer logging.TraceDuration(u.log, "CatalogUC.ListProducts")()

	page, err := u.shop.ListProducts(ctx, "")
	if err != nil {
		u.log.Warn().Err(err).Msg("failed to load products")
		return u.chat.SendMessage(ctx, chatID, u.t.T("products_error"))
	}
	return u.chat.SendButtons(ctx, chatID, u.t.T("products_title"), u.productRows(page))
}

// Paginate replaces the list in messageID with the page a page: token points to.
func (u *CatalogUseCase) Paginate(ctx context.Context, chatID int64, messageID int, data string) error {
	defer logging.TraceDuration(u.log, "CatalogUC.Paginate")()

	link, err := model.PageLink(u.shop.Host(), data)
	if err != nil {
		u.log.Warn().Err(err).Msg("rejected page callback")
		return u.chat.SendMessage(ctx, chatID, u.t.T("page_not_found"))
	}
	page, err := u.shop.ListProducts(ctx, link)
	if domain.IsUpstreamStatus(err, http.StatusNotFound) {
		return u.chat.SendMessage(ctx, chatID, u.t.T("page_not_found"))
	}
	if err != nil {
		return fmt.Errorf("load page: %w", err)
	}
	return u.chat.EditButtons(ctx, chatID, messageID, u.t.T("products_title"), u.productRows(page))
}

func (u *CatalogUseCase) ProductDetail(ctx context.Context, chatID int64, messageID int, productID string) error {
	defer logging.TraceDuration(u.log, "CatalogUC.ProductDetail")()

	p, err := u.shop.GetProduct(ctx, productID)
	if err != nil {
		u.log.Warn().Err(err).Str("product_id", productID).Msg("failed to load product")
		return u.chat.EditButtons(ctx, chatID, messageID, u.t.T("product_error"), nil)
	}

	rating := u.t.T("product_no_rating")
	if p.AvgRating != nil && p.AvgRating.Float() != 0 {
		rating = plain(*p.AvgRating)
	}
	image := u.t.T("product_no_image")
	if p.Image != nil && *p.Image != "" {
		image = *p.Image
	}
	text := u.t.T("product_detail",
		p.Name,
		money(u.printer, p.Price),
		plain(p.DiscountPercent),
		rating,
		p.Stock,
		truncateRunes(p.Description, maxDescriptionRunes),
		image,
	)

	var rows [][]adapter.InlineButton
	if data, err := model.ToCardCallback(productID); err == nil {
		rows = [][]adapter.InlineButton{{{Text: u.t.T("add_to_cart_button"), Data: data}}}
	} else {
		u.log.Warn().Err(err).Str("product_id", productID).Msg("add-to-cart button omitted")
	}
	return u.chat.EditButtons(ctx, chatID, messageID, text, rows)
}

// productRows lays out product buttons three per row followed by the
// Previous/Next row.
func (u *CatalogUseCase) productRows(page *model.ProductPage) [][]adapter.InlineButton {
	var (
		rows [][]adapter.InlineButton
		row  []adapter.InlineButton
	)
	for _, p := range page.Results {
		data, err := model.ProductCallback(p.ID.String())
		if err != nil {
			u.log.Warn().Err(err).Str("product_id", p.ID.String()).Msg("product button omitted")
			continue
		}
		row = append(row, adapter.InlineButton{
			Text: u.t.T("product_button", truncateRunes(p.Name, maxButtonNameRunes)),
			Data: data,
		})
		if len(row) == productsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	var nav []adapter.InlineButton
	if b, ok := u.pageButton("page_previous", page.Previous); ok {
		nav = append(nav, b)
	}
	if b, ok := u.pageButton("page_next", page.Next); ok {
		nav = append(nav, b)
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return rows
}

func (u *CatalogUseCase) pageButton(labelKey string, link *string) (adapter.InlineButton, bool) {
	if link == nil || *link == "" {
		return adapter.InlineButton{}, false
	}
	data, err := model.PageCallback(u.shop.Host(), *link)
	if err != nil {
		u.log.Warn().Err(err).Str("link", *link).Msg("page button omitted")
		return adapter.InlineButton{}, false
	}
	return adapter.InlineButton{Text: u.t.T(labelKey), Data: data}, true
}
