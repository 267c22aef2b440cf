package application

import (
	"context"

	"telegram-ecommerce-bot/internal/domain/model"
	"telegram-ecommerce-bot/internal/usecase"
)

type commandHandler func(ctx context.Context, ev model.MessageEvent) error

// commandRoutes defines all available bot commands and their handlers.
// Commands take precedence over any pending conversation step.
func (f *BotFacade) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"/start": func(ctx context.Context, ev model.MessageEvent) error {
			return f.Account.Start(ctx, ev.ChatID, ev.UserID)
		},
		"/register": func(ctx context.Context, ev model.MessageEvent) error {
			return f.Account.Register(ctx, ev.ChatID, ev.UserID, usecase.CommandArgs(ev.Text))
		},
		"/login": func(ctx context.Context, ev model.MessageEvent) error {
			return f.Account.Login(ctx, ev.ChatID, ev.UserID, usecase.CommandArgs(ev.Text))
		},
		"/products": func(ctx context.Context, ev model.MessageEvent) error {
			return f.Catalog.ListProducts(ctx, ev.ChatID)
		},
		"/my_cart": func(ctx context.Context, ev model.MessageEvent) error {
			return f.Cart.ViewCart(ctx, ev.ChatID, ev.UserID)
		},
		"/cancel": func(ctx context.Context, ev model.MessageEvent) error {
			return f.Engine.Cancel(ctx, ev.ChatID, ev.UserID)
		},
		"/help": func(ctx context.Context, ev model.MessageEvent) error {
			return f.chat.SendMessage(ctx, ev.ChatID, f.t.T("help"))
		},
	}
}

// cbHandler receives the callback and its argument: the whole payload for
// exact routes, the part after the prefix for prefix routes.
type cbHandler func(ctx context.Context, ev model.CallbackEvent, arg string) error

type prefixCB struct {
	Prefix string
	Fn     cbHandler
}

// Exact-match callbacks
func (f *BotFacade) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		model.CbUpdateCart: func(ctx context.Context, ev model.CallbackEvent, _ string) error {
			return f.Cart.ShowItemsForUpdate(ctx, ev.ChatID, ev.MessageID, ev.UserID)
		},
		model.CbToOrder: func(ctx context.Context, ev model.CallbackEvent, _ string) error {
			return f.Engine.StartCheckout(ctx, ev.ChatID, ev.UserID)
		},
		model.CbCheckPayment: func(ctx context.Context, ev model.CallbackEvent, _ string) error {
			return f.Engine.CheckPayment(ctx, ev.ChatID, ev.UserID)
		},
	}
}

// Prefix-match callbacks
func (f *BotFacade) cbPrefixRoutes() []prefixCB {
	return []prefixCB{
		{
			Prefix: model.CbProductPrefix,
			Fn: func(ctx context.Context, ev model.CallbackEvent, id string) error {
				return f.Catalog.ProductDetail(ctx, ev.ChatID, ev.MessageID, id)
			},
		},
		{
			Prefix: model.CbPagePrefix,
			Fn: func(ctx context.Context, ev model.CallbackEvent, link string) error {
				// Paginate parses the full payload itself
				return f.Catalog.Paginate(ctx, ev.ChatID, ev.MessageID, model.CbPagePrefix+link)
			},
		},
		{
			Prefix: model.CbToCardPrefix,
			Fn: func(ctx context.Context, ev model.CallbackEvent, id string) error {
				return f.Engine.StartAddToCart(ctx, ev.ChatID, ev.UserID, id)
			},
		},
		{
			Prefix: model.CbUpdateItemPrefix,
			Fn: func(ctx context.Context, ev model.CallbackEvent, id string) error {
				return f.Engine.StartCartUpdate(ctx, ev.ChatID, ev.UserID, id)
			},
		},
	}
}
