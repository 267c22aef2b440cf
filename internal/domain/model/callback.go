package model

import (
	"fmt"
	"strings"

	"telegram-ecommerce-bot/internal/domain"
)

// MaxCallbackData is Telegram's limit for inline button payloads.
const MaxCallbackData = 64

// Callback payloads. Prefix tokens carry an argument after the colon.
const (
	CbProductPrefix    = "product:"
	CbToCardPrefix     = "to_card:"
	CbUpdateItemPrefix = "update_card:"
	CbPagePrefix       = "page:"

	CbUpdateCart   = "update_card"
	CbToOrder      = "to_order"
	CbCheckPayment = "check_payment"
)

func packCallback(prefix, arg string) (string, error) {
	data := prefix + arg
	if len(data) > MaxCallbackData {
		return "", fmt.Errorf("%w: %q", domain.ErrCallbackTooLong, data)
	}
	return data, nil
}

func ProductCallback(productID string) (string, error) {
	return packCallback(CbProductPrefix, productID)
}

func ToCardCallback(productID string) (string, error) {
	return packCallback(CbToCardPrefix, productID)
}

func UpdateItemCallback(cardProductID string) (string, error) {
	return packCallback(CbUpdateItemPrefix, cardProductID)
}

// PageCallback embeds an upstream page link with the host prefix removed.
// Links outside host cannot be rebuilt and are rejected.
func PageCallback(host, link string) (string, error) {
	rest, ok := strings.CutPrefix(link, host)
	if !ok || !isHostPath(rest) {
		return "", fmt.Errorf("%w: page link %q is not under %q", domain.ErrInvalidArgument, link, host)
	}
	return packCallback(CbPagePrefix, rest)
}

// PageLink rebuilds the upstream URL from a page: payload. The result is
// always under host.
func PageLink(host, data string) (string, error) {
	rest, ok := strings.CutPrefix(data, CbPagePrefix)
	if !ok {
		return "", fmt.Errorf("%w: not a page callback", domain.ErrInvalidArgument)
	}
	if !isHostPath(rest) {
		return "", fmt.Errorf("%w: page path %q", domain.ErrInvalidArgument, rest)
	}
	return host + rest, nil
}

// isHostPath accepts what may follow a bare host: nothing, a path or a query.
func isHostPath(rest string) bool {
	return rest == "" || strings.HasPrefix(rest, "/") || strings.HasPrefix(rest, "?")
}
