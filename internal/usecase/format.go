package usecase

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"telegram-ecommerce-bot/internal/domain/model"
)

const (
	maxButtonNameRunes  = 20
	maxDescriptionRunes = 4000
	maxRegisterErrRunes = 1000
	productsPerRow      = 3
	minPasswordLen      = 6
)

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// newPrinter returns a number printer for the bot locale, English when the
// tag is unknown.
func newPrinter(lang string) *message.Printer {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag)
}

// money renders v rounded to two decimals with locale grouping.
func money(p *message.Printer, v model.Decimal) string {
	return p.Sprintf("%.2f", v.Float())
}

// plain renders v with the shortest exact representation.
func plain(v model.Decimal) string {
	return strconv.FormatFloat(v.Float(), 'f', -1, 64)
}

// parseQuantity accepts only ASCII decimal digits after trimming.
// ok is false for anything else; n may be zero.
func parseQuantity(s string) (n int, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
