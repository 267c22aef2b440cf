package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ID accepts both JSON strings and numbers; the shop API uses either
// depending on the resource.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

type Product struct {
	ID              ID       `json:"id"`
	Name            string   `json:"name"`
	Price           Decimal  `json:"price"`
	DiscountPercent Decimal  `json:"discount_percent"`
	AvgRating       *Decimal `json:"avg_rating"`
	Stock           int      `json:"stock"`
	Description     string   `json:"description"`
	Image           *string  `json:"image"`
}

type ProductPage struct {
	Results  []Product `json:"results"`
	Next     *string   `json:"next"`
	Previous *string   `json:"previous"`
}

type CartLine struct {
	ID         ID      `json:"id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	Price      Decimal `json:"price"`
	TotalPrice Decimal `json:"total_price"`
}

type Cart struct {
	Products   []CartLine `json:"products"`
	TotalPrice Decimal    `json:"total_price"`
}

func (c *Cart) IsEmpty() bool { return c == nil || len(c.Products) == 0 }

type Checkout struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// Decimal decodes prices sent either as JSON numbers or as decimal strings
// (Django REST framework serializes DecimalField as a string).
type Decimal float64

func (d *Decimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*d = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*d = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*d = Decimal(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*d = Decimal(f)
	return nil
}

func (d Decimal) Float() float64 { return float64(d) }
