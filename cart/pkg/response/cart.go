package response

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/cart/pkg/request"
)

type CartItem struct {
	Product   request.Product `json:"product"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type Cart struct {
	Items      []CartItem      `json:"items"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

func (c Cart) MarshalZerologObject(e *zerolog.Event) {
	e.Int("items", len(c.Items)).
		Int("totalItems", c.TotalItems).
		Str("totalPrice", c.TotalPrice.String())
}
