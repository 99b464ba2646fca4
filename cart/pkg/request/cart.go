package request

import (
	"github.com/shopspring/decimal"
)

// Product is the catalogue entry as the storefront received it. The cart
// never changes it.
type Product struct {
	ID          string          `validate:"required" json:"id"`
	Name        string          `                    json:"name"`
	Price       decimal.Decimal `validate:"money"    json:"price"`
	Size        string          `                    json:"size,omitempty"`
	Tone        string          `                    json:"tone,omitempty"`
	Type        string          `                    json:"type,omitempty"`
	Images      []string        `                    json:"images,omitempty"`
	Description string          `                    json:"description,omitempty"`
	InStock     bool            `                    json:"inStock"`
}

// MaxQuantity caps a single cart line.
const MaxQuantity = 999

type AddItem struct {
	Product  Product `validate:"required"      json:"product"`
	Quantity int     `validate:"gte=1,lte=999" json:"quantity"`
}

// UpdateItem quantities of zero or less remove the line.
type UpdateItem struct {
	Quantity int `validate:"lte=999" json:"quantity"`
}
