package store

import (
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/cart/pkg/request"
)

// Line is one product in the cart and the shape persisted under the cart key.
type Line struct {
	Product  request.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Total is price times quantity. Lines read back from storage without a
// usable price or quantity count as zero.
func (l Line) Total() decimal.Decimal {
	if l.Quantity <= 0 || !l.Product.Price.IsPositive() {
		return decimal.Zero
	}
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func totalItems(lines []Line) int {
	total := 0
	for _, line := range lines {
		if line.Quantity > 0 {
			total += line.Quantity
		}
	}
	return total
}

func totalPrice(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Total())
	}
	return total
}
