package response

import (
	"github.com/google/uuid"

	"github.com/Alturino/storefront/order/pricing"
)

// Confirmation is shown after a successful checkout, keyed by the order id.
type Confirmation struct {
	OrderID uuid.UUID      `json:"orderId"`
	Pricing pricing.Result `json:"pricing"`
}

type Quote struct {
	TotalItems int            `json:"totalItems"`
	Pricing    pricing.Result `json:"pricing"`
}
