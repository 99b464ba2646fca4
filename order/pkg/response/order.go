package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/order/pkg/request"
)

type Order struct {
	ID                uuid.UUID               `json:"id"`
	User              uuid.UUID               `json:"user"`
	OrderItems        []request.OrderItem     `json:"orderItems"`
	ShippingAddress   request.ShippingAddress `json:"shippingAddress"`
	PaymentMethod     request.PaymentMethod   `json:"paymentMethod"`
	PaymentResult     *request.PayOrder       `json:"paymentResult,omitempty"`
	ItemsPrice        decimal.Decimal         `json:"itemsPrice"`
	ShippingPrice     decimal.Decimal         `json:"shippingPrice"`
	TaxPrice          decimal.Decimal         `json:"taxPrice"`
	TotalPrice        decimal.Decimal         `json:"totalPrice"`
	Status            Status                  `json:"status"`
	IsPaid            bool                    `json:"isPaid"`
	PaidAt            *time.Time              `json:"paidAt,omitempty"`
	IsDelivered       bool                    `json:"isDelivered"`
	DeliveredAt       *time.Time              `json:"deliveredAt,omitempty"`
	TrackingNumber    string                  `json:"trackingNumber,omitempty"`
	EstimatedDelivery time.Time               `json:"estimatedDelivery"`
	CreatedAt         time.Time               `json:"createdAt"`
	UpdatedAt         time.Time               `json:"updatedAt"`
}

func (o Order) MarshalZerologObject(e *zerolog.Event) {
	e.Str("id", o.ID.String()).
		Str("user", o.User.String()).
		Str("status", string(o.Status)).
		Bool("isPaid", o.IsPaid).
		Str("totalPrice", o.TotalPrice.String())
}

// IsPayable reports whether the order still waits for payment.
func (o Order) IsPayable() bool {
	return o.Status == StatusPending && !o.IsPaid
}

func (o Order) IsCancellable() bool {
	return o.Status.IsCancellable()
}

type Orders []Order

func (o Orders) MarshalZerologArray(a *zerolog.Array) {
	for _, order := range o {
		a.Object(order)
	}
}
