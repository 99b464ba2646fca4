package request

import (
	orderReq "github.com/Alturino/storefront/order/pkg/request"
)

type Checkout struct {
	ShippingAddress orderReq.ShippingAddress `validate:"required"                  json:"shippingAddress"`
	PaymentMethod   orderReq.PaymentMethod   `validate:"required,oneof=cod paypal" json:"paymentMethod"`
}
