package request

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cod"
	PaymentPaypal         PaymentMethod = "paypal"
)

type ShippingAddress struct {
	FullName   string `validate:"required"       json:"fullName"`
	Email      string `validate:"required,email" json:"email"`
	Phone      string `validate:"required"       json:"phone"`
	Address    string `validate:"required"       json:"address"`
	City       string `validate:"required"       json:"city"`
	State      string `                          json:"state,omitempty"`
	PostalCode string `validate:"required"       json:"postalCode"`
	Country    string `validate:"required"       json:"country"`
}

// OrderItem is the copy of a cart line an order keeps. Later catalogue
// changes do not touch it.
type OrderItem struct {
	ProductID string          `validate:"required" json:"product"`
	Name      string          `validate:"required" json:"name"`
	Image     string          `                    json:"image,omitempty"`
	Price     decimal.Decimal `validate:"money"    json:"price"`
	Quantity  int             `validate:"gte=1"    json:"quantity"`
}

// CreateOrder is the body of POST /orders.
type CreateOrder struct {
	User            uuid.UUID       `validate:"required"                  json:"user"`
	OrderItems      []OrderItem     `validate:"required,gt=0,dive"        json:"orderItems"`
	ShippingAddress ShippingAddress `validate:"required"                  json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `validate:"required,oneof=cod paypal" json:"paymentMethod"`
	ItemsPrice      decimal.Decimal `validate:"money"                     json:"itemsPrice"`
	ShippingPrice   decimal.Decimal `validate:"money"                     json:"shippingPrice"`
	TaxPrice        decimal.Decimal `validate:"money"                     json:"taxPrice"`
	TotalPrice      decimal.Decimal `validate:"money"                     json:"totalPrice"`
}

func (o CreateOrder) MarshalZerologObject(e *zerolog.Event) {
	e.Str("user", o.User.String()).
		Int("orderItems", len(o.OrderItems)).
		Str("paymentMethod", string(o.PaymentMethod)).
		Str("totalPrice", o.TotalPrice.String())
}

// OrderData is what checkout hands to order submission: the cart snapshot
// plus the price breakdown in storefront vocabulary.
type OrderData struct {
	Items           []OrderItem     `validate:"required,gt=0,dive"        json:"items"`
	ShippingAddress ShippingAddress `validate:"required"                  json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `validate:"required,oneof=cod paypal" json:"paymentMethod"`
	Subtotal        decimal.Decimal `validate:"money"                     json:"subtotal"`
	DeliveryCharge  decimal.Decimal `validate:"money"                     json:"deliveryCharge"`
	Tax             decimal.Decimal `validate:"money"                     json:"tax"`
	Total           decimal.Decimal `validate:"money"                     json:"total"`
}

// Payload renames the breakdown to the order API vocabulary and stamps the
// owning user.
func (d OrderData) Payload(userID uuid.UUID) CreateOrder {
	items := make([]OrderItem, len(d.Items))
	copy(items, d.Items)
	return CreateOrder{
		User:            userID,
		OrderItems:      items,
		ShippingAddress: d.ShippingAddress,
		PaymentMethod:   d.PaymentMethod,
		ItemsPrice:      d.Subtotal,
		ShippingPrice:   d.DeliveryCharge,
		TaxPrice:        d.Tax,
		TotalPrice:      d.Total,
	}
}

// PayOrder is the payment result reported by the payment provider.
type PayOrder struct {
	ID           string `validate:"required" json:"id"`
	Status       string `validate:"required" json:"status"`
	UpdateTime   string `                    json:"updateTime,omitempty"`
	EmailAddress string `                    json:"emailAddress,omitempty"`
}

type FindOrderById struct {
	UserId  uuid.UUID `validate:"required"`
	OrderId uuid.UUID `validate:"required"`
}

type FindOrderByUserId struct {
	UserId uuid.UUID `validate:"required"`
}
