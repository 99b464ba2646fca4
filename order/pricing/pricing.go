package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/order/pkg/request"
)

type Config struct {
	DeliveryCharge        decimal.Decimal
	FreeDeliveryThreshold decimal.Decimal
	TaxRate               decimal.Decimal
}

func DefaultConfig() Config {
	return Config{
		DeliveryCharge:        decimal.NewFromInt(99),
		FreeDeliveryThreshold: decimal.NewFromInt(999),
		TaxRate:               decimal.RequireFromString("0.18"),
	}
}

// ConfigFrom parses the decimal strings of the pricing config. Empty values
// keep their defaults.
func ConfigFrom(cfg config.Pricing) (Config, error) {
	out := DefaultConfig()
	fields := []struct {
		name  string
		raw   string
		value *decimal.Decimal
	}{
		{name: "delivery_charge", raw: cfg.DeliveryCharge, value: &out.DeliveryCharge},
		{name: "free_delivery_threshold", raw: cfg.FreeDeliveryThreshold, value: &out.FreeDeliveryThreshold},
		{name: "tax_rate", raw: cfg.TaxRate, value: &out.TaxRate},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return Config{}, fmt.Errorf("failed parsing pricing %s=%s with error=%w", f.name, f.raw, err)
		}
		if d.IsNegative() {
			return Config{}, fmt.Errorf("failed parsing pricing %s=%s with error=negative value", f.name, f.raw)
		}
		*f.value = d
	}
	return out, nil
}

type Result struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryCharge decimal.Decimal `json:"deliveryCharge"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
}

// Breakdown prices a cart subtotal. Delivery is free at or above the
// threshold and for an empty cart; tax applies to the subtotal and is
// rounded to two places.
func Breakdown(subtotal decimal.Decimal, cfg Config) Result {
	if subtotal.IsNegative() {
		subtotal = decimal.Zero
	}
	delivery := cfg.DeliveryCharge
	if subtotal.IsZero() || subtotal.GreaterThanOrEqual(cfg.FreeDeliveryThreshold) {
		delivery = decimal.Zero
	}
	tax := subtotal.Mul(cfg.TaxRate).Round(2)
	return Result{
		Subtotal:       subtotal,
		DeliveryCharge: delivery,
		Tax:            tax,
		Total:          subtotal.Add(delivery).Add(tax),
	}
}

// Subtotal sums price times quantity over order items.
func Subtotal(items []request.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// Matches reports whether the four totals of an order agree with the
// breakdown of its items.
func Matches(order request.CreateOrder, cfg Config) (Result, bool) {
	expected := Breakdown(Subtotal(order.OrderItems), cfg)
	return expected, expected.Subtotal.Equal(order.ItemsPrice) &&
		expected.DeliveryCharge.Equal(order.ShippingPrice) &&
		expected.Tax.Equal(order.TaxPrice) &&
		expected.Total.Equal(order.TotalPrice)
}
