package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/order/pkg/request"
	"github.com/Alturino/storefront/order/pkg/response"
)

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func fromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func marshalOrder(order response.Order) (items []byte, address []byte, err error) {
	items, err = json.Marshal(order.OrderItems)
	if err != nil {
		return nil, nil, fmt.Errorf("failed marshaling order items with error=%w", err)
	}
	address, err = json.Marshal(order.ShippingAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("failed marshaling shipping address with error=%w", err)
	}
	return items, address, nil
}

func scanOrder(row pgx.Row) (response.Order, error) {
	var (
		o                                               response.Order
		items, address, paymentResult                   []byte
		paymentMethod, status                           string
		itemsPrice, shippingPrice, taxPrice, totalPrice pgtype.Numeric
	)
	err := row.Scan(
		&o.ID,
		&o.User,
		&items,
		&address,
		&paymentMethod,
		&paymentResult,
		&itemsPrice,
		&shippingPrice,
		&taxPrice,
		&totalPrice,
		&status,
		&o.IsPaid,
		&o.PaidAt,
		&o.IsDelivered,
		&o.DeliveredAt,
		&o.TrackingNumber,
		&o.EstimatedDelivery,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return response.Order{}, err
	}

	o.OrderItems = []request.OrderItem{}
	if err = json.Unmarshal(items, &o.OrderItems); err != nil {
		return response.Order{}, fmt.Errorf("failed unmarshaling order items with error=%w", err)
	}
	if err = json.Unmarshal(address, &o.ShippingAddress); err != nil {
		return response.Order{}, fmt.Errorf("failed unmarshaling shipping address with error=%w", err)
	}
	if len(paymentResult) > 0 {
		o.PaymentResult = &request.PayOrder{}
		if err = json.Unmarshal(paymentResult, o.PaymentResult); err != nil {
			return response.Order{}, fmt.Errorf("failed unmarshaling payment result with error=%w", err)
		}
	}
	o.PaymentMethod = request.PaymentMethod(paymentMethod)
	o.Status = response.Status(status)
	o.ItemsPrice = fromNumeric(itemsPrice)
	o.ShippingPrice = fromNumeric(shippingPrice)
	o.TaxPrice = fromNumeric(taxPrice)
	o.TotalPrice = fromNumeric(totalPrice)
	return o, nil
}
