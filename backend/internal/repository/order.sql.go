package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Alturino/storefront/order/pkg/response"
)

const orderColumns = `id, user_id, order_items, shipping_address, payment_method, payment_result,
    items_price, shipping_price, tax_price, total_price, status, is_paid, paid_at,
    is_delivered, delivered_at, tracking_number, estimated_delivery, created_at, updated_at`

var insertOrder = fmt.Sprintf(`-- name: InsertOrder :one
INSERT INTO orders (id, user_id, order_items, shipping_address, payment_method,
    items_price, shipping_price, tax_price, total_price, status, estimated_delivery,
    created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
RETURNING %s
`, orderColumns)

func (q *Queries) InsertOrder(c context.Context, order response.Order) (response.Order, error) {
	items, address, err := marshalOrder(order)
	if err != nil {
		return response.Order{}, err
	}
	row := q.db.QueryRow(c, insertOrder,
		order.ID,
		order.User,
		items,
		address,
		string(order.PaymentMethod),
		numeric(order.ItemsPrice),
		numeric(order.ShippingPrice),
		numeric(order.TaxPrice),
		numeric(order.TotalPrice),
		string(order.Status),
		order.EstimatedDelivery,
		order.CreatedAt,
	)
	return scanOrder(row)
}

var findOrderById = fmt.Sprintf(`-- name: FindOrderById :one
SELECT %s FROM orders WHERE id = $1
`, orderColumns)

func (q *Queries) FindOrderById(c context.Context, id uuid.UUID) (response.Order, error) {
	return scanOrder(q.db.QueryRow(c, findOrderById, id))
}

var findOrdersByUserId = fmt.Sprintf(`-- name: FindOrdersByUserId :many
SELECT %s FROM orders WHERE user_id = $1 ORDER BY created_at DESC
`, orderColumns)

func (q *Queries) FindOrdersByUserId(c context.Context, userID uuid.UUID) ([]response.Order, error) {
	rows, err := q.db.Query(c, findOrdersByUserId, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := []response.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

var updateOrderPayment = fmt.Sprintf(`-- name: UpdateOrderPayment :one
UPDATE orders
SET payment_result = $2, is_paid = TRUE, paid_at = $3, status = $4, updated_at = $3
WHERE id = $1 AND status = 'pending' AND NOT is_paid
RETURNING %s
`, orderColumns)

type UpdateOrderPaymentParams struct {
	ID            uuid.UUID
	PaymentResult []byte
	PaidAt        time.Time
	Status        response.Status
}

// UpdateOrderPayment only touches unpaid pending orders; any other order
// yields pgx.ErrNoRows.
func (q *Queries) UpdateOrderPayment(c context.Context, arg UpdateOrderPaymentParams) (response.Order, error) {
	return scanOrder(q.db.QueryRow(c, updateOrderPayment, arg.ID, arg.PaymentResult, arg.PaidAt, string(arg.Status)))
}

var updateOrderStatus = fmt.Sprintf(`-- name: UpdateOrderStatus :one
UPDATE orders SET status = $2, updated_at = $3
WHERE id = $1 AND status = ANY($4::text[])
RETURNING %s
`, orderColumns)

type UpdateOrderStatusParams struct {
	ID        uuid.UUID
	Status    response.Status
	UpdatedAt time.Time
	From      []response.Status
}

// UpdateOrderStatus only moves orders currently in one of arg.From; any
// other order yields pgx.ErrNoRows.
func (q *Queries) UpdateOrderStatus(c context.Context, arg UpdateOrderStatusParams) (response.Order, error) {
	from := make([]string, len(arg.From))
	for i, status := range arg.From {
		from[i] = string(status)
	}
	return scanOrder(q.db.QueryRow(c, updateOrderStatus, arg.ID, string(arg.Status), arg.UpdatedAt, from))
}
