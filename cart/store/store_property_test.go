package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/internal/storage"
)

func product(id int, cents int) request.Product {
	return request.Product{
		ID:    fmt.Sprintf("product-%d", id),
		Price: decimal.New(int64(cents), -2),
	}
}

func TestCartProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("Repeated adds of one product keep one line with summed quantity", prop.ForAll(
		func(quantities []int) bool {
			c := context.Background()
			s := New(c, storage.NewMemory())
			sum := 0
			for _, q := range quantities {
				if err := s.AddToCart(c, product(1, 19500), q); err != nil {
					return false
				}
				sum += q
			}
			lines := s.Lines()
			return len(lines) == 1 && lines[0].Quantity == sum
		},
		gen.SliceOfN(5, gen.IntRange(1, 50)),
	))

	properties.Property("Updating to a non positive quantity equals removing", prop.ForAll(
		func(ids []int, target int, quantity int) bool {
			c := context.Background()
			updated := New(c, storage.NewMemory())
			removed := New(c, storage.NewMemory())
			for _, id := range ids {
				_ = updated.AddToCart(c, product(id, 100), 1)
				_ = removed.AddToCart(c, product(id, 100), 1)
			}
			id := product(target, 100).ID
			errUpdated := updated.UpdateQuantity(c, id, quantity)
			errRemoved := removed.RemoveFromCart(c, id)
			if (errUpdated == nil) != (errRemoved == nil) {
				return false
			}
			a, b := updated.Lines(), removed.Lines()
			if len(a) != len(b) {
				return false
			}
			for i := range a {
				if a[i].Product.ID != b[i].Product.ID || a[i].Quantity != b[i].Quantity {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 5)),
		gen.IntRange(0, 5),
		gen.IntRange(-10, 0),
	))

	properties.Property("Total price is the sum of price times quantity", prop.ForAll(
		func(cents []int, quantities []int) bool {
			c := context.Background()
			s := New(c, storage.NewMemory())
			want := decimal.Zero
			for i := range cents {
				if i >= len(quantities) {
					break
				}
				p := product(i, cents[i])
				if err := s.AddToCart(c, p, quantities[i]); err != nil {
					return false
				}
				want = want.Add(p.Price.Mul(decimal.NewFromInt(int64(quantities[i]))))
			}
			return want.Equal(s.TotalPrice())
		},
		gen.SliceOf(gen.IntRange(0, 100000)),
		gen.SliceOf(gen.IntRange(1, 20)),
	))

	properties.Property("Persisted cart reloads equal", prop.ForAll(
		func(ids []int, quantities []int) bool {
			c := context.Background()
			mem := storage.NewMemory()
			s := New(c, mem)
			for i, id := range ids {
				q := 1
				if i < len(quantities) {
					q = quantities[i]
				}
				_ = s.AddToCart(c, product(id, 1999), q)
			}
			reloaded := New(c, mem)
			a, b := s.Lines(), reloaded.Lines()
			if len(a) != len(b) {
				return false
			}
			for i := range a {
				if a[i].Product.ID != b[i].Product.ID ||
					a[i].Quantity != b[i].Quantity ||
					!a[i].Product.Price.Equal(b[i].Product.Price) {
					return false
				}
			}
			return s.TotalItems() == reloaded.TotalItems() &&
				s.TotalPrice().Equal(reloaded.TotalPrice())
		},
		gen.SliceOf(gen.IntRange(0, 10)),
		gen.SliceOf(gen.IntRange(1, 9)),
	))

	properties.Property("Corrupted stored cart loads empty", prop.ForAll(
		func(garbage string) bool {
			c := context.Background()
			mem := storage.NewMemory()
			_ = mem.Set(c, storage.KeyCart, []byte("{"+garbage))
			s := New(c, mem)
			return len(s.Lines()) == 0 && s.TotalItems() == 0
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
