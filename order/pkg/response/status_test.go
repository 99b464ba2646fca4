package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name        string
		from        Status
		to          Status
		canMove     bool
		cancellable bool
	}{
		{name: "given pending should move to processing", from: StatusPending, to: StatusProcessing, canMove: true, cancellable: true},
		{name: "given processing should move to shipped", from: StatusProcessing, to: StatusShipped, canMove: true, cancellable: true},
		{name: "given shipped should not be cancelled", from: StatusShipped, to: StatusCancelled, canMove: false, cancellable: false},
		{name: "given delivered should stay final", from: StatusDelivered, to: StatusPending, canMove: false, cancellable: false},
		{name: "given pending should not skip to delivered", from: StatusPending, to: StatusDelivered, canMove: false, cancellable: true},
		{name: "given cancelled should stay final", from: StatusCancelled, to: StatusProcessing, canMove: false, cancellable: false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.canMove, test.from.CanTransition(test.to))
			assert.Equal(t, test.cancellable, test.from.IsCancellable())
		})
	}
}

func TestOrderIsPayable(t *testing.T) {
	assert.True(t, Order{Status: StatusPending}.IsPayable())
	assert.False(t, Order{Status: StatusPending, IsPaid: true}.IsPayable())
	assert.False(t, Order{Status: StatusCancelled}.IsPayable())
	assert.True(t, StatusDelivered.IsFinal())
	assert.False(t, Status("lost").Valid())
}
