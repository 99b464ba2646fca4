package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedKind    error
		expectedMessage string
	}{
		{
			name:            "given timeout error should match timeout kind and keep cause",
			err:             Timeout(context.DeadlineExceeded),
			expectedKind:    ErrTimeout,
			expectedMessage: MessageTimeout,
		},
		{
			name:            "given wrapped server error should pass message through",
			err:             fmt.Errorf("failed creating order with error=%w", Server("Order items are required", nil)),
			expectedKind:    ErrServer,
			expectedMessage: "Order items are required",
		},
		{
			name:            "given auth required error should use designated message",
			err:             AuthRequired(ErrEmptyAuth),
			expectedKind:    ErrAuthRequired,
			expectedMessage: MessageAuthRequired,
		},
		{
			name:            "given plain error should be unknown kind",
			err:             errors.New("boom"),
			expectedKind:    ErrUnknown,
			expectedMessage: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Kind(tt.err), tt.expectedKind)
			assert.Equal(t, tt.expectedMessage, Message(tt.err))
		})
	}

	t.Run("given cause should be reachable through errors.Is", func(t *testing.T) {
		err := Timeout(context.DeadlineExceeded)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.ErrorIs(t, err, ErrTimeout)
		assert.NotErrorIs(t, err, ErrServer)
	})
}
