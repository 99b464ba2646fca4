package validate

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

type priced struct {
	ID    string          `json:"id"    validate:"required"`
	Price decimal.Decimal `json:"price" validate:"price"`
	Tax   decimal.Decimal `json:"tax"   validate:"money"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		value   priced
		wantErr bool
		message string
	}{
		{
			name:  "given positive price and zero tax should pass",
			value: priced{ID: "bowl-1", Price: decimal.NewFromInt(195), Tax: decimal.Zero},
		},
		{
			name:    "given zero price should fail on price",
			value:   priced{ID: "bowl-1", Price: decimal.Zero},
			wantErr: true,
			message: "price is invalid (price)",
		},
		{
			name:    "given negative tax should fail on tax",
			value:   priced{ID: "bowl-1", Price: decimal.NewFromInt(1), Tax: decimal.NewFromInt(-1)},
			wantErr: true,
			message: "tax is invalid (money)",
		},
		{
			name:    "given missing id should fail on id",
			value:   priced{Price: decimal.NewFromInt(1)},
			wantErr: true,
			message: "id is invalid (required)",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := Struct(test.value)
			if !test.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, inErrors.ErrValidation))
			assert.Equal(t, test.message, inErrors.Message(err))
		})
	}
}
