package common

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTON(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "1.5", want: "1.5"},
		{in: " 2,25 ", want: "2.25"},
		{in: "0.000000001", want: "0.000000001"},
		{in: "0", wantErr: true},
		{in: "-3", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
		{in: "0.0000000001", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTON(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got))
		})
	}
}

func TestParsePriceAllowsZero(t *testing.T) {
	d, err := ParsePrice("0")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParsePrice("-1")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestFormatTON(t *testing.T) {
	assert.Equal(t, "3 TON", FormatTON(decimal.NewFromInt(3)))
	assert.Equal(t, "0.1 TON", FormatTON(decimal.RequireFromString("0.10")))
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "1 заказ", PluralizeOrders(1))
	assert.Equal(t, "3 заказа", PluralizeOrders(3))
	assert.Equal(t, "11 заказов", PluralizeOrders(11))
	assert.Equal(t, "21 заказ", PluralizeOrders(21))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "@bob", DisplayName(1, "bob"))
	assert.Equal(t, "ID 42", DisplayName(42, ""))
}
