package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBillingPercentage(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"zero is rejected", "0", true},
		{"negative is rejected", "-5", true},
		{"over one hundred is rejected", "100.01", true},
		{"one hundred is accepted", "100", false},
		{"fraction is accepted", "0.5", false},
		{"thirty", "30", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewBillingPercentage(decimal.RequireFromString(tt.value))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, p.Decimal().Equal(decimal.RequireFromString(tt.value)))
		})
	}
}

func TestPercentage_Fraction(t *testing.T) {
	p := MustPercentage("6.625")
	assert.True(t, p.Fraction().Equal(decimal.RequireFromString("0.06625")))
	assert.Equal(t, "6.625%", p.String())

	_, err := NewPercentage(decimal.NewFromInt(-1))
	assert.Error(t, err)
}

func TestAddress(t *testing.T) {
	a, err := NewAddress(" 12 Main St ", "Trenton", "NJ", "08608")
	require.NoError(t, err)
	assert.Equal(t, "12 Main St, Trenton, NJ 08608", a.OneLine())

	v, err := a.Value()
	require.NoError(t, err)

	var back Address
	require.NoError(t, back.Scan(v))
	assert.Equal(t, a, back)

	_, err = NewAddress("", "Trenton", "NJ", "")
	assert.Error(t, err)

	empty, err := Address{}.Value()
	require.NoError(t, err)
	assert.Nil(t, empty)
}
