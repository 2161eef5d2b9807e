package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToIDR(t *testing.T) {
	c := NewConverter(16000, map[string]float64{"Cisco": 0.5})

	idr, err := c.ToIDR(decimal.NewFromInt(5000000), "IDR", "Cisco")
	require.NoError(t, err)
	assert.Equal(t, int64(5000000), idr)

	idr, err = c.ToIDR(decimal.NewFromInt(1000), "usd", "Juniper")
	require.NoError(t, err)
	assert.Equal(t, int64(16000000), idr)

	idr, err = c.ToIDR(decimal.NewFromInt(1000), "USD", "cisco")
	require.NoError(t, err)
	assert.Equal(t, int64(8000000), idr)

	idr, err = c.ToIDR(decimal.RequireFromString("0.03"), "USD", "Juniper")
	require.NoError(t, err)
	assert.Equal(t, int64(480), idr)
}

func TestToIDRErrors(t *testing.T) {
	c := NewConverter(16000, nil)

	_, err := c.ToIDR(decimal.NewFromInt(-1), "IDR", "")
	assert.Error(t, err)

	_, err = c.ToIDR(decimal.NewFromInt(1), "EUR", "")
	assert.Error(t, err)
}

func TestDefaultRate(t *testing.T) {
	c := NewConverter(0, nil)
	assert.True(t, c.Rate().Equal(DefaultUSDRate))
}
