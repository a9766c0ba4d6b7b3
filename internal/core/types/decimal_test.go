package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundMoney_HalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"49.994", "49.99"},
		{"0.005", "0.01"},
		{"0.015", "0.02"},
		{"0.025", "0.03"},
		{"10", "10"},
		{"304.955", "304.96"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := RoundMoney(MustMoney(tt.in))
			assert.True(t, got.Equal(MustMoney(tt.want)), "got %s", got)
		})
	}
}

func TestHasMoneyPrecision(t *testing.T) {
	assert.True(t, HasMoneyPrecision(MustMoney("149.99")))
	assert.True(t, HasMoneyPrecision(MustMoney("80")))
	assert.True(t, HasMoneyPrecision(MustMoney("1.500")))
	assert.False(t, HasMoneyPrecision(MustMoney("0.001")))
}

func TestSum(t *testing.T) {
	assert.True(t, Sum().IsZero())
	assert.True(t, Sum(MustMoney("149.99"), MustMoney("99.98")).Equal(MustMoney("249.97")))
}
