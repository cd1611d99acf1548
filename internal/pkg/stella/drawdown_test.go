package stella

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrawdownMonthlyFirst(t *testing.T) {
	tests := []struct {
		name        string
		monthly     int64
		topup       int64
		amount      int64
		wantMonthly int64
		wantTopup   int64
	}{
		{"monthly covers all", 100, 50, 30, 70, 50},
		{"exact monthly", 30, 50, 30, 0, 50},
		{"spills into topup", 20, 50, 30, 0, 40},
		{"monthly empty", 0, 50, 30, 0, 20},
		{"drains both", 20, 10, 30, 0, 0},
		{"zero amount", 20, 10, 0, 20, 10},
		{"negative treated as zero", 20, 10, -5, 20, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMonthly, gotTopup, err := Drawdown(tt.monthly, tt.topup, tt.amount)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantMonthly, gotMonthly)
			assert.Equal(t, tt.wantTopup, gotTopup)
		})
	}
}

func TestDrawdownInsufficientFunds(t *testing.T) {
	monthly, topup, err := Drawdown(10, 5, 16)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	// Balances come back untouched.
	assert.Equal(t, int64(10), monthly)
	assert.Equal(t, int64(5), topup)
}

func TestDrawdownSplit(t *testing.T) {
	monthlySpend, topupSpend, err := DrawdownSplit(20, 50, 30)
	assert.NoError(t, err)
	assert.Equal(t, int64(20), monthlySpend)
	assert.Equal(t, int64(10), topupSpend)

	_, _, err = DrawdownSplit(1, 1, 3)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestDrawdownConservation(t *testing.T) {
	// Whatever the split, spent amounts sum to the requested amount and no
	// bucket goes negative.
	for monthly := int64(0); monthly <= 40; monthly += 10 {
		for topup := int64(0); topup <= 40; topup += 10 {
			for amount := int64(0); amount <= monthly+topup; amount += 5 {
				newMonthly, newTopup, err := Drawdown(monthly, topup, amount)
				assert.NoError(t, err)
				assert.GreaterOrEqual(t, newMonthly, int64(0))
				assert.GreaterOrEqual(t, newTopup, int64(0))
				assert.Equal(t, amount, (monthly-newMonthly)+(topup-newTopup))
			}
		}
	}
}
