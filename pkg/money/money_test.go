package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"no rounding needed", 100.0, 100.0},
		{"round down", 1.234, 1.23},
		{"round half up", 1.235, 1.24},
		{"round up", 1.236, 1.24},
		{"large amount", 120000.005, 120000.01},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Round2(tt.in), 1e-9)
		})
	}
}

func TestFormat_KnownCurrency(t *testing.T) {
	got := Format(234.5, "usd")
	assert.Contains(t, got, "234.50")
}

func TestFormat_UnknownCurrencyFallsBack(t *testing.T) {
	assert.Equal(t, "XYZ 45.00", Format(45, "xyz"))
	assert.Equal(t, "?? 45.00", Format(45, "??"))
}
