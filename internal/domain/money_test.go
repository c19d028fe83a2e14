package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoneyAddSub(t *testing.T) {
	a := NewMoney(125050, "TRY")
	b := NewMoney(4950, "TRY")

	assert.Equal(t, int64(130000), a.Add(b).Amount)
	assert.Equal(t, int64(120100), a.Sub(b).Amount)
	assert.Equal(t, "TRY", a.Add(b).Currency)

	// currency propagates from whichever side carries one
	assert.Equal(t, "TRY", Money{Amount: 10}.Add(b).Currency)
}

func TestMoneyMulVolume(t *testing.T) {
	tests := []struct {
		name        string
		unitPrice   int64
		volumeMilli int64
		want        int64
	}{
		{"whole litres", 2500, 4000, 10000},
		{"fractional litres", 1899, 2505, 4757}, // 18.99 * 2.505 = 47.56995
		{"half rounds up", 2, 250, 1},           // 0.02 * 0.250 = 0.005
		{"zero volume", 2500, 0, 0},
		{"zero price", 0, 5000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewMoney(tt.unitPrice, "TRY").MulVolume(tt.volumeMilli)
			assert.Equal(t, tt.want, got.Amount)
			assert.Equal(t, "TRY", got.Currency)
		})
	}
}

func TestMoneyAbsNegCmp(t *testing.T) {
	m := NewMoney(-5000, "TRY")

	assert.Equal(t, int64(5000), m.Abs().Amount)
	assert.Equal(t, int64(5000), m.Neg().Amount)
	assert.True(t, m.IsNegative())
	assert.False(t, m.IsZero())
	assert.True(t, NewMoney(0, "TRY").IsZero())

	assert.Equal(t, -1, m.Cmp(NewMoney(0, "TRY")))
	assert.Equal(t, 1, NewMoney(1, "TRY").Cmp(m))
	assert.Equal(t, 0, m.Cmp(NewMoney(-5000, "TRY")))
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "1250.50 TRY", NewMoney(125050, "TRY").String())
	assert.Equal(t, "-0.05 TRY", NewMoney(-5, "TRY").String())
	assert.Equal(t, "3.00", Money{Amount: 300}.String())
}
