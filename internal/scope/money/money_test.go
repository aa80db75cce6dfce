package money

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTo(t *testing.T) {
	tests := []struct {
		name     string
		value    *big.Rat
		expected int64
	}{
		{"exact multiple", big.NewRat(120000, 1), 120000},
		{"below half", big.NewRat(14999, 1), 10000},
		{"tie rounds up", big.NewRat(15000, 1), 20000},
		{"above half", big.NewRat(15001, 1), 20000},
		{"fraction 28000/3", big.NewRat(28000, 3), 10000},
		{"fraction 70000/3", big.NewRat(70000, 3), 20000},
		{"zero", big.NewRat(0, 1), 0},
		{"small job rounds to zero", big.NewRat(4999, 1), 0},
		{"negative tie away from zero", big.NewRat(-15000, 1), -20000},
		{"negative below half", big.NewRat(-14999, 1), -10000},
		{"large", big.NewRat(2600000, 3), 870000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RoundTo(tt.value, RoundingStep)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Zero(t, got%RoundingStep)
		})
	}
}

func TestToMinor(t *testing.T) {
	for value, expected := range map[*big.Rat]int64{
		big.NewRat(5, 2):  3,
		big.NewRat(7, 4):  2,
		big.NewRat(-5, 2): -3,
	} {
		got, err := ToMinor(value)
		require.NoError(t, err)
		assert.Equal(t, expected, got)
	}
}

func TestRoundTo_Overflow(t *testing.T) {
	huge, ok := new(big.Rat).SetString("10000000000000000000")
	require.True(t, ok)

	tests := []struct {
		name  string
		value *big.Rat
		step  int64
	}{
		{"quotient beyond int64", huge, RoundingStep},
		{"rounding up past int64", big.NewRat(math.MaxInt64, 1), RoundingStep},
		{"negative beyond int64", new(big.Rat).Neg(huge), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RoundTo(tt.value, tt.step)
			assert.ErrorIs(t, err, ErrOverflow)
		})
	}

	got, err := RoundTo(big.NewRat(MaxAmount, 1), RoundingStep)
	require.NoError(t, err)
	assert.Equal(t, MaxAmount, got)
}

func TestFromNumber(t *testing.T) {
	r, err := FromNumber(json.Number("750000.5"))
	require.NoError(t, err)
	assert.Zero(t, r.Cmp(big.NewRat(1500001, 2)))

	_, err = FromNumber(json.Number("abc"))
	assert.Error(t, err)
}

func TestTriple(t *testing.T) {
	tr := NewTriple(4000, 6000, 10000)
	assert.True(t, tr.Ordered())

	scaled := tr.Scale(big.NewRat(7, 3))
	assert.Zero(t, scaled.Min.Cmp(big.NewRat(28000, 3)))
	assert.Zero(t, scaled.Mid.Cmp(big.NewRat(14000, 1)))
	assert.True(t, scaled.Ordered())

	assert.False(t, NewTriple(3, 2, 1).Ordered())
	assert.False(t, Triple{Min: big.NewRat(1, 1)}.Ordered())
}
