// Package money does exact arithmetic on minor currency units.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

const (
	// RoundingStep is 100 major units expressed in minor units.
	RoundingStep int64 = 100_00

	// MaxAmount is the largest amount in minor units accepted from the
	// generation backend, one billion major units.
	MaxAmount int64 = 1_000_000_000_00
)

// ErrOverflow is returned when a rounded amount does not fit in int64.
var ErrOverflow = errors.New("amount out of range")

// Triple is an unrounded three-point amount in minor units.
type Triple struct {
	Min *big.Rat
	Mid *big.Rat
	Max *big.Rat
}

// Ordered reports whether all bounds are set and Min <= Mid <= Max.
func (t Triple) Ordered() bool {
	if t.Min == nil || t.Mid == nil || t.Max == nil {
		return false
	}
	return t.Min.Cmp(t.Mid) <= 0 && t.Mid.Cmp(t.Max) <= 0
}

// NewTriple builds a Triple from integer minor units.
func NewTriple(lo, mid, hi int64) Triple {
	return Triple{Min: big.NewRat(lo, 1), Mid: big.NewRat(mid, 1), Max: big.NewRat(hi, 1)}
}

// Scale multiplies every bound by f.
func (t Triple) Scale(f *big.Rat) Triple {
	return Triple{
		Min: new(big.Rat).Mul(t.Min, f),
		Mid: new(big.Rat).Mul(t.Mid, f),
		Max: new(big.Rat).Mul(t.Max, f),
	}
}

// FromNumber parses a JSON number exactly.
func FromNumber(n json.Number) (*big.Rat, error) {
	r, ok := new(big.Rat).SetString(n.String())
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", n.String())
	}
	return r, nil
}

// RoundTo rounds r to the nearest multiple of step, ties away from zero.
// It fails with ErrOverflow instead of wrapping around.
func RoundTo(r *big.Rat, step int64) (int64, error) {
	if step <= 0 {
		step = 1
	}
	q := new(big.Rat).Quo(r, big.NewRat(step, 1))

	num := new(big.Int).Set(q.Num())
	den := q.Denom()
	neg := num.Sign() < 0
	if neg {
		num.Neg(num)
	}

	// floor(|q| + 1/2) == (2*|num| + den) / (2*den)
	twice := new(big.Int).Lsh(num, 1)
	twice.Add(twice, den)
	n := new(big.Int).Quo(twice, new(big.Int).Lsh(den, 1))
	if neg {
		n.Neg(n)
	}
	n.Mul(n, big.NewInt(step))
	if !n.IsInt64() {
		return 0, fmt.Errorf("%w: %s", ErrOverflow, r.FloatString(0))
	}
	return n.Int64(), nil
}

// ToMinor rounds r to whole minor units.
func ToMinor(r *big.Rat) (int64, error) {
	return RoundTo(r, 1)
}
