package fixedpoint

import "github.com/holiman/uint256"

// Rate is a non-negative fixed-point number with 18 decimal places whose raw
// value fits in 128 bits. Use it for single-step ratios such as fee and
// interest percentages.
type Rate struct {
	raw uint256.Int
}

var _ Number[Rate] = Rate{}

func rateOf(v *uint256.Int) Rate {
	return Rate{raw: *v}
}

// ZeroRate returns 0.
func ZeroRate() Rate {
	return Rate{}
}

// OneRate returns 1.
func OneRate() Rate {
	return rateOf(wad)
}

// NewRate converts a whole number into a Rate. Any uint64 fits in 128 bits
// once scaled.
func NewRate(n uint64) Rate {
	return rateOf(new(uint256.Int).Mul(uint256.NewInt(n), wad))
}

// RateFromPercent returns p / 100.
func RateFromPercent(p uint8) Rate {
	return rateOf(new(uint256.Int).Mul(uint256.NewInt(uint64(p)), uint256.NewInt(PercentScaler)))
}

// RateFromRaw wraps an already scaled value.
func RateFromRaw(raw *uint256.Int) (Rate, error) {
	v, err := bounded(raw, maxRateRaw)
	if err != nil {
		return Rate{}, err
	}
	return rateOf(v), nil
}

// RateFromRawUint64 wraps an already scaled uint64, such as a fee stored in WADs.
func RateFromRawUint64(raw uint64) Rate {
	return rateOf(uint256.NewInt(raw))
}

// MaxRate returns the largest representable Rate.
func MaxRate() Rate {
	return rateOf(maxRateRaw)
}

// Raw returns a copy of the scaled value.
func (r Rate) Raw() *uint256.Int {
	return r.raw.Clone()
}

// Decimal widens r. It cannot fail.
func (r Rate) Decimal() Decimal {
	return decimalOf(&r.raw)
}

// TryAdd fails with ErrOverflow past the 128-bit bound.
func (r Rate) TryAdd(rhs Rate) (Rate, error) {
	v, err := add(&r.raw, &rhs.raw, maxRateRaw)
	if err != nil {
		return Rate{}, err
	}
	return rateOf(v), nil
}

// TrySub fails with ErrUnderflow when rhs exceeds r.
func (r Rate) TrySub(rhs Rate) (Rate, error) {
	v, err := sub(&r.raw, &rhs.raw)
	if err != nil {
		return Rate{}, err
	}
	return rateOf(v), nil
}

// TryMul multiplies and rounds the rescaled product half up.
func (r Rate) TryMul(rhs Rate) (Rate, error) {
	v, err := mulDiv(&r.raw, &rhs.raw, wad, halfWad, maxRateRaw)
	if err != nil {
		return Rate{}, err
	}
	return rateOf(v), nil
}

// TryDiv divides, rounding the quotient half up.
func (r Rate) TryDiv(rhs Rate) (Rate, error) {
	if rhs.raw.IsZero() {
		return Rate{}, ErrDivideByZero
	}
	half := new(uint256.Int).Rsh(&rhs.raw, 1)
	v, err := mulDiv(&r.raw, wad, &rhs.raw, half, maxRateRaw)
	if err != nil {
		return Rate{}, err
	}
	return rateOf(v), nil
}

// TryMulUint64 multiplies by a whole number without rescaling.
func (r Rate) TryMulUint64(n uint64) (Rate, error) {
	v, err := mulScalar(&r.raw, n, maxRateRaw)
	if err != nil {
		return Rate{}, err
	}
	return rateOf(v), nil
}

// TryDivUint64 divides by a whole number, truncating.
func (r Rate) TryDivUint64(n uint64) (Rate, error) {
	v, err := divScalar(&r.raw, n)
	if err != nil {
		return Rate{}, err
	}
	return rateOf(v), nil
}

// TryPow raises r to exp by repeated squaring.
func (r Rate) TryPow(exp uint64) (Rate, error) {
	base := r
	result := OneRate()
	if exp%2 != 0 {
		result = base
	}
	var err error
	for exp /= 2; exp > 0; exp /= 2 {
		if base, err = base.TryMul(base); err != nil {
			return Rate{}, err
		}
		if exp%2 != 0 {
			if result, err = result.TryMul(base); err != nil {
				return Rate{}, err
			}
		}
	}
	return result, nil
}

// TryFloorUint64 returns the integer part of r.
func (r Rate) TryFloorUint64() (uint64, error) {
	return toUint64(&r.raw, new(uint256.Int))
}

// TryRoundUint64 returns r rounded half up to a whole number.
func (r Rate) TryRoundUint64() (uint64, error) {
	return toUint64(&r.raw, halfWad)
}

// TryCeilUint64 returns the smallest whole number not below r.
func (r Rate) TryCeilUint64() (uint64, error) {
	return toUint64(&r.raw, wadLess)
}

// Cmp returns -1, 0 or 1 as r is below, equal to or above rhs.
func (r Rate) Cmp(rhs Rate) int { return r.raw.Cmp(&rhs.raw) }
func (r Rate) Eq(rhs Rate) bool { return r.raw.Eq(&rhs.raw) }
func (r Rate) Lt(rhs Rate) bool { return r.raw.Lt(&rhs.raw) }
func (r Rate) Gt(rhs Rate) bool { return r.raw.Gt(&rhs.raw) }
func (r Rate) IsZero() bool     { return r.raw.IsZero() }

// String renders r with all 18 fractional digits.
func (r Rate) String() string {
	return formatScaled(&r.raw)
}
