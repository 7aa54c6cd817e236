package fixedpoint

import "github.com/holiman/uint256"

// Decimal is a non-negative fixed-point number with 18 decimal places whose
// raw value may use up to 192 bits. It is the wide type used where chains of
// multiplications, such as compounding, would overflow a Rate.
type Decimal struct {
	raw uint256.Int
}

var _ Number[Decimal] = Decimal{}

func decimalOf(v *uint256.Int) Decimal {
	return Decimal{raw: *v}
}

// ZeroDecimal returns 0.
func ZeroDecimal() Decimal {
	return Decimal{}
}

// OneDecimal returns 1.
func OneDecimal() Decimal {
	return decimalOf(wad)
}

// NewDecimal converts a whole number into a Decimal. Any uint64 fits.
func NewDecimal(n uint64) Decimal {
	return decimalOf(new(uint256.Int).Mul(uint256.NewInt(n), wad))
}

// DecimalFromPercent returns p / 100.
func DecimalFromPercent(p uint8) Decimal {
	return decimalOf(new(uint256.Int).Mul(uint256.NewInt(uint64(p)), uint256.NewInt(PercentScaler)))
}

// DecimalFromRaw wraps an already scaled value.
func DecimalFromRaw(raw *uint256.Int) (Decimal, error) {
	v, err := bounded(raw, maxDecimalRaw)
	if err != nil {
		return Decimal{}, err
	}
	return decimalOf(v), nil
}

// DecimalFromRawUint64 wraps an already scaled uint64.
func DecimalFromRawUint64(raw uint64) Decimal {
	return decimalOf(uint256.NewInt(raw))
}

// MaxDecimal returns the largest representable Decimal.
func MaxDecimal() Decimal {
	return decimalOf(maxDecimalRaw)
}

// Raw returns a copy of the scaled value.
func (d Decimal) Raw() *uint256.Int {
	return d.raw.Clone()
}

func (d Decimal) TryAdd(rhs Decimal) (Decimal, error) {
	v, err := add(&d.raw, &rhs.raw, maxDecimalRaw)
	if err != nil {
		return Decimal{}, err
	}
	return decimalOf(v), nil
}

func (d Decimal) TrySub(rhs Decimal) (Decimal, error) {
	v, err := sub(&d.raw, &rhs.raw)
	if err != nil {
		return Decimal{}, err
	}
	return decimalOf(v), nil
}

// TryMul multiplies and rounds the rescaled product half up.
func (d Decimal) TryMul(rhs Decimal) (Decimal, error) {
	v, err := mulDiv(&d.raw, &rhs.raw, wad, halfWad, maxDecimalRaw)
	if err != nil {
		return Decimal{}, err
	}
	return decimalOf(v), nil
}

// TryMulRate multiplies by a Rate, widening it first.
func (d Decimal) TryMulRate(rhs Rate) (Decimal, error) {
	return d.TryMul(rhs.Decimal())
}

// TryDiv divides, rounding the quotient half up.
func (d Decimal) TryDiv(rhs Decimal) (Decimal, error) {
	if rhs.raw.IsZero() {
		return Decimal{}, ErrDivideByZero
	}
	half := new(uint256.Int).Rsh(&rhs.raw, 1)
	v, err := mulDiv(&d.raw, wad, &rhs.raw, half, maxDecimalRaw)
	if err != nil {
		return Decimal{}, err
	}
	return decimalOf(v), nil
}

// TryMulUint64 multiplies by a whole number without rescaling.
func (d Decimal) TryMulUint64(n uint64) (Decimal, error) {
	v, err := mulScalar(&d.raw, n, maxDecimalRaw)
	if err != nil {
		return Decimal{}, err
	}
	return decimalOf(v), nil
}

// TryDivUint64 divides by a whole number, truncating.
func (d Decimal) TryDivUint64(n uint64) (Decimal, error) {
	v, err := divScalar(&d.raw, n)
	if err != nil {
		return Decimal{}, err
	}
	return decimalOf(v), nil
}

// TryRate narrows d into a Rate.
func (d Decimal) TryRate() (Rate, error) {
	v, err := bounded(&d.raw, maxRateRaw)
	if err != nil {
		return Rate{}, err
	}
	return rateOf(v), nil
}

// TryFloorUint64 returns the integer part of d.
func (d Decimal) TryFloorUint64() (uint64, error) {
	return toUint64(&d.raw, new(uint256.Int))
}

// TryRoundUint64 returns d rounded half up to a whole number.
func (d Decimal) TryRoundUint64() (uint64, error) {
	return toUint64(&d.raw, halfWad)
}

// TryCeilUint64 returns the smallest whole number not below d.
func (d Decimal) TryCeilUint64() (uint64, error) {
	return toUint64(&d.raw, wadLess)
}

func (d Decimal) Cmp(rhs Decimal) int { return d.raw.Cmp(&rhs.raw) }
func (d Decimal) Eq(rhs Decimal) bool { return d.raw.Eq(&rhs.raw) }
func (d Decimal) Lt(rhs Decimal) bool { return d.raw.Lt(&rhs.raw) }
func (d Decimal) Gt(rhs Decimal) bool { return d.raw.Gt(&rhs.raw) }
func (d Decimal) IsZero() bool        { return d.raw.IsZero() }

// String renders d with all 18 fractional digits, e.g. "1.500000000000000000".
func (d Decimal) String() string {
	return formatScaled(&d.raw)
}
