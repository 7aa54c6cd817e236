package fixedpoint

import (
	"errors"
	"strings"

	"github.com/holiman/uint256"
)

// Scale is the number of decimal digits of precision carried by Decimal and Rate.
const Scale = 18

const (
	// WAD is 1.0 expressed in scaled units (10^18).
	WAD uint64 = 1_000_000_000_000_000_000
	// HalfWAD is 0.5 in scaled units. It is added before truncating
	// division so products round half up.
	HalfWAD uint64 = 500_000_000_000_000_000
	// PercentScaler is 1% in scaled units.
	PercentScaler uint64 = 10_000_000_000_000_000
)

var (
	ErrOverflow     = errors.New("fixedpoint: overflow")
	ErrUnderflow    = errors.New("fixedpoint: underflow")
	ErrDivideByZero = errors.New("fixedpoint: divide by zero")
)

// Number is the fallible arithmetic contract shared by Decimal and Rate.
// Every operation returns a new value; operands are never modified.
type Number[T any] interface {
	TryAdd(rhs T) (T, error)
	TrySub(rhs T) (T, error)
	TryMul(rhs T) (T, error)
	TryDiv(rhs T) (T, error)
}

// Sum adds values to zero in order, stopping at the first overflow.
func Sum[T Number[T]](zero T, values ...T) (T, error) {
	acc := zero
	for _, v := range values {
		next, err := acc.TryAdd(v)
		if err != nil {
			return zero, err
		}
		acc = next
	}
	return acc, nil
}

var (
	one     = uint256.NewInt(1)
	wad     = uint256.NewInt(WAD)
	halfWad = uint256.NewInt(HalfWAD)
	wadLess = uint256.NewInt(WAD - 1)

	// maxDecimalRaw is 2^192 - 1.
	maxDecimalRaw = new(uint256.Int).Sub(new(uint256.Int).Lsh(one, 192), one)
	// maxRateRaw is 2^128 - 1.
	maxRateRaw = new(uint256.Int).Sub(new(uint256.Int).Lsh(one, 128), one)
)

func bounded(v, max *uint256.Int) (*uint256.Int, error) {
	if v.Gt(max) {
		return nil, ErrOverflow
	}
	return v, nil
}

func add(a, b, max *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return bounded(sum, max)
}

func sub(a, b *uint256.Int) (*uint256.Int, error) {
	if b.Gt(a) {
		return nil, ErrUnderflow
	}
	return new(uint256.Int).Sub(a, b), nil
}

// mulDiv returns floor((x*y + half) / d). The product is formed at 512 bits
// so only the final quotient is range checked. half must be below d.
func mulDiv(x, y, d, half, max *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivideByZero
	}
	q, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, ErrOverflow
	}
	// The low 256 bits of x*y - q*d are exact since the true remainder is < d.
	rem := new(uint256.Int).Mul(x, y)
	rem.Sub(rem, new(uint256.Int).Mul(q, d))
	if !rem.Lt(new(uint256.Int).Sub(d, half)) {
		if _, overflow = q.AddOverflow(q, one); overflow {
			return nil, ErrOverflow
		}
	}
	return bounded(q, max)
}

func mulScalar(x *uint256.Int, n uint64, max *uint256.Int) (*uint256.Int, error) {
	p, overflow := new(uint256.Int).MulOverflow(x, uint256.NewInt(n))
	if overflow {
		return nil, ErrOverflow
	}
	return bounded(p, max)
}

func divScalar(x *uint256.Int, n uint64) (*uint256.Int, error) {
	if n == 0 {
		return nil, ErrDivideByZero
	}
	return new(uint256.Int).Div(x, uint256.NewInt(n)), nil
}

// toUint64 divides (x + bias) by WAD and narrows the integer part.
// x is bounded well below 2^256 - WAD so the addition cannot wrap.
func toUint64(x, bias *uint256.Int) (uint64, error) {
	v := new(uint256.Int).Add(x, bias)
	v.Div(v, wad)
	if !v.IsUint64() {
		return 0, ErrOverflow
	}
	return v.Uint64(), nil
}

func formatScaled(x *uint256.Int) string {
	digits := x.Dec()
	if len(digits) <= Scale {
		digits = strings.Repeat("0", Scale-len(digits)+1) + digits
	}
	cut := len(digits) - Scale
	return digits[:cut] + "." + digits[cut:]
}
