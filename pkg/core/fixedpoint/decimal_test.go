package fixedpoint

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalAddCommutes(t *testing.T) {
	values := []Decimal{
		ZeroDecimal(),
		OneDecimal(),
		DecimalFromRawUint64(1),
		NewDecimal(42),
		DecimalFromPercent(7),
		NewDecimal(math.MaxUint64),
	}
	for _, a := range values {
		for _, b := range values {
			ab, err := a.TryAdd(b)
			require.NoError(t, err)
			ba, err := b.TryAdd(a)
			require.NoError(t, err)
			assert.True(t, ab.Eq(ba), "%s + %s", a, b)
		}
	}
}

func TestDecimalIntegerRoundTrip(t *testing.T) {
	for _, n := range []uint64{0, 1, 42, 1_000_000, math.MaxUint64} {
		got, err := NewDecimal(n).TryFloorUint64()
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}

func TestDecimalOverflow(t *testing.T) {
	_, err := MaxDecimal().TryMul(NewDecimal(2))
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = MaxDecimal().TryAdd(DecimalFromRawUint64(1))
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = MaxDecimal().TryMulUint64(2)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = MaxDecimal().TryDiv(DecimalFromRawUint64(WAD / 2))
	assert.ErrorIs(t, err, ErrOverflow)

	tooWide := new(uint256.Int).Lsh(uint256.NewInt(1), 192)
	_, err = DecimalFromRaw(tooWide)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestDecimalUnderflow(t *testing.T) {
	_, err := OneDecimal().TrySub(NewDecimal(2))
	assert.ErrorIs(t, err, ErrUnderflow)

	got, err := NewDecimal(2).TrySub(OneDecimal())
	require.NoError(t, err)
	assert.True(t, got.Eq(OneDecimal()))
}

func TestDecimalDivideByZero(t *testing.T) {
	for _, a := range []Decimal{ZeroDecimal(), OneDecimal(), MaxDecimal()} {
		_, err := a.TryDiv(ZeroDecimal())
		assert.ErrorIs(t, err, ErrDivideByZero)
	}
	_, err := OneDecimal().TryDivUint64(0)
	assert.ErrorIs(t, err, ErrDivideByZero)
}

func TestDecimalMulRoundsHalfUp(t *testing.T) {
	tests := []struct {
		a, b uint64
		want uint64
	}{
		{1, HalfWAD, 1},                // 0.5 raw units rounds up
		{1, 4 * PercentScaler * 10, 0}, // 0.4 raw units rounds down
		{3, HalfWAD, 2},                // 1.5 raw units rounds up
		{WAD, WAD, WAD},
		{2 * WAD, 3 * WAD, 6 * WAD},
	}
	for _, tt := range tests {
		got, err := DecimalFromRawUint64(tt.a).TryMul(DecimalFromRawUint64(tt.b))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Raw().Uint64(), "%d * %d", tt.a, tt.b)
	}
}

func TestDecimalDivRounding(t *testing.T) {
	third, err := OneDecimal().TryDiv(NewDecimal(3))
	require.NoError(t, err)
	assert.Equal(t, "0.333333333333333333", third.String())

	twoThirds, err := NewDecimal(2).TryDiv(NewDecimal(3))
	require.NoError(t, err)
	assert.Equal(t, "0.666666666666666667", twoThirds.String())
}

func TestDecimalMulDivInverse(t *testing.T) {
	as := []Decimal{
		DecimalFromRawUint64(1),
		DecimalFromRawUint64(123_456_789),
		NewDecimal(7),
		DecimalFromPercent(33),
		NewDecimal(math.MaxUint64),
	}
	bs := []Decimal{
		OneDecimal(),
		DecimalFromRawUint64(2*WAD + HalfWAD),
		NewDecimal(3),
		DecimalFromRawUint64(7*WAD + 123),
	}
	for _, a := range as {
		for _, b := range bs {
			m, err := a.TryMul(b)
			require.NoError(t, err)
			back, err := m.TryDiv(b)
			require.NoError(t, err)

			diff := new(uint256.Int)
			if back.Gt(a) {
				diff.Sub(back.Raw(), a.Raw())
			} else {
				diff.Sub(a.Raw(), back.Raw())
			}
			assert.True(t, diff.Cmp(uint256.NewInt(1)) <= 0, "(%s * %s) / %s = %s", a, b, b, back)
		}
	}
}

func TestDecimalToInteger(t *testing.T) {
	tests := []struct {
		raw                uint64
		floor, round, ceil uint64
	}{
		{0, 0, 0, 0},
		{WAD + HalfWAD, 1, 2, 2},
		{WAD + HalfWAD - 1, 1, 1, 2},
		{2 * WAD, 2, 2, 2},
		{1, 0, 0, 1},
	}
	for _, tt := range tests {
		d := DecimalFromRawUint64(tt.raw)
		floor, err := d.TryFloorUint64()
		require.NoError(t, err)
		round, err := d.TryRoundUint64()
		require.NoError(t, err)
		ceil, err := d.TryCeilUint64()
		require.NoError(t, err)
		assert.Equal(t, tt.floor, floor, "floor(%s)", d)
		assert.Equal(t, tt.round, round, "round(%s)", d)
		assert.Equal(t, tt.ceil, ceil, "ceil(%s)", d)
	}

	over, err := NewDecimal(math.MaxUint64).TryAdd(DecimalFromRawUint64(1))
	require.NoError(t, err)
	_, err = over.TryCeilUint64()
	assert.ErrorIs(t, err, ErrOverflow)
	floor, err := over.TryFloorUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), floor)
}

func TestDecimalNarrowing(t *testing.T) {
	r, err := DecimalFromPercent(5).TryRate()
	require.NoError(t, err)
	assert.True(t, r.Eq(RateFromPercent(5)))

	big, err := NewDecimal(math.MaxUint64).TryMulUint64(100)
	require.NoError(t, err)
	_, err = big.TryRate()
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestDecimalImmutable(t *testing.T) {
	a := NewDecimal(5)
	b := NewDecimal(3)
	_, err := a.TryAdd(b)
	require.NoError(t, err)
	_, err = a.TryMul(b)
	require.NoError(t, err)

	raw := a.Raw()
	raw.SetUint64(0)

	assert.True(t, a.Eq(NewDecimal(5)))
	assert.True(t, b.Eq(NewDecimal(3)))
}

func TestDecimalString(t *testing.T) {
	assert.Equal(t, "0.000000000000000000", ZeroDecimal().String())
	assert.Equal(t, "0.050000000000000000", DecimalFromPercent(5).String())
	assert.Equal(t, "12.000000000000000000", NewDecimal(12).String())
	assert.Equal(t, "0.000000000000000001", DecimalFromRawUint64(1).String())
}

func TestSum(t *testing.T) {
	got, err := Sum(ZeroDecimal(), NewDecimal(1), NewDecimal(2), DecimalFromPercent(50))
	require.NoError(t, err)
	assert.Equal(t, "3.500000000000000000", got.String())

	_, err = Sum(ZeroRate(), MaxRate(), RateFromRawUint64(1))
	assert.ErrorIs(t, err, ErrOverflow)
}
