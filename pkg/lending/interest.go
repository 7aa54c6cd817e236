package lending

import (
	"github.com/chronodrachma/flashlend/pkg/core/fixedpoint"
)

// SlotsPerYear assumes 2.5 slots per second (160 ticks/s, 64 ticks/slot).
const SlotsPerYear uint64 = 78_840_000

// SlotRate converts an annual borrow rate to a per-slot rate.
func SlotRate(annual fixedpoint.Rate) (fixedpoint.Rate, error) {
	return annual.TryDivUint64(SlotsPerYear)
}

// CompoundInterest grows borrowed by the annual rate compounded once per slot
// over slots.
func CompoundInterest(borrowed fixedpoint.Decimal, annual fixedpoint.Rate, slots uint64) (fixedpoint.Decimal, error) {
	perSlot, err := SlotRate(annual)
	if err != nil {
		return fixedpoint.Decimal{}, err
	}
	growth, err := fixedpoint.OneRate().TryAdd(perSlot)
	if err != nil {
		return fixedpoint.Decimal{}, err
	}
	compounded, err := growth.TryPow(slots)
	if err != nil {
		return fixedpoint.Decimal{}, err
	}
	return borrowed.TryMulRate(compounded)
}
