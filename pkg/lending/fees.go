package lending

import (
	"errors"

	"github.com/chronodrachma/flashlend/pkg/core/fixedpoint"
)

// ErrBorrowTooSmall rejects a loan whose fee would be at least the amount lent.
var ErrBorrowTooSmall = errors.New("borrow amount is too small to cover the flash loan fee")

// Fees are the flash loan fee parameters of a reserve.
type Fees struct {
	// FlashLoanFeeWad is the fee charged on the borrowed amount, in WADs
	// (WAD/20 is 5%).
	FlashLoanFeeWad uint64
	// HostFeePercentage is the share of the fee paid to the host, 0-100.
	HostFeePercentage uint8
}

// CalculateFlashLoanFees returns the total fee owed for borrowing amount and
// the host's part of it. A non-zero fee rate charges at least 1 token, or 2
// when a host fee applies so both sides receive something. A fee that reaches
// the borrowed amount fails with ErrBorrowTooSmall.
func (f Fees) CalculateFlashLoanFees(amount uint64) (total, host uint64, err error) {
	feeRate := fixedpoint.RateFromRawUint64(f.FlashLoanFeeWad)
	hostRate := fixedpoint.RateFromPercent(f.HostFeePercentage)
	if feeRate.IsZero() || amount == 0 {
		return 0, 0, nil
	}

	minimum := uint64(1)
	if !hostRate.IsZero() {
		minimum = 2
	}

	fee, err := fixedpoint.NewDecimal(amount).TryMulRate(feeRate)
	if err != nil {
		return 0, 0, err
	}
	if floor := fixedpoint.NewDecimal(minimum); fee.Lt(floor) {
		fee = floor
	}
	if !fee.Lt(fixedpoint.NewDecimal(amount)) {
		return 0, 0, ErrBorrowTooSmall
	}
	total, err = fee.TryRoundUint64()
	if err != nil {
		return 0, 0, err
	}

	if !hostRate.IsZero() {
		hostFee, err := fee.TryMulRate(hostRate)
		if err != nil {
			return 0, 0, err
		}
		if host, err = hostFee.TryRoundUint64(); err != nil {
			return 0, 0, err
		}
		host = max(host, 1)
	}
	return total, host, nil
}
