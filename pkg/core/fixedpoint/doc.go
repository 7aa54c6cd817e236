// Package fixedpoint implements overflow-checked, non-negative fixed-point
// arithmetic with 18 decimal places.
//
// Decimal is the wide type (192-bit raw values) used for compounding and
// account values; Rate is the narrow type (128-bit raw values) used for fees
// and interest rates. Both satisfy Number and never wrap: an operation that
// cannot be represented returns ErrOverflow, ErrUnderflow or ErrDivideByZero.
package fixedpoint
