package processor

import (
	"errors"
	"fmt"

	"github.com/chronodrachma/flashlend/pkg/core/fixedpoint"
	"github.com/chronodrachma/flashlend/pkg/core/types"
)

var (
	ErrMalformedInstruction   = errors.New("malformed instruction")
	ErrUnsupportedInstruction = errors.New("unsupported instruction")
	ErrMissingAccount         = errors.New("missing account")
)

// InvocationError carries the error returned by the token-transfer
// capability. The inner error is kept as is and reachable with errors.Is/As.
type InvocationError struct {
	Program types.Pubkey
	Err     error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invocation of %s failed: %v", e.Program, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// ErrorKind is the category a processing failure belongs to.
type ErrorKind uint8

const (
	KindUnknown ErrorKind = iota
	KindInstructionDecode
	KindAccountResolution
	KindArithmetic
	KindExternalInvocation
)

func (k ErrorKind) String() string {
	switch k {
	case KindInstructionDecode:
		return "InstructionDecodeError"
	case KindAccountResolution:
		return "AccountResolutionError"
	case KindArithmetic:
		return "ArithmeticError"
	case KindExternalInvocation:
		return "ExternalInvocationFailure"
	default:
		return "UnknownError"
	}
}

// KindOf classifies err. An invocation failure is reported as such even when
// the capability's own error would classify differently.
func KindOf(err error) ErrorKind {
	var ie *InvocationError
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &ie):
		return KindExternalInvocation
	case errors.Is(err, ErrMalformedInstruction), errors.Is(err, ErrUnsupportedInstruction):
		return KindInstructionDecode
	case errors.Is(err, ErrMissingAccount):
		return KindAccountResolution
	case errors.Is(err, fixedpoint.ErrOverflow),
		errors.Is(err, fixedpoint.ErrUnderflow),
		errors.Is(err, fixedpoint.ErrDivideByZero):
		return KindArithmetic
	default:
		return KindUnknown
	}
}
