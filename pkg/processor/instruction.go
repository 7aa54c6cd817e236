package processor

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// RepayTag is the only defined instruction variant.
const RepayTag uint8 = 0

// RepayInstruction asks the receiver to return Amount tokens.
// Wire layout: Tag(1) || Amount(8, little endian). Trailing bytes are ignored.
type RepayInstruction struct {
	Tag    uint8
	Amount uint64
}

// NewRepayInstruction returns a repay instruction for amount.
func NewRepayInstruction(amount uint64) RepayInstruction {
	return RepayInstruction{Tag: RepayTag, Amount: amount}
}

// UnpackRepayInstruction decodes data.
func UnpackRepayInstruction(data []byte) (RepayInstruction, error) {
	dec := bin.NewBinDecoder(data)
	tag, err := decodeTag(dec)
	if err != nil {
		return RepayInstruction{}, err
	}
	amount, err := decodeAmount(dec)
	if err != nil {
		return RepayInstruction{}, err
	}
	return RepayInstruction{Tag: tag, Amount: amount}, nil
}

func decodeTag(dec *bin.Decoder) (uint8, error) {
	tag, err := dec.ReadUint8()
	if err != nil {
		return 0, fmt.Errorf("%w: empty instruction data", ErrMalformedInstruction)
	}
	if tag != RepayTag {
		return tag, fmt.Errorf("%w: tag %d", ErrUnsupportedInstruction, tag)
	}
	return tag, nil
}

func decodeAmount(dec *bin.Decoder) (uint64, error) {
	amount, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return 0, fmt.Errorf("%w: amount needs 8 bytes, have %d", ErrMalformedInstruction, dec.Remaining())
	}
	return amount, nil
}

// Pack encodes the instruction in its wire layout.
func (ix RepayInstruction) Pack() []byte {
	var buf bytes.Buffer
	enc := bin.NewBinEncoder(&buf)
	// Writes to a bytes.Buffer cannot fail.
	_ = enc.WriteUint8(ix.Tag)
	_ = enc.WriteUint64(ix.Amount, bin.LE)
	return buf.Bytes()
}
