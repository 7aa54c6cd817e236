package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepayInstructionLayout(t *testing.T) {
	data := NewRepayInstruction(0x0807060504030201).Pack()
	assert.Equal(t, []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}, data)

	ix, err := UnpackRepayInstruction(data)
	require.NoError(t, err)
	assert.Equal(t, RepayInstruction{Tag: RepayTag, Amount: 0x0807060504030201}, ix)
}

func TestUnpackRepayInstructionErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", []byte{}, ErrMalformedInstruction},
		{"tag only", []byte{0x00}, ErrMalformedInstruction},
		{"seven amount bytes", []byte{0x00, 1, 2, 3, 4, 5, 6, 7}, ErrMalformedInstruction},
		{"unknown tag", []byte{0x02, 1, 2, 3, 4, 5, 6, 7, 8}, ErrUnsupportedInstruction},
		{"unknown tag without amount", []byte{0xff}, ErrUnsupportedInstruction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnpackRepayInstruction(tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
