package types

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Instruction is a single call into a program.
type Instruction struct {
	ProgramID Pubkey
	Accounts  []AccountMeta
	Data      []byte
}

// InstructionFromSolana copies a solana-go instruction.
func InstructionFromSolana(in solana.Instruction) (Instruction, error) {
	data, err := in.Data()
	if err != nil {
		return Instruction{}, fmt.Errorf("encode instruction data: %w", err)
	}
	metas := in.Accounts()
	ix := Instruction{
		ProgramID: in.ProgramID(),
		Accounts:  make([]AccountMeta, 0, len(metas)),
		Data:      data,
	}
	for _, m := range metas {
		ix.Accounts = append(ix.Accounts, AccountMeta{
			Pubkey:     m.PublicKey,
			IsSigner:   m.IsSigner,
			IsWritable: m.IsWritable,
		})
	}
	return ix, nil
}

// Serialize returns a deterministic encoding of the instruction, used as the
// signed message.
// Layout: ProgramID(32) || len(Accounts) || {Pubkey(32) Signer(1) Writable(1)}... || len(Data) || Data
func (ix *Instruction) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	enc := bin.NewBinEncoder(&buf)
	if err := enc.WriteBytes(ix.ProgramID[:], false); err != nil {
		return nil, err
	}
	if err := enc.WriteUint16(uint16(len(ix.Accounts)), bin.LE); err != nil {
		return nil, err
	}
	for _, m := range ix.Accounts {
		if err := enc.WriteBytes(m.Pubkey[:], false); err != nil {
			return nil, err
		}
		if err := enc.WriteBool(m.IsSigner); err != nil {
			return nil, err
		}
		if err := enc.WriteBool(m.IsWritable); err != nil {
			return nil, err
		}
	}
	if err := enc.WriteBytes(ix.Data, true); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
