package token

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/chronodrachma/flashlend/pkg/core/types"
)

// TransferRequest asks a token program to move Amount units from Source to
// Destination on the authority's approval.
type TransferRequest struct {
	Program     types.Pubkey
	Source      types.Pubkey
	Destination types.Pubkey
	Authority   types.Pubkey
	Signers     []types.Pubkey // multisig co-signers, usually empty
	Amount      uint64
}

// Transferer is the token-transfer capability a program holds. The call is
// synchronous; its error is opaque to the caller.
type Transferer interface {
	Transfer(req TransferRequest) error
}

// TransfererFunc adapts a function to Transferer.
type TransfererFunc func(req TransferRequest) error

func (f TransfererFunc) Transfer(req TransferRequest) error { return f(req) }

// Instruction encodes req as an SPL Token Transfer instruction addressed to
// req.Program.
func (req TransferRequest) Instruction() (types.Instruction, error) {
	built, err := token.NewTransferInstruction(
		req.Amount,
		req.Source,
		req.Destination,
		req.Authority,
		req.Signers,
	).ValidateAndBuild()
	if err != nil {
		return types.Instruction{}, fmt.Errorf("build transfer instruction: %w", err)
	}
	ix, err := types.InstructionFromSolana(built)
	if err != nil {
		return types.Instruction{}, err
	}
	ix.ProgramID = req.Program
	return ix, nil
}

func toSolanaMetas(metas []types.AccountMeta) []*solana.AccountMeta {
	out := make([]*solana.AccountMeta, 0, len(metas))
	for _, m := range metas {
		out = append(out, solana.NewAccountMeta(m.Pubkey, m.IsWritable, m.IsSigner))
	}
	return out
}
