package token

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/chronodrachma/flashlend/pkg/core/types"
)

var (
	ErrInvalidInstruction          = errors.New("invalid token instruction")
	ErrUnsupportedTokenInstruction = errors.New("unsupported token instruction")
	ErrNotEnoughAccounts           = errors.New("not enough accounts for token instruction")
	ErrOwnerMismatch               = errors.New("authority does not own source account")
	ErrMissingSignature            = errors.New("authority did not sign")
	ErrAccountNotWritable          = errors.New("token account is not writable")
	ErrMintMismatch                = errors.New("source and destination mints differ")
	ErrInsufficientFunds           = errors.New("insufficient funds")
	ErrBalanceOverflow             = errors.New("destination balance overflow")
)

// AccountStore loads and saves token accounts within the current unit of work.
type AccountStore interface {
	GetAccount(addr types.Pubkey) (types.TokenAccount, error)
	PutAccount(acc types.TokenAccount) error
}

// Program is a minimal token program backed by an AccountStore. It executes
// SPL Token Transfer instructions with a single owner; multisig owners are not
// supported.
type Program struct {
	store AccountStore
	log   *log.Logger
}

// NewProgram returns a token program operating on store.
func NewProgram(store AccountStore, logger *log.Logger) *Program {
	return &Program{store: store, log: logger}
}

// Process decodes and executes one token instruction.
func (p *Program) Process(_ types.Pubkey, accounts []types.AccountInfo, data []byte) error {
	if len(accounts) < 3 {
		return ErrNotEnoughAccounts
	}
	metas := make([]types.AccountMeta, 0, len(accounts))
	for _, a := range accounts {
		metas = append(metas, types.AccountMeta{Pubkey: a.Key, IsSigner: a.IsSigner, IsWritable: a.IsWritable})
	}
	inst, err := token.DecodeInstruction(toSolanaMetas(metas), data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
	}
	transfer, ok := inst.Impl.(*token.Transfer)
	if !ok {
		return fmt.Errorf("%w: type %d", ErrUnsupportedTokenInstruction, inst.TypeID.Uint8())
	}
	if transfer.Amount == nil {
		return fmt.Errorf("%w: missing amount", ErrInvalidInstruction)
	}
	return p.transfer(accounts[0], accounts[1], accounts[2], *transfer.Amount)
}

func (p *Program) transfer(source, destination, owner types.AccountInfo, amount uint64) error {
	if !source.IsWritable || !destination.IsWritable {
		return ErrAccountNotWritable
	}
	src, err := p.store.GetAccount(source.Key)
	if err != nil {
		return err
	}
	dst, err := p.store.GetAccount(destination.Key)
	if err != nil {
		return err
	}
	if src.Owner != owner.Key {
		return ErrOwnerMismatch
	}
	if !owner.IsSigner {
		return ErrMissingSignature
	}
	if src.Mint != dst.Mint {
		return ErrMintMismatch
	}
	if src.Amount < amount {
		return ErrInsufficientFunds
	}
	if src.Address == dst.Address {
		return nil
	}
	if dst.Amount > ^uint64(0)-amount {
		return ErrBalanceOverflow
	}

	src.Amount -= amount
	dst.Amount += amount
	if err := p.store.PutAccount(src); err != nil {
		return err
	}
	if err := p.store.PutAccount(dst); err != nil {
		return err
	}

	p.log.Debug("token transfer", "source", src.Address, "destination", dst.Address, "amount", amount)
	return nil
}
