package processor

import (
	"errors"

	"github.com/charmbracelet/log"
	bin "github.com/gagliardetto/binary"

	"github.com/chronodrachma/flashlend/pkg/core/types"
	"github.com/chronodrachma/flashlend/pkg/token"
)

// Processor is the flash loan receiver: it repays a loan by issuing a single
// token transfer. It keeps no state between calls.
type Processor struct {
	transfer token.Transferer
	log      *log.Logger
}

// New returns a Processor that submits transfers to t.
func New(t token.Transferer, logger *log.Logger) *Processor {
	return &Processor{transfer: t, log: logger}
}

// Process validates accounts and data and repays the loan.
//
// Accounts are resolved before any byte of data is read, so a short account
// list fails with ErrMissingAccount whatever the data holds.
func (p *Processor) Process(programID types.Pubkey, accounts []types.AccountInfo, data []byte) error {
	p.log.Debug("flash loan receiver invoked", "program", programID)

	set, err := ResolveAccounts(accounts)
	if err != nil {
		return err
	}

	dec := bin.NewBinDecoder(data)
	if _, err := decodeTag(dec); err != nil {
		if errors.Is(err, ErrUnsupportedInstruction) {
			p.log.Warn("tag must be 0", "tag", data[0])
		}
		return err
	}
	amount, err := decodeAmount(dec)
	if err != nil {
		p.log.Warn("failed to unpack amount")
		return err
	}

	req := token.TransferRequest{
		Program:     set.TokenProgram.Key,
		Source:      set.Source.Key,
		Destination: set.Destination.Key,
		Authority:   set.TransferAuthority.Key,
		Amount:      amount,
	}
	if err := p.transfer.Transfer(req); err != nil {
		return &InvocationError{Program: req.Program, Err: err}
	}
	return nil
}

// Entrypoint runs Process and logs the error kind of a failure. The error is
// returned unchanged.
func (p *Processor) Entrypoint(programID types.Pubkey, accounts []types.AccountInfo, data []byte) error {
	if err := p.Process(programID, accounts, data); err != nil {
		p.log.Error("instruction failed", "kind", KindOf(err), "err", err)
		return err
	}
	return nil
}
