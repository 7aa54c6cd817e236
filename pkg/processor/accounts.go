package processor

import (
	"fmt"

	"github.com/chronodrachma/flashlend/pkg/core/types"
)

const (
	destinationIndex = iota
	sourceIndex
	tokenProgramIndex
	transferAuthorityIndex

	repayAccountCount
)

var accountNames = [repayAccountCount]string{
	"destination liquidity",
	"source liquidity",
	"token program",
	"transfer authority",
}

// AccountSet is the positional account list of a repay instruction.
// The accounts are taken as given: nothing checks that the authority controls
// Source or that Source and Destination hold the same mint.
type AccountSet struct {
	Destination       types.AccountInfo
	Source            types.AccountInfo
	TokenProgram      types.AccountInfo
	TransferAuthority types.AccountInfo
}

// ResolveAccounts reads the first four accounts in order. Extra accounts are
// ignored.
func ResolveAccounts(accounts []types.AccountInfo) (AccountSet, error) {
	if len(accounts) < repayAccountCount {
		return AccountSet{}, fmt.Errorf("%w: %s (got %d of %d accounts)",
			ErrMissingAccount, accountNames[len(accounts)], len(accounts), repayAccountCount)
	}
	return AccountSet{
		Destination:       accounts[destinationIndex],
		Source:            accounts[sourceIndex],
		TokenProgram:      accounts[tokenProgramIndex],
		TransferAuthority: accounts[transferAuthorityIndex],
	}, nil
}
