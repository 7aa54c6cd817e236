package types

import "github.com/gagliardetto/solana-go"

// Pubkey identifies an account or program.
type Pubkey = solana.PublicKey

// AccountMeta names an account an instruction touches and the privileges the
// caller requests for it.
type AccountMeta struct {
	Pubkey     Pubkey
	IsSigner   bool
	IsWritable bool
}

// AccountInfo is the handle a program receives for each account of an
// instruction. IsSigner is only true when the host verified a signature (or
// the signer privilege was inherited from the calling program).
type AccountInfo struct {
	Key        Pubkey
	IsSigner   bool
	IsWritable bool
}

// TokenAccount holds a balance of one mint.
type TokenAccount struct {
	Address Pubkey
	Mint    Pubkey
	Owner   Pubkey
	Amount  uint64
}
