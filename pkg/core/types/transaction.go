package types

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var (
	ErrInvalidSignature = errors.New("invalid transaction signature")
	ErrUnexpectedSigner = errors.New("signature from account not marked as signer")
)

// Signature is one signer's approval of a transaction message.
type Signature struct {
	Signer    Pubkey
	Signature solana.Signature
}

// Transaction is an instruction together with the signatures that grant its
// signer accounts their privilege. Nonce makes otherwise identical
// instructions distinct messages; the host runs each message at most once.
type Transaction struct {
	Instruction Instruction
	Nonce       uint64
	Signatures  []Signature
}

// NewTransaction wraps ix with no signatures and a zero nonce.
func NewTransaction(ix Instruction) *Transaction {
	return &Transaction{Instruction: ix}
}

// Message returns the bytes every signer signs.
// Layout: Instruction.Serialize() || Nonce(u64 LE)
func (tx *Transaction) Message() ([]byte, error) {
	ix, err := tx.Instruction.Serialize()
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(ix)
	if err := bin.NewBinEncoder(buf).WriteUint64(tx.Nonce, bin.LE); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ID is the sha256 of the message. Two transactions share an ID exactly when
// their signers approved the same thing.
func (tx *Transaction) ID() (solana.Hash, error) {
	msg, err := tx.Message()
	if err != nil {
		return solana.Hash{}, err
	}
	return solana.Hash(sha256.Sum256(msg)), nil
}

// Sign appends a signature by key over the transaction message.
func (tx *Transaction) Sign(key solana.PrivateKey) error {
	msg, err := tx.Message()
	if err != nil {
		return err
	}
	sig, err := key.Sign(msg)
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	tx.Signatures = append(tx.Signatures, Signature{Signer: key.PublicKey(), Signature: sig})
	return nil
}

// VerifySignatures checks every signature and returns the set of verified
// signers. A signature from an account that the instruction does not mark as
// a signer is rejected.
func (tx *Transaction) VerifySignatures() (map[Pubkey]bool, error) {
	msg, err := tx.Message()
	if err != nil {
		return nil, err
	}
	wanted := make(map[Pubkey]bool, len(tx.Instruction.Accounts))
	for _, m := range tx.Instruction.Accounts {
		if m.IsSigner {
			wanted[m.Pubkey] = true
		}
	}
	signers := make(map[Pubkey]bool, len(tx.Signatures))
	for _, s := range tx.Signatures {
		if !wanted[s.Signer] {
			return nil, fmt.Errorf("%w: %s", ErrUnexpectedSigner, s.Signer)
		}
		if !s.Signature.Verify(s.Signer, msg) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSignature, s.Signer)
		}
		signers[s.Signer] = true
	}
	return signers, nil
}
