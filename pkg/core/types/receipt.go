package types

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Status records how an executed transaction ended.
type Status uint8

const (
	StatusCommitted  Status = 0
	StatusRolledBack Status = 1
)

func (s Status) String() string {
	switch s {
	case StatusCommitted:
		return "committed"
	case StatusRolledBack:
		return "rolled back"
	default:
		return "unknown"
	}
}

// Receipt is the host's record of one executed transaction.
type Receipt struct {
	ID      solana.Hash
	Seq     uint64
	Program Pubkey
	Signers []Pubkey
	Status  Status
	Error   string // empty when committed
}

// ComputeReceiptID hashes the transaction message together with the host
// sequence number at which it ran.
func ComputeReceiptID(message []byte, seq uint64) solana.Hash {
	h := sha256.New()
	h.Write(message)
	var seqBuf [8]byte
	binary.BigEndian.PutUint64(seqBuf[:], seq)
	h.Write(seqBuf[:])
	var id solana.Hash
	copy(id[:], h.Sum(nil))
	return id
}
