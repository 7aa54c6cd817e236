package wallet

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/chronodrachma/flashlend/pkg/core/types"
)

var ErrInvalidKey = errors.New("invalid private key length")

// GenerateKeyPair generates a new Ed25519 keypair.
func GenerateKeyPair() (solana.PrivateKey, error) {
	return solana.NewRandomPrivateKey()
}

// SaveKey writes the private key to filename in base58.
func SaveKey(filename string, key solana.PrivateKey) error {
	if len(key) != ed25519.PrivateKeySize {
		return ErrInvalidKey
	}
	return os.WriteFile(filename, []byte(key.String()+"\n"), 0600)
}

// LoadKey reads a private key written by SaveKey, or a solana-keygen JSON
// keypair file.
func LoadKey(filename string) (solana.PrivateKey, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		return solana.PrivateKeyFromSolanaKeygenFile(filename)
	}
	key, err := solana.PrivateKeyFromBase58(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("parse key %s: %w", filename, err)
	}
	if len(key) != ed25519.PrivateKeySize {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// SignTransaction adds key's signature to tx.
func SignTransaction(tx *types.Transaction, key solana.PrivateKey) error {
	if len(key) != ed25519.PrivateKeySize {
		return ErrInvalidKey
	}
	return tx.Sign(key)
}
