package ledger

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/gagliardetto/solana-go"

	"github.com/chronodrachma/flashlend/pkg/core/types"
)

var (
	ErrAccountNotFound = errors.New("account not found in ledger")
	ErrReceiptNotFound = errors.New("receipt not found in ledger")
	ErrAlreadyExecuted = errors.New("transaction already executed")
)

// Keys:
// Token account: "account:<base58 address>" -> gob TokenAccount
// Receipt:       "receipt:<base58 id>"      -> gob Receipt
// Executed:      "executed:<base58 tx id>"  -> empty marker
// Sequence:      "host:seq"                 -> uint64 big endian
var seqKey = []byte("host:seq")

func executedKey(id solana.Hash) []byte {
	return []byte("executed:" + id.String())
}

func accountKey(addr types.Pubkey) []byte {
	return []byte("account:" + addr.String())
}

func receiptKey(id solana.Hash) []byte {
	return []byte("receipt:" + id.String())
}

// BadgerStore persists token accounts and receipts in BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore creates or opens a BadgerDB store at the given path.
// If path is empty, it opens an in-memory store (for testing).
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Update runs fn in a single read-write transaction. If fn returns an error
// nothing it wrote is kept.
func (s *BadgerStore) Update(fn func(txn *Txn) error) error {
	return s.db.Update(func(btxn *badger.Txn) error {
		return fn(&Txn{txn: btxn})
	})
}

// View runs fn in a read-only transaction.
func (s *BadgerStore) View(fn func(txn *Txn) error) error {
	return s.db.View(func(btxn *badger.Txn) error {
		return fn(&Txn{txn: btxn})
	})
}

func (s *BadgerStore) GetAccount(addr types.Pubkey) (types.TokenAccount, error) {
	var acc types.TokenAccount
	err := s.View(func(txn *Txn) error {
		var err error
		acc, err = txn.GetAccount(addr)
		return err
	})
	return acc, err
}

func (s *BadgerStore) PutAccount(acc types.TokenAccount) error {
	return s.Update(func(txn *Txn) error {
		return txn.PutAccount(acc)
	})
}

func (s *BadgerStore) GetReceipt(id solana.Hash) (*types.Receipt, error) {
	var r *types.Receipt
	err := s.View(func(txn *Txn) error {
		var err error
		r, err = txn.GetReceipt(id)
		return err
	})
	return r, err
}

func (s *BadgerStore) SaveReceipt(r *types.Receipt) error {
	return s.Update(func(txn *Txn) error {
		return txn.SaveReceipt(r)
	})
}

// Txn is a view of the ledger inside one badger transaction.
type Txn struct {
	txn *badger.Txn
}

func (t *Txn) GetAccount(addr types.Pubkey) (types.TokenAccount, error) {
	var acc types.TokenAccount
	err := t.get(accountKey(addr), &acc)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return acc, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	return acc, err
}

func (t *Txn) PutAccount(acc types.TokenAccount) error {
	return t.set(accountKey(acc.Address), acc)
}

func (t *Txn) GetReceipt(id solana.Hash) (*types.Receipt, error) {
	var r types.Receipt
	err := t.get(receiptKey(id), &r)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrReceiptNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (t *Txn) SaveReceipt(r *types.Receipt) error {
	return t.set(receiptKey(r.ID), r)
}

// MarkExecuted records that the transaction id has run. It fails with
// ErrAlreadyExecuted if it was recorded before.
func (t *Txn) MarkExecuted(id solana.Hash) error {
	key := executedKey(id)
	_, err := t.txn.Get(key)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrAlreadyExecuted, id)
	case !errors.Is(err, badger.ErrKeyNotFound):
		return err
	}
	return t.txn.Set(key, []byte{})
}

// NextSequence increments and returns the host sequence counter.
func (t *Txn) NextSequence() (uint64, error) {
	var seq uint64
	item, err := t.txn.Get(seqKey)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return 0, err
	default:
		if err := item.Value(func(val []byte) error {
			seq = binary.BigEndian.Uint64(val)
			return nil
		}); err != nil {
			return 0, err
		}
	}
	seq++
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	return seq, t.txn.Set(seqKey, buf[:])
}

func (t *Txn) get(key []byte, v any) error {
	item, err := t.txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return gob.NewDecoder(bytes.NewReader(val)).Decode(v)
	})
}

func (t *Txn) set(key []byte, v any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return err
	}
	return t.txn.Set(key, buf.Bytes())
}
