package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronodrachma/flashlend/pkg/core/types"
)

func mustNewTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := NewBadgerStore("") // In-memory
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAccountRoundTrip(t *testing.T) {
	store := mustNewTestStore(t)
	acc := types.TokenAccount{
		Address: types.Pubkey{0x01},
		Mint:    types.Pubkey{0x02},
		Owner:   types.Pubkey{0x03},
		Amount:  500,
	}
	require.NoError(t, store.PutAccount(acc))

	got, err := store.GetAccount(acc.Address)
	require.NoError(t, err)
	assert.Equal(t, acc, got)

	_, err = store.GetAccount(types.Pubkey{0x09})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestUpdateDiscardsOnError(t *testing.T) {
	store := mustNewTestStore(t)
	addr := types.Pubkey{0x01}
	require.NoError(t, store.PutAccount(types.TokenAccount{Address: addr, Amount: 10}))

	boom := errors.New("boom")
	err := store.Update(func(txn *Txn) error {
		if err := txn.PutAccount(types.TokenAccount{Address: addr, Amount: 0}); err != nil {
			return err
		}
		if err := txn.PutAccount(types.TokenAccount{Address: types.Pubkey{0x02}, Amount: 7}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.GetAccount(addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), got.Amount)
	_, err = store.GetAccount(types.Pubkey{0x02})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestNextSequence(t *testing.T) {
	store := mustNewTestStore(t)
	for want := uint64(1); want <= 3; want++ {
		var got uint64
		require.NoError(t, store.Update(func(txn *Txn) error {
			var err error
			got, err = txn.NextSequence()
			return err
		}))
		assert.Equal(t, want, got)
	}
}

func TestReceiptRoundTrip(t *testing.T) {
	store := mustNewTestStore(t)
	r := &types.Receipt{
		ID:      types.ComputeReceiptID([]byte("msg"), 1),
		Seq:     1,
		Program: types.Pubkey{0x05},
		Signers: []types.Pubkey{{0x06}},
		Status:  types.StatusRolledBack,
		Error:   "missing account",
	}
	require.NoError(t, store.SaveReceipt(r))

	got, err := store.GetReceipt(r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, got)

	_, err = store.GetReceipt(types.ComputeReceiptID([]byte("msg"), 2))
	assert.ErrorIs(t, err, ErrReceiptNotFound)
}

func TestMarkExecuted(t *testing.T) {
	store := mustNewTestStore(t)
	id := types.ComputeReceiptID([]byte("tx"), 0)
	mark := func() error {
		return store.Update(func(txn *Txn) error { return txn.MarkExecuted(id) })
	}

	require.NoError(t, mark())
	assert.ErrorIs(t, mark(), ErrAlreadyExecuted)

	// a discarded update leaves no marker behind
	other := types.ComputeReceiptID([]byte("tx"), 1)
	boom := errors.New("boom")
	err := store.Update(func(txn *Txn) error {
		if err := txn.MarkExecuted(other); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, store.Update(func(txn *Txn) error { return txn.MarkExecuted(other) }))
}
