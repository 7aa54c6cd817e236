package rpc

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronodrachma/flashlend/pkg/core/fixedpoint"
	"github.com/chronodrachma/flashlend/pkg/core/types"
	"github.com/chronodrachma/flashlend/pkg/ledger"
	"github.com/chronodrachma/flashlend/pkg/lending"
	"github.com/chronodrachma/flashlend/pkg/processor"
	"github.com/chronodrachma/flashlend/pkg/runtime"
)

var (
	receiverID = types.Pubkey{0xAA}
	mint       = types.Pubkey{0x0F}
	reserve    = types.Pubkey{0x01}
	borrowerTA = types.Pubkey{0x02}
)

type testServer struct {
	*httptest.Server
	authority solana.PrivateKey
	nonce     uint64
}

func newTestServer(t *testing.T, borrowerBal uint64) *testServer {
	t.Helper()
	store, err := ledger.NewBadgerStore("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	authority, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	require.NoError(t, store.PutAccount(types.TokenAccount{Address: reserve, Mint: mint, Owner: types.Pubkey{0x77}, Amount: 1_000}))
	require.NoError(t, store.PutAccount(types.TokenAccount{Address: borrowerTA, Mint: mint, Owner: authority.PublicKey(), Amount: borrowerBal}))

	logger := log.New(io.Discard)
	host := runtime.NewHost(store, 0, logger)
	runtime.RegisterDefaults(host, receiverID, solana.TokenProgramID)

	fees := lending.Fees{FlashLoanFeeWad: fixedpoint.WAD / 1000, HostFeePercentage: 20}
	srv := httptest.NewServer(NewServer(host, store, fees, logger).Handler())
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, authority: authority}
}

func (s *testServer) repayTx(t *testing.T, amount uint64) *types.Transaction {
	t.Helper()
	tx := types.NewTransaction(types.Instruction{
		ProgramID: receiverID,
		Accounts: []types.AccountMeta{
			{Pubkey: reserve, IsWritable: true},
			{Pubkey: borrowerTA, IsWritable: true},
			{Pubkey: solana.TokenProgramID},
			{Pubkey: s.authority.PublicKey(), IsSigner: true},
		},
		Data: processor.NewRepayInstruction(amount).Pack(),
	})
	s.nonce++
	tx.Nonce = s.nonce
	require.NoError(t, tx.Sign(s.authority))
	return tx
}

func (s *testServer) invoke(t *testing.T, amount uint64) (*http.Response, ReceiptResponse) {
	t.Helper()
	return s.post(t, s.repayTx(t, amount))
}

func (s *testServer) post(t *testing.T, tx *types.Transaction) (*http.Response, ReceiptResponse) {
	t.Helper()
	body, err := json.Marshal(NewInvokeRequest(tx))
	require.NoError(t, err)
	resp, err := http.Post(s.URL+"/invoke", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var rc ReceiptResponse
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusUnprocessableEntity {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&rc))
	}
	return resp, rc
}

func (s *testServer) account(t *testing.T, addr types.Pubkey) (int, AccountResponse) {
	t.Helper()
	resp, err := http.Get(s.URL + "/account?addr=" + addr.String())
	require.NoError(t, err)
	defer resp.Body.Close()
	var acc AccountResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&acc))
	}
	return resp.StatusCode, acc
}

func TestStatus(t *testing.T) {
	s := newTestServer(t, 0)
	resp, err := http.Get(s.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestInvokeCommits(t *testing.T) {
	s := newTestServer(t, 150)

	resp, rc := s.invoke(t, 100)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "committed", rc.Status)

	code, acc := s.account(t, reserve)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(1_100), acc.Amount)

	code, acc = s.account(t, borrowerTA)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(50), acc.Amount)
	assert.Equal(t, s.authority.PublicKey().String(), acc.Owner)

	got, err := http.Get(s.URL + "/receipt?id=" + rc.ID)
	require.NoError(t, err)
	defer got.Body.Close()
	require.Equal(t, http.StatusOK, got.StatusCode)
	var stored ReceiptResponse
	require.NoError(t, json.NewDecoder(got.Body).Decode(&stored))
	assert.Equal(t, rc, stored)
}

func TestInvokeRollsBack(t *testing.T) {
	s := newTestServer(t, 10)

	resp, rc := s.invoke(t, 100)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "rolled back", rc.Status)
	assert.NotEmpty(t, rc.Error)

	_, acc := s.account(t, borrowerTA)
	assert.Equal(t, uint64(10), acc.Amount)
}

func TestInvokeBadRequest(t *testing.T) {
	s := newTestServer(t, 0)

	resp, err := http.Post(s.URL+"/invoke", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, _ := json.Marshal(InvokeRequest{ProgramID: "not-a-key"})
	resp, err = http.Post(s.URL+"/invoke", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInvokeRejectsReplay(t *testing.T) {
	s := newTestServer(t, 300)
	tx := s.repayTx(t, 100)

	resp, _ := s.post(t, tx)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = s.post(t, tx)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	_, acc := s.account(t, borrowerTA)
	assert.Equal(t, uint64(200), acc.Amount)
}

func TestInvokeBodyTooLarge(t *testing.T) {
	s := newTestServer(t, 0)

	body, err := json.Marshal(InvokeRequest{ProgramID: receiverID.String(), Data: make([]byte, MaxInvokeBodyBytes)})
	require.NoError(t, err)
	resp, err := http.Post(s.URL+"/invoke", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAccountNotFound(t *testing.T) {
	s := newTestServer(t, 0)
	code, _ := s.account(t, types.Pubkey{0x99})
	assert.Equal(t, http.StatusNotFound, code)

	resp, err := http.Get(s.URL + "/account?addr=zz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQuote(t *testing.T) {
	s := newTestServer(t, 0)
	resp, err := http.Get(s.URL + "/quote?amount=1000000")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var q QuoteResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&q))
	assert.Equal(t, uint64(1_000), q.TotalFee)
	assert.Equal(t, uint64(200), q.HostFee)
	assert.Equal(t, uint64(1_001_000), q.Repay)
}
