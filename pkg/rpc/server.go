package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gagliardetto/solana-go"

	"github.com/chronodrachma/flashlend/pkg/core/types"
	"github.com/chronodrachma/flashlend/pkg/ledger"
	"github.com/chronodrachma/flashlend/pkg/lending"
	"github.com/chronodrachma/flashlend/pkg/runtime"
)

type Server struct {
	host  *runtime.Host
	store *ledger.BadgerStore
	fees  lending.Fees
	log   *log.Logger
}

func NewServer(host *runtime.Host, store *ledger.BadgerStore, fees lending.Fees, logger *log.Logger) *Server {
	return &Server{host: host, store: store, fees: fees, log: logger}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /account", s.handleAccount)
	mux.HandleFunc("GET /receipt", s.handleReceipt)
	mux.HandleFunc("GET /quote", s.handleQuote)
	mux.HandleFunc("POST /invoke", s.handleInvoke)
	return mux
}

func (s *Server) Start(addr string) error {
	s.log.Info("rpc listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

type AccountResponse struct {
	Address string `json:"address"`
	Mint    string `json:"mint"`
	Owner   string `json:"owner"`
	Amount  uint64 `json:"amount"`
}

// GET /account?addr=<base58>
func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := solana.PublicKeyFromBase58(r.URL.Query().Get("addr"))
	if err != nil {
		http.Error(w, "invalid addr parameter", http.StatusBadRequest)
		return
	}
	acc, err := s.store.GetAccount(addr)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to get account: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, AccountResponse{
		Address: acc.Address.String(),
		Mint:    acc.Mint.String(),
		Owner:   acc.Owner.String(),
		Amount:  acc.Amount,
	})
}

type ReceiptResponse struct {
	ID      string   `json:"id"`
	Seq     uint64   `json:"seq"`
	Program string   `json:"program"`
	Signers []string `json:"signers"`
	Status  string   `json:"status"`
	Error   string   `json:"error,omitempty"`
}

// NewReceiptResponse renders rc for clients.
func NewReceiptResponse(rc *types.Receipt) ReceiptResponse {
	resp := ReceiptResponse{
		ID:      rc.ID.String(),
		Seq:     rc.Seq,
		Program: rc.Program.String(),
		Signers: make([]string, 0, len(rc.Signers)),
		Status:  rc.Status.String(),
		Error:   rc.Error,
	}
	for _, k := range rc.Signers {
		resp.Signers = append(resp.Signers, k.String())
	}
	return resp
}

// GET /receipt?id=<base58>
func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := solana.HashFromBase58(r.URL.Query().Get("id"))
	if err != nil {
		http.Error(w, "invalid id parameter", http.StatusBadRequest)
		return
	}
	rc, err := s.store.GetReceipt(id)
	if errors.Is(err, ledger.ErrReceiptNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to get receipt: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, NewReceiptResponse(rc))
}

type QuoteResponse struct {
	Amount   uint64 `json:"amount"`
	TotalFee uint64 `json:"total_fee"`
	HostFee  uint64 `json:"host_fee"`
	Repay    uint64 `json:"repay"`
}

// GET /quote?amount=<tokens>
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	amount, err := strconv.ParseUint(r.URL.Query().Get("amount"), 10, 64)
	if err != nil {
		http.Error(w, "invalid amount parameter", http.StatusBadRequest)
		return
	}
	total, host, err := s.fees.CalculateFlashLoanFees(amount)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if amount > ^uint64(0)-total {
		http.Error(w, "repay amount overflows", http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, QuoteResponse{Amount: amount, TotalFee: total, HostFee: host, Repay: amount + total})
}

// MaxInvokeBodyBytes bounds the size of a POST /invoke body.
const MaxInvokeBodyBytes = 64 << 10

// InvokeRequest is the JSON body of POST /invoke. Keys and signatures are
// base58; Data is base64.
type InvokeRequest struct {
	ProgramID  string          `json:"program_id"`
	Accounts   []AccountMeta   `json:"accounts"`
	Data       []byte          `json:"data"`
	Nonce      uint64          `json:"nonce"`
	Signatures []SignatureJSON `json:"signatures"`
}

type AccountMeta struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"is_signer"`
	IsWritable bool   `json:"is_writable"`
}

type SignatureJSON struct {
	Signer    string `json:"signer"`
	Signature string `json:"signature"`
}

// NewInvokeRequest renders tx as a request body.
func NewInvokeRequest(tx *types.Transaction) InvokeRequest {
	req := InvokeRequest{
		ProgramID: tx.Instruction.ProgramID.String(),
		Data:      tx.Instruction.Data,
		Nonce:     tx.Nonce,
	}
	for _, m := range tx.Instruction.Accounts {
		req.Accounts = append(req.Accounts, AccountMeta{Pubkey: m.Pubkey.String(), IsSigner: m.IsSigner, IsWritable: m.IsWritable})
	}
	for _, sig := range tx.Signatures {
		req.Signatures = append(req.Signatures, SignatureJSON{Signer: sig.Signer.String(), Signature: sig.Signature.String()})
	}
	return req
}

// Transaction parses the request.
func (req InvokeRequest) Transaction() (*types.Transaction, error) {
	programID, err := solana.PublicKeyFromBase58(req.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("program_id: %w", err)
	}
	tx := types.NewTransaction(types.Instruction{ProgramID: programID, Data: req.Data})
	tx.Nonce = req.Nonce
	for i, m := range req.Accounts {
		key, err := solana.PublicKeyFromBase58(m.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("accounts[%d]: %w", i, err)
		}
		tx.Instruction.Accounts = append(tx.Instruction.Accounts, types.AccountMeta{Pubkey: key, IsSigner: m.IsSigner, IsWritable: m.IsWritable})
	}
	for i, s := range req.Signatures {
		signer, err := solana.PublicKeyFromBase58(s.Signer)
		if err != nil {
			return nil, fmt.Errorf("signatures[%d].signer: %w", i, err)
		}
		sig, err := solana.SignatureFromBase58(s.Signature)
		if err != nil {
			return nil, fmt.Errorf("signatures[%d].signature: %w", i, err)
		}
		tx.Signatures = append(tx.Signatures, types.Signature{Signer: signer, Signature: sig})
	}
	return tx, nil
}

// POST /invoke
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req InvokeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxInvokeBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	tx, err := req.Transaction()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	receipt, err := s.host.Execute(tx)
	if errors.Is(err, ledger.ErrAlreadyExecuted) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if receipt == nil {
		http.Error(w, fmt.Sprintf("rejected: %v", err), http.StatusBadRequest)
		return
	}
	status := http.StatusOK
	if err != nil {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, NewReceiptResponse(receipt))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
