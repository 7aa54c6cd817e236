package runtime

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/chronodrachma/flashlend/pkg/core/types"
	"github.com/chronodrachma/flashlend/pkg/ledger"
	"github.com/chronodrachma/flashlend/pkg/token"
)

var (
	ErrProgramNotFound     = errors.New("program not found")
	ErrCallDepth           = errors.New("invocation depth exceeded")
	ErrPrivilegeEscalation = errors.New("instruction requests a privilege the caller does not hold")
)

// DefaultMaxInvokeDepth bounds nested invocations, counting the top-level call.
const DefaultMaxInvokeDepth = 4

// Program executes one instruction.
type Program interface {
	Process(programID types.Pubkey, accounts []types.AccountInfo, data []byte) error
}

// ProgramFunc adapts a function to Program.
type ProgramFunc func(programID types.Pubkey, accounts []types.AccountInfo, data []byte) error

func (f ProgramFunc) Process(programID types.Pubkey, accounts []types.AccountInfo, data []byte) error {
	return f(programID, accounts, data)
}

// Loader builds a program bound to the environment of one invocation.
type Loader func(env *Env) Program

// Host executes transactions against the ledger. Each transaction is one unit
// of work: the top-level program and every program it invokes share a single
// ledger transaction that is committed only if all of them succeed.
type Host struct {
	mu       sync.Mutex
	store    *ledger.BadgerStore
	programs map[types.Pubkey]Loader
	maxDepth int
	log      *log.Logger
}

// NewHost returns a host over store. A non-positive maxDepth selects
// DefaultMaxInvokeDepth.
func NewHost(store *ledger.BadgerStore, maxDepth int, logger *log.Logger) *Host {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxInvokeDepth
	}
	return &Host{
		store:    store,
		programs: make(map[types.Pubkey]Loader),
		maxDepth: maxDepth,
		log:      logger,
	}
}

// Register makes a program callable under id, replacing any earlier one.
func (h *Host) Register(id types.Pubkey, loader Loader) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.programs[id] = loader
}

// Execute verifies tx's signatures and runs its instruction.
//
// A transaction whose signatures do not verify, or whose message already ran,
// is rejected with no receipt. Otherwise a receipt is always stored; on
// failure it is written after the rollback, together with the executed
// marker, and the program error is returned alongside it.
func (h *Host) Execute(tx *types.Transaction) (*types.Receipt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	signers, err := tx.VerifySignatures()
	if err != nil {
		return nil, err
	}
	msg, err := tx.Message()
	if err != nil {
		return nil, err
	}
	txID, err := tx.ID()
	if err != nil {
		return nil, err
	}

	ix := tx.Instruction
	accounts := make([]types.AccountInfo, 0, len(ix.Accounts))
	for _, m := range ix.Accounts {
		accounts = append(accounts, types.AccountInfo{
			Key:        m.Pubkey,
			IsSigner:   m.IsSigner && signers[m.Pubkey],
			IsWritable: m.IsWritable,
		})
	}
	receipt := &types.Receipt{Program: ix.ProgramID, Signers: signerList(accounts)}

	execErr := h.store.Update(func(txn *ledger.Txn) error {
		if err := txn.MarkExecuted(txID); err != nil {
			return err
		}
		seq, err := txn.NextSequence()
		if err != nil {
			return err
		}
		env := h.newEnv(txn, 1, accounts)
		if err := env.dispatch(ix.ProgramID, accounts, ix.Data); err != nil {
			return err
		}
		receipt.Seq = seq
		receipt.ID = types.ComputeReceiptID(msg, seq)
		receipt.Status = types.StatusCommitted
		return txn.SaveReceipt(receipt)
	})
	if execErr == nil {
		h.log.Info("transaction committed", "receipt", receipt.ID, "program", ix.ProgramID)
		return receipt, nil
	}
	if errors.Is(execErr, ledger.ErrAlreadyExecuted) {
		h.log.Warn("duplicate transaction rejected", "tx", txID)
		return nil, execErr
	}

	h.log.Warn("transaction rolled back", "program", ix.ProgramID, "err", execErr)
	err = h.store.Update(func(txn *ledger.Txn) error {
		if err := txn.MarkExecuted(txID); err != nil {
			return err
		}
		seq, err := txn.NextSequence()
		if err != nil {
			return err
		}
		receipt.Seq = seq
		receipt.ID = types.ComputeReceiptID(msg, seq)
		receipt.Status = types.StatusRolledBack
		receipt.Error = execErr.Error()
		return txn.SaveReceipt(receipt)
	})
	if err != nil {
		return nil, fmt.Errorf("record failed transaction: %w (execution error: %v)", err, execErr)
	}
	return receipt, execErr
}

func (h *Host) newEnv(txn *ledger.Txn, depth int, accounts []types.AccountInfo) *Env {
	env := &Env{
		host:     h,
		txn:      txn,
		depth:    depth,
		signers:  make(map[types.Pubkey]bool),
		writable: make(map[types.Pubkey]bool),
	}
	for _, a := range accounts {
		if a.IsSigner {
			env.signers[a.Key] = true
		}
		if a.IsWritable {
			env.writable[a.Key] = true
		}
	}
	return env
}

func signerList(accounts []types.AccountInfo) []types.Pubkey {
	var out []types.Pubkey
	for _, a := range accounts {
		if a.IsSigner {
			out = append(out, a.Key)
		}
	}
	return out
}

// Env is what a program sees of the host during one invocation.
type Env struct {
	host     *Host
	txn      *ledger.Txn
	depth    int
	signers  map[types.Pubkey]bool
	writable map[types.Pubkey]bool
}

var _ token.Transferer = (*Env)(nil)

// Accounts returns the token account store of the current unit of work.
func (e *Env) Accounts() token.AccountStore {
	return e.txn
}

// Logger returns the host logger tagged with the invocation depth.
func (e *Env) Logger() *log.Logger {
	return e.host.log.With("depth", e.depth)
}

// Invoke calls another program from within the current one. Signer and
// writable privileges can only be passed on, never gained.
func (e *Env) Invoke(ix types.Instruction) error {
	if e.depth >= e.host.maxDepth {
		return fmt.Errorf("%w: limit %d", ErrCallDepth, e.host.maxDepth)
	}
	accounts := make([]types.AccountInfo, 0, len(ix.Accounts))
	for _, m := range ix.Accounts {
		if m.IsSigner && !e.signers[m.Pubkey] {
			return fmt.Errorf("%w: signer %s", ErrPrivilegeEscalation, m.Pubkey)
		}
		if m.IsWritable && !e.writable[m.Pubkey] {
			return fmt.Errorf("%w: writable %s", ErrPrivilegeEscalation, m.Pubkey)
		}
		accounts = append(accounts, types.AccountInfo{Key: m.Pubkey, IsSigner: m.IsSigner, IsWritable: m.IsWritable})
	}
	child := e.host.newEnv(e.txn, e.depth+1, accounts)
	return child.dispatch(ix.ProgramID, accounts, ix.Data)
}

// Transfer submits req to the token program it names.
func (e *Env) Transfer(req token.TransferRequest) error {
	ix, err := req.Instruction()
	if err != nil {
		return err
	}
	return e.Invoke(ix)
}

func (e *Env) dispatch(programID types.Pubkey, accounts []types.AccountInfo, data []byte) error {
	loader, ok := e.host.programs[programID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProgramNotFound, programID)
	}
	return loader(e).Process(programID, accounts, data)
}
