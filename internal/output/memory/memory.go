// Package memory is an in-process OutputHandler. Transactions are serialized
// and buffered, so a failed instruction leaves no partial writes behind.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/manifest-network/mediaproof/internal/models"
	"github.com/manifest-network/mediaproof/internal/output"
)

var _ output.OutputHandler = (*Handler)(nil)

// Handler keeps ledger state in memory. Transactions run one at a time.
type Handler struct {
	txMu sync.Mutex

	mu           sync.RWMutex
	accounts     map[string]*models.Account
	transactions map[string]*models.Transaction
	ordered      []*models.Transaction
	slot         uint64
}

type txKey struct{}

type txState struct {
	accounts     map[string]*models.Account
	transactions []*models.Transaction
	signatures   map[string]struct{}
}

// New returns an empty store.
func New() *Handler {
	return &Handler{
		accounts:     make(map[string]*models.Account),
		transactions: make(map[string]*models.Transaction),
	}
}

func txFromContext(ctx context.Context) *txState {
	tx, _ := ctx.Value(txKey{}).(*txState)
	return tx
}

// WithTx buffers the writes of fn and applies them only if fn succeeds.
func (h *Handler) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	h.txMu.Lock()
	defer h.txMu.Unlock()

	tx := &txState{
		accounts:   make(map[string]*models.Account),
		signatures: make(map[string]struct{}),
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for addr, acct := range tx.accounts {
		h.accounts[addr] = acct
	}
	for _, t := range tx.transactions {
		h.insertTransaction(t)
	}
	return nil
}

// GetAccount reads an account, preferring writes buffered in the current transaction.
func (h *Handler) GetAccount(ctx context.Context, address string, _ bool) (*models.Account, error) {
	if tx := txFromContext(ctx); tx != nil {
		if acct, ok := tx.accounts[address]; ok {
			return cloneAccount(acct), nil
		}
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	acct, ok := h.accounts[address]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return cloneAccount(acct), nil
}

// CreateAccount stores a new account.
func (h *Handler) CreateAccount(ctx context.Context, account *models.Account) error {
	if _, err := h.GetAccount(ctx, account.Address, true); err == nil {
		return models.ErrAccountInUse
	}
	return h.putAccount(ctx, account)
}

// PutAccount overwrites an existing account.
func (h *Handler) PutAccount(ctx context.Context, account *models.Account) error {
	if _, err := h.GetAccount(ctx, account.Address, true); err != nil {
		return err
	}
	return h.putAccount(ctx, account)
}

func (h *Handler) putAccount(ctx context.Context, account *models.Account) error {
	if tx := txFromContext(ctx); tx != nil {
		tx.accounts[account.Address] = cloneAccount(account)
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.accounts[account.Address] = cloneAccount(account)
	return nil
}

// NextSlot increments the slot counter. Rolled back transactions leave gaps.
func (h *Handler) NextSlot(context.Context) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.slot++
	return h.slot, nil
}

// LatestSlot returns the slot of the last recorded transaction.
func (h *Handler) LatestSlot(context.Context) (uint64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.ordered) == 0 {
		return 0, nil
	}
	return h.ordered[len(h.ordered)-1].Slot, nil
}

// WriteTransaction records t.
func (h *Handler) WriteTransaction(ctx context.Context, t *models.Transaction) error {
	exists, err := h.HasSignature(ctx, t.Signature)
	if err != nil {
		return err
	}
	if exists {
		return models.ErrAlreadyProcessed
	}
	if tx := txFromContext(ctx); tx != nil {
		tx.transactions = append(tx.transactions, cloneTransaction(t))
		tx.signatures[t.Signature] = struct{}{}
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.insertTransaction(cloneTransaction(t))
	return nil
}

// insertTransaction keeps ordered sorted by slot. Callers hold mu.
func (h *Handler) insertTransaction(t *models.Transaction) {
	h.transactions[t.Signature] = t
	i := sort.Search(len(h.ordered), func(i int) bool { return h.ordered[i].Slot > t.Slot })
	h.ordered = append(h.ordered, nil)
	copy(h.ordered[i+1:], h.ordered[i:])
	h.ordered[i] = t
}

// HasSignature reports whether signature was recorded.
func (h *Handler) HasSignature(ctx context.Context, signature string) (bool, error) {
	if tx := txFromContext(ctx); tx != nil {
		if _, ok := tx.signatures[signature]; ok {
			return true, nil
		}
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.transactions[signature]
	return ok, nil
}

// GetTransaction looks a transaction up by signature.
func (h *Handler) GetTransaction(_ context.Context, signature string) (*models.Transaction, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	t, ok := h.transactions[signature]
	if !ok {
		return nil, models.ErrTransactionNotFound
	}
	return cloneTransaction(t), nil
}

// GetTransactionsInRange returns transactions with from <= slot <= to.
func (h *Handler) GetTransactionsInRange(_ context.Context, from, to uint64) ([]*models.Transaction, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	start := sort.Search(len(h.ordered), func(i int) bool { return h.ordered[i].Slot >= from })
	var out []*models.Transaction
	for _, t := range h.ordered[start:] {
		if t.Slot > to {
			break
		}
		out = append(out, cloneTransaction(t))
	}
	return out, nil
}

// Close is a no-op.
func (h *Handler) Close() error {
	return nil
}

func cloneAccount(a *models.Account) *models.Account {
	c := *a
	c.Data = append([]byte(nil), a.Data...)
	return &c
}

func cloneTransaction(t *models.Transaction) *models.Transaction {
	c := *t
	c.Accounts = append([]string(nil), t.Accounts...)
	c.Signers = append([]string(nil), t.Signers...)
	c.Logs = append([]string(nil), t.Logs...)
	c.Events = append([]models.Event(nil), t.Events...)
	c.Data = append([]byte(nil), t.Data...)
	return &c
}
