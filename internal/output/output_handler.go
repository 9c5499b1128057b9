package output

import (
	"context"

	"github.com/manifest-network/mediaproof/internal/models"
)

// OutputHandler persists ledger state: program accounts, processed
// transactions and the slot counter.
type OutputHandler interface {
	// WithTx runs fn in a transaction. Every call made with the context passed
	// to fn is part of that transaction; returning an error rolls it back.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	// GetAccount returns the account at address or models.ErrAccountNotFound.
	// With forUpdate set the account stays locked until the transaction ends.
	GetAccount(ctx context.Context, address string, forUpdate bool) (*models.Account, error)

	// CreateAccount stores a new account, failing with models.ErrAccountInUse if the address is taken.
	CreateAccount(ctx context.Context, account *models.Account) error

	// PutAccount overwrites the data of an existing account.
	PutAccount(ctx context.Context, account *models.Account) error

	// NextSlot reserves the slot for the next transaction.
	NextSlot(ctx context.Context) (uint64, error)

	// LatestSlot returns the slot of the most recent transaction, or 0.
	LatestSlot(ctx context.Context) (uint64, error)

	// WriteTransaction records a processed transaction with its events.
	// A repeated signature fails with models.ErrAlreadyProcessed.
	WriteTransaction(ctx context.Context, tx *models.Transaction) error

	// HasSignature reports whether a transaction with this signature was recorded.
	HasSignature(ctx context.Context, signature string) (bool, error)

	// GetTransaction returns the transaction or models.ErrTransactionNotFound.
	GetTransaction(ctx context.Context, signature string) (*models.Transaction, error)

	// GetTransactionsInRange returns transactions with from <= slot <= to, ordered by slot.
	GetTransactionsInRange(ctx context.Context, from, to uint64) ([]*models.Transaction, error)

	// Close closes the output handler.
	Close() error
}
