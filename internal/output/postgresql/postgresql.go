// Package postgresql is the PostgreSQL OutputHandler. It talks to the
// database through database/sql over the pgx stdlib driver.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/manifest-network/mediaproof/internal/models"
	"github.com/manifest-network/mediaproof/internal/output"
)

var _ output.OutputHandler = (*PostgresOutputHandler)(nil)

const uniqueViolation = "23505"

// slotLockKey is the advisory lock serializing slot reservation with commit.
const slotLockKey = 0x6d70736c6f74

// PostgresOutputHandler stores ledger state in PostgreSQL.
type PostgresOutputHandler struct {
	db *sql.DB
}

type txKey struct{}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewPostgresOutputHandler opens a connection pool for connString and checks it.
func NewPostgresOutputHandler(ctx context.Context, connString string) (*PostgresOutputHandler, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &PostgresOutputHandler{db: db}, nil
}

// NewWithDB wraps an existing pool.
func NewWithDB(db *sql.DB) *PostgresOutputHandler {
	return &PostgresOutputHandler{db: db}
}

// DB exposes the pool, e.g. for migrations.
func (h *PostgresOutputHandler) DB() *sql.DB {
	return h.db
}

// WithTx runs fn in a database transaction carried by ctx. Nested calls
// join the outer transaction.
func (h *PostgresOutputHandler) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func txFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

func (h *PostgresOutputHandler) q(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return h.db
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// GetAccount reads an account, locking its row when forUpdate is set inside a transaction.
func (h *PostgresOutputHandler) GetAccount(ctx context.Context, address string, forUpdate bool) (*models.Account, error) {
	query := `SELECT address, owner, space, data, slot FROM accounts WHERE address = $1`
	if forUpdate && txFromContext(ctx) != nil {
		query += ` FOR UPDATE`
	}
	var a models.Account
	err := h.q(ctx).QueryRowContext(ctx, query, address).Scan(&a.Address, &a.Owner, &a.Space, &a.Data, &a.Slot)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}

// CreateAccount inserts a new account row.
func (h *PostgresOutputHandler) CreateAccount(ctx context.Context, a *models.Account) error {
	const query = `INSERT INTO accounts (address, owner, space, data, slot) VALUES ($1, $2, $3, $4, $5)`
	if _, err := h.q(ctx).ExecContext(ctx, query, a.Address, a.Owner, a.Space, a.Data, a.Slot); err != nil {
		if isUniqueViolation(err) {
			return models.ErrAccountInUse
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// PutAccount updates the data and slot of an existing account.
func (h *PostgresOutputHandler) PutAccount(ctx context.Context, a *models.Account) error {
	const query = `UPDATE accounts SET data = $2, slot = $3 WHERE address = $1`
	res, err := h.q(ctx).ExecContext(ctx, query, a.Address, a.Data, a.Slot)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n == 0 {
		return models.ErrAccountNotFound
	}
	return nil
}

// NextSlot reserves a slot. Inside WithTx it first takes a transaction-scoped
// advisory lock, so transactions commit in slot order and LatestSlot never
// passes a slot that is still in flight.
func (h *PostgresOutputHandler) NextSlot(ctx context.Context) (uint64, error) {
	if tx := txFromContext(ctx); tx != nil {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, slotLockKey); err != nil {
			return 0, fmt.Errorf("lock slots: %w", err)
		}
	}
	var slot uint64
	if err := h.q(ctx).QueryRowContext(ctx, `SELECT nextval('slots')`).Scan(&slot); err != nil {
		return 0, fmt.Errorf("next slot: %w", err)
	}
	return slot, nil
}

// LatestSlot returns the highest recorded slot.
func (h *PostgresOutputHandler) LatestSlot(ctx context.Context) (uint64, error) {
	var slot uint64
	if err := h.q(ctx).QueryRowContext(ctx, `SELECT COALESCE(MAX(slot), 0) FROM transactions`).Scan(&slot); err != nil {
		return 0, fmt.Errorf("latest slot: %w", err)
	}
	return slot, nil
}

// WriteTransaction inserts the transaction and its events.
func (h *PostgresOutputHandler) WriteTransaction(ctx context.Context, t *models.Transaction) error {
	return h.WithTx(ctx, func(ctx context.Context) error {
		accounts, err := json.Marshal(nonNil(t.Accounts))
		if err != nil {
			return fmt.Errorf("marshal accounts: %w", err)
		}
		signers, err := json.Marshal(nonNil(t.Signers))
		if err != nil {
			return fmt.Errorf("marshal signers: %w", err)
		}
		logs, err := json.Marshal(nonNil(t.Logs))
		if err != nil {
			return fmt.Errorf("marshal logs: %w", err)
		}

		const insertTx = `
INSERT INTO transactions (signature, slot, block_time, program, instruction, accounts, signers, logs, data)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
		_, err = h.q(ctx).ExecContext(ctx, insertTx,
			t.Signature, t.Slot, t.BlockTime, t.Program, t.Instruction,
			string(accounts), string(signers), string(logs), nonNilBytes(t.Data))
		if err != nil {
			if isUniqueViolation(err) {
				return models.ErrAlreadyProcessed
			}
			return fmt.Errorf("insert transaction: %w", err)
		}

		const insertEvent = `INSERT INTO events (signature, idx, name, data) VALUES ($1, $2, $3, $4)`
		for _, ev := range t.Events {
			if _, err := h.q(ctx).ExecContext(ctx, insertEvent, t.Signature, ev.Index, ev.Name, ev.Data); err != nil {
				return fmt.Errorf("insert event %d: %w", ev.Index, err)
			}
		}
		return nil
	})
}

// HasSignature reports whether signature was recorded.
func (h *PostgresOutputHandler) HasSignature(ctx context.Context, signature string) (bool, error) {
	var exists bool
	err := h.q(ctx).QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM transactions WHERE signature = $1)`, signature).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check signature: %w", err)
	}
	return exists, nil
}

const selectTransactions = `
SELECT signature, slot, block_time, program, instruction, accounts, signers, logs, data
FROM transactions`

// GetTransaction reads a transaction with its events.
func (h *PostgresOutputHandler) GetTransaction(ctx context.Context, signature string) (*models.Transaction, error) {
	txs, err := h.queryTransactions(ctx, selectTransactions+` WHERE signature = $1`, signature)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, models.ErrTransactionNotFound
	}
	const events = `SELECT signature, idx, name, data FROM events WHERE signature = $1 ORDER BY idx`
	if err := h.attachEvents(ctx, txs, events, signature); err != nil {
		return nil, err
	}
	return txs[0], nil
}

// GetTransactionsInRange reads transactions with from <= slot <= to in slot order.
func (h *PostgresOutputHandler) GetTransactionsInRange(ctx context.Context, from, to uint64) ([]*models.Transaction, error) {
	txs, err := h.queryTransactions(ctx, selectTransactions+` WHERE slot BETWEEN $1 AND $2 ORDER BY slot`, from, to)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, nil
	}
	const events = `
SELECT e.signature, e.idx, e.name, e.data
FROM events e JOIN transactions t ON t.signature = e.signature
WHERE t.slot BETWEEN $1 AND $2
ORDER BY t.slot, e.idx`
	if err := h.attachEvents(ctx, txs, events, from, to); err != nil {
		return nil, err
	}
	return txs, nil
}

func (h *PostgresOutputHandler) queryTransactions(ctx context.Context, query string, args ...any) ([]*models.Transaction, error) {
	rows, err := h.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []*models.Transaction
	for rows.Next() {
		var (
			t                       models.Transaction
			accounts, signers, logs []byte
		)
		if err := rows.Scan(&t.Signature, &t.Slot, &t.BlockTime, &t.Program, &t.Instruction, &accounts, &signers, &logs, &t.Data); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		for _, col := range []struct {
			name string
			raw  []byte
			dst  *[]string
		}{
			{"accounts", accounts, &t.Accounts},
			{"signers", signers, &t.Signers},
			{"logs", logs, &t.Logs},
		} {
			if err := json.Unmarshal(col.raw, col.dst); err != nil {
				return nil, fmt.Errorf("unmarshal %s: %w", col.name, err)
			}
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (h *PostgresOutputHandler) attachEvents(ctx context.Context, txs []*models.Transaction, query string, args ...any) error {
	bySig := make(map[string]*models.Transaction, len(txs))
	for _, t := range txs {
		bySig[t.Signature] = t
	}
	rows, err := h.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			sig string
			ev  models.Event
		)
		if err := rows.Scan(&sig, &ev.Index, &ev.Name, &ev.Data); err != nil {
			return fmt.Errorf("scan event: %w", err)
		}
		if t, ok := bySig[sig]; ok {
			t.Events = append(t.Events, ev)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate events: %w", err)
	}
	return nil
}

// Close closes the database pool.
func (h *PostgresOutputHandler) Close() error {
	return h.db.Close()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
