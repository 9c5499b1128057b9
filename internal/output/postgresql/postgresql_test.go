package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/manifest-network/mediaproof/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*PostgresOutputHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewWithDB(db), mock
}

var accountColumns = []string{"address", "owner", "space", "data", "slot"}

func TestGetAccount(t *testing.T) {
	h, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT address, owner, space, data, slot FROM accounts WHERE address = $1`)).
		WithArgs("acct").
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow("acct", "prog", int64(100), []byte{1, 2}, int64(7)))
	a, err := h.GetAccount(ctx, "acct", true)
	require.NoError(t, err)
	assert.Equal(t, &models.Account{Address: "acct", Owner: "prog", Space: 100, Data: []byte{1, 2}, Slot: 7}, a)

	mock.ExpectQuery(`FROM accounts WHERE address`).WithArgs("missing").WillReturnError(sql.ErrNoRows)
	_, err = h.GetAccount(ctx, "missing", false)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestGetAccountForUpdateInTx(t *testing.T) {
	h, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE address = $1 FOR UPDATE`)).
		WithArgs("acct").
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow("acct", "prog", int64(100), []byte{1}, int64(1)))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE accounts SET data = $2, slot = $3 WHERE address = $1`)).
		WithArgs("acct", []byte{9}, int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := h.WithTx(context.Background(), func(ctx context.Context) error {
		a, err := h.GetAccount(ctx, "acct", true)
		if err != nil {
			return err
		}
		a.Data, a.Slot = []byte{9}, 2
		return h.PutAccount(ctx, a)
	})
	require.NoError(t, err)
}

func TestWithTxRollback(t *testing.T) {
	h, mock := newMock(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()
	err := h.WithTx(context.Background(), func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestCreateAccountInUse(t *testing.T) {
	h, mock := newMock(t)

	mock.ExpectExec(`INSERT INTO accounts`).
		WithArgs("acct", "prog", int64(10), []byte{1}, int64(1)).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})
	err := h.CreateAccount(context.Background(), &models.Account{Address: "acct", Owner: "prog", Space: 10, Data: []byte{1}, Slot: 1})
	assert.ErrorIs(t, err, models.ErrAccountInUse)
}

func TestPutAccountMissing(t *testing.T) {
	h, mock := newMock(t)

	mock.ExpectExec(`UPDATE accounts`).WillReturnResult(sqlmock.NewResult(0, 0))
	err := h.PutAccount(context.Background(), &models.Account{Address: "acct"})
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestSlots(t *testing.T) {
	h, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT nextval('slots')`)).
		WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(int64(5)))
	slot, err := h.NextSlot(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), slot)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(MAX(slot), 0) FROM transactions`)).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(int64(4)))
	slot, err = h.LatestSlot(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), slot)
}

func TestNextSlotLocksUntilCommit(t *testing.T) {
	h, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
		WithArgs(int64(slotLockKey)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT nextval('slots')`)).
		WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(int64(10)))
	mock.ExpectCommit()

	err := h.WithTx(context.Background(), func(ctx context.Context) error {
		slot, err := h.NextSlot(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(10), slot)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func testTransaction() *models.Transaction {
	return &models.Transaction{
		Signature:   "sig",
		Slot:        3,
		BlockTime:   1700000000,
		Program:     "prog",
		Instruction: "store_image",
		Accounts:    []string{"acct", "user"},
		Signers:     []string{"user"},
		Logs:        []string{"Program prog invoke [1]"},
		Events:      []models.Event{{Index: 0, Name: "ImageAdded", Data: []byte{1}}},
		Data:        []byte{0xaa},
	}
}

func TestWriteTransaction(t *testing.T) {
	h, mock := newMock(t)
	tx := testTransaction()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO transactions`).
		WithArgs("sig", int64(3), int64(1700000000), "prog", "store_image",
			`["acct","user"]`, `["user"]`, `["Program prog invoke [1]"]`, []byte{0xaa}).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO events`).
		WithArgs("sig", 0, "ImageAdded", []byte{1}).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, h.WriteTransaction(context.Background(), tx))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO transactions`).WillReturnError(&pgconn.PgError{Code: uniqueViolation})
	mock.ExpectRollback()
	err := h.WriteTransaction(context.Background(), tx)
	assert.ErrorIs(t, err, models.ErrAlreadyProcessed)
}

var transactionColumns = []string{"signature", "slot", "block_time", "program", "instruction", "accounts", "signers", "logs", "data"}

func TestGetTransaction(t *testing.T) {
	h, mock := newMock(t)
	ctx := context.Background()
	want := testTransaction()

	mock.ExpectQuery(`FROM transactions WHERE signature = \$1`).
		WithArgs("sig").
		WillReturnRows(sqlmock.NewRows(transactionColumns).AddRow(
			"sig", int64(3), int64(1700000000), "prog", "store_image",
			[]byte(`["acct","user"]`), []byte(`["user"]`), []byte(`["Program prog invoke [1]"]`), []byte{0xaa}))
	mock.ExpectQuery(`FROM events WHERE signature = \$1`).
		WithArgs("sig").
		WillReturnRows(sqlmock.NewRows([]string{"signature", "idx", "name", "data"}).AddRow("sig", 0, "ImageAdded", []byte{1}))

	got, err := h.GetTransaction(ctx, "sig")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	mock.ExpectQuery(`FROM transactions WHERE signature`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(transactionColumns))
	_, err = h.GetTransaction(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrTransactionNotFound)
}

func TestGetTransactionsInRangeEmpty(t *testing.T) {
	h, mock := newMock(t)

	mock.ExpectQuery(`WHERE slot BETWEEN \$1 AND \$2 ORDER BY slot`).
		WithArgs(int64(1), int64(10)).
		WillReturnRows(sqlmock.NewRows(transactionColumns))
	txs, err := h.GetTransactionsInRange(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Empty(t, txs)
}
