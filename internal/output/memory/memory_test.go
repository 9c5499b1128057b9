package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/manifest-network/mediaproof/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	h := New()

	_, err := h.GetAccount(ctx, "a1", false)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)

	assert.ErrorIs(t, h.PutAccount(ctx, &models.Account{Address: "a1"}), models.ErrAccountNotFound)

	require.NoError(t, h.CreateAccount(ctx, &models.Account{Address: "a1", Owner: "p", Data: []byte{1}}))
	assert.ErrorIs(t, h.CreateAccount(ctx, &models.Account{Address: "a1"}), models.ErrAccountInUse)

	acct, err := h.GetAccount(ctx, "a1", false)
	require.NoError(t, err)
	acct.Data[0] = 9 // callers get copies

	acct, err = h.GetAccount(ctx, "a1", false)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, acct.Data)

	acct.Data = []byte{2}
	require.NoError(t, h.PutAccount(ctx, acct))
	acct, err = h.GetAccount(ctx, "a1", false)
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, acct.Data)
}

func TestWithTxRollback(t *testing.T) {
	ctx := context.Background()
	h := New()
	boom := errors.New("boom")

	err := h.WithTx(ctx, func(txCtx context.Context) error {
		require.NoError(t, h.CreateAccount(txCtx, &models.Account{Address: "a1"}))
		require.NoError(t, h.WriteTransaction(txCtx, &models.Transaction{Signature: "s1", Slot: 1}))

		// Visible inside the transaction only.
		_, err := h.GetAccount(txCtx, "a1", true)
		require.NoError(t, err)
		_, err = h.GetAccount(ctx, "a1", false)
		assert.ErrorIs(t, err, models.ErrAccountNotFound)

		ok, err := h.HasSignature(txCtx, "s1")
		require.NoError(t, err)
		assert.True(t, ok)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = h.GetAccount(ctx, "a1", false)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
	ok, err := h.HasSignature(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTransactions(t *testing.T) {
	ctx := context.Background()
	h := New()

	for _, slot := range []uint64{3, 1, 2, 5} {
		require.NoError(t, h.WithTx(ctx, func(txCtx context.Context) error {
			return h.WriteTransaction(txCtx, &models.Transaction{Signature: string(rune('a' + slot)), Slot: slot})
		}))
	}

	err := h.WriteTransaction(ctx, &models.Transaction{Signature: "b", Slot: 9})
	assert.ErrorIs(t, err, models.ErrAlreadyProcessed)

	latest, err := h.LatestSlot(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), latest)

	txs, err := h.GetTransactionsInRange(ctx, 2, 4)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, uint64(2), txs[0].Slot)
	assert.Equal(t, uint64(3), txs[1].Slot)

	got, err := h.GetTransaction(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), got.Slot)

	_, err = h.GetTransaction(ctx, "zz")
	assert.ErrorIs(t, err, models.ErrTransactionNotFound)

	s1, err := h.NextSlot(ctx)
	require.NoError(t, err)
	s2, err := h.NextSlot(ctx)
	require.NoError(t, err)
	assert.Equal(t, s1+1, s2)
}
