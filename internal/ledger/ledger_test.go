package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/manifest-network/mediaproof/internal/anchor"
	"github.com/manifest-network/mediaproof/internal/clock"
	"github.com/manifest-network/mediaproof/internal/metrics"
	"github.com/manifest-network/mediaproof/internal/models"
	"github.com/manifest-network/mediaproof/internal/output/memory"
	"github.com/manifest-network/mediaproof/internal/programs"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSeed = "test-genesis"

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	t      *testing.T
	ctx    context.Context
	ledger *Ledger
	store  *memory.Handler
	wallet solana.PrivateKey
}

func newFixture(t *testing.T, window uint64) *fixture {
	t.Helper()
	wallet, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	store := memory.New()
	return &fixture{
		t:     t,
		ctx:   context.Background(),
		store: store,
		ledger: New(store, programs.DefaultWorkspace(), Config{
			GenesisSeed:     testSeed,
			BlockhashWindow: window,
			Clock:           clock.NewFixed(testNow),
		}),
		wallet: wallet,
	}
}

// build signs a transaction carrying ixs with the wallet and extra signers.
func (f *fixture) build(ixs []solana.Instruction, extra ...solana.PrivateKey) []byte {
	f.t.Helper()
	hash, _, err := f.ledger.LatestBlockhash(f.ctx)
	require.NoError(f.t, err)
	tx, err := solana.NewTransaction(ixs, hash, solana.TransactionPayer(f.wallet.PublicKey()))
	require.NoError(f.t, err)
	signers := append([]solana.PrivateKey{f.wallet}, extra...)
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range signers {
			if signers[i].PublicKey().Equals(key) {
				return &signers[i]
			}
		}
		return nil
	})
	require.NoError(f.t, err)
	raw, err := tx.MarshalBinary()
	require.NoError(f.t, err)
	return raw
}

func (f *fixture) instruction(p *programs.Program, name string, args any, accounts ...solana.PublicKey) *solana.GenericInstruction {
	f.t.Helper()
	ix, err := p.NewInstruction(name, args, accounts...)
	require.NoError(f.t, err)
	return ix
}

func (f *fixture) initialize(p *programs.Program) solana.PublicKey {
	f.t.Helper()
	account, err := solana.NewRandomPrivateKey()
	require.NoError(f.t, err)
	raw := f.build([]solana.Instruction{f.instruction(p, "initialize", nil, account.PublicKey(), f.wallet.PublicKey())}, account)
	_, err = f.ledger.SendTransaction(f.ctx, raw)
	require.NoError(f.t, err)
	return account.PublicKey()
}

func TestSendTransaction(t *testing.T) {
	f := newFixture(t, 0)
	p := programs.NewDeepfakeStorage()
	account := f.initialize(p)

	raw := f.build([]solana.Instruction{f.instruction(p, "store_image",
		programs.StoreImageArgs{ImageHash: "img", DeepfakeValue: 1}, account, f.wallet.PublicKey())})
	sig, err := f.ledger.SendTransaction(f.ctx, raw)
	require.NoError(t, err)

	tx, err := f.ledger.Transaction(f.ctx, sig.String())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), tx.Slot)
	assert.Equal(t, testNow.Unix(), tx.BlockTime)
	assert.Equal(t, programs.DeepfakeStorageID, tx.Program)
	assert.Equal(t, "store_image", tx.Instruction)
	assert.Equal(t, []string{account.String(), f.wallet.PublicKey().String()}, tx.Accounts)
	assert.Equal(t, []string{f.wallet.PublicKey().String()}, tx.Signers)
	require.Len(t, tx.Events, 1)
	assert.Equal(t, programs.ImageAddedEvent, tx.Events[0].Name)

	_, slot, err := f.ledger.LatestBlockhash(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), slot)

	_, err = f.ledger.SendTransaction(f.ctx, raw)
	assert.ErrorIs(t, err, models.ErrAlreadyProcessed)

	txs, err := f.ledger.Transactions(f.ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "initialize", txs[0].Instruction)

	info, err := f.ledger.Account(f.ctx, account.String())
	require.NoError(t, err)
	assert.Equal(t, programs.DeepfakeStorageName, info.Program)
	assert.Equal(t, programs.DeepfakeAccountType, info.Type)
	state, ok := info.State.(*models.DeepfakeAccount)
	require.True(t, ok)
	assert.Equal(t, uint32(1), state.ImageCount)
}

func TestSendTransactionRejects(t *testing.T) {
	f := newFixture(t, 2)
	p := programs.NewDeepfakeStorage()
	account := f.initialize(p)
	store := func(hash string) solana.Instruction {
		return f.instruction(p, "store_image", programs.StoreImageArgs{ImageHash: hash, DeepfakeValue: 1}, account, f.wallet.PublicKey())
	}

	t.Run("tampered message", func(t *testing.T) {
		raw := f.build([]solana.Instruction{store("a")})
		raw[len(raw)-1] ^= 0xff
		_, err := f.ledger.SendTransaction(f.ctx, raw)
		assert.ErrorIs(t, err, ErrSignatureVerification)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := f.ledger.SendTransaction(f.ctx, []byte{1, 2, 3})
		assert.ErrorIs(t, err, ErrInvalidTransaction)
	})

	t.Run("two instructions", func(t *testing.T) {
		_, err := f.ledger.SendTransaction(f.ctx, f.build([]solana.Instruction{store("a"), store("b")}))
		assert.ErrorIs(t, err, ErrUnsupportedTransaction)
	})

	t.Run("unknown program", func(t *testing.T) {
		other, err := solana.NewRandomPrivateKey()
		require.NoError(t, err)
		ix := solana.NewInstruction(other.PublicKey(), solana.AccountMetaSlice{
			solana.NewAccountMeta(f.wallet.PublicKey(), true, true),
		}, []byte{0})
		_, err = f.ledger.SendTransaction(f.ctx, f.build([]solana.Instruction{ix}))
		assert.ErrorIs(t, err, ErrUnknownProgram)
	})

	t.Run("program error", func(t *testing.T) {
		ix := f.instruction(p, "store_image", programs.StoreImageArgs{ImageHash: "a", DeepfakeValue: 9}, account, f.wallet.PublicKey())
		_, err := f.ledger.SendTransaction(f.ctx, f.build([]solana.Instruction{ix}))
		var txErr *TransactionError
		require.ErrorAs(t, err, &txErr)
		assert.Equal(t, "store_image", txErr.Instruction)
		assert.NotEmpty(t, txErr.Logs)
		var ae *anchor.Error
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, uint32(6000), ae.Code)

		_, err = f.ledger.Transaction(f.ctx, "not a signature")
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("expired blockhash", func(t *testing.T) {
		stale := f.build([]solana.Instruction{store("stale")})
		for _, h := range []string{"x", "y", "z"} {
			_, err := f.ledger.SendTransaction(f.ctx, f.build([]solana.Instruction{store(h)}))
			require.NoError(t, err)
		}
		_, err := f.ledger.SendTransaction(f.ctx, stale)
		assert.ErrorIs(t, err, ErrBlockhashNotFound)
	})

	t.Run("unknown blockhash", func(t *testing.T) {
		tx, err := solana.NewTransaction([]solana.Instruction{store("q")}, Blockhash("other", 0),
			solana.TransactionPayer(f.wallet.PublicKey()))
		require.NoError(t, err)
		_, err = tx.Sign(func(solana.PublicKey) *solana.PrivateKey { return &f.wallet })
		require.NoError(t, err)
		raw, err := tx.MarshalBinary()
		require.NoError(t, err)
		_, err = f.ledger.SendTransaction(f.ctx, raw)
		assert.ErrorIs(t, err, ErrBlockhashNotFound)
	})
}

func TestSimulate(t *testing.T) {
	f := newFixture(t, 0)
	p := programs.NewOriginalityStorage()
	account := f.initialize(p)

	write := f.build([]solana.Instruction{f.instruction(p, "store_originality",
		programs.StoreOriginalityArgs{ImageHash: "img", Originality: true}, account, f.wallet.PublicKey())})
	res, err := f.ledger.Simulate(f.ctx, write)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Slot)
	require.Len(t, res.Events, 1)

	view := f.build([]solana.Instruction{f.instruction(p, "get_originality", programs.ImageHashArgs{ImageHash: "img"}, account)})
	_, err = f.ledger.Simulate(f.ctx, view)
	var txErr *TransactionError
	require.ErrorAs(t, err, &txErr, "simulated writes must not persist")

	_, err = f.ledger.SendTransaction(f.ctx, write)
	require.NoError(t, err)

	res, err = f.ledger.Simulate(f.ctx, view)
	require.NoError(t, err)
	assert.True(t, res.View)
	assert.Equal(t, "get_originality", res.Instruction)
	var original bool
	require.NoError(t, anchor.UnBorsh(res.ReturnData, &original))
	assert.True(t, original)

	slot, err := f.ledger.LatestSlot(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), slot)
}

func TestSimulateIsNotCounted(t *testing.T) {
	f := newFixture(t, 0)
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)
	f.ledger.cfg.Metrics = m

	p := programs.NewOriginalityStorage()
	account := f.initialize(p)
	count := func() int {
		n, err := promtestutil.GatherAndCount(reg, "mediaproof_instructions_total")
		require.NoError(t, err)
		return n
	}
	require.Equal(t, 1, count())

	write := f.build([]solana.Instruction{f.instruction(p, "store_originality",
		programs.StoreOriginalityArgs{ImageHash: "img", Originality: true}, account, f.wallet.PublicKey())})
	_, err = f.ledger.Simulate(f.ctx, write)
	require.NoError(t, err)
	assert.Equal(t, 1, count())

	_, err = f.ledger.SendTransaction(f.ctx, write)
	require.NoError(t, err)
	assert.Equal(t, 2, count())
}

func TestTransactionsRange(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.ledger.Transactions(f.ctx, 5, 1)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = f.ledger.Transactions(f.ctx, 0, MaxSlotRange)
	assert.ErrorIs(t, err, ErrInvalidRange)
	txs, err := f.ledger.Transactions(f.ctx, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, txs)

	_, err = f.ledger.Account(f.ctx, "bogus")
	assert.ErrorIs(t, err, ErrInvalidAddress)
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	_, err = f.ledger.Account(f.ctx, key.PublicKey().String())
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestBlockhash(t *testing.T) {
	assert.Equal(t, Blockhash("seed", 7), Blockhash("seed", 7))
	assert.NotEqual(t, Blockhash("seed", 7), Blockhash("seed", 8))
	assert.NotEqual(t, Blockhash("seed", 7), Blockhash("other", 7))
}
