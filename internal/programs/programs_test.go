package programs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/manifest-network/mediaproof/internal/anchor"
	"github.com/manifest-network/mediaproof/internal/output/memory"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t     *testing.T
	store *memory.Handler
	user  solana.PublicKey
	now   time.Time
	slot  uint64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		t:     t,
		store: memory.New(),
		user:  newKey(t),
		now:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newKey(t *testing.T) solana.PublicKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key.PublicKey()
}

func (h *harness) exec(p *Program, ix *solana.GenericInstruction) (*Result, error) {
	h.t.Helper()
	data, err := ix.Data()
	require.NoError(h.t, err)
	h.slot++
	return p.Execute(context.Background(), Invocation{
		Accounts: ix.Accounts(),
		Data:     data,
		Slot:     h.slot,
		Now:      h.now,
		Store:    h.store,
	})
}

func (h *harness) call(p *Program, name string, args any, accounts ...solana.PublicKey) (*Result, error) {
	h.t.Helper()
	ix, err := p.NewInstruction(name, args, accounts...)
	require.NoError(h.t, err)
	return h.exec(p, ix)
}

func (h *harness) initialize(p *Program) solana.PublicKey {
	h.t.Helper()
	account := newKey(h.t)
	_, err := h.call(p, "initialize", nil, account, h.user)
	require.NoError(h.t, err)
	return account
}

func requireCode(t *testing.T, err error, code uint32, name string) {
	t.Helper()
	var ae *anchor.Error
	require.True(t, errors.As(err, &ae), "expected anchor error, got %v", err)
	require.Equal(t, code, ae.Code)
	require.Equal(t, name, ae.Name)
}
