package provider

import (
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnv(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "nested", "id.json")
	require.NoError(t, WriteKeygenFile(path, key))

	t.Setenv(WalletEnv, path)
	t.Setenv(URLEnv, "ledger:1234")
	p, err := Env()
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), p.PublicKey())
	assert.Equal(t, "ledger:1234", p.URL)

	t.Setenv(URLEnv, "")
	p, err = Env()
	require.NoError(t, err)
	assert.Equal(t, DefaultURL, p.URL)
}

func TestNewErrors(t *testing.T) {
	_, err := New("", "")
	assert.ErrorIs(t, err, ErrNoWallet)

	_, err = New(filepath.Join(t.TempDir(), "missing.json"), "")
	assert.Error(t, err)
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	assert.Equal(t, "/home/tester/.config/solana/id.json", expandHome("~/.config/solana/id.json"))
	assert.Equal(t, "/abs/id.json", expandHome("/abs/id.json"))
	assert.Equal(t, "rel/id.json", expandHome("rel/id.json"))
}
