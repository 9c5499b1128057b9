// Package provider binds the signing wallet to the ledger endpoint.
package provider

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gagliardetto/solana-go"
)

const (
	WalletEnv = "ANCHOR_WALLET"
	URLEnv    = "ANCHOR_PROVIDER_URL"

	DefaultURL = "localhost:9090"
)

// ErrNoWallet is returned when no wallet path is configured.
var ErrNoWallet = errors.New("wallet not configured")

// Provider is the wallet keypair paired with the ledger endpoint.
type Provider struct {
	Wallet solana.PrivateKey
	URL    string
}

// DefaultWalletPath is the solana-keygen default, ~/.config/solana/id.json.
func DefaultWalletPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "solana", "id.json")
	}
	return filepath.Join(home, ".config", "solana", "id.json")
}

// Env builds a provider from ANCHOR_WALLET and ANCHOR_PROVIDER_URL.
func Env() (*Provider, error) {
	wallet := os.Getenv(WalletEnv)
	if wallet == "" {
		wallet = DefaultWalletPath()
	}
	return New(wallet, os.Getenv(URLEnv))
}

// New loads the solana-keygen keypair file at walletPath. An empty url
// falls back to DefaultURL.
func New(walletPath, url string) (*Provider, error) {
	if walletPath == "" {
		return nil, ErrNoWallet
	}
	key, err := solana.PrivateKeyFromSolanaKeygenFile(expandHome(walletPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet %s: %w", walletPath, err)
	}
	if url == "" {
		url = DefaultURL
	}
	return &Provider{Wallet: key, URL: url}, nil
}

// PublicKey is the wallet address, which pays for and signs every transaction.
func (p *Provider) PublicKey() solana.PublicKey {
	return p.Wallet.PublicKey()
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
