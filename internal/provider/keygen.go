package provider

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
)

// WriteKeygenFile stores key in the solana-keygen JSON format: the 64 key
// bytes as a JSON array of integers.
func WriteKeygenFile(path string, key solana.PrivateKey) error {
	path = expandHome(path)
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create wallet directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write wallet: %w", err)
	}
	return nil
}
