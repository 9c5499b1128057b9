// Package config holds the validated settings of each mediaproof command.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ProviderConfig locates the ledger and the wallet that signs for it.
type ProviderConfig struct {
	URL        string
	Wallet     string
	Insecure   bool
	MaxRetries uint
}

// Validate checks that a ledger endpoint is set.
func (c ProviderConfig) Validate() error {
	if c.URL == "" {
		return errors.New("provider URL must be set")
	}
	return nil
}

// Backend selects where a served ledger keeps its state.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendPostgres Backend = "postgres"
)

// ServeConfig configures `mediaproof serve`.
type ServeConfig struct {
	GRPCAddr        string
	HTTPAddr        string
	Backend         Backend
	PostgresConn    string
	Migrate         bool
	GenesisSeed     string
	BlockhashWindow uint64
	ShutdownTimeout time.Duration
}

// Validate checks the listeners, the backend and its connection settings.
func (c ServeConfig) Validate() error {
	if c.GRPCAddr == "" && c.HTTPAddr == "" {
		return errors.New("at least one of the gRPC or HTTP addresses must be set")
	}
	switch c.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.PostgresConn == "" {
			return errors.New("postgres backend requires a connection string")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Migrate && c.Backend != BackendPostgres {
		return errors.New("migrations only apply to the postgres backend")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	return nil
}

// ExtractConfig configures `mediaproof extract`. A zero SlotStop means the
// latest slot at the time extraction starts.
type ExtractConfig struct {
	SlotStart      uint64
	SlotStop       uint64
	BlockTime      uint
	MaxConcurrency uint
	MaxRetries     uint
	BatchSize      uint64
	Live           bool
}

// Validate checks the slot range and the concurrency settings.
func (c ExtractConfig) Validate() error {
	if c.Live && c.SlotStop != 0 {
		return errors.New("live extraction cannot have a stop slot")
	}
	if c.SlotStop != 0 && c.SlotStop < c.SlotStart {
		return fmt.Errorf("stop slot %d is before start slot %d", c.SlotStop, c.SlotStart)
	}
	if c.MaxConcurrency == 0 {
		return errors.New("max concurrency must be at least 1")
	}
	if c.BatchSize == 0 {
		return errors.New("batch size must be at least 1")
	}
	if c.Live && c.BlockTime == 0 {
		return errors.New("block time must be at least 1 second in live mode")
	}
	return nil
}
