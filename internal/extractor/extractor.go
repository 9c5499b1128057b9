// Package extractor follows a ledger over gRPC and copies its recorded
// transactions to an Exporter.
package extractor

import (
	"fmt"
	"log/slog"

	"github.com/manifest-network/mediaproof/internal/client"
	"github.com/manifest-network/mediaproof/internal/config"
	"github.com/manifest-network/mediaproof/internal/utils"
)

// Extract copies transactions from cfg.SlotStart on. Without a stop slot it
// runs to the latest slot, or keeps following the ledger when cfg.Live is set
// until the client context ends.
func Extract(gRPCClient *client.GRPCClient, exporter Exporter, cfg config.ExtractConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid extract configuration: %w", err)
	}
	start := max(cfg.SlotStart, 1)

	if cfg.Live {
		slog.Info("Following ledger", "start", start, "blockTime", cfg.BlockTime)
		return extractLiveTransactions(gRPCClient, start, exporter, cfg)
	}

	stop := cfg.SlotStop
	if stop == 0 {
		latest, err := utils.GetLatestSlotWithRetry(gRPCClient, cfg.MaxRetries)
		if err != nil {
			return fmt.Errorf("failed to get latest slot: %w", err)
		}
		stop = latest
	}
	if stop < start {
		slog.Info("Nothing to extract", "start", start, "latest", stop)
		return nil
	}
	return extractTransactions(gRPCClient, start, stop, exporter, cfg)
}
