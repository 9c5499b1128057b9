package extractor

import (
	"fmt"
	"time"

	"github.com/manifest-network/mediaproof/internal/client"
	"github.com/manifest-network/mediaproof/internal/config"
	"github.com/manifest-network/mediaproof/internal/utils"
)

// extractLiveTransactions follows the ledger, exporting new slots as they are recorded.
func extractLiveTransactions(gRPCClient *client.GRPCClient, start uint64, exporter Exporter, cfg config.ExtractConfig) error {
	next := start
	ticker := time.NewTicker(time.Duration(cfg.BlockTime) * time.Second)
	defer ticker.Stop()

	for {
		latest, err := utils.GetLatestSlotWithRetry(gRPCClient, cfg.MaxRetries)
		if err != nil {
			if gRPCClient.Ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to get latest slot: %w", err)
		}

		if latest >= next {
			if err := extractTransactions(gRPCClient, next, latest, exporter, cfg); err != nil {
				if gRPCClient.Ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("failed to process transactions: %w", err)
			}
			next = latest + 1
		}

		select {
		case <-gRPCClient.Ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
