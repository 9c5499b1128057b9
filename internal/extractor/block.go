package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/manifest-network/mediaproof/internal/client"
	"github.com/manifest-network/mediaproof/internal/config"
	"github.com/manifest-network/mediaproof/internal/ledger"
	"github.com/manifest-network/mediaproof/internal/models"
	"github.com/manifest-network/mediaproof/internal/utils"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

type slotRange struct {
	from, to uint64
}

func (r slotRange) size() uint64 {
	return r.to - r.from + 1
}

// split cuts [start, stop] into consecutive ranges of at most size slots.
func split(start, stop, size uint64) []slotRange {
	var out []slotRange
	for from := start; from <= stop; {
		to := stop
		if stop-from >= size {
			to = from + size - 1
		}
		out = append(out, slotRange{from, to})
		if to == stop {
			break
		}
		from = to + 1
	}
	return out
}

// extractTransactions copies the transactions recorded in [start, stop] to exporter.
func extractTransactions(gRPCClient *client.GRPCClient, start, stop uint64, exporter Exporter, cfg config.ExtractConfig) error {
	displayProgress := start != stop
	if displayProgress {
		slog.Info("Extracting transactions", "range", fmt.Sprintf("[%d, %d]", start, stop))
	} else {
		slog.Info("Extracting transactions", "slot", start)
	}
	var bar *progressbar.ProgressBar
	if displayProgress {
		bar = progressbar.NewOptions64(
			int64(stop-start+1),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetDescription("Processing slots..."),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
		if err := bar.RenderBlank(); err != nil {
			return fmt.Errorf("failed to render progress bar: %w", err)
		}
	}

	if err := processSlots(gRPCClient, start, stop, exporter, cfg, bar); err != nil {
		return fmt.Errorf("failed to process transactions: %w", err)
	}

	if bar != nil {
		if err := bar.Finish(); err != nil {
			return fmt.Errorf("failed to finish progress bar: %w", err)
		}
	}
	return nil
}

// processSlots fetches batches in parallel and exports them in slot order.
func processSlots(gRPCClient *client.GRPCClient, start, stop uint64, exporter Exporter, cfg config.ExtractConfig, bar *progressbar.ProgressBar) error {
	batches := split(start, stop, cfg.BatchSize)
	results := make([][]*models.Transaction, len(batches))

	eg, ctx := errgroup.WithContext(gRPCClient.Ctx)
	sem := make(chan struct{}, cfg.MaxConcurrency)
	clientWithCtx := gRPCClient.WithContext(ctx)

	for i, batch := range batches {
		if ctx.Err() != nil {
			slog.Info("Processing cancelled by user")
			break
		}
		sem <- struct{}{}

		eg.Go(func() error {
			defer func() { <-sem }()

			txs, err := fetchRangeWithRetry(clientWithCtx, batch, cfg.MaxRetries)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					slog.Error("Slot range processing error",
						"from", batch.from,
						"to", batch.to,
						"error", err,
						"errorType", fmt.Sprintf("%T", err))
				}
				return fmt.Errorf("failed to process slots [%d, %d]: %w", batch.from, batch.to, err)
			}
			results[i] = txs

			if bar != nil {
				if err := bar.Add64(int64(batch.size())); err != nil {
					slog.Warn("Failed to update progress bar", "error", err)
				}
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("error while fetching transactions: %w", err)
	}
	if err := gRPCClient.Ctx.Err(); err != nil {
		return err
	}

	for _, txs := range results {
		if err := exporter.Export(gRPCClient.Ctx, txs); err != nil {
			return fmt.Errorf("failed to export transactions: %w", err)
		}
	}
	return nil
}

// fetchRangeWithRetry fetches r, splitting it when the server reports a
// smaller per-query slot limit.
func fetchRangeWithRetry(gRPCClient *client.GRPCClient, r slotRange, maxRetries uint) ([]*models.Transaction, error) {
	txs, err := utils.GetTransactionsWithRetry(gRPCClient, r.from, r.to, maxRetries)
	if err == nil {
		return txs, nil
	}
	if !errors.Is(err, ledger.ErrInvalidRange) {
		return nil, err
	}
	limit := utils.ParseMaxSlotRangeFromError(err.Error())
	if limit == 0 || limit >= r.size() {
		return nil, err
	}

	slog.Debug("Shrinking slot range", "from", r.from, "to", r.to, "limit", limit)
	var out []*models.Transaction
	for _, sub := range split(r.from, r.to, limit) {
		part, err := fetchRangeWithRetry(gRPCClient, sub, maxRetries)
		if err != nil {
			return nil, err
		}
		out = append(out, part...)
	}
	return out, nil
}
