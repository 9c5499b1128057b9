package mediaproof

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/manifest-network/mediaproof/internal/config"
	"github.com/manifest-network/mediaproof/internal/extractor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Copy recorded transactions to a JSON lines file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.ExtractConfig{
				SlotStart:      viper.GetUint64("start"),
				SlotStop:       viper.GetUint64("stop"),
				BlockTime:      viper.GetUint("block-time"),
				MaxConcurrency: viper.GetUint("max-concurrency"),
				MaxRetries:     viper.GetUint("max-retries"),
				BatchSize:      viper.GetUint64("batch-size"),
				Live:           viper.GetBool("live"),
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid extract configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, closeFn, err := dial(ctx, providerConfig())
			if err != nil {
				return err
			}
			defer closeFn()

			var w io.Writer = cmd.OutOrStdout()
			if out := viper.GetString("out"); out != "" && out != "-" {
				f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			exporter := extractor.NewJSONLExporter(w)
			if err := extractor.Extract(c, exporter, cfg); err != nil {
				return err
			}
			slog.Info("Extraction finished", "transactions", exporter.Count())
			return nil
		},
	}
	addProviderFlags(cmd)
	cmd.Flags().Uint64("start", 1, "First slot to extract")
	cmd.Flags().Uint64("stop", 0, "Last slot to extract (default: latest)")
	cmd.Flags().Bool("live", false, "Keep following the ledger")
	cmd.Flags().Uint("block-time", 2, "Seconds between polls in live mode")
	cmd.Flags().Uint("max-concurrency", 10, "Slot batches fetched in parallel")
	cmd.Flags().Uint64("batch-size", 500, "Slots per GetTransactions query")
	cmd.Flags().StringP("out", "o", "-", "Output file, appended to (- for stdout)")
	return cmd
}
