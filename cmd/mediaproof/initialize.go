package mediaproof

import (
	"fmt"
	"log/slog"

	"github.com/manifest-network/mediaproof/internal/programs"
	"github.com/spf13/cobra"
)

var defaultInitializePrograms = []string{programs.DeepfakeStorageName, programs.OriginalityStorageName}

func initializeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "initialize [program...]",
		Short: "Create a fresh state account for each program",
		Long: "Initialize creates a state account for each named program, paid for by the wallet.\n" +
			"Without arguments it initializes deepfake-storage, then originality-storage.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = defaultInitializePrograms
			}
			ws, closeFn, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			for _, name := range args {
				h, err := ws.Program(name)
				if err != nil {
					return err
				}
				sig, account, err := h.Initialize(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to initialize %s: %w", name, err)
				}
				slog.Info("Your transaction signature", "signature", sig.String(), "program", h.Name(), "account", account.String())
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", h.Name(), account, sig)
			}
			return nil
		},
	}
	addProviderFlags(cmd)
	return cmd
}
