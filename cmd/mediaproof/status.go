package mediaproof

import (
	"fmt"
	"time"

	"github.com/manifest-network/mediaproof/internal/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print ledger health and the current blockhash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.NewRESTClient(viper.GetString("http-url"), viper.GetDuration("timeout"), viper.GetInt("max-retries"))

			health, err := c.Health(cmd.Context())
			if err != nil {
				return err
			}
			bh, err := c.Blockhash(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "status:    %s\nslot:      %d\nblockhash: %s\n", health.Status, health.Slot, bh.Blockhash)
			return nil
		},
	}
	cmd.Flags().String("http-url", "http://localhost:8080", "Ledger HTTP base URL")
	cmd.Flags().Duration("timeout", 5*time.Second, "Request timeout")
	cmd.Flags().Int("max-retries", 3, "Retries for failed requests")
	return cmd
}
