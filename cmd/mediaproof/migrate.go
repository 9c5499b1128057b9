package mediaproof

import (
	"fmt"

	"github.com/manifest-network/mediaproof/internal/output/postgresql"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or revert the PostgreSQL schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			conn := viper.GetString("postgres-conn")
			if conn == "" {
				return fmt.Errorf("--postgres-conn is required")
			}
			h, err := postgresql.NewPostgresOutputHandler(cmd.Context(), conn)
			if err != nil {
				return err
			}
			defer h.Close()

			if len(args) == 1 && args[0] == "down" {
				return postgresql.MigrateDown(h.DB())
			}
			return postgresql.Migrate(h.DB())
		},
	}
	cmd.Flags().String("postgres-conn", "", "PostgreSQL connection string")
	return cmd
}
