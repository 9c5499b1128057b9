package mediaproof

import (
	"context"
	"fmt"

	"github.com/manifest-network/mediaproof/internal/client"
	"github.com/manifest-network/mediaproof/internal/config"
	"github.com/manifest-network/mediaproof/internal/provider"
	"github.com/manifest-network/mediaproof/internal/workspace"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// addProviderFlags registers the flags of every command that talks to a ledger.
func addProviderFlags(cmd *cobra.Command) {
	cmd.Flags().String("url", "", "Ledger gRPC address (default: $"+provider.URLEnv+" or "+provider.DefaultURL+")")
	cmd.Flags().String("wallet", "", "solana-keygen wallet file (default: $"+provider.WalletEnv+" or ~/.config/solana/id.json)")
	cmd.Flags().BoolP("insecure", "k", false, "Use a plaintext gRPC connection")
	cmd.Flags().Uint("max-retries", 3, "Retries for transient gRPC failures")
}

func providerConfig() config.ProviderConfig {
	_ = viper.BindEnv("url", envPrefix+"_URL", provider.URLEnv)
	_ = viper.BindEnv("wallet", envPrefix+"_WALLET", provider.WalletEnv)

	cfg := config.ProviderConfig{
		URL:        viper.GetString("url"),
		Wallet:     viper.GetString("wallet"),
		Insecure:   viper.GetBool("insecure"),
		MaxRetries: viper.GetUint("max-retries"),
	}
	if cfg.URL == "" {
		cfg.URL = provider.DefaultURL
	}
	if cfg.Wallet == "" {
		cfg.Wallet = provider.DefaultWalletPath()
	}
	return cfg
}

// dial connects to the configured ledger. The returned func closes the connection.
func dial(ctx context.Context, cfg config.ProviderConfig) (*client.GRPCClient, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	c, conn, err := client.NewGRPCClient(ctx, cfg.URL, cfg.Insecure)
	if err != nil {
		return nil, nil, err
	}
	return c, func() { _ = conn.Close() }, nil
}

// openWorkspace loads the wallet and connects a workspace to the ledger.
func openWorkspace(ctx context.Context) (*workspace.Workspace, func(), error) {
	cfg := providerConfig()
	p, err := provider.New(cfg.Wallet, cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	c, closeFn, err := dial(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", cfg.URL, err)
	}
	return workspace.New(p, c, cfg.MaxRetries), closeFn, nil
}
