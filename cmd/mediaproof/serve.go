package mediaproof

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/manifest-network/mediaproof/internal/clock"
	"github.com/manifest-network/mediaproof/internal/config"
	"github.com/manifest-network/mediaproof/internal/ledger"
	"github.com/manifest-network/mediaproof/internal/metrics"
	"github.com/manifest-network/mediaproof/internal/output"
	"github.com/manifest-network/mediaproof/internal/output/memory"
	"github.com/manifest-network/mediaproof/internal/output/postgresql"
	"github.com/manifest-network/mediaproof/internal/programs"
	"github.com/manifest-network/mediaproof/internal/transport/grpcserver"
	transporthttp "github.com/manifest-network/mediaproof/internal/transport/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ledger over gRPC and HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.ServeConfig{
				GRPCAddr:        viper.GetString("grpc-addr"),
				HTTPAddr:        viper.GetString("http-addr"),
				Backend:         config.Backend(viper.GetString("backend")),
				PostgresConn:    viper.GetString("postgres-conn"),
				Migrate:         viper.GetBool("migrate"),
				GenesisSeed:     viper.GetString("genesis-seed"),
				BlockhashWindow: viper.GetUint64("blockhash-window"),
				ShutdownTimeout: viper.GetDuration("shutdown-timeout"),
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid serve configuration: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().String("grpc-addr", ":9090", "gRPC listen address (empty disables)")
	cmd.Flags().String("http-addr", ":8080", "HTTP listen address (empty disables)")
	cmd.Flags().String("backend", string(config.BackendMemory), "State backend (memory, postgres)")
	cmd.Flags().String("postgres-conn", "", "PostgreSQL connection string")
	cmd.Flags().Bool("migrate", false, "Apply database migrations before serving")
	cmd.Flags().String("genesis-seed", "mediaproof", "Seed the blockhash chain is derived from")
	cmd.Flags().Uint64("blockhash-window", ledger.DefaultBlockhashWindow, "Slots a blockhash stays valid for")
	cmd.Flags().Duration("shutdown-timeout", 10*time.Second, "Grace period for in-flight requests on shutdown")
	return cmd
}

func openStore(ctx context.Context, cfg config.ServeConfig) (output.OutputHandler, error) {
	if cfg.Backend == config.BackendMemory {
		slog.Warn("Using the in-memory backend, state is lost on exit")
		return memory.New(), nil
	}
	h, err := postgresql.NewPostgresOutputHandler(ctx, cfg.PostgresConn)
	if err != nil {
		return nil, err
	}
	if cfg.Migrate {
		if err := postgresql.Migrate(h.DB()); err != nil {
			_ = h.Close()
			return nil, err
		}
	}
	return h, nil
}

func serve(ctx context.Context, cfg config.ServeConfig) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Backend, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close store", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}

	l := ledger.New(store, programs.DefaultWorkspace(), ledger.Config{
		GenesisSeed:     cfg.GenesisSeed,
		BlockhashWindow: cfg.BlockhashWindow,
		Clock:           clock.NewSystem(),
		Metrics:         m,
	})
	if slot, err := l.LatestSlot(ctx); err == nil {
		m.SetSlot(slot)
	}

	eg, ctx := errgroup.WithContext(ctx)

	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.GRPCAddr, err)
		}
		srv := grpcserver.NewGRPCServer(l)
		eg.Go(func() error {
			slog.Info("gRPC server listening", "address", lis.Addr().String())
			return srv.Serve(lis)
		})
		eg.Go(func() error {
			<-ctx.Done()
			stopped := make(chan struct{})
			go func() {
				srv.GracefulStop()
				close(stopped)
			}()
			select {
			case <-stopped:
			case <-time.After(cfg.ShutdownTimeout):
				srv.Stop()
			}
			return nil
		})
	}

	if cfg.HTTPAddr != "" {
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           transporthttp.NewRouter(l, reg, slog.Default()),
			ReadHeaderTimeout: 10 * time.Second,
		}
		eg.Go(func() error {
			slog.Info("HTTP server listening", "address", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		eg.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = eg.Wait()
	slog.Info("Server stopped")
	return err
}
