package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/takutakahashi/push-registry/internal/app"
	"github.com/takutakahashi/push-registry/internal/di"
	"github.com/takutakahashi/push-registry/pkg/config"
	"github.com/takutakahashi/push-registry/pkg/logger"
)

var (
	port    string
	cfg     string
	verbose bool
)

var ServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the push subscription registry",
	Long:  "Start the HTTP service that records which push tokens belong to which identities",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServer(ctx, cmd.Flags())
	},
}

func init() {
	ServerCmd.Flags().StringVarP(&port, "port", "p", "8080", "Port to listen on")
	ServerCmd.Flags().StringVarP(&cfg, "config", "c", "", "Configuration file path (JSON or YAML)")
	ServerCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// newViper binds the command line flags that override configuration values
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	if err := v.BindPFlag("port", flags.Lookup("port")); err != nil {
		return nil, fmt.Errorf("failed to bind port flag: %w", err)
	}
	return v, nil
}

// runServer serves until ctx is cancelled or a listener fails
func runServer(ctx context.Context, flags *pflag.FlagSet) error {
	v, err := newViper(flags)
	if err != nil {
		return err
	}

	configData, err := config.LoadConfigWithViper(v, cfg)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		configData.Log.Level = "debug"
	}

	log, closer, err := logger.NewLogger(logger.Options{
		Level:  configData.Log.Level,
		Format: configData.Log.Format,
		File:   configData.Log.File,
	})
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()
	slog.SetDefault(log)

	container, err := di.NewContainer(ctx, configData, log)
	if err != nil {
		log.Error("refusing to start", "error", err)
		return err
	}

	server := app.NewServer(configData, container)
	errs := make(chan error, 2)
	server.Start(errs)

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, shutting down gracefully")
	case serveErr = <-errs:
		log.Error("listener failed", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), configData.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", "error", err)
		if serveErr == nil {
			serveErr = err
		}
	}

	log.Info("server shutdown complete")
	return serveErr
}
