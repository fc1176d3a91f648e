package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amoylab/cryptogrammer/internal/common/cnst"
	"github.com/amoylab/cryptogrammer/internal/common/config"
	"github.com/amoylab/cryptogrammer/internal/core"
	"github.com/amoylab/cryptogrammer/internal/notifier"
	"github.com/amoylab/cryptogrammer/pkg/helper"
	"github.com/amoylab/cryptogrammer/pkg/logger"
	"github.com/amoylab/cryptogrammer/pkg/trace"
	"github.com/amoylab/cryptogrammer/pkg/version"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

var (
	configPath string

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of " + cnst.CommandName,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", cnst.CommandName, version.Get())
		},
	}

	testCmd = &cobra.Command{
		Use:   "test",
		Short: "Test the configuration file",
		Long:  "Load and validate the configuration file, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration %s: %w", cfgPath, err)
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("configuration %s is invalid: %w", cfgPath, err)
			}
			fmt.Printf("configuration file %s test is successful\n", cfgPath)
			return nil
		},
	}

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Print session lifecycle events from the notifier stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return watch(ctx, zap.NewNop(), &cfg.Notifier, cmd.OutOrStdout())
		},
	}

	rootCmd = &cobra.Command{
		Use:   cnst.CommandName,
		Short: "Real-time session server for collaborative cryptogram puzzles",
		Long:  `Hosts shared puzzle sessions over websockets and keeps every member in sync`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "conf", "c", cnst.ServerYaml, "path to configuration file, like /etc/cryptogrammer/cryptogrammer.yaml")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(watchCmd)
}

func initLogger(cfg *config.ServerConfig) *zap.Logger {
	lg, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return lg
}

func initNotifier(lg *zap.Logger, cfg *config.NotifierConfig) notifier.Notifier {
	n, err := notifier.NewNotifier(lg, cfg)
	if err != nil {
		lg.Fatal("failed to initialize notifier", zap.Error(err))
	}
	return n
}

func initTracing(ctx context.Context, lg *zap.Logger, cfg *trace.Config) func(context.Context) error {
	shutdown, err := trace.InitTracing(ctx, cfg, lg)
	if err != nil {
		lg.Warn("failed to initialize tracing, continuing without it", zap.Error(err))
		return func(context.Context) error { return nil }
	}
	return shutdown
}

// watch prints every lifecycle event as one JSON line until ctx ends
func watch(ctx context.Context, lg *zap.Logger, cfg *config.NotifierConfig, out io.Writer) error {
	n, err := notifier.NewNotifier(lg, cfg)
	if err != nil {
		return err
	}
	defer n.Close()

	w, ok := n.(notifier.Watcher)
	if !ok {
		return fmt.Errorf("notifier type %q cannot be watched", cfg.Type)
	}
	ch, err := w.Watch(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if err := enc.Encode(ev); err != nil {
				return err
			}
		}
	}
}

func run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, cfgPath, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration %s: %v", cfgPath, err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration %s: %v", cfgPath, err)
	}

	lg := initLogger(cfg)
	defer lg.Sync()

	lg.Info("Starting "+cnst.AppName,
		zap.String("version", version.Get()),
		zap.String("config", cfgPath))

	shutdownTracing := initTracing(ctx, lg, &cfg.Tracing)

	pidFile := helper.NewPIDFile(cfg.PID)
	if err := pidFile.Write(); err != nil {
		lg.Fatal("failed to write PID file",
			zap.String("path", pidFile.Path()),
			zap.Error(err))
	}
	defer func() {
		if err := pidFile.Remove(); err != nil {
			lg.Error("failed to remove PID file", zap.Error(err))
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	srv, err := core.NewServer(lg, cfg, initNotifier(lg, &cfg.Notifier))
	if err != nil {
		lg.Fatal("failed to create server", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		lg.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			lg.Error("server stopped unexpectedly", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		lg.Error("failed to shutdown server", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		lg.Warn("failed to flush traces", zap.Error(err))
	}
	lg.Info("server shutdown completed")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
