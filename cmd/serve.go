package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agrisense/advisor/internal/artifact"
	"github.com/agrisense/advisor/internal/logger"
	"github.com/agrisense/advisor/internal/server"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API that the AgriSense app talks to.

The knowledge base is loaded once at startup. If loading fails the server
still starts and answers 503 until POST /api/admin/reload succeeds.

Examples:
  advisor serve
  advisor serve --port 9090 --watch`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "listen port (overrides server.port)")
	serveCmd.Flags().Bool("watch", false, "reload the knowledge base when artifact files change")
}

func runServe(cmd *cobra.Command, _ []string) error {
	defer logger.HandlePanic()
	logger.SetCommand("serve")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Server.Port = port
	}
	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		cfg.Artifacts.Watch = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := newServices(ctx, cfg, cfg.Log.Level, os.Stderr)
	if err != nil {
		return err
	}
	if err := rt.loadSnapshot(ctx); err != nil {
		rt.logger.Warn("starting without a knowledge snapshot", "error", err)
	}

	if cfg.Artifacts.Watch {
		watcher, err := artifact.NewWatcher(rt.source.Paths(), artifact.DefaultDebounce, func() {
			res := rt.engine.Reload(ctx)
			rt.logger.Info("artifact change reload", "ok", res.OK, "reason", res.Reason)
		}, rt.logger)
		if err != nil {
			return fmt.Errorf("watch artifacts: %w", err)
		}
		watcher.Start(ctx)
		defer func() { _ = watcher.Close() }()
	}

	srv := server.New(rt.engine, rt.metrics, server.Options{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Version:        GetVersion(),
	}, rt.logger)

	var wg sync.WaitGroup
	errChan := make(chan error, 2)
	srv.Start(&wg, errChan)

	rt.logger.Info("advisor listening",
		"addr", srv.Addr(), "source", rt.source.Describe(), "watch", cfg.Artifacts.Watch)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case sig := <-sigChan:
		rt.logger.Info("shutting down", "signal", sig.String())
	case runErr = <-errChan:
		rt.logger.Error("server stopped", "error", runErr)
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		rt.logger.Warn("server shutdown error", "error", err)
	}
	wg.Wait()
	return runErr
}
