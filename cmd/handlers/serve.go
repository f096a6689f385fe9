package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketpulse/internal/logger"
	"marketpulse/internal/server"

	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command for starting the HTTP server
func NewServeCmd() *cobra.Command {
	var (
		port      int
		host      string
		staticDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the MarketPulse HTTP API.

Endpoints:
  GET  /                 liveness message
  GET  /health           health and cache status
  GET  /get-news         ?company=<name> -> {"news_links": [...]}
  POST /analyze          {"news_links": [...]} -> results keyed by title
  GET  /static/*         generated audio

Examples:
  # Start server on default port 8000
  marketpulse serve

  # Start on custom port
  marketpulse serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port, host, staticDir)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (default from config: 8000)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP server host (default from config: 0.0.0.0)")
	cmd.Flags().StringVar(&staticDir, "static-dir", "", "Static files directory (default from config)")

	return cmd
}

func runServe(port int, host, staticDir string) error {
	log := logger.Get()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Override server config from flags if provided
	serverCfg := cfg.Server
	if port != 0 {
		serverCfg.Port = port
	}
	if host != "" {
		serverCfg.Host = host
	}
	if staticDir != "" {
		serverCfg.StaticDir = staticDir
	}

	a, err := newApp(cfg, overrides{})
	if err != nil {
		return err
	}
	defer a.Close()

	var inspector server.CacheInspector
	if a.cache != nil {
		inspector = a.cache
	}
	srv := server.New(a.pipeline, a.discoverer, inspector, serverCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info(fmt.Sprintf("Server listening on http://%s:%d", serverCfg.Host, serverCfg.Port))
		errc <- srv.Start()
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Server shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
