package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/boardpass/internal/config"
	"github.com/MeKo-Tech/boardpass/internal/lookup"
	"github.com/MeKo-Tech/boardpass/internal/server"
	"github.com/MeKo-Tech/boardpass/internal/version"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the boarding pass HTTP API",
	Long: `Start an HTTP server that resolves tickets and renders boarding passes.

The server provides the following endpoints:
  GET  /health                         - Health check
  POST /scan                           - Decode an uploaded QR image and resolve it
  GET  /tickets/{code}                 - Ticket detail
  GET  /tickets/{code}/boarding-pass   - Boarding pass PDF
  POST /boarding-pass                  - Boarding pass PDF for a posted ticket
  GET  /flights                        - Flight list
  GET  /ws/scan                        - Live camera scanning over websocket
  GET  /metrics                        - Prometheus metrics

Examples:
  boardpass serve
  boardpass serve --port 8080
  boardpass serve --host 0.0.0.0 --port 3000 --rate-limit-enabled`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := *GetConfig()
		applyServeFlags(cmd, &cfg.Server)
		if err := cfg.Validate(); err != nil {
			return err
		}

		store, err := lookup.Open(cfg.Lookup)
		if err != nil {
			return fmt.Errorf("failed to open ticket store: %w", err)
		}
		defer func() { _ = store.Close() }()

		api := server.NewServer(server.ConfigFromSettings(&cfg, version.Version), store, logoSource(cmd, &cfg))

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		httpServer := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:           api.Router(),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       time.Duration(cfg.Server.TimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(cfg.Server.TimeoutSec) * time.Second,
		}

		go func() {
			slog.Info("Starting boardpass server", "host", cfg.Server.Host, "port", cfg.Server.Port,
				"backend", cfg.Lookup.Backend, "version", version.Version)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Server error", "error", err)
				cancel()
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
		case <-ctx.Done():
			slog.Info("Context cancelled, initiating shutdown")
		}

		shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
		slog.Info("Starting graceful shutdown", "timeout", shutdownTimeout.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
			return err
		}
		slog.Info("Graceful shutdown completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	defaults := config.DefaultConfig().Server
	serveCmd.Flags().StringP("host", "H", defaults.Host, "server host")
	serveCmd.Flags().IntP("port", "p", defaults.Port, "server port")
	serveCmd.Flags().String("cors-origin", defaults.CORSOrigin, "CORS allowed origins")
	serveCmd.Flags().Int("max-upload-size", defaults.MaxUploadMB, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", defaults.TimeoutSec, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", defaults.ShutdownTimeout, "shutdown timeout in seconds")
	serveCmd.Flags().String("logo", "", "logo image file")
	// Rate limiting flags
	serveCmd.Flags().Bool("rate-limit-enabled", defaults.RateLimit.Enabled, "enable rate limiting")
	serveCmd.Flags().Int("requests-per-minute", defaults.RateLimit.RequestsPerMinute, "maximum requests per minute per client")
	serveCmd.Flags().Int("requests-per-hour", defaults.RateLimit.RequestsPerHour, "maximum requests per hour per client")
	serveCmd.Flags().Int("max-requests-per-day", defaults.RateLimit.MaxRequestsPerDay, "maximum requests per day per client (0 for unlimited)")
	serveCmd.Flags().Int64("max-data-per-day", defaults.RateLimit.MaxDataPerDayMB, "maximum upload MB per day per client (0 for unlimited)")
}

// applyServeFlags overrides the server section with explicitly set flags.
func applyServeFlags(cmd *cobra.Command, s *config.ServerConfig) {
	f := cmd.Flags()
	if f.Changed("host") {
		s.Host, _ = f.GetString("host")
	}
	if f.Changed("port") {
		s.Port, _ = f.GetInt("port")
	}
	if f.Changed("cors-origin") {
		s.CORSOrigin, _ = f.GetString("cors-origin")
	}
	if f.Changed("max-upload-size") {
		s.MaxUploadMB, _ = f.GetInt("max-upload-size")
	}
	if f.Changed("timeout") {
		s.TimeoutSec, _ = f.GetInt("timeout")
	}
	if f.Changed("shutdown-timeout") {
		s.ShutdownTimeout, _ = f.GetInt("shutdown-timeout")
	}
	if f.Changed("rate-limit-enabled") {
		s.RateLimit.Enabled, _ = f.GetBool("rate-limit-enabled")
	}
	if f.Changed("requests-per-minute") {
		s.RateLimit.RequestsPerMinute, _ = f.GetInt("requests-per-minute")
	}
	if f.Changed("requests-per-hour") {
		s.RateLimit.RequestsPerHour, _ = f.GetInt("requests-per-hour")
	}
	if f.Changed("max-requests-per-day") {
		s.RateLimit.MaxRequestsPerDay, _ = f.GetInt("max-requests-per-day")
	}
	if f.Changed("max-data-per-day") {
		s.RateLimit.MaxDataPerDayMB, _ = f.GetInt64("max-data-per-day")
	}
}
