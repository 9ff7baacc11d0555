package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/stockroom-dev/stockroom/internal/config"
	"github.com/stockroom-dev/stockroom/internal/handlers"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the catalog API server",
		Long: `Starts the Stockroom HTTP API on the specified port.

The API exposes product listing, addition and removal, category suggestions,
attachment uploads and the interactive removal selection flow.`,
		Example: `  # Start server on default port 8888
  stockroom serve

  # Start server on custom port
  stockroom serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if port != "" {
				cfg.Port = port
			}
			if !cfg.MirrorEnabled() {
				slog.Info("GitHub mirroring disabled, running as local-only store")
			}

			handler := handlers.New(cfg)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/products", handler.HandleProducts)
			mux.HandleFunc("/api/products/remove", handler.HandleRemoveOffer)
			mux.HandleFunc("/api/products/", handler.HandleProductDetail)
			mux.HandleFunc("/api/categories", handler.HandleCategories)
			mux.HandleFunc("/api/selections/", handler.HandleSelection)
			mux.HandleFunc("/api/upload", handler.HandleUpload)
			mux.HandleFunc("/static/uploads/", handler.HandleStatic)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Stockroom API available", "addr", addr, "snapshot", cfg.SnapshotPath)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides PORT)")

	return cmd
}
