// ABOUTME: Serve command runs the HTTP API
// ABOUTME: Gin router behind an http.Server with graceful shutdown
package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harper/content-assistant/internal/httpapi"
	"github.com/harper/content-assistant/internal/logging"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the question API over HTTP",
		Long: `Serve the question API over HTTP.

Endpoints:
  GET  /healthz       store status
  POST /v1/ask        {"question": "...", "user_id": "..."}
  POST /v1/ask/voice  multipart form with an "audio" file

Send "Accept: audio/mpeg" to receive spoken replies when REPLY_MODE=audio.`,
		Example: `  assistant serve --addr :9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.HTTPAddr
			}
			return runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: $HTTP_ADDR or :8080)")
	return cmd
}

func runServe(parent context.Context, addr string) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	log := logging.New("http")
	api := httpapi.NewAPI(a.pipeline, a.renderer, a.links, a.chunks, log)

	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.NewRouter(api),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("HTTP server listening")
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Info("shutdown signal received, draining requests")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}
