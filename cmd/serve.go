package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kitchenwise/recipechat/internal/api"
	"github.com/kitchenwise/recipechat/internal/router"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat API",
		Long: `Starts the HTTP server exposing POST /chat. Each message is
classified, retrieval runs against the vector index or the knowledge
graph, and the answer is synthesized from what was retrieved.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	container, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := container.Config()
	logger := container.Logger()

	chatRouter := router.New(
		container.LLM(),
		container.LLM(),
		container.Vectors(),
		container.Graph(),
		logger,
	)
	server := api.NewServer(chatRouter, cfg.RequestTimeout(), logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("chat API listening", zap.Int("port", cfg.Server.Port))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}
