// Package cmd defines and implements the CLI commands for the recipechat
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kitchenwise/recipechat/internal/app"
)

var cfgFile string

type appKeyType struct{}

var appKey appKeyType

// newApp is the application factory. It is a variable so tests can swap in
// a stub container.
var newApp = app.New

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipechat",
		Short: "Crawl a recipe site and answer questions about it.",
		Long: `recipechat ingests a recipe website into a vector index and a
knowledge graph, then serves a chat API that routes each question to the
retrieval backend best suited to answer it.`,

		// Runs after flag parsing but before the subcommand's RunE, so every
		// subcommand finds a fully wired container in its context.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Missing .env is fine, the environment may carry everything.
			_ = godotenv.Load()

			container, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, container))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if container, ok := cmd.Context().Value(appKey).(*app.App); ok && container != nil {
				container.Close(cmd.Context())
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (settings also come from RECIPECHAT_* env vars)")

	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newPurgeCmd())

	return cmd
}

func resolveApp(ctx context.Context) (*app.App, error) {
	container, ok := ctx.Value(appKey).(*app.App)
	if !ok || container == nil {
		return nil, errors.New("application services not initialized")
	}
	return container, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
