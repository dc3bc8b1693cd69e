package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete every document from the vector index",
		Long: `Removes all documents from the vector index so the next ingest
starts from a clean slate. The knowledge graph is left untouched; its
merge keys make re-ingestion idempotent.`,
		RunE: runPurge,
	}
}

func runPurge(cmd *cobra.Command, _ []string) error {
	container, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	n, err := container.Vectors().Purge(cmd.Context())
	if err != nil {
		return fmt.Errorf("purge vector index: %w", err)
	}

	container.Logger().Info("purged vector index", zap.Int("documents_deleted", n))
	return nil
}
