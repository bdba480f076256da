package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the semantic search index",
	Long: `Embeds every note in the vault and stores the vectors in the local
database. Notes whose content has not changed since the last run are
skipped.`,
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	v, err := openVault()
	if err != nil {
		return err
	}

	vectors := openStore()
	if vectors == nil {
		return fmt.Errorf("embedding provider unavailable, cannot index")
	}
	defer vectors.Close()

	paths := v.List()
	logger.Info("indexing vault", zap.Int("notes", len(paths)))
	if err := vectors.IndexAll(cmd.Context(), paths, v.Read); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d notes\n", len(paths))
	return nil
}
