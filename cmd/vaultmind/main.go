// vaultmind is a CLI for AI-assisted markdown vaults: it assembles
// link-aware context bundles for language models and mediates model edits
// through human-reviewable pending records.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vaultmind/internal/assembly"
	"vaultmind/internal/config"
	"vaultmind/internal/embedding"
	"vaultmind/internal/graph"
	"vaultmind/internal/logging"
	"vaultmind/internal/store"
	"vaultmind/internal/vault"
)

var (
	cfgFile   string
	vaultPath string
	verbose   bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vaultmind",
	Short: "AI note assistant for markdown vaults",
	Long: `vaultmind assembles prompt context from a markdown vault by walking
its wiki-link graph, and applies AI-proposed edits as pending records
that stay visible in the notes until accepted or rejected.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if vaultPath != "" {
			cfg.Vault = vaultPath
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.Logging.File)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "vaultmind.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&vaultPath, "vault", "", "vault root (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(contextCmd, applyCmd, resolveCmd, diffCmd, indexCmd)
}

func openVault() (*vault.Vault, error) {
	return vault.Open(cfg.Vault,
		vault.WithExcludedFolders(cfg.ExcludedFolders),
		vault.WithLogger(logger))
}

// openStore opens the note-vector store, or returns nil when the embedding
// provider cannot be constructed. Context assembly works without it.
func openStore() *store.NoteVectors {
	engine, err := embedding.New(cfg.Embedding, logger)
	if err != nil {
		logger.Warn("semantic search disabled", zap.Error(err))
		return nil
	}
	vectors, err := store.Open(cfg.VectorDB, engine, logger)
	if err != nil {
		logger.Warn("semantic search disabled", zap.Error(err))
		return nil
	}
	return vectors
}

// vectorIndex adapts the store to the assembler's similarity interface.
type vectorIndex struct {
	vectors *store.NoteVectors
}

func (x vectorIndex) Similar(ctx context.Context, query string, limit int, minScore float64) ([]assembly.Match, error) {
	hits, err := x.vectors.Similar(ctx, query, limit, minScore)
	if err != nil {
		return nil, err
	}
	out := make([]assembly.Match, len(hits))
	for i, h := range hits {
		out[i] = assembly.Match{Path: h.Path, Score: h.Score}
	}
	return out, nil
}

func newAssembler(v *vault.Vault, semantic assembly.SimilarityIndex) *assembly.Assembler {
	backlinks := graph.NewBacklinkIndex(v, graph.DefaultBacklinkTTL, logger)
	walker := graph.NewWalker(v, backlinks, logger)
	return assembly.New(v, walker, semantic, logger)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
