package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vaultmind/internal/assembly"
)

var (
	budgetFlag   int
	overheadFlag int
	noBudgetFlag bool
)

var contextCmd = &cobra.Command{
	Use:   "context [note] [task...]",
	Short: "Assemble prompt context around a note",
	Long: `Builds the labeled context bundle for a note: the note itself, notes
reachable through wiki links and backlinks, same-folder notes, semantic
matches and manually pinned notes, trimmed to the token budget.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runContext,
}

func init() {
	contextCmd.Flags().IntVar(&budgetFlag, "budget", 0, "token budget (overrides config)")
	contextCmd.Flags().IntVar(&overheadFlag, "overhead", -1, "tokens reserved for the prompt (overrides config)")
	contextCmd.Flags().BoolVar(&noBudgetFlag, "no-budget", false, "render every in-scope note")
}

func runContext(cmd *cobra.Command, args []string) error {
	v, err := openVault()
	if err != nil {
		return err
	}

	current, ok := v.Resolve(args[0])
	if !ok {
		return fmt.Errorf("note not found: %s", args[0])
	}
	task := strings.Join(args[1:], " ")

	var semantic assembly.SimilarityIndex
	if vectors := openStore(); vectors != nil {
		defer vectors.Close()
		semantic = vectorIndex{vectors}
	}
	asm := newAssembler(v, semantic)

	if noBudgetFlag {
		rendered, err := asm.Assemble(cmd.Context(), current, task, cfg.Scope)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), rendered)
		return nil
	}

	budget := cfg.TokenBudget
	if budgetFlag > 0 {
		budget = budgetFlag
	}
	overhead := cfg.OverheadTokens
	if overheadFlag >= 0 {
		overhead = overheadFlag
	}

	bundle, err := asm.AssembleWithBudget(cmd.Context(), current, task, cfg.Scope, budget, overhead)
	if err != nil {
		return err
	}

	logger.Info("context assembled",
		zap.Int("tokens", bundle.TotalTokens),
		zap.Int("budget", budget),
		zap.Strings("evicted", bundle.Evicted))
	if bundle.TotalTokens > budget-overhead {
		logger.Warn("current note alone exceeds the available budget",
			zap.Int("tokens", bundle.TotalTokens))
	}

	fmt.Fprint(cmd.OutOrStdout(), bundle.Rendered)
	return nil
}
