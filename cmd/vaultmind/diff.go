package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vaultmind/internal/diff"
)

var diffCmd = &cobra.Command{
	Use:   "diff [old-file] [new-file]",
	Short: "Show a line diff between two files",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
	oldData, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	newData, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}

	for _, line := range diff.Diff(string(oldData), string(newData)) {
		switch line.Kind {
		case diff.Added:
			fmt.Fprintf(cmd.OutOrStdout(), "+ %4d  %s\n", line.NewLine, line.Text)
		case diff.Removed:
			fmt.Fprintf(cmd.OutOrStdout(), "- %4d  %s\n", line.OldLine, line.Text)
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "  %4d  %s\n", line.OldLine, line.Text)
		}
	}
	return nil
}
