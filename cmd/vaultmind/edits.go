package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vaultmind/internal/edit"
)

var (
	editsFile  string
	acceptFlag bool
	rejectFlag bool
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply AI edit instructions as pending records",
	Long: `Reads a JSON array of edit instructions and splices each one into its
target note as a fenced pending-edit block. Nothing is changed outright;
every record waits for an accept or reject decision.

Instruction format:
  [{"file": "note.md", "position": "replace:3-5", "content": "..."}]`,
	RunE: runApply,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [note] [id]",
	Short: "Accept or reject a pending edit",
	Long: `With no id, lists the pending edits in a note. With an id and one of
--accept or --reject, settles that edit: accept keeps the proposed text,
reject restores the original.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runResolve,
}

func init() {
	applyCmd.Flags().StringVarP(&editsFile, "file", "f", "", "JSON file of edit instructions (- for stdin)")
	applyCmd.MarkFlagRequired("file")

	resolveCmd.Flags().BoolVar(&acceptFlag, "accept", false, "accept the edit")
	resolveCmd.Flags().BoolVar(&rejectFlag, "reject", false, "reject the edit")
}

func runApply(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	if editsFile == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(editsFile)
	}
	if err != nil {
		return fmt.Errorf("read instructions: %w", err)
	}

	var instructions []edit.Instruction
	if err := json.Unmarshal(data, &instructions); err != nil {
		return fmt.Errorf("parse instructions: %w", err)
	}
	if len(instructions) == 0 {
		return fmt.Errorf("no instructions in %s", editsFile)
	}

	v, err := openVault()
	if err != nil {
		return err
	}

	validated := edit.NewValidator(v, logger).Validate(instructions)
	for _, ve := range validated {
		if ve.Err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "SKIP %s %s: %v\n", ve.Instruction.File, ve.Instruction.Position, ve.Err)
		}
	}

	sum := edit.NewEngine(v, cfg.MarkerTag, logger).Apply(validated)
	logger.Info("edits applied", zap.Int("applied", sum.Applied), zap.Int("failed", sum.Failed))
	fmt.Fprintf(cmd.OutOrStdout(), "%d applied, %d failed\n", sum.Applied, sum.Failed)
	if sum.Failed > 0 {
		return fmt.Errorf("%d edit(s) failed", sum.Failed)
	}
	return nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	v, err := openVault()
	if err != nil {
		return err
	}

	path, ok := v.Resolve(args[0])
	if !ok {
		return fmt.Errorf("note not found: %s", args[0])
	}
	r := edit.NewResolver(v, cfg.MarkerTag, logger)

	if len(args) == 1 {
		pending, err := r.Pending(path)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "no pending edits in %s\n", path)
			return nil
		}
		for _, rec := range pending {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", rec.ID, rec.Kind)
		}
		return nil
	}

	if acceptFlag == rejectFlag {
		return fmt.Errorf("pass exactly one of --accept or --reject")
	}
	decision := edit.Accept
	if rejectFlag {
		decision = edit.Reject
	}

	if err := r.Resolve(path, args[1], decision); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "resolved %s\n", args[1])
	return nil
}
