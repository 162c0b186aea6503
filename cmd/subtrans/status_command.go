package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"subtrans/internal/config"
	"subtrans/internal/project"
	"subtrans/internal/segment"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var projectFlag string
	var showErrors bool

	cmd := &cobra.Command{
		Use:   "status <subtitle-file>",
		Short: "Show translation progress for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			inputPath, err := expandInput(args[0])
			if err != nil {
				return err
			}
			projPath, err := projectPath(cfg, inputPath, projectFlag)
			if err != nil {
				return err
			}
			proj, err := project.Open(projPath)
			if err != nil {
				return fmt.Errorf("open project: %w", err)
			}
			defer proj.Close()

			return renderStatus(cmd, proj, showErrors)
		},
	}

	cmd.Flags().StringVar(&projectFlag, "project", "", "Project database path")
	cmd.Flags().BoolVar(&showErrors, "errors", false, "Show per-batch error details")
	return cmd
}

func renderStatus(cmd *cobra.Command, proj *project.Store, showErrors bool) error {
	out := cmd.OutOrStdout()

	batches, err := proj.Batches(cmd.Context())
	if err != nil {
		return fmt.Errorf("load batches: %w", err)
	}
	if len(batches) == 0 {
		fmt.Fprintln(out, "No batches recorded yet.")
		return nil
	}

	counts := map[segment.Status]int{}
	rows := make([][]string, 0, len(batches))
	for _, batch := range batches {
		counts[batch.Status]++
		detail := ""
		if showErrors && len(batch.Errors) > 0 {
			detail = strings.Join(batch.Errors, "; ")
		}
		rows = append(rows, []string{
			strconv.Itoa(batch.Scene),
			strconv.Itoa(batch.Number),
			fmt.Sprintf("%d-%d", batch.FirstLine, batch.LastLine),
			string(batch.Status),
			strconv.Itoa(batch.Attempts),
			detail,
		})
	}

	headers := []string{"Scene", "Batch", "Lines", "Status", "Attempts", "Errors"}
	aligns := []columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignRight, alignLeft}
	if !showErrors {
		headers = headers[:5]
		aligns = aligns[:5]
		for i := range rows {
			rows[i] = rows[i][:5]
		}
	}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))

	fmt.Fprintf(out, "%d translated, %d failed, %d pending of %d batches\n",
		counts[segment.StatusTranslated],
		counts[segment.StatusFailed],
		counts[segment.StatusPending]+counts[segment.StatusTranslating],
		len(batches),
	)

	if run, err := proj.LastRun(cmd.Context()); err == nil && run != nil {
		line := fmt.Sprintf("Last run %s: %s", run.ID, run.Status)
		if run.Message != "" {
			line += " (" + run.Message + ")"
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func expandInput(path string) (string, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("resolve input path: %w", err)
	}
	return expanded, nil
}
