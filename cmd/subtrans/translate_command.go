package main

import (
	"github.com/spf13/cobra"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "translate <subtitle-file>",
		Short: "Translate a subtitle file",
		Long: `Translate a subtitle file to the configured target language.

Progress persists in a project database so an interrupted run can be
picked up with "subtrans resume". Completed batches are never re-sent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts.inputPath = args[0]
			return runTranslation(cmd, cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Output file path (default: input with language tag)")
	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "Target language (overrides configuration)")
	cmd.Flags().StringVar(&opts.movieName, "movie-name", "", "Movie or show name for prompt context")
	cmd.Flags().StringVar(&opts.projectFlag, "project", "", "Project database path")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Concurrent scene workers (overrides configuration)")
	return cmd
}

func newResumeCommand(ctx *commandContext) *cobra.Command {
	opts := runOptions{requireProject: true}

	cmd := &cobra.Command{
		Use:   "resume <subtitle-file>",
		Short: "Resume an interrupted translation",
		Long: `Resume translation of a file with an existing project database.

Batches already translated are skipped; failed and pending batches run
again with fresh retry budgets.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts.inputPath = args[0]
			return runTranslation(cmd, cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Output file path (default: input with language tag)")
	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "Target language (overrides configuration)")
	cmd.Flags().StringVar(&opts.movieName, "movie-name", "", "Movie or show name for prompt context")
	cmd.Flags().StringVar(&opts.projectFlag, "project", "", "Project database path")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Concurrent scene workers (overrides configuration)")
	return cmd
}
