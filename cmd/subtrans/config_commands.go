package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"subtrans/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set llm.api_key (or export SUBTRANS_API_KEY) and translation.target_language.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate the configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, resolvedPath, exists, err := config.Load(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !exists {
				fmt.Fprintf(out, "No configuration file at %s; defaults are valid.\n", resolvedPath)
			} else {
				fmt.Fprintf(out, "Configuration at %s is valid.\n", resolvedPath)
			}
			if cfg.LLM.APIKey == "" {
				fmt.Fprintln(out, "Warning: no API key configured (llm.api_key or SUBTRANS_API_KEY).")
			}
			if cfg.Translation.TargetLanguage == "" {
				fmt.Fprintln(out, "Warning: no target language configured; pass --language per run.")
			}
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rows := [][]string{
				{"paths.project_dir", cfg.Paths.ProjectDir},
				{"paths.log_dir", cfg.Paths.LogDir},
				{"llm.provider", cfg.LLM.Provider},
				{"llm.model", cfg.LLM.Model},
				{"llm.base_url", cfg.LLM.BaseURL},
				{"llm.api_key", maskSecret(cfg.LLM.APIKey)},
				{"llm.timeout_seconds", fmt.Sprintf("%d", cfg.LLM.TimeoutSeconds)},
				{"translation.target_language", cfg.Translation.TargetLanguage},
				{"translation.scene_gap_seconds", fmt.Sprintf("%.1f", cfg.Translation.SceneGapSeconds)},
				{"translation.min_batch_size", fmt.Sprintf("%d", cfg.Translation.MinBatchSize)},
				{"translation.max_batch_size", fmt.Sprintf("%d", cfg.Translation.MaxBatchSize)},
				{"translation.max_retries", fmt.Sprintf("%d", cfg.Translation.MaxRetries)},
				{"translation.rate_limit_rpm", fmt.Sprintf("%d", cfg.Translation.RateLimitRPM)},
				{"translation.worker_width", fmt.Sprintf("%d", cfg.Translation.WorkerWidth)},
				{"logging.format", cfg.Logging.Format},
				{"logging.level", cfg.Logging.Level},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Setting", "Value"}, rows, nil))
			return nil
		},
	}
}

func maskSecret(value string) string {
	if value == "" {
		return "(unset)"
	}
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
