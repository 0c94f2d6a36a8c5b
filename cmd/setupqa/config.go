package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"racing-setup-rag/internal/config"
	"racing-setup-rag/internal/database"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the effective configuration as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigFile
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			// keep secrets out of files that tend to get committed
			cfg.OpenAI.APIKey = ""

			if err := config.Save(path, cfg); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}

func newIndexInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index-info",
		Short: "Show how the configured index was built",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			store, err := database.Open(cmd.Context(), cfg.Index)
			if err != nil {
				return err
			}
			defer store.Close()

			meta, err := store.Meta(cmd.Context())
			if err != nil {
				return err
			}
			return printIndexInfo(cmd.OutOrStdout(), cfg, meta)
		},
	}
}

func printIndexInfo(out io.Writer, cfg *config.Config, meta *database.IndexMeta) error {
	location := cfg.Index.Dir
	if cfg.Index.Backend == "postgres" {
		location = "postgres"
	}
	if meta == nil {
		fmt.Fprintf(out, "Index at %s is empty; run the indexer first.\n", location)
		return nil
	}

	fmt.Fprintf(out, "Index:           %s (%s)\n", location, cfg.Index.Backend)
	fmt.Fprintf(out, "Documents:       %d\n", meta.DocumentCount)
	fmt.Fprintf(out, "Embedding model: %s (%d dimensions)\n", meta.EmbeddingModel, meta.Dimension)
	fmt.Fprintf(out, "Built at:        %s\n", meta.BuiltAt.Local().Format("2006-01-02 15:04:05"))

	if err := database.CheckModel(meta, cfg.Models.Embedding); err != nil {
		fmt.Fprintf(out, "Warning:         %v\n", errors.Unwrap(err))
		fmt.Fprintf(out, "                 configured embedding model is %s\n", cfg.Models.Embedding)
	}
	return nil
}
