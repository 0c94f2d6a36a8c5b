package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"racing-setup-rag/internal/config"
	"racing-setup-rag/internal/logging"
	"racing-setup-rag/internal/tui"
)

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Terminal form with question and telemetry fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			// stderr logging would draw over the form
			logger, err := logging.NewFileOnly(cfg.Logging)
			if err != nil {
				return err
			}

			a, closeApp, err := openAppWith(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeApp()

			p := tea.NewProgram(tui.New(cmd.Context(), a.Assistant), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
}
