package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"racing-setup-rag/internal/models"
)

func newAskCmd() *cobra.Command {
	var (
		question      string
		telemetryPath string
		showSources   bool
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Answer a single question and exit",
		Example: `  setupqa ask -q "car is tight entering turn 3"
  setupqa ask -q "RR shock bottoming" -t laps.csv --sources`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("question") {
				return errors.New(`a question is required: setupqa ask -q "your question"`)
			}

			a, closeApp, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			advice, err := a.Assistant.Advise(cmd.Context(), models.AdviceRequest{
				Question:      question,
				TelemetryPath: telemetryPath,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(advice)
			}
			fmt.Fprint(out, formatAdvice(advice, showSources))
			return nil
		},
	}

	cmd.Flags().StringVarP(&question, "question", "q", "", "driver question")
	cmd.Flags().StringVarP(&telemetryPath, "telemetry", "t", "", "optional telemetry CSV")
	cmd.Flags().BoolVar(&showSources, "sources", false, "list the setup documents used")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func formatAdvice(advice *models.Advice, showSources bool) string {
	var sb strings.Builder

	sb.WriteString("Setup Advice: ")
	sb.WriteString(advice.Answer)
	sb.WriteString("\n")

	if showSources {
		sb.WriteString("\n")
		if len(advice.Sources) == 0 {
			sb.WriteString("Sources: none (index is empty)\n")
		} else {
			sb.WriteString("Sources:\n")
			for i, d := range advice.Sources {
				sb.WriteString(fmt.Sprintf("  %d. %s", i+1, d.Source))
				if d.ChunkIndex > 0 {
					sb.WriteString(fmt.Sprintf(" (part %d)", d.ChunkIndex))
				}
				sb.WriteString(fmt.Sprintf(" [score %.3f]\n", d.Score))
			}
		}
	}

	return sb.String()
}
