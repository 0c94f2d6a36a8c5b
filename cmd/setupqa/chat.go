package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// maxLineBytes bounds a single pasted question or path
const maxLineBytes = 1 << 20

// setupAdviser is the query entry point the loop calls
type setupAdviser interface {
	GetSetupAdvice(ctx context.Context, question, telemetryPath string) (string, error)
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive question loop (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closeApp, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), a.Assistant)
		},
	}
}

// runChat asks for a question and an optional telemetry path until the driver
// types quit or exit, or input ends. Errors are printed and the loop continues.
func runChat(ctx context.Context, in io.Reader, out io.Writer, adviser setupAdviser) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineBytes)

	fmt.Fprintln(out, "iRacing Setup Assistant started!")
	fmt.Fprintln(out, "---")

	for {
		if ctx.Err() != nil {
			return nil
		}

		fmt.Fprint(out, "\nAsk your setup question (or 'quit'): ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		question := scanner.Text()
		switch strings.ToLower(strings.TrimSpace(question)) {
		case "quit", "exit":
			return nil
		}

		fmt.Fprint(out, "Optional telemetry CSV path (leave blank if none): ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		telemetryPath := strings.TrimSpace(scanner.Text())

		fmt.Fprint(out, "\nThinking...\n\n")
		answer, err := adviser.GetSetupAdvice(ctx, question, telemetryPath)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "Setup Advice: %s\n", answer)
	}
}
