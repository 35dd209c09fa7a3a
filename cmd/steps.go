package cmd

import (
	"fmt"
	"io"

	"smart-response/web/format"

	"github.com/spf13/cobra"
)

func newStepsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "Split a generated answer read from stdin into steps",
		Long: `Read a generated answer from stdin and print the steps a walkthrough
would deliver, chunked to the message length limit.

Examples:
  smart-response steps < answer.txt
  echo "[STEP_1] Install [STEP_2] Run" | smart-response steps`,
		Args: cobra.NoArgs,
		RunE: runSteps,
	}
	cmd.Flags().Int("max-length", 2000, "maximum characters per message")
	return cmd
}

func runSteps(cmd *cobra.Command, _ []string) error {
	maxLength, _ := cmd.Flags().GetInt("max-length")
	if maxLength <= 0 {
		return fmt.Errorf("--max-length must be positive")
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}

	out := cmd.OutOrStdout()
	steps := format.ParseSteps(format.PreprocessAssistantText(string(data)))
	for i, step := range steps {
		chunks := format.SplitMessage(step, maxLength)
		fmt.Fprintf(out, "Step %d/%d (%d message(s))\n", i+1, len(steps), len(chunks))
		for _, chunk := range chunks {
			fmt.Fprintln(out, chunk)
		}
		if i < len(steps)-1 {
			fmt.Fprintln(out)
		}
	}
	return nil
}
