package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"smart-response/config"
	"smart-response/matcher"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match <message>",
		Short: "Score a message against the trigger file",
		Long: `Score a message against every trigger phrase and show which trigger
would answer it. Useful for tuning match_percent thresholds.

Examples:
  smart-response match "what are the server rules"
  smart-response match --channel 1234 "hello there"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runMatch,
	}
	cmd.Flags().String("channel", "", "channel id used for trigger scoping")
	cmd.Flags().String("category", "", "category id used for trigger scoping")
	cmd.Flags().Bool("all", false, "show every phrase, not only qualifying ones")
	return cmd
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	triggers, err := config.LoadTriggers(cfg.TriggersFile)
	if err != nil {
		return err
	}
	m, err := newMatcher(cfg, triggers, zap.NewNop())
	if err != nil {
		return err
	}

	channel, _ := cmd.Flags().GetString("channel")
	category, _ := cmd.Flags().GetString("category")
	all, _ := cmd.Flags().GetBool("all")

	message := strings.ToLower(strings.Join(args, " "))
	best := m.FindBestMatchIn(message, channel, category)

	writeCandidates(cmd.OutOrStdout(), m.Explain(message), all)
	if best == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "\nNo trigger matched.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nMatched %s via %q (score %.3f)\n", best.Trigger.ID, best.Phrase, best.Score)
	return nil
}

func writeCandidates(out io.Writer, candidates []matcher.Candidate, all bool) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TRIGGER\tPHRASE\tLEXICAL\tSTEMMED\tWEIGHTED\tDIRECT\tSCORE\tTHRESHOLD")
	for _, c := range candidates {
		if !all && !c.Qualifies {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%.3f\t%.3f\t%.3f\t%t\t%.3f\t%.2f\n",
			c.TriggerID, c.Phrase, c.Lexical, c.Stemmed, c.Weighted, c.Direct, c.Score, c.Threshold)
	}
	w.Flush()
}
