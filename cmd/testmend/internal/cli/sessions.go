package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/testmend/cmd/testmend/internal/ui"
	"github.com/example/testmend/internal/domain"
	"github.com/example/testmend/internal/storage"
)

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions [session-id]",
	Short: "Inspect healing sessions",
	Long: `List recent healing sessions, or show one session with its results.

EXAMPLES:
  testmend sessions
  testmend sessions --limit 5
  testmend sessions 2f1c9a60-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSessions,
}

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "limit number of sessions shown")
}

func runSessions(cmd *cobra.Command, args []string) error {
	_, sessions, cleanup, err := services()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()

	if len(args) == 1 {
		sess, results, err := sessions.Get(ctx, args[0])
		if err != nil {
			return err
		}
		printSession(sess)
		ui.PrintInfo("")
		for _, r := range results {
			line := fmt.Sprintf("%-10s %.2f  %s", r.Status, r.ConfidenceScore, r.OriginalSelectorValue)
			if r.HealedSelectorValue != "" {
				line += " -> " + r.HealedSelectorValue
			}
			ui.PrintInfo(line)
			if r.Reason != domain.ReasonNone {
				ui.PrintMuted(fmt.Sprintf("reason: %s", r.Reason))
			}
		}
		return nil
	}

	list, err := sessions.List(ctx, storage.ListOptions{Limit: sessionsLimit})
	if err != nil {
		return err
	}

	ui.PrintHeader("Healing Sessions")
	if len(list) == 0 {
		ui.PrintInfo("No healing sessions recorded")
		return nil
	}
	for _, s := range list {
		printSession(s)
	}
	return nil
}

func printSession(s *domain.HealingSession) {
	ui.PrintInfo(fmt.Sprintf("%s  %s  %d selectors, %d healed, %d failed, avg confidence %.2f",
		s.ID, s.Status, s.TotalSelectors, s.SuccessfulHeals, s.FailedHeals, s.AverageConfidence))
}
