package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/testmend/cmd/testmend/internal/ui"
	"github.com/example/testmend/internal/domain"
	"github.com/example/testmend/internal/service"
)

var flakyAll bool

var flakyCmd = &cobra.Command{
	Use:   "flaky [test-id]",
	Short: "Classify test reliability from recorded run history",
	Long: `Re-run flaky classification against the recorded run history.

With a test id, classifies that one test and prints the full analysis
including the inferred root cause. Without arguments, re-classifies every
test and lists the ones that are not stable.

EXAMPLES:
  # One test, full detail
  testmend flaky checkout-spec

  # Sweep everything, show unstable tests
  testmend flaky

  # Sweep everything, show all tests
  testmend flaky --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFlaky,
}

func init() {
	flakyCmd.Flags().BoolVar(&flakyAll, "all", false, "include stable tests in the sweep output")
}

func runFlaky(cmd *cobra.Command, args []string) error {
	reliability, _, cleanup, err := services()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	if len(args) == 1 {
		return classifyOne(ctx, reliability, args[0])
	}
	return classifySweep(ctx, reliability)
}

func classifyOne(ctx context.Context, reliability *service.ReliabilityService, testID string) error {
	c, err := reliability.Classify(ctx, testID)
	if err != nil {
		return err
	}

	ui.PrintHeader(fmt.Sprintf("Classification: %s", testID))
	ui.PrintInfo(fmt.Sprintf("Status:               %s", ui.StatusLabel(c.Test.Status)))
	ui.PrintInfo(fmt.Sprintf("Flakiness score:      %s", ui.ScoreBar(c.Test.FlakinessScore)))
	ui.PrintInfo(fmt.Sprintf("Consecutive failures: %d", c.Test.ConsecutiveFailures))
	ui.PrintInfo(fmt.Sprintf("Evaluated at:         %s", c.Test.LastEvaluatedAt.Format("2006-01-02 15:04:05")))

	if c.RootCause != nil {
		ui.PrintInfo("")
		ui.PrintWarning(fmt.Sprintf("Likely cause: %s (confidence %.0f%%)",
			c.RootCause.Pattern, c.RootCause.Confidence*100))
		ui.PrintMuted(c.RootCause.Recommendation)
	}
	return nil
}

func classifySweep(ctx context.Context, reliability *service.ReliabilityService) error {
	results, err := reliability.ClassifyAll(ctx)
	if err != nil {
		return err
	}

	ui.PrintHeader("Flaky Test Sweep")
	shown := 0
	for _, c := range results {
		if !flakyAll && c.Test.Status == domain.FlakyStatusStable {
			continue
		}
		shown++
		line := fmt.Sprintf("%-40s %s  score %.2f", c.Test.TestID,
			ui.StatusLabel(c.Test.Status), c.Test.FlakinessScore)
		ui.PrintInfo(line)
		if c.RootCause != nil {
			ui.PrintMuted(fmt.Sprintf("cause: %s (%.0f%%)",
				c.RootCause.Pattern, c.RootCause.Confidence*100))
		}
	}
	if shown == 0 {
		ui.PrintSuccess(fmt.Sprintf("No unstable tests among %d classified", len(results)))
	} else {
		ui.PrintInfo("")
		ui.PrintInfo(fmt.Sprintf("%d of %d tests shown", shown, len(results)))
	}
	return nil
}
