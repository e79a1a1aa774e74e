package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/testmend/cmd/testmend/internal/ui"
)

var quarantineCmd = &cobra.Command{
	Use:   "quarantine [test-id]",
	Short: "Show quarantined tests",
	Long: `List active quarantine entries, or check a single test.

CI gating scripts can call this with a test id: exit code 0 with output
means the test is quarantined and should not block the pipeline; exit
code 1 means it is not quarantined.

EXAMPLES:
  testmend quarantine
  testmend quarantine checkout-spec && echo "do not gate on this test"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuarantine,
}

func runQuarantine(cmd *cobra.Command, args []string) error {
	reliability, _, cleanup, err := services()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()

	if len(args) == 1 {
		entry, err := reliability.QuarantineState(ctx, args[0])
		if err != nil {
			return err
		}
		if entry == nil {
			return fmt.Errorf("test %q is not quarantined", args[0])
		}
		ui.PrintWarning(fmt.Sprintf("%s quarantined since %s (reason: %s, exit: %s)",
			entry.TestID, entry.EnteredAt.Format("2006-01-02"), entry.Reason, entry.ExitCriteria))
		return nil
	}

	entries, err := reliability.ListQuarantined(ctx)
	if err != nil {
		return err
	}

	ui.PrintHeader("Quarantined Tests")
	if len(entries) == 0 {
		ui.PrintSuccess("No tests are quarantined")
		return nil
	}
	for _, e := range entries {
		ui.PrintInfo(fmt.Sprintf("%-40s since %s  reason=%s",
			e.TestID, e.EnteredAt.Format("2006-01-02"), e.Reason))
		ui.PrintMuted(fmt.Sprintf("exit criteria: %s", e.ExitCriteria))
	}
	return nil
}
