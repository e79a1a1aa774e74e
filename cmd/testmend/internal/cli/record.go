package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/testmend/cmd/testmend/internal/ui"
	"github.com/example/testmend/internal/domain"
	"github.com/example/testmend/internal/service"
)

var (
	recordDuration int64
	recordEnv      string
	recordRunID    string
)

var recordCmd = &cobra.Command{
	Use:   "record <test-id> <pass|fail|error>",
	Short: "Record one test run into the history",
	Long: `Append a run record, the sole write path into the run history.

Meant for harness wrappers that shell out instead of calling the HTTP
API. Duration is optional; runs recorded without one are excluded from
timing analysis but still count toward pass/fail statistics.

EXAMPLES:
  testmend record checkout-spec pass --duration 1840 --env ci-linux
  testmend record checkout-spec error`,
	Args: cobra.ExactArgs(2),
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().Int64Var(&recordDuration, "duration", -1, "run duration in milliseconds (-1 = unknown)")
	recordCmd.Flags().StringVar(&recordEnv, "env", "", "environment the run executed in")
	recordCmd.Flags().StringVar(&recordRunID, "run-id", "", "CI run identifier")
}

func runRecord(cmd *cobra.Command, args []string) error {
	reliability, _, cleanup, err := services()
	if err != nil {
		return err
	}
	defer cleanup()

	req := &service.RecordRunRequest{
		TestID:      args[0],
		RunID:       recordRunID,
		Outcome:     domain.RunOutcome(args[1]),
		Environment: recordEnv,
	}
	if recordDuration >= 0 {
		req.DurationMS = &recordDuration
	}

	if err := reliability.RecordRun(context.Background(), req); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("recorded %s run for %s", args[1], args[0]))
	return nil
}
