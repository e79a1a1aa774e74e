package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/example/testmend/internal/domain"
	"github.com/example/testmend/internal/service"
	"github.com/example/testmend/internal/storage/sqlite"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:   "testmend",
	Short: "Inspect selector healing and flaky-test state",
	Long: `testmend is the operator CLI for the test-reliability engine.

It reads and updates the same SQLite store the server uses, for ad-hoc
inspection and CI glue that does not want to go through the HTTP API.

EXAMPLES:
  # Classify one test from its recorded runs
  testmend flaky checkout-spec

  # Re-classify every test and list the unstable ones
  testmend flaky

  # Show quarantined tests (for CI gating scripts)
  testmend quarantine

  # Record a run from a harness wrapper
  testmend record checkout-spec fail --duration 3200 --env ci-linux

  # Inspect recent healing sessions
  testmend sessions`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "testmend.db", "path to the engine's SQLite database")

	rootCmd.AddCommand(flakyCmd)
	rootCmd.AddCommand(quarantineCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(versionCmd)
}

// services opens the store and builds the service layer for one command
// invocation. The returned cleanup closes the store.
func services() (*service.ReliabilityService, *service.SessionService, func(), error) {
	store, err := sqlite.New(dbPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := store.Migrate(context.Background()); err != nil {
		store.Close()
		return nil, nil, nil, err
	}
	reliability := service.NewReliability(store,
		domain.DefaultDetectorConfig(), domain.DefaultQuarantineConfig(), nil, nil)
	sessions := service.NewSessions(store)
	return reliability, sessions, func() { store.Close() }, nil
}
