package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/testmend/cmd/testmend/internal/ui"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display the version of testmend.`,
	Run:   runVersion,
}

func runVersion(cmd *cobra.Command, args []string) {
	ui.PrintInfo(fmt.Sprintf("testmend %s", version))
	ui.PrintInfo("Selector healing and flaky-test detection for UI test suites")
	ui.PrintInfo("")
	ui.PrintInfo("For help: testmend --help")
}
