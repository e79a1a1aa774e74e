package main

import (
	"os"

	"github.com/example/testmend/cmd/testmend/internal/cli"
	"github.com/example/testmend/cmd/testmend/internal/ui"
)

func main() {
	if err := cli.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
