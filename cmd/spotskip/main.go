package main

import (
	"os"

	"github.com/spotskip/spotskip/internal/cli"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if err := cli.NewRootCmd(version, commit, buildDate).Execute(); err != nil {
		os.Exit(1)
	}
}
