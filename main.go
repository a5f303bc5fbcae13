package main

import (
	"os"

	"github.com/compozy/docchunk/cli"
)

func main() {
	cmd := cli.RootCmd()
	if err := cmd.Execute(); err != nil {
		// Commands report their own errors on stderr
		os.Exit(1)
	}
}
