package main

import (
	"os"

	"github.com/jwebster45206/world-engine/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
