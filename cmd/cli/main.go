package main

import (
	"os"

	"github.com/stackfinder/stackfinder/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
