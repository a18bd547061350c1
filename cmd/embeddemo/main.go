package main

import (
	"os"

	"github.com/embeddemo/cli/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
