// sample_tool prints a greeting and the sum of 1 through 5.
//
// Every argument is taken as data, so there are no flags and no
// subcommands. The exit status is always 0.
package main

import (
	"os"

	"github.com/embeddemo/cli/internal/greet"
)

func main() {
	_ = greet.Run(os.Stdout, os.Args[1:])
}
