// ─────────────────────────────────────────────────────────────────────────────
//  embeddemo :: greet  —  sample_tool greeting and fixed-sequence sum
// ─────────────────────────────────────────────────────────────────────────────

package greet

import (
	"fmt"
	"io"
)

const (
	ToolName = "sample_tool"

	greetingPrefix = "Hello from " + ToolName + "!"
)

// Numbers returns the fixed sequence that sample_tool sums.
func Numbers() []int {
	return []int{1, 2, 3, 4, 5}
}

// Sum adds the values in order.
func Sum(seq []int) int {
	sum := 0
	for _, n := range seq {
		sum += n
	}
	return sum
}

// Greeting builds the first output line. Only args[0] is shown; an empty
// string still counts as a supplied argument.
func Greeting(args []string) string {
	if len(args) > 0 {
		return greetingPrefix + " You passed: " + args[0]
	}
	return greetingPrefix + " No arguments passed."
}

// SumLine builds the second output line.
func SumLine() string {
	return fmt.Sprintf("The sum of 1-5 is %d", Sum(Numbers()))
}

// Run writes both lines to w.
func Run(w io.Writer, args []string) error {
	if _, err := fmt.Fprintln(w, Greeting(args)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, SumLine())
	return err
}
