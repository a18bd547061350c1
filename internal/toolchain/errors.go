package toolchain

import (
	"fmt"
	"strconv"
	"strings"
)

// CompileError is returned when a compiler process fails.
type CompileError struct {
	Command  []string
	ExitCode int // -1 when the process never ran
	Stdout   string
	Stderr   string
	Err      error
}

func (e *CompileError) Error() string {
	name := "compiler"
	if len(e.Command) > 0 {
		name = e.Command[0]
	}
	if e.ExitCode >= 0 {
		return fmt.Sprintf("%s failed with exit code %d", name, e.ExitCode)
	}
	return fmt.Sprintf("%s failed: %v", name, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Diagnostics parses the compiler's error output.
func (e *CompileError) Diagnostics() []Diagnostic {
	return ParseDiagnostics(e.Stderr + "\n" + e.Stdout)
}

// Diagnostic is one "file:line:col: message" compiler report.
type Diagnostic struct {
	File    string
	Line    int
	Col     int
	Message string
}

// ParseDiagnostics extracts go/tinygo style diagnostics:
//
//	./main.go:12:2: undefined: foo
//	main.go:7: syntax error
func ParseDiagnostics(output string) []Diagnostic {
	var diags []Diagnostic
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 4)
		if len(parts) < 3 {
			continue
		}
		lineNo, err := strconv.Atoi(parts[1])
		if err != nil || !strings.HasSuffix(parts[0], ".go") {
			continue
		}
		d := Diagnostic{File: parts[0], Line: lineNo}
		rest := parts[2:]
		if col, err := strconv.Atoi(strings.TrimSpace(rest[0])); err == nil && len(rest) == 2 {
			d.Col = col
			d.Message = strings.TrimSpace(rest[1])
		} else {
			d.Message = strings.TrimSpace(strings.Join(rest, ":"))
		}
		diags = append(diags, d)
	}
	return diags
}
