// ─────────────────────────────────────────────────────────────────────────────
//  embeddemo :: flash  —  upload firmware to the connected board
// ─────────────────────────────────────────────────────────────────────────────

package flash

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/golang/glog"
)

var ErrNoPort = errors.New("no board found on any serial port")

// Options controls the flash operation.
type Options struct {
	ProjectDir string
	Package    string // firmware main package
	Target     string // tinygo -target
	Port       string // serial port; empty = auto-detect
	TinyGo     string // path to tinygo binary
	Verbose    bool
}

// Result reports where the firmware went.
type Result struct {
	Port   string
	Output string
}

// Run flashes the firmware package onto the board with `tinygo flash`.
func Run(ctx context.Context, opts Options) (*Result, error) {
	tinygo := opts.TinyGo
	if tinygo == "" {
		tinygo = "tinygo"
	}
	if opts.Target == "" {
		return nil, errors.New("flash needs a target")
	}

	port := opts.Port
	if port == "" {
		detected, err := DetectPort(ctx, tinygo)
		if err != nil {
			return nil, fmt.Errorf(
				"no board detected: %w\n  Hint: connect the board and try again, or pass --port /dev/ttyUSBx", err,
			)
		}
		port = detected
	}

	args := []string{"flash", "-target", opts.Target, "-port", port}
	if opts.Verbose {
		args = append(args, "-size", "short")
	}
	args = append(args, opts.Package)

	glog.V(1).Infof("flashing: %s %s", tinygo, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, tinygo, args...)
	cmd.Dir = opts.ProjectDir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &Result{Port: port, Output: string(out)}, &Error{Port: port, Output: string(out), Err: err}
	}
	return &Result{Port: port, Output: string(out)}, nil
}

// Error carries the flasher output of a failed upload.
type Error struct {
	Port   string
	Output string
	Err    error
}

func (e *Error) Error() string { return fmt.Sprintf("upload to %s failed: %v", e.Port, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Summary keeps only the lines of the flasher output that look like errors.
func (e *Error) Summary() string {
	var relevant []string
	for _, l := range strings.Split(e.Output, "\n") {
		l = strings.TrimSpace(l)
		if l != "" && (strings.Contains(l, "error") || strings.Contains(l, "Error") || strings.Contains(l, "not found")) {
			relevant = append(relevant, l)
		}
	}
	if len(relevant) == 0 {
		return strings.TrimSpace(e.Output)
	}
	return strings.Join(relevant, "; ")
}

// DetectPort runs `tinygo ports` and returns the first serial port listed.
func DetectPort(ctx context.Context, tinygo string) (string, error) {
	out, err := exec.CommandContext(ctx, tinygo, "ports").Output()
	if err != nil {
		return "", fmt.Errorf("tinygo ports failed: %w", err)
	}
	return ParsePorts(string(out))
}

// ParsePorts picks the first /dev/* or COM* port out of `tinygo ports`:
//
//	Port                 ID        Boards
//	/dev/ttyACM0         2341:0043 arduino-uno
func ParsePorts(out string) (string, error) {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 1 {
			port := fields[0]
			if strings.HasPrefix(port, "/dev/") || strings.HasPrefix(port, "COM") {
				glog.V(2).Infof("detected port %s", port)
				return port, nil
			}
		}
	}
	return "", ErrNoPort
}
