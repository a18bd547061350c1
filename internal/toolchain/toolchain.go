// ─────────────────────────────────────────────────────────────────────────────
//  embeddemo :: toolchain  —  shell-out to go / tinygo
//
//  Host tools:  <compiler> build -o <out>/<exe> [extra...] <package>
//  Firmware:    tinygo build -target <t> -o <out>/<name>.<fmt> [extra...] <package>
//
//  Nothing here prints; callers own the terminal.
// ─────────────────────────────────────────────────────────────────────────────

package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/golang/glog"
)

var (
	ErrNoCompiler       = errors.New("no compiler found in PATH")
	ErrSourceNotFound   = errors.New("source package not found")
	ErrFirmwareNotFound = errors.New("compiled firmware not found")
)

// FindCompiler returns the resolved path of the first candidate found on PATH.
func FindCompiler(candidates []string) (string, error) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if path, err := exec.LookPath(c); err == nil {
			glog.V(2).Infof("compiler %q resolved to %s", c, path)
			return path, nil
		}
		glog.V(2).Infof("compiler %q not found", c)
	}
	return "", fmt.Errorf("%w (tried %s)", ErrNoCompiler, strings.Join(candidates, ", "))
}

// Result describes one successful compiler run.
type Result struct {
	Path    string   // absolute path of the produced artifact
	Command []string // compiler argv
	Output  string   // combined compiler stdout+stderr
}

// ── Host tools ────────────────────────────────────────────────────────────────

// ToolRequest bundles the parameters of a host tool build.
type ToolRequest struct {
	ProjectDir     string
	Package        string // e.g. ./cmd/sample_tool, relative to ProjectDir
	OutputDir      string
	ExecutableName string // defaults to the package's last element
	ExtraArgs      []string
	Compiler       string
}

// CompileTool builds a host tool and returns the absolute executable path.
// The output directory is created if needed.
func CompileTool(ctx context.Context, req ToolRequest) (*Result, error) {
	if err := checkSource(req.ProjectDir, req.Package); err != nil {
		return nil, err
	}
	if req.Compiler == "" {
		return nil, ErrNoCompiler
	}

	name := req.ExecutableName
	if name == "" {
		name = filepath.Base(filepath.Clean(req.Package))
	}
	if runtime.GOOS == "windows" && filepath.Ext(name) != ".exe" {
		name += ".exe"
	}

	outDir, err := filepath.Abs(req.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", outDir, err)
	}
	outPath := filepath.Join(outDir, name)

	// go build wants flags before the package, so extra args go in the middle.
	args := []string{"build", "-o", outPath}
	args = append(args, req.ExtraArgs...)
	args = append(args, req.Package)

	out, err := run(ctx, req.ProjectDir, req.Compiler, args)
	if err != nil {
		return nil, err
	}
	return &Result{Path: outPath, Command: append([]string{req.Compiler}, args...), Output: out}, nil
}

// ── Firmware ──────────────────────────────────────────────────────────────────

// FirmwareRequest bundles the parameters of a firmware build.
type FirmwareRequest struct {
	ProjectDir string
	Package    string
	Target     string // tinygo -target
	OutputDir  string // usually <output_dir>/<env>
	Name       string // artifact base name, defaults to "firmware"
	Format     string // "elf" (default) or "hex"
	ExtraArgs  []string
	Compiler   string // tinygo binary
	PrintSize  bool
}

// CompileFirmware builds firmware and returns the path of the artifact found
// in OutputDir afterwards.
func CompileFirmware(ctx context.Context, req FirmwareRequest) (*Result, error) {
	if err := checkSource(req.ProjectDir, req.Package); err != nil {
		return nil, err
	}
	if req.Target == "" {
		return nil, errors.New("firmware build needs a target")
	}
	compiler := req.Compiler
	if compiler == "" {
		compiler = "tinygo"
	}
	name := req.Name
	if name == "" {
		name = "firmware"
	}
	format := req.Format
	if format == "" {
		format = "elf"
	}

	outDir, err := filepath.Abs(req.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", outDir, err)
	}

	args := []string{"build", "-target", req.Target, "-o", filepath.Join(outDir, name+"."+format)}
	if req.PrintSize {
		args = append(args, "-size", "short")
	}
	args = append(args, req.ExtraArgs...)
	args = append(args, req.Package)

	out, err := run(ctx, req.ProjectDir, compiler, args)
	if err != nil {
		return nil, err
	}

	// An explicit format names the artifact exactly; an older build in
	// another format may still sit in outDir.
	var path string
	if req.Format == "" {
		path, err = LocateFirmware(outDir, name)
	} else {
		path, err = builtFirmware(outDir, name+"."+format)
	}
	if err != nil {
		return nil, err
	}
	return &Result{Path: path, Command: append([]string{compiler}, args...), Output: out}, nil
}

// LocateFirmware returns <dir>/<name>.elf, or <dir>/<name>.hex if there is
// no .elf.
func LocateFirmware(dir, name string) (string, error) {
	for _, ext := range []string{".elf", ".hex"} {
		p := filepath.Join(dir, name+ext)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return filepath.Abs(p)
		}
	}
	return "", fmt.Errorf("%w: looked for %s.elf/.hex in %s", ErrFirmwareNotFound, name, dir)
}

func builtFirmware(dir, file string) (string, error) {
	p := filepath.Join(dir, file)
	if fi, err := os.Stat(p); err != nil || fi.IsDir() {
		return "", fmt.Errorf("%w: compiler did not write %s", ErrFirmwareNotFound, p)
	}
	return p, nil
}

// CopyFirmware copies src to dst, creating dst's parent directories, and
// returns the absolute dst path.
func CopyFirmware(src, dst string) (string, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("reading firmware: %w", err)
	}
	if dir := filepath.Dir(dst); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return "", fmt.Errorf("copying firmware to %s: %w", dst, err)
	}
	return filepath.Abs(dst)
}

// ── Running ───────────────────────────────────────────────────────────────────

// RunResult is the outcome of running a compiled tool.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunTool marks path executable and runs it with args. A non-zero exit
// returns the captured output along with an *ExitError.
func RunTool(ctx context.Context, path string, args []string) (*RunResult, error) {
	if runtime.GOOS != "windows" {
		if err := os.Chmod(path, 0755); err != nil {
			return nil, fmt.Errorf("making %s executable: %w", path, err)
		}
	}
	glog.V(1).Infof("running %s %s", path, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	res := &RunResult{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, &ExitError{Path: path, Code: res.ExitCode}
	}
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", path, err)
	}
	return res, nil
}

// ExitError reports a tool that ran but exited non-zero.
type ExitError struct {
	Path string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", filepath.Base(e.Path), e.Code)
}

func checkSource(projectDir, pkg string) error {
	if pkg == "" {
		return fmt.Errorf("%w: no package given", ErrSourceNotFound)
	}
	dir := pkg
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(projectDir, pkg)
	}
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, dir)
	}
	return nil
}

const waitDelay = 5 * time.Second

func run(ctx context.Context, dir, compiler string, args []string) (string, error) {
	glog.V(1).Infof("compiling: %s %s", compiler, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, compiler, args...)
	cmd.Dir = dir
	// Grandchildren may hold the output pipes after a cancel kills the compiler.
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		cerr := &CompileError{
			Command:  append([]string{compiler}, args...),
			ExitCode: -1,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cerr.ExitCode = exitErr.ExitCode()
		}
		glog.Warningf("compiler failed: %v", cerr)
		return "", cerr
	}
	return stdout.String() + stderr.String(), nil
}
