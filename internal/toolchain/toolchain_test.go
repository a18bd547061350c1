package toolchain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeCompiler records its argv to args.txt next to itself and writes a
// small shell script to the -o path.
const fakeCompiler = `#!/bin/sh
printf '%s\n' "$@" > "$(dirname "$0")/args.txt"
out=""
while [ $# -gt 0 ]; do
	if [ "$1" = "-o" ]; then out="$2"; shift; fi
	shift
done
printf '#!/bin/sh\necho "ran $*"\n' > "$out"
echo "compiled"
`

const brokenCompiler = `#!/bin/sh
echo "# example.com/demo" >&2
echo "./main.go:3:2: undefined: foo" >&2
exit 2
`

func requirePosix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake compilers are shell scripts")
	}
}

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0755))
	return path
}

func newProject(t *testing.T, pkgs ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, p := range pkgs {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, p), 0755))
	}
	return dir
}

func recordedArgs(t *testing.T, compiler string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(filepath.Dir(compiler), "args.txt"))
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestFindCompiler(t *testing.T) {
	requirePosix(t)
	bin := t.TempDir()
	tinygo := writeScript(t, bin, "tinygo", fakeCompiler)
	t.Setenv("PATH", bin)

	path, err := FindCompiler([]string{"", "no-such-compiler", "tinygo"})
	require.NoError(t, err)
	require.Equal(t, tinygo, path)

	path, err = FindCompiler([]string{tinygo})
	require.NoError(t, err)
	require.Equal(t, tinygo, path)

	_, err = FindCompiler([]string{"no-such-compiler"})
	require.ErrorIs(t, err, ErrNoCompiler)
}

func TestCompileToolAndRun(t *testing.T) {
	requirePosix(t)
	compiler := writeScript(t, t.TempDir(), "go", fakeCompiler)
	project := newProject(t, "cmd/sample_tool")
	outDir := filepath.Join(t.TempDir(), "nested", "bin")

	res, err := CompileTool(context.Background(), ToolRequest{
		ProjectDir: project,
		Package:    "./cmd/sample_tool",
		OutputDir:  outDir,
		ExtraArgs:  []string{"-trimpath"},
		Compiler:   compiler,
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(outDir, "sample_tool"), res.Path)
	require.Equal(t, "compiled\n", res.Output)
	require.Equal(t,
		[]string{"build", "-o", res.Path, "-trimpath", "./cmd/sample_tool"},
		recordedArgs(t, compiler))

	// The compiler leaves the file non-executable; RunTool fixes that.
	require.NoError(t, os.Chmod(res.Path, 0644))
	run, err := RunTool(context.Background(), res.Path, []string{"test"})
	require.NoError(t, err)
	require.Equal(t, "ran test\n", run.Stdout)
	require.Zero(t, run.ExitCode)
}

func TestCompileToolExecutableName(t *testing.T) {
	requirePosix(t)
	compiler := writeScript(t, t.TempDir(), "go", fakeCompiler)
	project := newProject(t, "cmd/sample_tool")

	res, err := CompileTool(context.Background(), ToolRequest{
		ProjectDir:     project,
		Package:        "./cmd/sample_tool",
		OutputDir:      t.TempDir(),
		ExecutableName: "sample_tool_app",
		Compiler:       compiler,
	})
	require.NoError(t, err)
	require.Equal(t, "sample_tool_app", filepath.Base(res.Path))
}

func TestCompileToolMissingSource(t *testing.T) {
	_, err := CompileTool(context.Background(), ToolRequest{
		ProjectDir: t.TempDir(),
		Package:    "./cmd/missing",
		OutputDir:  t.TempDir(),
		Compiler:   "go",
	})
	require.ErrorIs(t, err, ErrSourceNotFound)
}

func TestCompileToolFailure(t *testing.T) {
	requirePosix(t)
	compiler := writeScript(t, t.TempDir(), "go", brokenCompiler)
	project := newProject(t, "cmd/sample_tool")

	_, err := CompileTool(context.Background(), ToolRequest{
		ProjectDir: project,
		Package:    "./cmd/sample_tool",
		OutputDir:  t.TempDir(),
		Compiler:   compiler,
	})
	var cerr *CompileError
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, 2, cerr.ExitCode)
	require.Contains(t, cerr.Stderr, "undefined: foo")
	require.Equal(t, []Diagnostic{{File: "./main.go", Line: 3, Col: 2, Message: "undefined: foo"}}, cerr.Diagnostics())
	require.EqualError(t, err, compiler+" failed with exit code 2")
}

func TestCompileFirmware(t *testing.T) {
	requirePosix(t)
	compiler := writeScript(t, t.TempDir(), "tinygo", fakeCompiler)
	project := newProject(t, "firmware/looper")
	outDir := filepath.Join(project, "build", "uno")

	res, err := CompileFirmware(context.Background(), FirmwareRequest{
		ProjectDir: project,
		Package:    "./firmware/looper",
		Target:     "arduino",
		OutputDir:  outDir,
		Compiler:   compiler,
		PrintSize:  true,
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(outDir, "firmware.elf"), res.Path)
	require.Equal(t, []string{
		"build", "-target", "arduino", "-o", filepath.Join(outDir, "firmware.elf"),
		"-size", "short", "./firmware/looper",
	}, recordedArgs(t, compiler))
}

func TestCompileFirmwareHex(t *testing.T) {
	requirePosix(t)
	compiler := writeScript(t, t.TempDir(), "tinygo", fakeCompiler)
	project := newProject(t, "firmware/looper")
	outDir := t.TempDir()

	res, err := CompileFirmware(context.Background(), FirmwareRequest{
		ProjectDir: project,
		Package:    "./firmware/looper",
		Target:     "arduino",
		OutputDir:  outDir,
		Name:       "uno",
		Format:     "hex",
		Compiler:   compiler,
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(outDir, "uno.hex"), res.Path)
}

func TestCompileFirmwareFormatSwitch(t *testing.T) {
	requirePosix(t)
	compiler := writeScript(t, t.TempDir(), "tinygo", fakeCompiler)
	project := newProject(t, "firmware/looper")
	outDir := t.TempDir()
	req := FirmwareRequest{
		ProjectDir: project,
		Package:    "./firmware/looper",
		Target:     "arduino",
		OutputDir:  outDir,
		Format:     "elf",
		Compiler:   compiler,
	}

	res, err := CompileFirmware(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(outDir, "firmware.elf"), res.Path)

	// firmware.elf from the first build is still there.
	req.Format = "hex"
	res, err = CompileFirmware(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(outDir, "firmware.hex"), res.Path)
	require.FileExists(t, filepath.Join(outDir, "firmware.elf"))
}

func TestCompileFirmwareMissingArtifact(t *testing.T) {
	requirePosix(t)
	compiler := writeScript(t, t.TempDir(), "tinygo", "#!/bin/sh\necho ok\n")
	project := newProject(t, "firmware/looper")

	_, err := CompileFirmware(context.Background(), FirmwareRequest{
		ProjectDir: project,
		Package:    "./firmware/looper",
		Target:     "arduino",
		OutputDir:  t.TempDir(),
		Format:     "hex",
		Compiler:   compiler,
	})
	require.ErrorIs(t, err, ErrFirmwareNotFound)
}

func TestCompileFirmwareNeedsTarget(t *testing.T) {
	project := newProject(t, "firmware/looper")
	_, err := CompileFirmware(context.Background(), FirmwareRequest{
		ProjectDir: project,
		Package:    "./firmware/looper",
		OutputDir:  t.TempDir(),
	})
	require.ErrorContains(t, err, "target")
}

func TestLocateFirmwarePrefersELF(t *testing.T) {
	dir := t.TempDir()
	_, err := LocateFirmware(dir, "firmware")
	require.ErrorIs(t, err, ErrFirmwareNotFound)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "firmware.hex"), []byte(":00000001FF"), 0644))
	path, err := LocateFirmware(dir, "firmware")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "firmware.hex"), path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "firmware.elf"), []byte("\x7fELF"), 0644))
	path, err = LocateFirmware(dir, "firmware")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "firmware.elf"), path)
}

func TestCopyFirmwareCreatesParents(t *testing.T) {
	src := filepath.Join(t.TempDir(), "firmware.elf")
	require.NoError(t, os.WriteFile(src, []byte("\x7fELF"), 0644))
	dst := filepath.Join(t.TempDir(), "compiled_firmware_output", "uno_firmware.elf")

	got, err := CopyFirmware(src, dst)
	require.NoError(t, err)
	require.Equal(t, dst, got)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "\x7fELF", string(data))

	_, err = CopyFirmware(filepath.Join(t.TempDir(), "missing.elf"), dst)
	require.ErrorContains(t, err, "reading firmware")
}

func TestRunToolExitCode(t *testing.T) {
	requirePosix(t)
	tool := writeScript(t, t.TempDir(), "fails", "#!/bin/sh\necho oops >&2\nexit 3\n")

	res, err := RunTool(context.Background(), tool, nil)
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, 3, exitErr.Code)
	require.Equal(t, 3, res.ExitCode)
	require.Equal(t, "oops\n", res.Stderr)
	require.EqualError(t, err, "fails exited with code 3")
}

func TestParseDiagnostics(t *testing.T) {
	out := strings.Join([]string{
		"# example.com/demo",
		"./main.go:12:2: undefined: foo",
		"looper.go:7: syntax error: unexpected }",
		"warning: something unrelated",
		"notes.txt:3:1: ignored",
	}, "\n")
	require.Equal(t, []Diagnostic{
		{File: "./main.go", Line: 12, Col: 2, Message: "undefined: foo"},
		{File: "looper.go", Line: 7, Message: "syntax error: unexpected }"},
	}, ParseDiagnostics(out))
}
