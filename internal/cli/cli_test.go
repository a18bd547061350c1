package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/embeddemo/cli/internal/manifest"
	"github.com/embeddemo/cli/internal/monitor"
	"github.com/embeddemo/cli/internal/ui"
)

// fakeToolchain stands in for both go and tinygo. It records argv, answers
// `ports` and `flash`, and otherwise writes a script to the -o path.
const fakeToolchain = `#!/bin/sh
printf '%s\n' "$@" > "$(dirname "$0")/args.txt"
case "$1" in
ports) echo "/dev/ttyACM0  2341:0043  Arduino Uno"; exit 0 ;;
flash) echo "flashed"; exit 0 ;;
esac
out=""
while [ $# -gt 0 ]; do
	if [ "$1" = "-o" ]; then out="$2"; shift; fi
	shift
done
printf '#!/bin/sh\necho "ran $*"\n' > "$out"
`

type fixture struct {
	dir    string
	goBin  string
	tinyGo string
}

func fakeBinary(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(fakeToolchain), 0755))
	return path
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake toolchains are shell scripts")
	}
	f := &fixture{
		dir:    t.TempDir(),
		goBin:  fakeBinary(t, "go"),
		tinyGo: fakeBinary(t, "tinygo"),
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("EMBEDDEMO_GO", f.goBin)
	t.Setenv("EMBEDDEMO_TINYGO", f.tinyGo)
	t.Setenv("EMBEDDEMO_PORT", "")

	require.NoError(t, manifest.Default("demo").Save(f.dir))
	for _, pkg := range []string{"cmd/sample_tool", "firmware/looper"} {
		p := filepath.Join(f.dir, pkg)
		require.NoError(t, os.MkdirAll(p, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(p, "main.go"), []byte("package main\n"), 0644))
	}
	return f
}

func (f *fixture) args(t *testing.T, bin string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(filepath.Dir(bin), "args.txt"))
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

// execute runs the root command and returns everything it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	oldOut, oldErr := ui.Stdout, ui.Stderr
	ui.Stdout, ui.Stderr = &out, &out
	t.Cleanup(func() { ui.Stdout, ui.Stderr = oldOut, oldErr })

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestToolRunPrintsProgramOutput(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, "--dir", f.dir, "tool", "run", "sample_tool", "FromEmbeddemo")
	require.NoError(t, err)
	require.Contains(t, out, "ran FromEmbeddemo")
	require.Contains(t, out, "'sample_tool' finished")

	// scratch builds never land in the project
	_, err = os.Stat(filepath.Join(f.dir, "build"))
	require.True(t, os.IsNotExist(err))
}

func TestToolBuildPassesExtraArgs(t *testing.T) {
	f := newFixture(t)

	_, err := execute(t, "--dir", f.dir, "tool", "build", "sample_tool", "--name", "sample_tool_exec", "--", "-trimpath")
	require.NoError(t, err)

	exe := filepath.Join(f.dir, "build", "bin", "sample_tool_exec")
	require.FileExists(t, exe)
	require.Equal(t, []string{"build", "-o", exe, "-trimpath", "./cmd/sample_tool"}, f.args(t, f.goBin))
}

func TestToolBuildUnknownTool(t *testing.T) {
	f := newFixture(t)

	_, err := execute(t, "--dir", f.dir, "tool", "build", "nope")
	require.ErrorIs(t, err, manifest.ErrUnknownTool)
}

func TestFirmwareBuildCopiesToDest(t *testing.T) {
	f := newFixture(t)
	dest := filepath.Join(t.TempDir(), "compiled_firmware_output", "uno_firmware.elf")

	out, err := execute(t, "--dir", f.dir, "firmware", "build", "--dest", dest)
	require.NoError(t, err)
	require.Contains(t, out, "using default_envs: uno")
	require.Contains(t, out, "not runnable on this machine")
	require.FileExists(t, filepath.Join(f.dir, "build", "uno", "firmware.elf"))
	require.FileExists(t, dest)

	args := f.args(t, f.tinyGo)
	require.Equal(t, []string{"build", "-target", "arduino"}, args[:3])
	require.Equal(t, "./firmware/looper", args[len(args)-1])
}

func TestFirmwareBuildUnknownEnv(t *testing.T) {
	f := newFixture(t)

	_, err := execute(t, "--dir", f.dir, "firmware", "build", "--env", "mega")
	require.ErrorIs(t, err, manifest.ErrUnknownEnvironment)
}

func TestBuildEverything(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, "--dir", f.dir, "build")
	require.NoError(t, err)
	require.Contains(t, out, "Build finished!")
	require.FileExists(t, filepath.Join(f.dir, "build", "bin", "sample_tool"))
	require.FileExists(t, filepath.Join(f.dir, "build", "uno", "firmware.elf"))
}

func TestUploadPortPrecedence(t *testing.T) {
	f := newFixture(t)

	_, err := execute(t, "--dir", f.dir, "upload")
	require.NoError(t, err)
	require.Equal(t,
		[]string{"flash", "-target", "arduino", "-port", "/dev/ttyACM0", "./firmware/looper"},
		f.args(t, f.tinyGo))

	t.Setenv("EMBEDDEMO_PORT", "/dev/ttyUSB3")
	_, err = execute(t, "--dir", f.dir, "upload")
	require.NoError(t, err)
	require.Contains(t, f.args(t, f.tinyGo), "/dev/ttyUSB3")

	_, err = execute(t, "--dir", f.dir, "upload", "--port", "/dev/ttyUSB9")
	require.NoError(t, err)
	require.Contains(t, f.args(t, f.tinyGo), "/dev/ttyUSB9")
}

func TestCheckAndClean(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, "--dir", f.dir, "check")
	require.NoError(t, err)
	require.Contains(t, out, "All 2 target(s) OK")

	_, err = execute(t, "--dir", f.dir, "tool", "build", "sample_tool")
	require.NoError(t, err)
	_, err = execute(t, "--dir", f.dir, "clean")
	require.NoError(t, err)
	require.NoDirExists(t, filepath.Join(f.dir, "build"))

	out, err = execute(t, "--dir", f.dir, "clean")
	require.NoError(t, err)
	require.Contains(t, out, "Nothing to clean")
}

func TestInit(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := filepath.Join(t.TempDir(), "blinky")

	_, err := execute(t, "--dir", dir, "init", "--board", "nano")
	require.NoError(t, err)

	m, err := manifest.Load(dir)
	require.NoError(t, err)
	require.Equal(t, "blinky", m.Project.Name)
	require.Equal(t, []string{"nano"}, m.Project.DefaultEnvs)
	require.Equal(t, "arduino-nano", m.Envs[0].Target)

	_, err = execute(t, "--dir", dir, "init")
	require.ErrorContains(t, err, "already exists")
	_, err = execute(t, "--dir", dir, "init", "--force")
	require.NoError(t, err)

	_, err = execute(t, "--dir", dir, "init", "--force", "--board", "zx81")
	require.ErrorContains(t, err, "unknown board")
}

func TestConfigSetGet(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := execute(t, "config", "set", "default_port", "/dev/ttyACM1")
	require.NoError(t, err)

	out, err := execute(t, "config", "get", "default_port")
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyACM1\n", out)

	out, err = execute(t, "config", "list", "--raw")
	require.NoError(t, err)
	require.Contains(t, out, "default_baud = 9600")

	out, err = execute(t, "config", "path")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(strings.TrimSpace(out), filepath.Join("embeddemo", "config.json")))

	_, err = execute(t, "config", "get", "nope")
	require.Error(t, err)
}

func TestNoManifest(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := execute(t, "--dir", t.TempDir(), "build")
	require.ErrorIs(t, err, manifest.ErrNoManifest)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "embeddemo "))
}

func TestFirmwareBuildFailedCopyKeepsInTreePath(t *testing.T) {
	f := newFixture(t)
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	out, err := execute(t, "--dir", f.dir, "firmware", "build", "--dest", filepath.Join(blocker, "uno.elf"))
	require.NoError(t, err)
	require.Contains(t, out, "could not copy firmware to")
	require.Contains(t, out, "firmware → "+filepath.Join(f.dir, "build", "uno", "firmware.elf"))
}

func TestBuildFailureCancelsOtherBuilds(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.goBin, []byte("#!/bin/sh\nexec sleep 30\n"), 0755))
	require.NoError(t, os.WriteFile(f.tinyGo, []byte(`#!/bin/sh
echo "# ./firmware/looper" >&2
echo "./firmware/looper/main.go:7:2: undefined: openSerial" >&2
exit 1
`), 0755))

	start := time.Now()
	out, err := execute(t, "--dir", f.dir, "build")
	require.EqualError(t, err, "compilation failed")
	require.Less(t, time.Since(start), 20*time.Second)
	require.Contains(t, out, "Traceback")
	require.Contains(t, out, "undefined: openSerial")
	require.NotContains(t, out, "Build finished!")
}

type monitorCall struct {
	port string
	baud int
}

func stubMonitor(t *testing.T, err error) *[]monitorCall {
	t.Helper()
	var calls []monitorCall
	old := runMonitor
	runMonitor = func(ctx context.Context, port string, baud int, w io.Writer, opts monitor.Options) (int, error) {
		calls = append(calls, monitorCall{port, baud})
		return 0, err
	}
	t.Cleanup(func() { runMonitor = old })
	return &calls
}

func TestMonitorResolvesPortAndBaud(t *testing.T) {
	f := newFixture(t)
	calls := stubMonitor(t, nil)

	_, err := execute(t, "--dir", f.dir, "monitor")
	require.NoError(t, err)

	m, err := manifest.Load(f.dir)
	require.NoError(t, err)
	m.Envs = append(m.Envs, manifest.Env{
		Name: "fast", Target: "arduino", Package: "./firmware/looper", Port: "/dev/ttyUSB1", Baud: 115200,
	})
	require.NoError(t, m.Save(f.dir))

	_, err = execute(t, "--dir", f.dir, "monitor", "--env", "fast")
	require.NoError(t, err)
	_, err = execute(t, "--dir", f.dir, "monitor", "--env", "fast", "--port", "/dev/ttyUSB9", "--baud", "57600")
	require.NoError(t, err)
	_, err = execute(t, "--dir", t.TempDir(), "monitor", "--port", "/dev/ttyUSB2")
	require.NoError(t, err)

	require.Equal(t, []monitorCall{
		{"/dev/ttyACM0", 9600},   // detected via tinygo ports, env baud
		{"/dev/ttyUSB1", 115200}, // env port and baud
		{"/dev/ttyUSB9", 57600},  // flags win
		{"/dev/ttyUSB2", 9600},   // no manifest: default_baud
	}, *calls)

	_, err = execute(t, "--dir", f.dir, "monitor", "--env", "mega")
	require.ErrorIs(t, err, manifest.ErrUnknownEnvironment)
	require.Len(t, *calls, 4)
}

func TestMonitorCancelIsNotAnError(t *testing.T) {
	f := newFixture(t)
	stubMonitor(t, context.Canceled)

	_, err := execute(t, "--dir", f.dir, "monitor", "--port", "/dev/ttyACM0")
	require.NoError(t, err)
}
