// ─────────────────────────────────────────────────────────────────────────────
//  embeddemo :: cli  —  root cobra command + subcommand registration
// ─────────────────────────────────────────────────────────────────────────────

package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/embeddemo/cli/internal/config"
	"github.com/embeddemo/cli/internal/manifest"
	"github.com/embeddemo/cli/internal/ui"
)

var (
	globalVerbose bool
	globalNoColor bool
	globalDir     string
	cfg           *config.Config
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "embeddemo",
		Short: "Build, run and flash the embed demo programs",
		Long: `embeddemo builds the sample_tool host program with the go toolchain and
the serial looper firmware with tinygo, runs the tool, uploads firmware and
watches the board's serial output.

Run 'embeddemo <command> --help' for details on each command.
`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if globalNoColor {
				color.NoColor = true
			}
			var err error
			cfg, err = config.Load()
			if err != nil {
				ui.Warn(fmt.Sprintf("Config load error: %v — using defaults", err))
				cfg = config.Default()
			}
			if !cfg.Color {
				color.NoColor = true
			}
			if globalVerbose {
				cfg.Verbose = true
			}
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&globalVerbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().BoolVar(&globalNoColor, "no-color", false, "disable colored output")
	root.PersistentFlags().StringVarP(&globalDir, "dir", "C", "", "project directory (default: current directory)")
	addLogFlags(root.PersistentFlags())

	root.AddCommand(
		newInitCmd(),
		newCheckCmd(),
		newToolCmd(),
		newFirmwareCmd(),
		newBuildCmd(),
		newUploadCmd(),
		newMonitorCmd(),
		newCleanCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

func init() {
	_ = flag.Set("logtostderr", "true")
}

// addLogFlags exposes glog's verbosity flags. glog's "v" is renamed to
// "log-v" since -v already means --verbose.
func addLogFlags(fs *pflag.FlagSet) {
	if gf := flag.Lookup("v"); gf != nil {
		pf := pflag.PFlagFromGoFlag(gf)
		pf.Name, pf.Shorthand = "log-v", ""
		pf.Usage = "glog verbosity level for diagnostics"
		fs.AddFlag(pf)
	}
	if gf := flag.Lookup("vmodule"); gf != nil {
		fs.AddGoFlag(gf)
	}
}

// Execute is the entry point called from main(). SIGINT and SIGTERM cancel
// the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer glog.Flush()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		ui.Fail(err.Error())
		return err
	}
	return nil
}

func projectDir() string {
	if globalDir != "" {
		if abs, err := filepath.Abs(globalDir); err == nil {
			return abs
		}
		return globalDir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// loadProject finds embeddemo.toml from the project directory upward.
func loadProject() (string, *manifest.Manifest, error) {
	dir, m, err := manifest.Find(projectDir())
	if err != nil {
		return "", nil, err
	}
	glog.V(2).Infof("project root %s", dir)
	return dir, m, nil
}

// baudFor picks the env's baud rate, falling back to the configured default.
func baudFor(env *manifest.Env) int {
	if env != nil && env.Baud > 0 {
		return env.Baud
	}
	return cfg.DefaultBaud
}
