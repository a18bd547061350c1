// ─────────────────────────────────────────────────────────────────────────────
//  embeddemo :: cli :: monitor  —  echo the board's serial output
// ─────────────────────────────────────────────────────────────────────────────

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/embeddemo/cli/internal/flash"
	"github.com/embeddemo/cli/internal/manifest"
	"github.com/embeddemo/cli/internal/monitor"
	"github.com/embeddemo/cli/internal/ui"
)

// runMonitor is swapped out in tests.
var runMonitor = monitor.Monitor

func newMonitorCmd() *cobra.Command {
	var (
		envName    string
		port       string
		baud       int
		lines      int
		timestamps bool
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Print lines from the board's serial port",
		Long: `monitor opens the serial device at the env's baud rate (9600 for the
looper, or default_baud) and echoes every line until Ctrl-C.`,
		Example: `  embeddemo monitor
  embeddemo monitor --port /dev/ttyACM0 --timestamps
  embeddemo monitor --lines 3 --baud 115200`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// A manifest is optional when --port is given.
			var env *manifest.Env
			if _, m, err := loadProject(); err == nil {
				if e, err := m.ResolveEnv(envName); err == nil {
					env = e
				} else if envName != "" {
					return err
				}
			} else if port == "" && !errors.Is(err, manifest.ErrNoManifest) {
				return err
			}

			p := portFor(port, env)
			if p == "" {
				detected, err := flash.DetectPort(cmd.Context(), cfg.ResolvedTinyGoBinary())
				if err != nil {
					return fmt.Errorf("%w\n  Hint: pass --port /dev/ttyUSBx", err)
				}
				p = detected
			}

			if baud == 0 {
				baud = baudFor(env)
			}

			ui.SectionTitle(fmt.Sprintf("Monitor  [port: %s]  [baud: %d]", p, baud))
			ui.Info("Press Ctrl-C to stop")
			n, err := runMonitor(cmd.Context(), p, baud, cmd.OutOrStdout(), monitor.Options{
				Lines:      lines,
				Timestamps: timestamps,
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Fprintln(ui.Stdout)
			ui.Step("lines", fmt.Sprintf("%d", n))
			return nil
		},
	}

	cmd.Flags().StringVarP(&envName, "env", "e", "", "[[env]] whose port and baud to use")
	cmd.Flags().StringVarP(&port, "port", "p", "", "serial device path")
	cmd.Flags().IntVarP(&baud, "baud", "b", 0, "line speed (default: env baud, then default_baud)")
	cmd.Flags().IntVarP(&lines, "lines", "n", 0, "stop after N lines (0 = until Ctrl-C)")
	cmd.Flags().BoolVarP(&timestamps, "timestamps", "t", false, "prefix lines with the local time")
	return cmd
}
