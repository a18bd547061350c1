// ─────────────────────────────────────────────────────────────────────────────
//  embeddemo :: cli :: init  —  write a starter embeddemo.toml
// ─────────────────────────────────────────────────────────────────────────────

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/embeddemo/cli/internal/manifest"
	"github.com/embeddemo/cli/internal/ui"
)

// ── Board catalog ─────────────────────────────────────────────────────────────

type boardChoice struct {
	id     string
	target string // tinygo -target
	note   string
}

var boardChoices = []boardChoice{
	{"uno", "arduino", "ATmega328P · 16 MHz · 32 KB"},
	{"nano", "arduino-nano", "ATmega328P · 16 MHz · compact"},
	{"mega", "arduino-mega2560", "ATmega2560 · 16 MHz · 256 KB"},
	{"leonardo", "arduino-leonardo", "ATmega32u4 · 16 MHz · native USB"},
	{"esp32", "esp32-coreboard-v2", "Dual-core · 240 MHz"},
	{"d1_mini", "d1mini", "ESP8266 · compact"},
	{"pico", "pico", "RP2040 · 133 MHz · 2 MB"},
}

func findBoard(id string) (boardChoice, bool) {
	for _, b := range boardChoices {
		if b.id == id {
			return b, true
		}
	}
	return boardChoice{}, false
}

func boardIDs() []string {
	ids := make([]string, len(boardChoices))
	for i, b := range boardChoices {
		ids[i] = b.id
	}
	sort.Strings(ids)
	return ids
}

func newInitCmd() *cobra.Command {
	var (
		name  string
		board string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create embeddemo.toml in the project directory",
		Example: `  embeddemo init
  embeddemo init --name blinky --board nano
  embeddemo init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := projectDir()
			path := filepath.Join(dir, manifest.FileName)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if name == "" {
				name = filepath.Base(dir)
			}
			m := manifest.Default(name)
			if board != "" {
				b, ok := findBoard(board)
				if !ok {
					return fmt.Errorf("unknown board %q (known: %s)", board, strings.Join(boardIDs(), ", "))
				}
				env := &m.Envs[0]
				env.Name, env.Target = b.id, b.target
				m.Project.DefaultEnvs = []string{b.id}
			}

			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
			if err := m.Save(dir); err != nil {
				return err
			}

			env := m.Envs[0]
			ui.Success(fmt.Sprintf("Wrote %s", path))
			ui.Step("project", m.Project.Name)
			ui.Step("tool", m.Tools[0].Name+"  "+m.Tools[0].Package)
			ui.Step("env", fmt.Sprintf("%s  target=%s  baud=%d", env.Name, env.Target, env.Baud))

			fmt.Fprintln(ui.Stdout)
			ui.ColorTitle.Fprintln(ui.Stdout, "  Next steps")
			for _, c := range []string{
				"embeddemo check",
				"embeddemo tool run sample_tool Hello",
				"embeddemo firmware build",
				"embeddemo upload && embeddemo monitor",
			} {
				fmt.Fprintf(ui.Stdout, "    %s %s\n", color.New(color.FgHiBlack).Sprint("$"), c)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "project name (default: directory name)")
	cmd.Flags().StringVarP(&board, "board", "b", "", "board for the default env ("+strings.Join(boardIDs(), ", ")+")")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing embeddemo.toml")
	return cmd
}
