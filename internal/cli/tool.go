// ─────────────────────────────────────────────────────────────────────────────
//  embeddemo :: cli :: tool  —  build and run [[tool]] host programs
// ─────────────────────────────────────────────────────────────────────────────

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/embeddemo/cli/internal/manifest"
	"github.com/embeddemo/cli/internal/toolchain"
	"github.com/embeddemo/cli/internal/ui"
)

func newToolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool",
		Short: "Build or run a host tool declared in embeddemo.toml [[tool]]",
	}
	cmd.AddCommand(newToolBuildCmd(), newToolRunCmd())
	return cmd
}

// toolBuild compiles one tool. outDir defaults to <output_dir>/bin and
// exeName to the tool name.
func toolBuild(ctx context.Context, dir string, m *manifest.Manifest, t *manifest.Tool, outDir, exeName string, extra []string) (*toolchain.Result, error) {
	compiler, err := toolchain.FindCompiler(cfg.ResolvedCompilers())
	if err != nil {
		return nil, err
	}
	if outDir == "" {
		outDir = filepath.Join(m.OutputDir(dir), "bin")
	}
	if exeName == "" {
		exeName = t.Name
	}
	args := append(append(append([]string{}, m.Build.ExtraFlags...), t.ExtraFlags...), extra...)

	return toolchain.CompileTool(ctx, toolchain.ToolRequest{
		ProjectDir:     dir,
		Package:        t.Package,
		OutputDir:      outDir,
		ExecutableName: exeName,
		ExtraArgs:      args,
		Compiler:       compiler,
	})
}

func newToolBuildCmd() *cobra.Command {
	var out, name string

	cmd := &cobra.Command{
		Use:   "build <tool> [-- compiler-args...]",
		Short: "Compile a host tool",
		Example: `  embeddemo tool build sample_tool
  embeddemo tool build sample_tool --out ./bin --name sample_tool_exec
  embeddemo tool build sample_tool -- -trimpath`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, m, err := loadProject()
			if err != nil {
				return err
			}
			t, err := m.Tool(args[0])
			if err != nil {
				return err
			}

			ui.SectionTitle(fmt.Sprintf("Compiling  [tool: %s]", t.Name))
			sp := ui.NewSpinner(fmt.Sprintf("%s → %s", t.Package, t.Name))
			sp.Start()
			res, err := toolBuild(cmd.Context(), dir, m, t, out, name, args[1:])
			if err != nil {
				sp.Stop(false, "compilation failed")
				return renderError(err)
			}
			sp.Stop(true, fmt.Sprintf("executable at %s", res.Path))
			if cfg.Verbose {
				ui.Step("command", strings.Join(res.Command, " "))
				if strings.TrimSpace(res.Output) != "" {
					fmt.Fprint(ui.Stdout, res.Output)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory (default: <output_dir>/bin)")
	cmd.Flags().StringVar(&name, "name", "", "executable name (default: tool name)")
	return cmd
}

func newToolRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <tool> [-- args...]",
		Short: "Compile a host tool and run it",
		Example: `  embeddemo tool run sample_tool
  embeddemo tool run sample_tool FromEmbeddemo
  embeddemo tool run sample_tool -- --not-a-flag`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, m, err := loadProject()
			if err != nil {
				return err
			}
			t, err := m.Tool(args[0])
			if err != nil {
				return err
			}

			scratch, err := os.MkdirTemp("", "embeddemo-run-")
			if err != nil {
				return err
			}
			defer os.RemoveAll(scratch)

			ui.SectionTitle(fmt.Sprintf("Run  [tool: %s]", t.Name))
			sp := ui.NewSpinner(fmt.Sprintf("compiling %s", t.Package))
			sp.Start()
			res, err := toolBuild(cmd.Context(), dir, m, t, scratch, "", nil)
			if err != nil {
				sp.Stop(false, "compilation failed")
				return renderError(err)
			}
			sp.Stop(true, fmt.Sprintf("compiled %s", res.Path))

			ui.Step("run", strings.Join(append([]string{filepath.Base(res.Path)}, args[1:]...), " "))
			run, err := toolchain.RunTool(cmd.Context(), res.Path, args[1:])
			if run != nil {
				fmt.Fprintln(ui.Stdout)
				fmt.Fprint(cmd.OutOrStdout(), run.Stdout)
				if run.Stderr != "" {
					fmt.Fprint(ui.Stderr, run.Stderr)
				}
			}
			var exitErr *toolchain.ExitError
			if errors.As(err, &exitErr) {
				ui.Fail(fmt.Sprintf("exited with code %d", exitErr.Code))
				return fmt.Errorf("run failed")
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(ui.Stdout)
			ui.Success(fmt.Sprintf("'%s' finished", t.Name))
			return nil
		},
	}
	return cmd
}
