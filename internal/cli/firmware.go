// ─────────────────────────────────────────────────────────────────────────────
//  embeddemo :: cli :: firmware
//
//  Builds an [[env]] with tinygo into <output_dir>/<env>/firmware.<format>
//  and optionally copies the result to --dest. A failed copy only warns; the
//  in-tree firmware path is still reported.
// ─────────────────────────────────────────────────────────────────────────────

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/embeddemo/cli/internal/manifest"
	"github.com/embeddemo/cli/internal/toolchain"
	"github.com/embeddemo/cli/internal/ui"
)

func newFirmwareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "firmware",
		Short: "Build firmware for an embeddemo.toml [[env]]",
	}
	cmd.AddCommand(newFirmwareBuildCmd())
	return cmd
}

func firmwareBuild(ctx context.Context, dir string, m *manifest.Manifest, env *manifest.Env) (*toolchain.Result, error) {
	return toolchain.CompileFirmware(ctx, toolchain.FirmwareRequest{
		ProjectDir: dir,
		Package:    env.Package,
		Target:     env.Target,
		OutputDir:  m.FirmwareDir(dir, env),
		Format:     env.Format,
		ExtraArgs:  m.Build.ExtraFlags,
		Compiler:   cfg.ResolvedTinyGoBinary(),
		PrintSize:  cfg.Verbose,
	})
}

func newFirmwareBuildCmd() *cobra.Command {
	var envName, dest string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile firmware with tinygo",
		Example: `  embeddemo firmware build
  embeddemo firmware build --env uno
  embeddemo firmware build --dest ./compiled_firmware_output/uno_firmware.elf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, m, err := loadProject()
			if err != nil {
				return err
			}
			env, err := m.ResolveEnv(envName)
			if err != nil {
				return err
			}
			if envName == "" {
				ui.Info(fmt.Sprintf("No environment specified, using default_envs: %s", env.Name))
			}

			ui.TargetBadge(env.Target)
			ui.SectionTitle(fmt.Sprintf("Compiling  [env: %s]  [target: %s]", env.Name, env.Target))
			sp := ui.NewSpinner(fmt.Sprintf("tinygo build -target %s %s", env.Target, env.Package))
			sp.Start()
			res, err := firmwareBuild(cmd.Context(), dir, m, env)
			if err != nil {
				sp.Stop(false, "compilation failed")
				return renderError(err)
			}
			sp.Stop(true, fmt.Sprintf("firmware built at %s", res.Path))
			if cfg.Verbose && strings.TrimSpace(res.Output) != "" {
				fmt.Fprint(ui.Stdout, res.Output)
			}

			final := res.Path
			if dest != "" {
				copied, err := toolchain.CopyFirmware(res.Path, dest)
				if err != nil {
					ui.Warn(fmt.Sprintf("could not copy firmware to %s: %v", dest, err))
				} else {
					final = copied
					ui.Step("copied", copied)
				}
			}

			ui.Step("firmware", final)
			ui.Info("This firmware targets a microcontroller and is not runnable on this machine.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&envName, "env", "e", "", "[[env]] to build (default: first default_envs entry)")
	cmd.Flags().StringVar(&dest, "dest", "", "also copy the firmware to this path")
	return cmd
}
