// ─────────────────────────────────────────────────────────────────────────────
//  embeddemo :: cli :: upload  —  flash an [[env]] onto the board
// ─────────────────────────────────────────────────────────────────────────────

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/embeddemo/cli/internal/flash"
	"github.com/embeddemo/cli/internal/manifest"
	"github.com/embeddemo/cli/internal/ui"
)

// portFor applies the port precedence: flag, then env, then config.
// An empty result means auto-detect.
func portFor(flagPort string, env *manifest.Env) string {
	if flagPort != "" {
		return flagPort
	}
	if env != nil && env.Port != "" {
		return env.Port
	}
	return cfg.ResolvedPort()
}

func newUploadCmd() *cobra.Command {
	var envName, port string

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Flash firmware onto a connected board",
		Example: `  embeddemo upload
  embeddemo upload --env uno --port /dev/ttyACM0`,
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

			p := portFor(port, env)
			portLabel := p
			if portLabel == "" {
				portLabel = "auto"
			}

			ui.TargetBadge(env.Target)
			ui.SectionTitle(fmt.Sprintf("Uploading  [env: %s]  [port: %s]", env.Name, portLabel))
			sp := ui.NewSpinner(fmt.Sprintf("tinygo flash -target %s", env.Target))
			sp.Start()
			res, err := flash.Run(cmd.Context(), flash.Options{
				ProjectDir: dir,
				Package:    env.Package,
				Target:     env.Target,
				Port:       p,
				TinyGo:     cfg.ResolvedTinyGoBinary(),
				Verbose:    cfg.Verbose,
			})
			if err != nil {
				sp.Stop(false, "upload failed")
				return renderError(err)
			}
			sp.Stop(true, fmt.Sprintf("flashed via %s", res.Port))
			if cfg.Verbose && strings.TrimSpace(res.Output) != "" {
				fmt.Fprint(ui.Stdout, res.Output)
			}
			ui.Info(fmt.Sprintf("Watch the output with: embeddemo monitor --port %s", res.Port))
			return nil
		},
	}

	cmd.Flags().StringVarP(&envName, "env", "e", "", "[[env]] to upload (default: first default_envs entry)")
	cmd.Flags().StringVarP(&port, "port", "p", "", "serial port (default: env, config, then auto-detect)")
	return cmd
}
