// ─────────────────────────────────────────────────────────────────────────────
//  embeddemo :: cli :: build  —  every [[tool]] plus one [[env]], in parallel
// ─────────────────────────────────────────────────────────────────────────────

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/embeddemo/cli/internal/manifest"
	"github.com/embeddemo/cli/internal/toolchain"
	"github.com/embeddemo/cli/internal/ui"
)

type buildOutcome struct {
	label string
	res   *toolchain.Result
}

func newBuildCmd() *cobra.Command {
	var envName string
	var skipFirmware bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build all host tools and the firmware",
		Example: `  embeddemo build
  embeddemo build --env nano
  embeddemo build --no-firmware`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, m, err := loadProject()
			if err != nil {
				return err
			}

			var env *manifest.Env
			if !skipFirmware && len(m.Envs) > 0 {
				if env, err = m.ResolveEnv(envName); err != nil {
					return err
				}
			}

			outcomes := make([]buildOutcome, len(m.Tools)+1)
			g, ctx := errgroup.WithContext(cmd.Context())
			for i := range m.Tools {
				i, t := i, &m.Tools[i]
				g.Go(func() error {
					res, err := toolBuild(ctx, dir, m, t, "", "", nil)
					if err != nil {
						return fmt.Errorf("tool %s: %w", t.Name, err)
					}
					outcomes[i] = buildOutcome{label: "tool " + t.Name, res: res}
					return nil
				})
			}
			if env != nil {
				g.Go(func() error {
					res, err := firmwareBuild(ctx, dir, m, env)
					if err != nil {
						return fmt.Errorf("env %s: %w", env.Name, err)
					}
					outcomes[len(m.Tools)] = buildOutcome{label: "env " + env.Name, res: res}
					return nil
				})
			}

			ui.SectionTitle(fmt.Sprintf("Building  [%d tool(s)]  [firmware: %s]", len(m.Tools), envLabel(env)))
			sp := ui.NewSpinner("compiling…")
			sp.Start()
			if err := g.Wait(); err != nil {
				sp.Stop(false, err.Error())
				return renderError(err)
			}
			sp.Stop(true, "all targets built")

			for _, o := range outcomes {
				if o.res != nil {
					ui.Step(o.label, o.res.Path)
				}
			}
			ui.Success("Build finished!")
			return nil
		},
	}

	cmd.Flags().StringVarP(&envName, "env", "e", "", "[[env]] to build (default: first default_envs entry)")
	cmd.Flags().BoolVar(&skipFirmware, "no-firmware", false, "only build host tools")
	return cmd
}

func envLabel(env *manifest.Env) string {
	if env == nil {
		return "none"
	}
	return env.Name
}
