// ─────────────────────────────────────────────────────────────────────────────
//  embeddemo :: cli :: check / clean
// ─────────────────────────────────────────────────────────────────────────────

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/embeddemo/cli/internal/check"
	"github.com/embeddemo/cli/internal/ui"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate embeddemo.toml, package sources and toolchains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, m, err := loadProject()
			if err != nil {
				return err
			}
			ui.SectionTitle(fmt.Sprintf("Checking  [%s]", m.Project.Name))
			report := check.Run(dir, m, check.Options{
				Compilers: cfg.ResolvedCompilers(),
				TinyGo:    cfg.ResolvedTinyGoBinary(),
			})
			check.PrintReport(report)
			if !report.OK() {
				return fmt.Errorf("check found %d error(s)", len(report.Errors))
			}
			return nil
		},
	}
}

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the build output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, m, err := loadProject()
			if err != nil {
				return err
			}
			out := filepath.Clean(m.OutputDir(dir))
			if out == filepath.Clean(dir) {
				return fmt.Errorf("refusing to remove the project directory %s", out)
			}
			if _, err := os.Stat(out); os.IsNotExist(err) {
				ui.Info("Nothing to clean")
				return nil
			}
			if err := os.RemoveAll(out); err != nil {
				return err
			}
			ui.Success(fmt.Sprintf("Removed %s", out))
			return nil
		},
	}
}
