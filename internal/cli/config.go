// ─────────────────────────────────────────────────────────────────────────────
//  embeddemo :: cli :: config / version
// ─────────────────────────────────────────────────────────────────────────────

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/embeddemo/cli/internal/config"
	"github.com/embeddemo/cli/internal/ui"
	"github.com/embeddemo/cli/internal/version"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change user settings",
		Example: `  embeddemo config list
  embeddemo config get default_port
  embeddemo config set compilers go,go1.21
  embeddemo config path`,
	}

	var raw bool
	list := &cobra.Command{
		Use:   "list",
		Short: "Print every setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all := cfg.AllEntries()
			entries := make([]ui.ConfigEntry, len(all))
			for i, e := range all {
				entries[i] = ui.ConfigEntry{Key: e.Key, Value: e.Value, Comment: e.Comment}
			}
			ui.PrintConfig("embeddemo config", entries, raw)
			return nil
		},
	}
	list.Flags().BoolVar(&raw, "raw", false, "print key = value lines")

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := cfg.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting and save it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			ui.Success(fmt.Sprintf("%s = %s", args[0], args[1]))
			return nil
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.Path()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.AddCommand(list, get, set, path)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the embeddemo version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
