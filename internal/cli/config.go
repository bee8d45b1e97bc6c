package cli

import (
	"github.com/MRamiBalles/ColdFront/server/internal/platform/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective balance settings as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := config.Load(path); err != nil {
				return err
			}
			out, err := config.EffectiveTOML(path)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVar(&path, "config", "", "Balance file (TOML or YAML)")
	return cmd
}
