package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AndrewLang/matrix-codex-flow/internal/settings"
)

func newInitCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and the project store",
		Long: `Create the configuration and data directories, write a default config.yaml
and settings.json when missing, and create or migrate the project database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			s := settings.Load(opts.dataDir, opts.logger)
			if err := s.Save(); err != nil {
				return sysError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "VibeFlow initialized\n  config: %s\n  data:   %s\n", opts.configDir, opts.dataDir)
			return nil
		},
	}
}
