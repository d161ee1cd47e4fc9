package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AndrewLang/matrix-codex-flow/internal/settings"
)

func newSettingsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "settings [key [value]]",
		Short: "List, read or change application settings",
		Long: `Without arguments, list every setting. With a key, print its value. With a
key and a value, store the value converted to the setting's type.

Example:
  vibeflow settings
  vibeflow settings agent.provider
  vibeflow settings project.generateVibeflowFolder false`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := settings.Load(opts.dataDir, opts.logger)
			out := cmd.OutOrStdout()

			switch len(args) {
			case 0:
				all := s.All()
				if opts.jsonMode {
					return printJSON(out, all)
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "KEY\tTYPE\tVALUE")
				for _, item := range all {
					fmt.Fprintf(w, "%s\t%s\t%q\n", item.Key, item.ValueType, fmt.Sprint(item.Value))
				}
				w.Flush()
				return nil

			case 1:
				item, ok := s.Get(args[0])
				if !ok {
					return userError(fmt.Errorf("unknown setting %q", args[0]))
				}
				if opts.jsonMode {
					return printJSON(out, item)
				}
				fmt.Fprintln(out, item.Value)
				return nil

			default:
				if err := s.Set(args[0], args[1]); err != nil {
					if errors.Is(err, settings.ErrUnknownKey) || errors.Is(err, settings.ErrInvalidValue) {
						return userError(err)
					}
					return sysError(err)
				}
				fmt.Fprintf(out, "%s = %s\n", args[0], args[1])
				return nil
			}
		},
	}
}
