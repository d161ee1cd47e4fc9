package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AndrewLang/matrix-codex-flow/internal/sqlite"
)

func newExportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write every project and chat thread to a JSONL backup",
		Long: `Write every project, chat thread and message to a JSONL file. The file is
replaced atomically. Use "-" to write to standard output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if args[0] == "-" {
				if err := store.Export(cmd.OutOrStdout()); err != nil {
					return sysError(err)
				}
				return nil
			}
			if err := store.ExportFile(args[0]); err != nil {
				return sysError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", args[0])
			return nil
		},
	}
}

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Restore projects and chat threads from a JSONL backup",
		Long: `Restore a backup written by export. Projects in the backup replace stored
projects with the same id. Malformed or rejected records are skipped.
Use "-" to read from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var report sqlite.ImportReport
			if args[0] == "-" {
				report, err = store.Import(cmd.InOrStdin())
			} else {
				report, err = store.ImportFile(args[0])
			}
			if err != nil {
				return sysError(err)
			}
			if opts.jsonMode {
				return printJSON(cmd.OutOrStdout(), report)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d projects, %d threads, %d messages (%d skipped)\n",
				report.Projects, report.Threads, report.Messages, report.Skipped)
			return nil
		},
	}
}
