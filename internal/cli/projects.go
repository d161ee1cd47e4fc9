package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AndrewLang/matrix-codex-flow/pkg/types"
)

func newProjectsCmd(opts *options) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List recently updated projects",
		Long: `List the most recently updated projects, newest first.

Example:
  vibeflow projects
  vibeflow projects --count 3
  vibeflow projects --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("count") {
				count = opts.cfg.GetInt(cfgKeyRecentCount)
			}
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			projects, err := store.ListRecentProjects(count)
			if err != nil {
				return storeFailure(err)
			}
			if opts.jsonMode {
				return printJSON(cmd.OutOrStdout(), projects)
			}
			printProjectTable(cmd.OutOrStdout(), projects)
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", defaultRecentCount, "maximum number of projects (default from recent_count)")
	return cmd
}

func printProjectTable(out io.Writer, projects []*types.Project) {
	if len(projects) == 0 {
		fmt.Fprintln(out, "No projects.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTASKS\tRULES\tUPDATED\tPATH")
	for _, p := range projects {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
			p.ID, p.Name, len(p.Tasks), len(p.Rules), formatTime(p.UpdatedAt), p.Path)
	}
	w.Flush()
}

func newProjectCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Show, open or delete a single project",
	}
	cmd.AddCommand(newProjectShowCmd(opts))
	cmd.AddCommand(newProjectOpenCmd(opts))
	cmd.AddCommand(newProjectDeleteCmd(opts))
	return cmd
}

func newProjectShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Display a project with its rules, tasks and steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			p, found, err := store.LoadProject(args[0])
			if err != nil {
				return storeFailure(err)
			}
			if !found {
				return userError(fmt.Errorf("project %q not found", args[0]))
			}
			if opts.jsonMode {
				return printJSON(cmd.OutOrStdout(), p)
			}
			printProject(cmd.OutOrStdout(), p)
			return nil
		},
	}
}

func printProject(out io.Writer, p *types.Project) {
	fmt.Fprintf(out, "%s %s\n", headingColor.Sprint(p.Name), p.ID)
	fmt.Fprintf(out, "  path:    %s\n", p.Path)
	fmt.Fprintf(out, "  created: %s\n", formatTime(p.CreatedAt))
	fmt.Fprintf(out, "  updated: %s\n", formatTime(p.UpdatedAt))

	fmt.Fprintf(out, "\n%s (%d)\n", headingColor.Sprint("Rules"), len(p.Rules))
	for _, r := range p.Rules {
		if r.Description != nil && *r.Description != "" {
			fmt.Fprintf(out, "  - %s: %s\n", r.Name, *r.Description)
		} else {
			fmt.Fprintf(out, "  - %s\n", r.Name)
		}
	}

	fmt.Fprintf(out, "\n%s (%d)\n", headingColor.Sprint("Tasks"), len(p.Tasks))
	for _, t := range p.Tasks {
		fmt.Fprintf(out, "  %s %s (%s)\n", statusLabel(t.Status), t.Title, t.ID)
		printSteps(out, "pre", t.Presteps)
		printSteps(out, "main", t.Steps)
		printSteps(out, "post", t.Poststeps)
	}
}

func printSteps(out io.Writer, bucket string, steps []types.TaskStep) {
	for i, s := range steps {
		fmt.Fprintf(out, "      %s %d. %s %s\n", bucket, i+1, statusLabel(s.Status), s.Title)
	}
}

func newProjectOpenCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Return the project for a folder, creating it if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return userError(fmt.Errorf("resolve path: %w", err))
			}
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			p, err := store.LoadOrCreateProjectByPath(path)
			if err != nil {
				return storeFailure(err)
			}
			if opts.jsonMode {
				return printJSON(cmd.OutOrStdout(), p)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", p.ID, p.Name)
			return nil
		},
	}
}

func newProjectDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project with its tasks, rules and chat history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteProject(args[0]); err != nil {
				return storeFailure(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", args[0])
			return nil
		},
	}
}
