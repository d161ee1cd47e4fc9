// Package cli implements the vibeflow administrative command line over the
// project store.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AndrewLang/matrix-codex-flow/internal/paths"
	"github.com/AndrewLang/matrix-codex-flow/internal/sqlite"
	"github.com/AndrewLang/matrix-codex-flow/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Version is the vibeflow version, overridden at link time. The root
// command's --version flag and the version subcommand both read it.
var Version = "0.1.0"

const modulePath = "github.com/AndrewLang/matrix-codex-flow"

// options holds global flag values and state resolved before a subcommand
// runs.
type options struct {
	configDir string
	dataDir   string
	logLevel  string
	jsonMode  bool

	cfg    *viper.Viper
	logger *slog.Logger
}

// NewRootCmd creates the top-level "vibeflow" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "vibeflow",
		Short:         "Inspect and maintain the VibeFlow project store",
		Long:          "vibeflow manages the local store of projects, tasks, rules and agent chat history.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return opts.resolve(cmd)
		},
	}

	root.PersistentFlags().StringVar(&opts.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&opts.jsonMode, "json", false, "output as JSON")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(opts))
	root.AddCommand(newProjectsCmd(opts))
	root.AddCommand(newProjectCmd(opts))
	root.AddCommand(newThreadsCmd(opts))
	root.AddCommand(newMessagesCmd(opts))
	root.AddCommand(newRecordCmd(opts))
	root.AddCommand(newExportCmd(opts))
	root.AddCommand(newImportCmd(opts))
	root.AddCommand(newSettingsCmd(opts))

	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return run(NewRootCmd(), os.Args[1:], os.Stderr)
}

func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, color.RedString("error:"), err)
		return exitCode(err)
	}
	return exitSuccess
}

// resolve loads config.yaml, settles the data directory and builds the
// logger.
func (o *options) resolve(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(o.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return sysError(err)
	}
	dataDir, err := paths.ResolveDataDir(o.dataDir, cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return sysError(fmt.Errorf("resolve data dir: %w", err))
	}

	level := o.logLevel
	if level == "" {
		level = cfg.GetString(cfgKeyLogLevel)
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return userError(fmt.Errorf("invalid log level %q", level))
	}

	o.configDir = configDir
	o.dataDir = dataDir
	o.cfg = cfg
	o.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))
	return nil
}

// openStore opens the project store in the resolved data directory. The
// caller must Close it.
func (o *options) openStore() (*sqlite.Store, error) {
	s, err := sqlite.Open(types.Config{DataDir: o.dataDir, Logger: o.logger})
	if err != nil {
		return nil, sysError(err)
	}
	return s, nil
}

// cliError carries the exit code for an error.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

func userError(err error) error { return &cliError{code: exitUserError, err: err} }
func sysError(err error) error  { return &cliError{code: exitSysError, err: err} }

// storeFailure classifies an error from the store: constraint violations
// are the caller's fault, everything else is a system error.
func storeFailure(err error) error {
	if errors.Is(err, types.ErrConstraint) {
		return userError(err)
	}
	return sysError(err)
}

// exitCode maps err to a process exit code. Errors raised by cobra itself,
// such as a wrong argument count, are user errors.
func exitCode(err error) int {
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return exitUserError
}
