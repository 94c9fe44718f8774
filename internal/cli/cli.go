package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/specialistvlad/recipegrid/internal/app"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitFailure = 1 // at least one recipe was rejected, or the run failed
	ExitUsage   = 2 // bad flags, arguments or configuration
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) *ExitError {
	return &ExitError{Code: ExitUsage, Message: err.Error()}
}

// flags holds the raw flag values shared by every command.
type flags struct {
	configPath    string
	logLevel      string
	logFormat     string
	fillPolicy    string
	listenAddr    string
	storeBackend  string
	storePath     string
	storeInMemory bool
}

// Execute runs the command line described by args. Results go to outW,
// logs and error messages to errW.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	// Anything cobra reports itself is a flag or argument problem.
	return usageError(err)
}

// NewRootCommand creates the recipegrid command tree.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	f := &flags{}
	defaults := app.DefaultConfig()

	root := &cobra.Command{
		Use:   "recipegrid",
		Short: "Derive annual data series from declarative recipes",
		Long: `recipegrid validates recipes (an equation over scalars, vectors and
linked data series), rewrites them to canonical variable names and evaluates
them for every year from 2020 to 2050.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(errW)

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "Path to a YAML config file.")
	pf.StringVar(&f.logLevel, "log-level", defaults.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&f.logFormat, "log-format", defaults.LogFormat, "Log output format. Options: 'text' or 'json'.")
	pf.StringVar(&f.fillPolicy, "fill-policy", defaults.FillPolicy, "Missing value policy for vectors. Options: 'interpolate_missing' or 'zero_fill'.")
	pf.StringVar(&f.storeBackend, "store-backend", defaults.Store.Backend, "Series store. Options: 'memory' (per recipe) or 'badger' (shared).")
	pf.StringVar(&f.storePath, "store-path", "", "Directory of the badger series store.")
	pf.BoolVar(&f.storeInMemory, "store-in-memory", false, "Keep the badger series store in memory.")

	root.AddCommand(
		newProcessCommand(f, errW, "evaluate", "Validate and evaluate recipes", true),
		newProcessCommand(f, errW, "validate", "Validate recipes and print their canonical form", false),
		newServeCommand(f, errW, defaults),
	)
	return root
}

func newProcessCommand(f *flags, errW io.Writer, name, short string, evaluate bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " PATH",
		Short: short,
		Long: short + `.

PATH is a single recipe file or a directory searched recursively for *.json
recipe files. One JSON document is printed per recipe.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, f, errW)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Process(cmd.Context(), args[0], evaluate); err != nil {
				return &ExitError{Code: ExitFailure, Message: err.Error()}
			}
			return nil
		},
	}
}

func newServeCommand(f *flags, errW io.Writer, defaults app.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the recipe HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, f, errW)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Serve(cmd.Context()); err != nil {
				return &ExitError{Code: ExitFailure, Message: err.Error()}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.listenAddr, "listen-addr", defaults.ListenAddr, "Address for the HTTP server.")
	return cmd
}

// newApp resolves the configuration (defaults, then the config file, then
// explicitly set flags) and creates the app.
func newApp(cmd *cobra.Command, f *flags, errW io.Writer) (*app.App, error) {
	cfg, err := resolveConfig(cmd, f)
	if err != nil {
		return nil, usageError(err)
	}
	slog.Debug("CLI configuration resolved.", "config", cfg)

	a, err := app.NewApp(cmd.OutOrStdout(), errW, cfg)
	if err != nil {
		return nil, &ExitError{Code: ExitFailure, Message: err.Error()}
	}
	return a, nil
}

func resolveConfig(cmd *cobra.Command, f *flags) (*app.Config, error) {
	cfg := app.DefaultConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = app.LoadConfigFile(f.configPath, cfg); err != nil {
			return nil, err
		}
	}

	changed := cmd.Flags().Changed
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
	if changed("fill-policy") {
		cfg.FillPolicy = f.fillPolicy
	}
	if changed("listen-addr") {
		cfg.ListenAddr = f.listenAddr
	}
	if changed("store-backend") {
		cfg.Store.Backend = f.storeBackend
	}
	if changed("store-path") {
		cfg.Store.Path = f.storePath
	}
	if changed("store-in-memory") {
		cfg.Store.InMemory = f.storeInMemory
	}

	return app.NewConfig(cfg)
}
