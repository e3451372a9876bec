// Package main implements the tb CLI tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/amonks/taskboard/api"
	"github.com/amonks/taskboard/currentuser"
	"github.com/amonks/taskboard/internal/config"
	"github.com/amonks/taskboard/internal/paths"
	"github.com/amonks/taskboard/internal/prefs"
	"github.com/amonks/taskboard/store"
)

func main() {
	err := rootCmd.Execute()
	if env != nil {
		env.Close()
	}
	if err != nil {
		// The gateway notifier has already printed server and transport
		// failures.
		if !store.Notified(err) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

var (
	rootAPIURL     string
	rootConfigPath string
	rootFormat     string
)

var rootCmd = &cobra.Command{
	Use:   "tb",
	Short: "Taskboard - a client for a shared task board",
	Long: `Taskboard - a client for a shared task board.

Run without a subcommand on a terminal to start the interactive UI.`,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	// Set here to avoid an initialization cycle through openEnv.
	rootCmd.PersistentPreRunE = openEnv
	rootCmd.RunE = runRoot

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootAPIURL, "api-url", "", "Server address (overrides config and "+config.EnvAPIURL+")")
	flags.StringVar(&rootConfigPath, "config", "", "Global config file (default ~/.config/taskboard/config.toml)")
	flags.StringVar(&rootFormat, "format", string(formatTable), "Output format (table, json, yaml)")
}

func runRoot(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return cmd.Help()
	}
	return runTUI(cmd, args)
}

// appEnv holds everything a command needs to talk to the server.
type appEnv struct {
	Config   *config.Config
	Logger   *slog.Logger
	StateDir string
	Prefs    prefs.Store
	Session  *currentuser.Session
	Client   *api.Client
	Stores   *store.Set

	closers []func() error
}

// env is populated by openEnv before any RunE executes.
var env *appEnv

func openEnv(cmd *cobra.Command, args []string) error {
	if _, err := parseOutputFormat(rootFormat); err != nil {
		return err
	}

	cwd, err := paths.WorkingDir()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd, config.Options{GlobalPath: rootConfigPath})
	if err != nil {
		return err
	}
	prefsOpts, err := cfg.PrefsOptions()
	if err != nil {
		return err
	}

	e := &appEnv{Config: cfg, StateDir: prefsOpts.Dir}
	env = e

	inTUI := isTUICommand(cmd)
	level, err := logLevel(cfg, inTUI)
	if err != nil {
		return err
	}
	if inTUI {
		logger, closeLog, err := openFileLogger(filepath.Join(prefsOpts.Dir, "tb.log"), level)
		if err != nil {
			return err
		}
		e.Logger = logger
		e.closers = append(e.closers, closeLog)
	} else {
		e.Logger = newLogger(os.Stderr, level)
	}
	slog.SetDefault(e.Logger)

	slot, err := prefs.Open(prefsOpts)
	if err != nil {
		return err
	}
	e.Prefs = slot
	e.closers = append(e.closers, slot.Close)
	e.Session = currentuser.Open(slot, currentuser.Options{Logger: e.Logger})

	e.Client = api.NewClient(resolveAPIURL(cfg),
		api.WithLogger(e.Logger),
		api.WithNotifier(api.NotifierFunc(func(message string) {
			fmt.Fprintf(os.Stderr, "error: %s\n", message)
		})),
	)
	e.Stores = store.NewSet(e.Client)

	cmd.SetContext(currentuser.WithSession(commandContext(cmd), e.Session))
	return nil
}

// Close releases the prefs store and log file.
func (e *appEnv) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil && e.Logger != nil {
			e.Logger.Warn("close", "error", err)
		}
	}
	e.closers = nil
}

func resolveAPIURL(cfg *config.Config) string {
	if rootAPIURL != "" {
		return rootAPIURL
	}
	return cfg.APIURL()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func isTUICommand(cmd *cobra.Command) bool {
	if cmd == tuiCmd {
		return true
	}
	return cmd == rootCmd && term.IsTerminal(int(os.Stdout.Fd()))
}

// logLevel returns the configured level. Without one, the CLI logs only
// errors to stderr, since the notifier already reports failed requests.
func logLevel(cfg *config.Config, inTUI bool) (slog.Level, error) {
	if cfg.Log.Level == "" && !inTUI {
		return slog.LevelError, nil
	}
	return cfg.LogLevel()
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func openFileLogger(path string, level slog.Level) (*slog.Logger, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return newLogger(file, level), file.Close, nil
}
