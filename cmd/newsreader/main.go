package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pevans/newsreader/config"
)

// errReported is returned by commands that already printed their own
// failure message; main only sets the exit status.
var errReported = errors.New("failure already reported")

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// app carries what every command needs once the root command has resolved
// configuration.
type app struct {
	out      io.Writer
	errOut   io.Writer
	logLevel string
	settings config.Settings
	logger   *slog.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "newsreader",
		Short: "Read the latest Guardian articles from the terminal",
		Long: `newsreader fetches the latest articles from the Guardian content API
(or a section RSS feed) and lists them. Preferences for the section,
article count and ordering are kept in a local database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.setup()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	root.AddCommand(
		newListCmd(a),
		newOpenCmd(a),
		newSettingsCmd(a),
		newInitCmd(a),
		newDoctorCmd(a),
	)

	return root
}

// setup resolves settings and builds the stderr logger. A broken config
// file is reported and the defaults and environment are used instead.
func (a *app) setup() {
	settings, err := config.Load()
	a.settings = settings

	level := settings
	level.LogLevel = a.logLevel
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level.SlogLevel()}))

	if err != nil {
		fmt.Fprintf(a.errOut, "Warning: failed to load config file: %v\n", err)
		fmt.Fprintf(a.errOut, "Continuing with defaults and environment variables...\n\n")
	}
}

// openStore opens the preferences database, creating its directory first.
func (a *app) openStore() (*config.PreferenceStore, error) {
	dsn := a.settings.PreferencesDSN
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create preferences directory: %w", err)
		}
	}

	store, err := config.NewPreferenceStore(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences: %w", err)
	}
	return store, nil
}
