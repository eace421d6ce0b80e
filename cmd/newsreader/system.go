package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pevans/newsreader/config"
	"github.com/pevans/newsreader/netcheck"
)

func newInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the config file and the preferences database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return cmd
}

func (a *app) runInit(force bool) error {
	fmt.Fprintln(a.out, "Initializing newsreader...")
	fmt.Fprintln(a.out)

	initSucceeded := true
	createdSomething := false

	configPath, _ := config.ConfigFilePath()
	created, err := config.WriteDefaultConfigFile(force)
	switch {
	case err != nil:
		fmt.Fprintf(a.errOut, "  ✗ Failed to create config file: %v\n", err)
		initSucceeded = false
	case created:
		fmt.Fprintf(a.out, "  ✓ Config file: %s\n", configPath)
		createdSomething = true

		// Pick up the storage path from the new file unless the
		// environment overrides it.
		if settings, err := config.Load(); err == nil {
			a.settings = settings
		}
	default:
		fmt.Fprintf(a.out, "  Config file: %s (already exists)\n", configPath)
	}

	dsn := a.settings.PreferencesDSN
	if _, err := os.Stat(dsn); err == nil {
		fmt.Fprintf(a.out, "  Preferences database: %s (already exists)\n", dsn)
	} else {
		store, err := a.openStore()
		if err != nil {
			fmt.Fprintf(a.errOut, "  ✗ Failed to initialize preferences database: %v\n", err)
			initSucceeded = false
		} else {
			store.Close()
			if err := os.Chmod(dsn, 0o600); err != nil {
				a.logger.Warn("failed to restrict preferences database permissions", slog.Any("error", err))
			}
			fmt.Fprintf(a.out, "  ✓ Preferences database: %s\n", dsn)
			createdSomething = true
		}
	}

	fmt.Fprintln(a.out)

	if !initSucceeded {
		fmt.Fprintln(a.out, "✗ Initialization failed")
		return errReported
	}

	if !createdSomething {
		fmt.Fprintln(a.out, "✓ Already initialized")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Use 'newsreader doctor' to check the installation")
		return nil
	}

	fmt.Fprintln(a.out, "✓ Initialized successfully")
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "You can now:")
	fmt.Fprintln(a.out, "  - List articles with 'newsreader list'")
	fmt.Fprintln(a.out, "  - Change preferences with 'newsreader settings set'")
	return nil
}

func newDoctorCmd(a *app) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the config file, preferences database and network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDoctor(cmd, verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed diagnostic information")

	return cmd
}

func (a *app) runDoctor(cmd *cobra.Command, verbose bool) error {
	fmt.Fprintln(a.out, "Checking newsreader health...")
	fmt.Fprintln(a.out)

	hasErrors := false
	hasWarnings := false

	// Config file
	fmt.Fprintln(a.out, "Config File:")
	configPath, err := config.ConfigFilePath()
	if err != nil {
		fmt.Fprintf(a.out, "  ✗ %v\n", err)
		hasErrors = true
	} else {
		fmt.Fprintf(a.out, "  Path: %s\n", configPath)
		cfg, err := config.LoadConfigFileFrom(configPath)
		switch {
		case err != nil:
			fmt.Fprintf(a.out, "  ✗ %v\n", err)
			hasErrors = true
		case cfg == nil:
			fmt.Fprintln(a.out, "  ⚠ Warning: no config file, using defaults")
			fmt.Fprintln(a.out, "    Run 'newsreader init' to create it")
			hasWarnings = true
		default:
			fmt.Fprintln(a.out, "  ✓ Config file is valid")
		}
	}
	fmt.Fprintln(a.out)

	// Preferences database
	dsn := a.settings.PreferencesDSN
	fmt.Fprintln(a.out, "Preferences Database:")
	fmt.Fprintf(a.out, "  Path: %s\n", dsn)

	if stat, err := os.Stat(dsn); os.IsNotExist(err) {
		fmt.Fprintln(a.out, "  ✗ Database file does not exist")
		fmt.Fprintln(a.out, "    Run 'newsreader init' to create it")
		hasErrors = true
	} else if err != nil {
		fmt.Fprintf(a.out, "  ✗ Cannot access database file: %v\n", err)
		hasErrors = true
	} else {
		store, err := config.NewPreferenceStore(dsn)
		if err != nil {
			fmt.Fprintf(a.out, "  ✗ Failed to open database: %v\n", err)
			hasErrors = true
		} else {
			defer store.Close()
			fmt.Fprintln(a.out, "  ✓ Database is accessible")

			perm := stat.Mode().Perm()
			if verbose {
				fmt.Fprintf(a.out, "  Permissions: %o\n", perm)
			}
			if perm&0o077 != 0 {
				fmt.Fprintln(a.out, "  ⚠ Warning: Database file has overly permissive permissions")
				fmt.Fprintf(a.out, "    Current: %o, expected: 600\n", perm)
				fmt.Fprintln(a.out, "    Consider: chmod 600 "+dsn)
				hasWarnings = true
			}

			prefs, err := store.Preferences()
			if err != nil {
				fmt.Fprintf(a.out, "  ⚠ Warning: Could not read preferences: %v\n", err)
				hasWarnings = true
			} else if verbose {
				for _, k := range config.Keys {
					value, _ := prefs.Get(k)
					fmt.Fprintf(a.out, "  %s = %s\n", k, value)
				}
			}
		}
	}
	fmt.Fprintln(a.out)

	// Network
	fmt.Fprintln(a.out, "News Service:")
	fmt.Fprintf(a.out, "  URL: %s\n", a.settings.APIBaseURL)
	checker, err := netcheck.ForURL(a.settings.APIBaseURL)
	switch {
	case err != nil:
		fmt.Fprintf(a.out, "  ✗ Invalid base URL: %v\n", err)
		hasErrors = true
	case checker.Address == "":
		fmt.Fprintln(a.out, "  ✓ Requests go through a proxy")
	case !checker.Online(cmd.Context()):
		fmt.Fprintf(a.out, "  ⚠ Warning: no network route to %s\n", checker.Address)
		hasWarnings = true
	default:
		fmt.Fprintf(a.out, "  ✓ Network route to %s\n", checker.Address)
	}
	fmt.Fprintln(a.out)

	switch {
	case hasErrors:
		fmt.Fprintln(a.out, "✗ Installation has errors")
		fmt.Fprintln(a.out, "  Run 'newsreader init' to initialize it")
		return errReported
	case hasWarnings:
		fmt.Fprintln(a.out, "✓ Installation is functional but has warnings")
		if !verbose {
			fmt.Fprintln(a.out, "  Run 'newsreader doctor --verbose' for more details")
		}
	default:
		fmt.Fprintln(a.out, "✓ All checks passed")
	}
	return nil
}
