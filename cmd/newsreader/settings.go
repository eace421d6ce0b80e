package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pevans/newsreader/config"
)

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the stored preferences",
		Long: `Show or change the stored preferences:

  feed-section   section path to read (default "search")
  article-count  number of articles per listing (default 10)
  order-by       newest or oldest (default newest)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showSettings("")
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get [key]",
			Short: "Print all preferences, or the value of one",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				key := ""
				if len(args) == 1 {
					key = args[0]
				}
				return a.showSettings(key)
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Store a preference",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				key, value := args[0], args[1]
				if err := config.ValidatePreference(key, value); err != nil {
					return err
				}

				store, err := a.openStore()
				if err != nil {
					return err
				}
				defer store.Close()

				if err := store.Set(key, value); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s = %s\n", key, value)
				return nil
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Restore the default preferences",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.openStore()
				if err != nil {
					return err
				}
				defer store.Close()

				if err := store.Reset(); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Preferences reset to defaults")
				return nil
			},
		},
	)

	return cmd
}

func (a *app) showSettings(key string) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	prefs, err := store.Preferences()
	if err != nil {
		return err
	}

	if key != "" {
		value, err := prefs.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, value)
		return nil
	}

	for _, k := range config.Keys {
		value, _ := prefs.Get(k)
		fmt.Fprintf(a.out, "%s = %s\n", k, value)
	}
	return nil
}
