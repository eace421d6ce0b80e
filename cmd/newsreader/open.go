package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pevans/newsreader"
	"github.com/pevans/newsreader/browser"
)

func newOpenCmd(a *app) *cobra.Command {
	var opts fetchOptions
	var echo bool

	cmd := &cobra.Command{
		Use:   "open <n>",
		Short: "Open article n of the current listing in the browser",
		Long: `Fetch the current listing again and open article n (as numbered by
'newsreader list' with the same flags) in the system browser.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid article number %q: must be a positive integer", args[0])
			}
			if err := opts.validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := a.fetch(ctx, opts)
			if err == nil {
				err = res.Err
			}
			if err != nil {
				return a.report(err)
			}
			if n > len(res.Articles) {
				return fmt.Errorf("article %d does not exist: the listing has %d articles", n, len(res.Articles))
			}

			article := res.Articles[n-1]
			url := newsreader.Value(article.URL)
			launcher := browser.Launcher{Command: a.settings.BrowserCommand}

			if echo {
				line, err := launcher.CommandLine(url)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, line)
				return nil
			}

			if err := launcher.Open(url); err != nil {
				if errors.Is(err, browser.ErrNoURL) {
					return fmt.Errorf("article %d has no URL", n)
				}
				return err
			}
			fmt.Fprintf(a.out, "Opening %s\n", url)
			return nil
		},
	}

	addFetchFlags(cmd, &opts)
	cmd.Flags().BoolVar(&echo, "echo", false, "print the browser command instead of running it")

	return cmd
}
