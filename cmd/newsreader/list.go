package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pevans/newsreader"
	"github.com/pevans/newsreader/render"
)

const (
	formatTable   = "table"
	formatJSON    = "json"
	formatCompact = "compact"
)

func addFetchFlags(cmd *cobra.Command, opts *fetchOptions) {
	cmd.Flags().StringVar(&opts.source, "source", newsreader.SourceAPI, "article source: api or rss")
	cmd.Flags().StringVar(&opts.section, "section", "", "section to read instead of the stored feed-section")
	cmd.Flags().StringVar(&opts.count, "count", "", "number of articles instead of the stored article-count")
	cmd.Flags().StringVar(&opts.order, "order", "", "newest or oldest instead of the stored order-by")
}

func newListCmd(a *app) *cobra.Command {
	var opts fetchOptions
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Fetch and list the latest articles",
		Long: `Fetch the latest articles and list them, numbered from 1.
Use the number with 'newsreader open' to read an article in the browser.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			if format != formatTable && format != formatJSON && format != formatCompact {
				return fmt.Errorf("invalid --format %q: must be table, json or compact", format)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := a.fetch(ctx, opts)
			if err == nil {
				err = res.Err
			}
			if err != nil && !errors.Is(err, newsreader.ErrNoArticles) {
				return a.report(err)
			}

			return a.writeListing(format, newsreader.NewListing(res.CycleID, opts.source, res.Articles))
		},
	}

	addFetchFlags(cmd, &opts)
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, json or compact")

	return cmd
}

func (a *app) writeListing(format string, listing newsreader.Listing) error {
	switch format {
	case formatJSON:
		return render.WriteJSON(a.out, listing)
	case formatCompact:
		return render.WriteCompact(a.out, render.Articles(listing.Articles))
	default:
		return render.WriteTable(a.out, render.Articles(listing.Articles))
	}
}
