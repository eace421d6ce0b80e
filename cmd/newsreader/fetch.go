package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/pevans/newsreader"
	"github.com/pevans/newsreader/config"
	"github.com/pevans/newsreader/netcheck"
	"github.com/pevans/newsreader/render"
)

// fetchOptions are the flags shared by list and open. Section, count and
// order override the stored preferences for one run only.
type fetchOptions struct {
	source  string
	section string
	count   string
	order   string
}

func (o fetchOptions) validate() error {
	if o.source != newsreader.SourceAPI && o.source != newsreader.SourceRSS {
		return fmt.Errorf("invalid --source %q: must be api or rss", o.source)
	}

	overrides := []struct{ key, value string }{
		{config.KeyFeedSection, o.section},
		{config.KeyArticleCount, o.count},
		{config.KeyOrderBy, o.order},
	}
	for _, ov := range overrides {
		if ov.value == "" {
			continue
		}
		if err := config.ValidatePreference(ov.key, ov.value); err != nil {
			return err
		}
	}
	return nil
}

// apply returns prefs with the non-empty overrides in place.
func (o fetchOptions) apply(prefs config.Preferences) config.Preferences {
	if o.section != "" {
		prefs.FeedSection = o.section
	}
	if o.count != "" {
		prefs.ArticleCount = o.count
	}
	if o.order != "" {
		prefs.OrderBy = o.order
	}
	return prefs
}

// serviceURL is the base address the connectivity check dials.
func (a *app) serviceURL(source string) string {
	if source == newsreader.SourceRSS {
		return a.settings.FeedBaseURL
	}
	return a.settings.APIBaseURL
}

// fetch runs one fetch cycle in a session that is closed when ctx ends.
// Preferences are read when the cycle is triggered.
func (a *app) fetch(ctx context.Context, opts fetchOptions) (newsreader.Result, error) {
	store, err := a.openStore()
	if err != nil {
		return newsreader.Result{}, err
	}
	defer store.Close()

	fetcher := newsreader.NewFetcher(append(newsreader.SettingsOptions(a.settings), newsreader.WithLogger(a.logger))...)
	loader, err := newsreader.NewLoaderFor(opts.source, fetcher, newsreader.WithLoaderLogger(a.logger))
	if err != nil {
		return newsreader.Result{}, err
	}

	request := func() (string, error) {
		prefs, err := store.Preferences()
		if err != nil {
			return "", fmt.Errorf("failed to read preferences: %w", err)
		}
		return newsreader.RequestURL(opts.source, a.settings, opts.apply(prefs))
	}

	sessionOpts := []newsreader.SessionOption{newsreader.WithSessionLogger(a.logger)}
	if checker, err := netcheck.ForURL(a.serviceURL(opts.source)); err == nil {
		sessionOpts = append(sessionOpts, newsreader.WithConnectivity(checker))
	}

	session := newsreader.NewSession(loader, request, nil, sessionOpts...)
	defer session.Close()
	stop := context.AfterFunc(ctx, session.Close)
	defer stop()

	task, err := session.Reload()
	if err != nil {
		return newsreader.Result{}, err
	}
	return task.Wait(ctx)
}

// failureMessage is the line shown to the user for a failed cycle.
func failureMessage(err error) string {
	var fetchErr *newsreader.FetchError
	hasFetchErr := errors.As(err, &fetchErr)

	switch newsreader.ReasonOf(err) {
	case newsreader.ReasonOffline:
		return "No internet connection."
	case newsreader.ReasonNoArticles, newsreader.ReasonEmpty:
		return render.EmptyMessage
	case newsreader.ReasonHTTPStatus:
		if hasFetchErr {
			return fmt.Sprintf("The news service answered with status %d.", fetchErr.StatusCode)
		}
		return "The news service answered with an error."
	case newsreader.ReasonMalformed:
		return "The news service sent a response that could not be read."
	case newsreader.ReasonTimeout:
		return "The news service did not answer in time."
	case newsreader.ReasonInvalidURL:
		return "The news service address is invalid; check api.base_url in the config file."
	case newsreader.ReasonCanceled:
		return "Canceled."
	}

	if hasFetchErr && fetchErr.Err != nil {
		return fmt.Sprintf("Could not reach the news service: %v", fetchErr.Err)
	}
	return fmt.Sprintf("Could not reach the news service: %v", err)
}

// report prints the failure message for err and returns errReported.
func (a *app) report(err error) error {
	fmt.Fprintln(a.errOut, failureMessage(err))
	return errReported
}
