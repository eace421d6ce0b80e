package newsreader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pevans/newsreader/metrics"
)

// Article sources, used as the metrics and log label of a loader.
const (
	SourceAPI = "api"
	SourceRSS = "rss"
)

const tracerName = "github.com/pevans/newsreader"

// BodyFetcher returns the body of one GET request. *Fetcher implements it.
type BodyFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ExtractFunc turns a response body into articles.
type ExtractFunc func(body string) ([]Article, error)

// Result is the outcome of one fetch cycle. Articles is nil whenever Err is
// set.
type Result struct {
	CycleID  uuid.UUID
	Articles []Article
	Err      error
}

// Loader runs fetch cycles: one fetch, one extraction, one result.
type Loader struct {
	fetcher BodyFetcher
	extract ExtractFunc
	source  string
	metrics metrics.Recorder
	logger  *slog.Logger
	tracer  trace.Tracer
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithExtractor replaces the JSON extractor; source labels the new format.
func WithExtractor(fn ExtractFunc, source string) LoaderOption {
	return func(l *Loader) {
		l.extract = fn
		l.source = source
	}
}

// WithMetrics sets the recorder that observes every cycle.
func WithMetrics(r metrics.Recorder) LoaderOption {
	return func(l *Loader) {
		if r != nil {
			l.metrics = r
		}
	}
}

// WithLoaderLogger sets the logger.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithTracer replaces the global tracer.
func WithTracer(t trace.Tracer) LoaderOption {
	return func(l *Loader) {
		if t != nil {
			l.tracer = t
		}
	}
}

// NewLoader creates a loader for content API responses.
func NewLoader(fetcher BodyFetcher, opts ...LoaderOption) *Loader {
	l := &Loader{
		fetcher: fetcher,
		extract: ExtractArticles,
		source:  SourceAPI,
		metrics: metrics.Noop{},
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewFeedLoader creates a loader for section RSS feeds.
func NewFeedLoader(fetcher BodyFetcher, opts ...LoaderOption) *Loader {
	return NewLoader(fetcher, append([]LoaderOption{WithExtractor(ExtractFeed, SourceRSS)}, opts...)...)
}

// NewLoaderFor returns the loader for a named source.
func NewLoaderFor(source string, fetcher BodyFetcher, opts ...LoaderOption) (*Loader, error) {
	switch source {
	case SourceAPI:
		return NewLoader(fetcher, opts...), nil
	case SourceRSS:
		return NewFeedLoader(fetcher, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
}

// Source reports which format the loader reads.
func (l *Loader) Source() string {
	return l.source
}

// Load runs one fetch cycle for url. On failure the articles are nil and
// the error is a *LoadError whose Reason says why.
func (l *Loader) Load(ctx context.Context, url string) ([]Article, error) {
	res := l.Run(ctx, url)
	return res.Articles, res.Err
}

// Run is Load returning the cycle ID as well.
func (l *Loader) Run(ctx context.Context, url string) Result {
	cycleID := uuid.New()
	start := time.Now()

	ctx, span := l.tracer.Start(ctx, "newsreader.fetch_cycle",
		trace.WithAttributes(
			attribute.String("newsreader.cycle_id", cycleID.String()),
			attribute.String("newsreader.source", l.source),
			attribute.String("url.full", redactURL(url)),
		))
	defer span.End()

	logger := l.logger.With(
		slog.String("cycle_id", cycleID.String()),
		slog.String("source", l.source))
	logger.Debug("fetch cycle started")

	articles, err := l.cycle(ctx, url)
	duration := time.Since(start)

	if err != nil {
		reason := ReasonOf(err)
		loadErr := &LoadError{CycleID: cycleID, Reason: reason, Err: err}

		span.RecordError(err)
		span.SetStatus(codes.Error, string(reason))
		l.metrics.RecordFetch(l.source, string(reason), duration, 0)
		logger.Warn("fetch cycle failed",
			slog.String("reason", string(reason)),
			slog.Duration("duration", duration),
			slog.Any("error", err))

		return Result{CycleID: cycleID, Err: loadErr}
	}

	span.SetAttributes(attribute.Int("newsreader.articles", len(articles)))
	l.metrics.RecordFetch(l.source, metrics.OutcomeOK, duration, len(articles))
	logger.Info("fetch cycle completed",
		slog.Int("articles", len(articles)),
		slog.Duration("duration", duration))

	return Result{CycleID: cycleID, Articles: articles}
}

func (l *Loader) cycle(ctx context.Context, url string) ([]Article, error) {
	body, err := l.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	articles, err := l.extract(body)
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, ErrNoArticles
	}

	return articles, nil
}
