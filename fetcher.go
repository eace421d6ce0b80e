package newsreader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/pevans/newsreader/config"
)

const (
	// DefaultConnectTimeout bounds dialing and the TLS handshake.
	DefaultConnectTimeout = 15 * time.Second

	// DefaultReadTimeout bounds the wait for response headers and for each
	// read of the body.
	DefaultReadTimeout = 10 * time.Second

	// DefaultMaxBodySize is the largest response body the fetcher accepts.
	DefaultMaxBodySize = int64(10 * 1024 * 1024)

	// DefaultUserAgent identifies the reader to the news service.
	DefaultUserAgent = "newsreader/1.0 (Guardian content API client)"
)

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher performs single GET requests against the news service. It never
// retries: one call, one request, one connection.
type Fetcher struct {
	client         Doer
	connectTimeout time.Duration
	readTimeout    time.Duration
	userAgent      string
	maxBodySize    int64
	limiter        *rate.Limiter
	logger         *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithConnectTimeout sets the connect timeout. Zero or negative keeps the
// default.
func WithConnectTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.connectTimeout = d
		}
	}
}

// WithReadTimeout sets the read timeout. Zero or negative keeps the default.
func WithReadTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.readTimeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the largest accepted body.
func WithMaxBodySize(n int64) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithDoer replaces the HTTP client. The connect timeout is then the
// Doer's responsibility; the body read timeout still applies.
func WithDoer(d Doer) FetcherOption {
	return func(f *Fetcher) {
		f.client = d
	}
}

// WithRateLimiter makes every fetch wait for a token before the request is
// sent. A nil limiter disables limiting.
func WithRateLimiter(l *rate.Limiter) FetcherOption {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFetcher creates a fetcher with the 15s connect and 10s read timeouts
// unless overridden.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		connectTimeout: DefaultConnectTimeout,
		readTimeout:    DefaultReadTimeout,
		userAgent:      DefaultUserAgent,
		maxBodySize:    DefaultMaxBodySize,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = &http.Client{
			Transport: newTransport(f.connectTimeout, f.readTimeout),
		}
	}

	return f
}

// SettingsOptions returns the fetcher options configured by settings: the
// two timeouts, the user agent and, when RateLimit is positive, a limiter
// allowing that many requests per second.
func SettingsOptions(settings config.Settings) []FetcherOption {
	opts := []FetcherOption{
		WithConnectTimeout(settings.ConnectTimeout),
		WithReadTimeout(settings.ReadTimeout),
		WithUserAgent(settings.UserAgent),
	}
	if settings.RateLimit > 0 {
		opts = append(opts, WithRateLimiter(rate.NewLimiter(rate.Limit(settings.RateLimit), 1)))
	}
	return opts
}

// newTransport returns a transport that opens a fresh connection per
// request and closes it afterwards.
func newTransport(connectTimeout, readTimeout time.Duration) *http.Transport {
	dialer := &net.Dialer{Timeout: connectTimeout}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   connectTimeout,
		ResponseHeaderTimeout: readTimeout,
		DisableKeepAlives:     true,
	}
}

// Fetch GETs rawURL once and returns the body as UTF-8 text. Any status
// other than 200, any transport failure and any malformed URL yields ""
// and a *FetchError; the failure is also logged.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	body, err := f.fetch(ctx, rawURL)
	if err != nil {
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			f.logger.Error("fetch failed",
				slog.String("url", fetchErr.URL),
				slog.String("kind", fetchErr.Kind.String()),
				slog.Int("status", fetchErr.StatusCode),
				slog.Any("error", fetchErr.Err))
		}
		return "", err
	}
	return body, nil
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (string, error) {
	safeURL := redactURL(rawURL)

	if err := validateRequestURL(rawURL); err != nil {
		return "", &FetchError{Kind: KindInvalidURL, URL: safeURL, Err: err}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			// Wait gives up early, without DeadlineExceeded, when the
			// token would only arrive after the deadline.
			_, hasDeadline := ctx.Deadline()
			return "", classifyError(safeURL, err, hasDeadline && !errors.Is(err, context.Canceled))
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &FetchError{Kind: KindInvalidURL, URL: safeURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", classifyError(safeURL, err, false)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{Kind: KindStatus, URL: safeURL, StatusCode: resp.StatusCode}
	}

	reader := newIdleTimeoutReader(resp.Body, f.readTimeout, cancel)
	defer reader.stop()

	data, err := io.ReadAll(io.LimitReader(reader, f.maxBodySize+1))
	if err != nil {
		return "", classifyError(safeURL, err, reader.expired.Load())
	}
	if int64(len(data)) > f.maxBodySize {
		return "", &FetchError{
			Kind: KindNetwork,
			URL:  safeURL,
			Err:  fmt.Errorf("response body exceeds %d bytes", f.maxBodySize),
		}
	}

	return strings.ToValidUTF8(string(data), "�"), nil
}

// classifyError maps a transport error to a FetchError kind.
func classifyError(safeURL string, err error, readTimedOut bool) *FetchError {
	if readTimedOut || errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Kind: KindTimeout, URL: safeURL, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Kind: KindTimeout, URL: safeURL, Err: err}
	}

	return &FetchError{Kind: KindNetwork, URL: safeURL, Err: err}
}

// validateRequestURL accepts absolute http and https URLs only.
func validateRequestURL(rawURL string) error {
	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme %q not allowed (only http/https)", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("empty host")
	}
	return nil
}

// redactURL hides the API key so URLs can be logged and shown.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.RawQuery == "" {
		return rawURL
	}
	values := u.Query()
	if values.Get(ParamAPIKey) == "" {
		return rawURL
	}
	values.Set(ParamAPIKey, "REDACTED")
	u.RawQuery = values.Encode()
	return u.String()
}

// idleTimeoutReader cancels the request when no bytes arrive for timeout.
// The timer is re-armed after every read that returns data.
type idleTimeoutReader struct {
	r       io.Reader
	timeout time.Duration
	timer   *time.Timer
	expired atomic.Bool
}

func newIdleTimeoutReader(r io.Reader, timeout time.Duration, cancel context.CancelFunc) *idleTimeoutReader {
	t := &idleTimeoutReader{r: r, timeout: timeout}
	if timeout > 0 {
		t.timer = time.AfterFunc(timeout, func() {
			t.expired.Store(true)
			cancel()
		})
	}
	return t
}

func (t *idleTimeoutReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if n > 0 && t.timer != nil && !t.expired.Load() {
		t.timer.Reset(t.timeout)
	}
	return n, err
}

func (t *idleTimeoutReader) stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}
