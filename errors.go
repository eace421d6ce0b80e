package newsreader

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for the fetch cycle.
var (
	// ErrEmptyResponse is returned by the extractors when there is no text
	// to parse.
	ErrEmptyResponse = errors.New("empty response")

	// ErrMalformedResponse is wrapped by every ParseError.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrNoArticles reports a well-formed response that carried no results.
	ErrNoArticles = errors.New("no articles found")

	// ErrOffline is returned by a session whose connectivity check failed.
	ErrOffline = errors.New("no active network connection")

	// ErrSessionClosed is returned by Reload after Close.
	ErrSessionClosed = errors.New("session closed")

	// ErrUnknownSource names an article source other than api or rss.
	ErrUnknownSource = errors.New("unknown article source")
)

// FetchErrorKind classifies why a fetch produced no body.
type FetchErrorKind int

const (
	KindInvalidURL FetchErrorKind = iota + 1
	KindNetwork
	KindTimeout
	KindStatus
)

func (k FetchErrorKind) String() string {
	switch k {
	case KindInvalidURL:
		return "invalid_url"
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindStatus:
		return "http_status"
	default:
		return "unknown"
	}
}

// FetchError describes a failed HTTP fetch. StatusCode is set only for
// KindStatus.
type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("unexpected response code %d from %s", e.StatusCode, e.URL)
	case KindInvalidURL:
		return fmt.Sprintf("invalid URL %q: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("failed to fetch %s (%s): %v", e.URL, e.Kind, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError describes a response that could not be turned into articles.
// Index is the offending results entry, or -1 for an envelope problem.
type ParseError struct {
	Index int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	switch {
	case e.Index < 0 && e.Field == "":
		return fmt.Sprintf("%v: %v", ErrMalformedResponse, e.Err)
	case e.Index < 0:
		return fmt.Sprintf("%v: %s: %v", ErrMalformedResponse, e.Field, e.Err)
	case e.Field == "":
		return fmt.Sprintf("%v: results[%d]: %v", ErrMalformedResponse, e.Index, e.Err)
	default:
		return fmt.Sprintf("%v: results[%d].%s: %v", ErrMalformedResponse, e.Index, e.Field, e.Err)
	}
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrMalformedResponse, e.Err}
}

// FailureReason is the single reason a fetch cycle yielded no articles,
// surfaced so the interactive layer can tell the cases apart.
type FailureReason string

const (
	ReasonNone       FailureReason = ""
	ReasonInvalidURL FailureReason = "invalid_url"
	ReasonNetwork    FailureReason = "network"
	ReasonTimeout    FailureReason = "timeout"
	ReasonHTTPStatus FailureReason = "http_status"
	ReasonMalformed  FailureReason = "malformed_response"
	ReasonEmpty      FailureReason = "empty_response"
	ReasonNoArticles FailureReason = "no_articles"
	ReasonOffline    FailureReason = "offline"
	ReasonCanceled   FailureReason = "canceled"
)

// LoadError is returned by Loader.Load. It wraps the underlying fetch or
// parse error.
type LoadError struct {
	CycleID uuid.UUID
	Reason  FailureReason
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("fetch cycle %s failed (%s): %v", e.CycleID, e.Reason, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ReasonOf maps any error produced by this package to a FailureReason.
func ReasonOf(err error) FailureReason {
	if err == nil {
		return ReasonNone
	}

	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Reason
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		switch fetchErr.Kind {
		case KindInvalidURL:
			return ReasonInvalidURL
		case KindTimeout:
			return ReasonTimeout
		case KindStatus:
			return ReasonHTTPStatus
		}
		if errors.Is(err, context.Canceled) {
			return ReasonCanceled
		}
		return ReasonNetwork
	}

	switch {
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	case errors.Is(err, ErrOffline):
		return ReasonOffline
	case errors.Is(err, ErrEmptyResponse):
		return ReasonEmpty
	case errors.Is(err, ErrNoArticles):
		return ReasonNoArticles
	case errors.Is(err, ErrMalformedResponse):
		return ReasonMalformed
	case errors.Is(err, ErrSessionClosed):
		return ReasonCanceled
	case errors.Is(err, ErrUnknownSource):
		return ReasonInvalidURL
	}

	return ReasonNetwork
}
