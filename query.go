package newsreader

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/pevans/newsreader/config"
)

// Defaults for the Guardian content API.
const (
	DefaultBaseURL     = config.DefaultAPIBaseURL
	DefaultFeedBaseURL = config.DefaultFeedBaseURL
	DefaultAPIKey      = config.DefaultAPIKey
)

// Query parameter names and the fixed values the reader always sends.
const (
	ParamQuery      = "q"
	ParamFormat     = "format"
	ParamPageSize   = "page-size"
	ParamShowTags   = "show-tags"
	ParamShowFields = "show-fields"
	ParamOrderBy    = "order-by"
	ParamAPIKey     = "api-key"

	FormatJSON          = "json"
	ShowTagsContributor = "contributor"
	ShowFieldsTrailText = "trailText"
)

// Query is everything needed to build one content API request URL. Values
// are not validated: a bad page size or order is sent as is and shows up as
// an HTTP or parse failure.
type Query struct {
	BaseURL    string
	Section    string // already-encoded path segment, e.g. "world" or "search"
	Text       string
	Format     string
	PageSize   string
	ShowTags   string
	ShowFields string
	OrderBy    string
	APIKey     string
}

// NewQuery builds a query from a preferences snapshot.
func NewQuery(baseURL, apiKey string, prefs config.Preferences) Query {
	return Query{
		BaseURL:    baseURL,
		Section:    prefs.FeedSection,
		Text:       "",
		Format:     FormatJSON,
		PageSize:   prefs.ArticleCount,
		ShowTags:   ShowTagsContributor,
		ShowFields: ShowFieldsTrailText,
		OrderBy:    prefs.OrderBy,
		APIKey:     apiKey,
	}
}

// URL returns the fully encoded request URL. Parameters keep a fixed order
// and empty values are kept (the API accepts "q=").
func (q Query) URL() (string, error) {
	base, err := parseBase(q.BaseURL)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(joinSegment(base, q.Section))

	params := [][2]string{
		{ParamQuery, q.Text},
		{ParamFormat, q.Format},
		{ParamPageSize, q.PageSize},
		{ParamShowTags, q.ShowTags},
		{ParamShowFields, q.ShowFields},
		{ParamOrderBy, q.OrderBy},
		{ParamAPIKey, q.APIKey},
	}
	for i, p := range params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p[0]))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p[1]))
	}

	return b.String(), nil
}

// FeedQuery builds the URL of a section's RSS feed on the public site.
type FeedQuery struct {
	BaseURL string
	Section string
}

// URL returns <base>/<section>/rss. The API's all-sections path "search"
// has no feed of its own and maps to the site-wide feed <base>/rss.
func (q FeedQuery) URL() (string, error) {
	base, err := parseBase(q.BaseURL)
	if err != nil {
		return "", err
	}
	section := q.Section
	if strings.Trim(section, "/") == config.DefaultFeedSection {
		section = ""
	}
	return joinSegment(base, section) + "/rss", nil
}

// parseBase checks that raw is an absolute http(s) URL and strips any query
// or fragment from it.
func parseBase(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &FetchError{Kind: KindInvalidURL, URL: raw, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &FetchError{Kind: KindInvalidURL, URL: raw, Err: errors.New("scheme must be http or https")}
	}
	if u.Host == "" {
		return nil, &FetchError{Kind: KindInvalidURL, URL: raw, Err: errors.New("empty host")}
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// joinSegment appends an encoded path segment without escaping it again.
func joinSegment(base *url.URL, segment string) string {
	s := strings.TrimSuffix(base.String(), "/")
	segment = strings.Trim(segment, "/")
	if segment == "" {
		return s
	}
	return s + "/" + segment
}

// RequestURL builds the request URL for source from the service settings and
// a preferences snapshot.
func RequestURL(source string, settings config.Settings, prefs config.Preferences) (string, error) {
	switch source {
	case SourceRSS:
		return FeedQuery{BaseURL: settings.FeedBaseURL, Section: prefs.FeedSection}.URL()
	case SourceAPI, "":
		return NewQuery(settings.APIBaseURL, settings.APIKey, prefs).URL()
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
}
