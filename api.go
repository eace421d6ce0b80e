package newsreader

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/pevans/newsreader/config"
)

// Listing is the JSON document for one fetch cycle, returned by
// GET /api/v1/articles and written by the CLI's JSON format.
type Listing struct {
	CycleID  uuid.UUID `json:"cycle_id"`
	Source   string    `json:"source"`
	Total    int       `json:"total"`
	Articles []Article `json:"articles"`
}

// NewListing builds a listing; a nil slice is written as [].
func NewListing(cycleID uuid.UUID, source string, articles []Article) Listing {
	if articles == nil {
		articles = []Article{}
	}
	return Listing{CycleID: cycleID, Source: source, Total: len(articles), Articles: articles}
}

// APIServer serves articles and settings over HTTP.
type APIServer struct {
	store    config.Store
	settings config.Settings
	runners  map[string]CycleRunner
	metrics  http.Handler
	logger   *slog.Logger
	group    singleflight.Group
}

// APIOption configures an APIServer.
type APIOption func(*APIServer)

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) APIOption {
	return func(s *APIServer) {
		s.metrics = h
	}
}

// WithAPILogger sets the logger.
func WithAPILogger(logger *slog.Logger) APIOption {
	return func(s *APIServer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewAPIServer creates a server. runners maps a source name (SourceAPI,
// SourceRSS) to the loader that reads it.
func NewAPIServer(store config.Store, settings config.Settings, runners map[string]CycleRunner, opts ...APIOption) *APIServer {
	s := &APIServer{
		store:    store,
		settings: settings,
		runners:  runners,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetupRouter configures the Gin router with the article, settings and
// metrics routes.
func (s *APIServer) SetupRouter() *gin.Engine {
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics))
	}

	api := router.Group("/api/v1")
	api.GET("/articles", s.HandleListArticles)
	config.NewSettingsAPIServer(s.store).RegisterRoutes(api)

	return router
}

// HandleListArticles handles GET /api/v1/articles. Query parameters
// section, count and order override the stored preferences for this request
// only; source picks api (default) or rss; author filters the result.
//
// Identical concurrent requests share one fetch cycle.
func (s *APIServer) HandleListArticles(c *gin.Context) {
	source := c.DefaultQuery("source", SourceAPI)
	runner, ok := s.runners[source]
	if !ok {
		c.JSON(http.StatusBadRequest, config.ErrorResponse("invalid_parameter", "Invalid source parameter: must be api or rss"))
		return
	}

	prefs, err := s.store.Preferences()
	if err != nil {
		c.JSON(http.StatusInternalServerError, config.ErrorResponse("internal_error", "Failed to retrieve settings"))
		return
	}

	overrides := map[string]*string{
		config.KeyFeedSection:  &prefs.FeedSection,
		config.KeyArticleCount: &prefs.ArticleCount,
		config.KeyOrderBy:      &prefs.OrderBy,
	}
	params := map[string]string{
		config.KeyFeedSection:  "section",
		config.KeyArticleCount: "count",
		config.KeyOrderBy:      "order",
	}
	for key, param := range params {
		value, present := c.GetQuery(param)
		if !present {
			continue
		}
		if err := config.ValidatePreference(key, value); err != nil {
			c.JSON(http.StatusBadRequest, config.ErrorResponse("invalid_parameter", err.Error()))
			return
		}
		*overrides[key] = value
	}

	url, err := RequestURL(source, s.settings, prefs)
	if err != nil {
		s.logger.Error("failed to build request URL", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, config.ErrorResponse("internal_error", "News service is misconfigured"))
		return
	}

	// The cycle must not die with the first caller's connection because
	// other callers may be waiting on it.
	ctx := context.WithoutCancel(c.Request.Context())
	v, _, shared := s.group.Do(source+" "+url, func() (any, error) {
		return runner.Run(ctx, url), nil
	})
	res := v.(Result)
	if shared {
		c.Header("X-Newsreader-Shared", "true")
	}

	if res.Err != nil && !errors.Is(res.Err, ErrNoArticles) {
		status, code := statusForReason(ReasonOf(res.Err))
		c.JSON(status, config.ErrorResponse(code, res.Err.Error()))
		return
	}

	articles := res.Articles
	if author := c.Query("author"); author != "" {
		articles = filterByAuthor(articles, author)
	}

	c.JSON(http.StatusOK, NewListing(res.CycleID, source, articles))
}

// statusForReason maps a failure reason to the HTTP status and error code
// of the response.
func statusForReason(reason FailureReason) (int, string) {
	switch reason {
	case ReasonTimeout:
		return http.StatusGatewayTimeout, string(reason)
	case ReasonInvalidURL:
		return http.StatusInternalServerError, string(reason)
	case ReasonOffline, ReasonCanceled:
		return http.StatusServiceUnavailable, string(reason)
	default:
		return http.StatusBadGateway, string(reason)
	}
}

// filterByAuthor keeps articles whose author contains author, ignoring case.
func filterByAuthor(articles []Article, author string) []Article {
	needle := strings.ToLower(author)
	filtered := make([]Article, 0, len(articles))
	for _, a := range articles {
		if a.Author != nil && strings.Contains(strings.ToLower(*a.Author), needle) {
			filtered = append(filtered, a)
		}
	}
	return filtered
}
