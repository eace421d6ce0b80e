package config

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Store is the part of PreferenceStore the settings API needs.
type Store interface {
	Preferences() (Preferences, error)
	Set(key, value string) error
	Reset() error
}

// SettingsAPIServer serves the query preferences over HTTP.
type SettingsAPIServer struct {
	store Store
}

// NewSettingsAPIServer creates a new settings API server.
func NewSettingsAPIServer(store Store) *SettingsAPIServer {
	return &SettingsAPIServer{
		store: store,
	}
}

// PreferencesUpdate is the body of PUT /settings. Omitted fields are left
// unchanged.
type PreferencesUpdate struct {
	FeedSection  *string `json:"feed_section"`
	ArticleCount *string `json:"article_count"`
	OrderBy      *string `json:"order_by"`
}

// SetupRouter configures a standalone Gin router with the settings routes
// under /api/v1.
func (s *SettingsAPIServer) SetupRouter() *gin.Engine {
	router := gin.Default()
	s.RegisterRoutes(router.Group("/api/v1"))
	return router
}

// RegisterRoutes mounts the settings routes on group.
func (s *SettingsAPIServer) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/settings", s.HandleGetSettings)
	group.PUT("/settings", s.HandleUpdateSettings)
	group.DELETE("/settings", s.HandleResetSettings)
}

// ErrorResponse creates a standardized error response.
func ErrorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// HandleGetSettings handles GET /api/v1/settings.
func (s *SettingsAPIServer) HandleGetSettings(ctx *gin.Context) {
	prefs, err := s.store.Preferences()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse("internal_error", "Failed to retrieve settings"))
		return
	}

	ctx.JSON(http.StatusOK, prefs)
}

// HandleUpdateSettings handles PUT /api/v1/settings. All supplied values
// are validated before any is stored.
func (s *SettingsAPIServer) HandleUpdateSettings(ctx *gin.Context) {
	var update PreferencesUpdate
	if err := ctx.ShouldBindJSON(&update); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse("bad_request", err.Error()))
		return
	}

	changes := make([][2]string, 0, len(Keys))
	if update.FeedSection != nil {
		changes = append(changes, [2]string{KeyFeedSection, *update.FeedSection})
	}
	if update.ArticleCount != nil {
		changes = append(changes, [2]string{KeyArticleCount, *update.ArticleCount})
	}
	if update.OrderBy != nil {
		changes = append(changes, [2]string{KeyOrderBy, *update.OrderBy})
	}

	for _, c := range changes {
		if err := ValidatePreference(c[0], c[1]); err != nil {
			ctx.JSON(http.StatusBadRequest, ErrorResponse("validation_error", err.Error()))
			return
		}
	}

	for _, c := range changes {
		if err := s.store.Set(c[0], c[1]); err != nil {
			ctx.JSON(http.StatusInternalServerError, ErrorResponse("internal_error", "Failed to update settings"))
			return
		}
	}

	s.HandleGetSettings(ctx)
}

// HandleResetSettings handles DELETE /api/v1/settings.
func (s *SettingsAPIServer) HandleResetSettings(ctx *gin.Context) {
	if err := s.store.Reset(); err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse("internal_error", "Failed to reset settings"))
		return
	}

	s.HandleGetSettings(ctx)
}
