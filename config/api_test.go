package config

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Test helper: create a test router backed by a real store
func setupTestSettingsRouter(t *testing.T) (*gin.Engine, *PreferenceStore) {
	store := createTestPreferenceStore(t)
	server := NewSettingsAPIServer(store)
	return server.SetupRouter(), store
}

type failingStore struct{}

func (failingStore) Preferences() (Preferences, error) { return Preferences{}, errors.New("boom") }
func (failingStore) Set(string, string) error          { return errors.New("boom") }
func (failingStore) Reset() error                      { return errors.New("boom") }

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleGetSettings_Defaults(t *testing.T) {
	router, _ := setupTestSettingsRouter(t)

	w := doRequest(router, http.MethodGet, "/api/v1/settings", "")
	require.Equal(t, http.StatusOK, w.Code)

	var prefs Preferences
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prefs))
	assert.Equal(t, DefaultPreferences(), prefs)
}

func TestHandleUpdateSettings_Partial(t *testing.T) {
	router, store := setupTestSettingsRouter(t)

	w := doRequest(router, http.MethodPut, "/api/v1/settings", `{"order_by":"oldest"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var prefs Preferences
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prefs))
	assert.Equal(t, "oldest", prefs.OrderBy)
	assert.Equal(t, DefaultFeedSection, prefs.FeedSection)

	stored, err := store.Preferences()
	require.NoError(t, err)
	assert.Equal(t, "oldest", stored.OrderBy)
}

// TestHandleUpdateSettings_ValidationIsAtomic verifies one bad value stores
// nothing
func TestHandleUpdateSettings_ValidationIsAtomic(t *testing.T) {
	router, store := setupTestSettingsRouter(t)

	w := doRequest(router, http.MethodPut, "/api/v1/settings",
		`{"feed_section":"world","article_count":"0"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")

	stored, err := store.Preferences()
	require.NoError(t, err)
	assert.Equal(t, DefaultFeedSection, stored.FeedSection)
}

func TestHandleUpdateSettings_BadJSON(t *testing.T) {
	router, _ := setupTestSettingsRouter(t)

	w := doRequest(router, http.MethodPut, "/api/v1/settings", `{"order_by":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "bad_request")
}

func TestHandleResetSettings(t *testing.T) {
	router, store := setupTestSettingsRouter(t)
	require.NoError(t, store.Set(KeyFeedSection, "sport"))

	w := doRequest(router, http.MethodDelete, "/api/v1/settings", "")
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := store.Preferences()
	require.NoError(t, err)
	assert.Equal(t, DefaultPreferences(), stored)
}

func TestSettingsHandlers_StoreFailure(t *testing.T) {
	router := NewSettingsAPIServer(failingStore{}).SetupRouter()

	w := doRequest(router, http.MethodGet, "/api/v1/settings", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = doRequest(router, http.MethodPut, "/api/v1/settings", `{"order_by":"newest"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = doRequest(router, http.MethodDelete, "/api/v1/settings", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
