package config

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

// Preference keys.
const (
	KeyFeedSection  = "feed-section"
	KeyArticleCount = "article-count"
	KeyOrderBy      = "order-by"
)

// Preference defaults, used when a key has never been set.
const (
	DefaultFeedSection  = "search"
	DefaultArticleCount = "10"
	DefaultOrderBy      = "newest"
)

// Accepted order-by values.
const (
	OrderNewest = "newest"
	OrderOldest = "oldest"
)

// ErrUnknownPreference is returned for keys other than the three above.
var ErrUnknownPreference = errors.New("unknown preference")

// Keys lists every preference key in display order.
var Keys = []string{KeyFeedSection, KeyArticleCount, KeyOrderBy}

// Preferences is a read-only snapshot of the query preferences, taken when
// a fetch is triggered. Values are kept as strings and passed through to
// the request unchanged.
type Preferences struct {
	FeedSection  string `json:"feed_section"`
	ArticleCount string `json:"article_count"`
	OrderBy      string `json:"order_by"`
}

// DefaultPreferences returns the preferences of a fresh install.
func DefaultPreferences() Preferences {
	return Preferences{
		FeedSection:  DefaultFeedSection,
		ArticleCount: DefaultArticleCount,
		OrderBy:      DefaultOrderBy,
	}
}

// Get returns the value for key.
func (p Preferences) Get(key string) (string, error) {
	switch key {
	case KeyFeedSection:
		return p.FeedSection, nil
	case KeyArticleCount:
		return p.ArticleCount, nil
	case KeyOrderBy:
		return p.OrderBy, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPreference, key)
	}
}

// PreferenceStore manages the query preferences using SQLite.
type PreferenceStore struct {
	db *sql.DB
}

// NewPreferenceStore opens (or creates) the preference database at dbPath.
func NewPreferenceStore(dbPath string) (*PreferenceStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store, err := NewPreferenceStoreWithDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// NewPreferenceStoreWithDB wraps an already open database.
func NewPreferenceStoreWithDB(db *sql.DB) (*PreferenceStore, error) {
	store := &PreferenceStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// initSchema creates the preferences table if it doesn't exist.
func (s *PreferenceStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *PreferenceStore) Close() error {
	return s.db.Close()
}

// Preferences returns the stored preferences, falling back to the default
// for every key that was never set.
func (s *PreferenceStore) Preferences() (Preferences, error) {
	prefs := DefaultPreferences()

	rows, err := s.db.Query("SELECT key, value FROM preferences")
	if err != nil {
		return Preferences{}, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Preferences{}, fmt.Errorf("failed to scan preference: %w", err)
		}

		switch key {
		case KeyFeedSection:
			prefs.FeedSection = value
		case KeyArticleCount:
			prefs.ArticleCount = value
		case KeyOrderBy:
			prefs.OrderBy = value
		}
	}
	if err := rows.Err(); err != nil {
		return Preferences{}, fmt.Errorf("failed to read preferences: %w", err)
	}

	return prefs, nil
}

// Set stores value for key verbatim. Only the three known keys are
// accepted; use ValidatePreference first to restrict values.
func (s *PreferenceStore) Set(key, value string) error {
	if !isKnownKey(key) {
		return fmt.Errorf("%w: %q", ErrUnknownPreference, key)
	}

	query := "INSERT OR REPLACE INTO preferences (key, value) VALUES (?, ?)"
	if _, err := s.db.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to update preference: %w", err)
	}
	return nil
}

// Reset removes every stored value so all keys return to their defaults.
func (s *PreferenceStore) Reset() error {
	if _, err := s.db.Exec("DELETE FROM preferences"); err != nil {
		return fmt.Errorf("failed to reset preferences: %w", err)
	}
	return nil
}

// ValidatePreference checks a value the way the settings screen offers it:
// order-by is newest or oldest, article-count a positive integer, and the
// feed section a non-empty path segment.
func ValidatePreference(key, value string) error {
	switch key {
	case KeyFeedSection:
		if value == "" {
			return errors.New("invalid feed-section: must not be empty")
		}
	case KeyArticleCount:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return errors.New("invalid article-count: must be a positive integer")
		}
	case KeyOrderBy:
		if value != OrderNewest && value != OrderOldest {
			return errors.New("invalid order-by: must be newest or oldest")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPreference, key)
	}
	return nil
}

func isKnownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}
