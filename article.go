package newsreader

// Article is a single news item parsed from a content API response. Every
// field is optional: a nil pointer means the response did not carry the
// value, which is distinct from an empty string.
type Article struct {
	Section     *string `json:"section,omitempty"`
	PublishedAt *string `json:"published_at,omitempty"` // ISO 8601, UTC, "Z" suffix
	Title       *string `json:"title,omitempty"`
	URL         *string `json:"url,omitempty"`
	Author      *string `json:"author,omitempty"`
	Summary     *string `json:"summary,omitempty"` // may contain HTML tags
}

// NewArticle builds an article from the six raw values, in the order the
// content API documents them.
func NewArticle(section, publishedAt, title, url, author, summary *string) Article {
	return Article{
		Section:     section,
		PublishedAt: publishedAt,
		Title:       title,
		URL:         url,
		Author:      author,
		Summary:     summary,
	}
}

// Value returns the string behind p, or "" when p is nil.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// stringPtr returns a pointer to a copy of s.
func stringPtr(s string) *string {
	return &s
}
