package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/newsreader"
)

func ptr(s string) *string { return &s }

func fullArticle() newsreader.Article {
	return newsreader.NewArticle(
		ptr("World news"),
		ptr("2024-03-01T12:00:00Z"),
		ptr("Headline"),
		ptr("https://www.theguardian.com/world/headline"),
		ptr("Jane Reporter"),
		ptr("<p>Trail <strong>text</strong> here</p>"),
	)
}

func TestArticlesRow_AllFields(t *testing.T) {
	rows := Articles{fullArticle()}

	require.Equal(t, 1, rows.Len())
	assert.Equal(t, Row{
		Title:       "Headline",
		Section:     "World news",
		PublishedAt: "2024-03-01T12:00:00Z",
		Author:      "Jane Reporter",
		Summary:     "Trail text here",
		URL:         "https://www.theguardian.com/world/headline",
	}, rows.Row(0))
}

func TestArticlesRow_Placeholders(t *testing.T) {
	rows := Articles{newsreader.NewArticle(nil, nil, nil, nil, nil, nil)}

	assert.Equal(t, Row{
		Title:       TitleMissing,
		Section:     SectionUnknown,
		PublishedAt: DateMissing,
		Author:      UnknownAuthor,
		Summary:     SummaryMissing,
		URL:         "",
	}, rows.Row(0))
}

// TestArticlesRow_EmptySummary verifies a summary that is only markup
// counts as missing
func TestArticlesRow_EmptySummary(t *testing.T) {
	a := fullArticle()
	a.Summary = ptr("<br/>")

	assert.Equal(t, SummaryMissing, Articles{a}.Row(0).Summary)
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"Fish &amp; chips", "Fish & chips"},
		{"line one<br>line   two", "line oneline two"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StripTags(tt.in), "input %q", tt.in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	// Wide runes take two columns each.
	assert.Equal(t, "日本...", Truncate("日本語のニュース", 7))
}

func TestWrapText(t *testing.T) {
	lines := WrapText("the quick brown fox jumps over the lazy dog", 15)
	assert.Equal(t, []string{"the quick brown", "fox jumps over", "the lazy dog"}, lines)
	assert.Nil(t, WrapText("   ", 10))
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, Articles{fullArticle()}))

	out := buf.String()
	assert.Contains(t, out, "  1. Headline\n")
	assert.Contains(t, out, "World news | 2024-03-01T12:00:00Z | Jane Reporter")
	assert.Contains(t, out, "Trail text here")
	assert.Contains(t, out, "URL: https://www.theguardian.com/world/headline")
}

func TestWriteTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, Articles{}))
	assert.Equal(t, EmptyMessage+"\n", buf.String())
}

func TestWriteCompact(t *testing.T) {
	var buf bytes.Buffer
	second := newsreader.NewArticle(nil, nil, ptr("Second"), nil, nil, nil)
	require.NoError(t, WriteCompact(&buf, Articles{fullArticle(), second}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "  1. Headline (World news)", lines[0])
	assert.Equal(t, "  2. Second (Section Unknown)", lines[1])
}

func TestWriteJSON_OmitsMissingFields(t *testing.T) {
	id := uuid.New()
	partial := newsreader.NewArticle(ptr("Sport"), nil, ptr("Match report"), nil, nil, nil)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, newsreader.NewListing(id, "api", []newsreader.Article{partial})))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, id.String(), decoded["cycle_id"])
	assert.Equal(t, float64(1), decoded["total"])

	articles := decoded["articles"].([]any)
	require.Len(t, articles, 1)
	assert.Equal(t, map[string]any{"section": "Sport", "title": "Match report"}, articles[0])
}

func TestNewListing_NilArticles(t *testing.T) {
	listing := newsreader.NewListing(uuid.Nil, "rss", nil)
	assert.NotNil(t, listing.Articles)
	assert.Zero(t, listing.Total)
}
