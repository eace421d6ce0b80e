package newsreader

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
  "response": {
    "status": "ok",
    "total": 2,
    "results": [
      {
        "id": "world/2024/mar/01/first",
        "sectionName": "World news",
        "webPublicationDate": "2024-03-01T12:00:00Z",
        "webTitle": "First story",
        "webUrl": "https://www.theguardian.com/world/2024/mar/01/first",
        "tags": [{"id": "profile/jane", "webTitle": "Jane Reporter"}],
        "fields": {"trailText": "<p>First trail</p>"}
      },
      {
        "id": "sport/2024/mar/01/second",
        "sectionName": "Sport",
        "webPublicationDate": "2024-03-01T11:00:00Z",
        "webTitle": "Second story",
        "webUrl": "https://www.theguardian.com/sport/2024/mar/01/second"
      }
    ]
  }
}`

func TestExtractArticles_Sample(t *testing.T) {
	articles, err := ExtractArticles(sampleResponse)
	require.NoError(t, err)

	want := []Article{
		NewArticle(
			stringPtr("World news"),
			stringPtr("2024-03-01T12:00:00Z"),
			stringPtr("First story"),
			stringPtr("https://www.theguardian.com/world/2024/mar/01/first"),
			stringPtr("Jane Reporter"),
			stringPtr("<p>First trail</p>"),
		),
		NewArticle(
			stringPtr("Sport"),
			stringPtr("2024-03-01T11:00:00Z"),
			stringPtr("Second story"),
			stringPtr("https://www.theguardian.com/sport/2024/mar/01/second"),
			nil,
			nil,
		),
	}

	if diff := cmp.Diff(want, articles); diff != "" {
		t.Errorf("ExtractArticles mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractArticles_EmptyInput(t *testing.T) {
	for _, body := range []string{"", "   ", "\n\t"} {
		articles, err := ExtractArticles(body)
		assert.Nil(t, articles)
		assert.ErrorIs(t, err, ErrEmptyResponse)
		assert.Equal(t, ReasonEmpty, ReasonOf(err))
	}
}

// TestExtractArticles_EmptyResults verifies a well-formed empty list is not
// an error
func TestExtractArticles_EmptyResults(t *testing.T) {
	articles, err := ExtractArticles(`{"response":{"results":[]}}`)
	require.NoError(t, err)
	assert.NotNil(t, articles)
	assert.Empty(t, articles)
}

func TestExtractArticles_MalformedEnvelope(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"not json", `<html>gateway timeout</html>`, ""},
		{"truncated", `{"response":{"results":[`, ""},
		{"top-level array", `[1,2,3]`, ""},
		{"no response", `{"message":"API rate limit exceeded"}`, "response"},
		{"response not object", `{"response":"error"}`, "response"},
		{"response null", `{"response":null}`, "response"},
		{"no results", `{"response":{"status":"error"}}`, "results"},
		{"results not array", `{"response":{"results":{}}}`, "results"},
		{"results null", `{"response":{"results":null}}`, "results"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			articles, err := ExtractArticles(tt.body)
			assert.Nil(t, articles)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedResponse)

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, -1, parseErr.Index)
			assert.Equal(t, tt.field, parseErr.Field)
		})
	}
}

// TestExtractArticles_MissingRequiredField verifies one bad entry fails the
// whole batch and names the entry and key
func TestExtractArticles_MissingRequiredField(t *testing.T) {
	base := map[string]string{
		"webTitle":           `"T"`,
		"sectionName":        `"S"`,
		"webPublicationDate": `"2024-01-01T00:00:00Z"`,
		"webUrl":             `"https://example.com/a"`,
	}

	for _, key := range []string{"webTitle", "sectionName", "webPublicationDate", "webUrl"} {
		t.Run(key, func(t *testing.T) {
			entry := "{"
			first := true
			for k, v := range base {
				if k == key {
					continue
				}
				if !first {
					entry += ","
				}
				entry += `"` + k + `":` + v
				first = false
			}
			entry += "}"

			good := `{"webTitle":"ok","sectionName":"ok","webPublicationDate":"ok","webUrl":"ok"}`
			body := `{"response":{"results":[` + good + `,` + entry + `]}}`

			articles, err := ExtractArticles(body)
			assert.Nil(t, articles, "no partial results")
			assert.ErrorIs(t, err, ErrMalformedResponse)

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, 1, parseErr.Index)
			assert.Equal(t, key, parseErr.Field)
			assert.Equal(t, ReasonMalformed, ReasonOf(err))
		})
	}
}

func TestExtractArticles_RequiredFieldTypes(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		field string
	}{
		{"null title", `{"webTitle":null,"sectionName":"s","webPublicationDate":"d","webUrl":"u"}`, "webTitle"},
		{"numeric section", `{"webTitle":"t","sectionName":7,"webPublicationDate":"d","webUrl":"u"}`, "sectionName"},
		{"entry not object", `"just a string"`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractArticles(`{"response":{"results":[` + tt.entry + `]}}`)

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, 0, parseErr.Index)
			assert.Equal(t, tt.field, parseErr.Field)
		})
	}
}

// TestExtractArticles_OptionalFields covers the author and summary shapes
// that leave the value absent rather than failing
func TestExtractArticles_OptionalFields(t *testing.T) {
	const required = `"webTitle":"t","sectionName":"s","webPublicationDate":"d","webUrl":"u"`

	tests := []struct {
		name        string
		extra       string
		wantAuthor  *string
		wantSummary *string
	}{
		{"absent", ``, nil, nil},
		{"null tags and fields", `,"tags":null,"fields":null`, nil, nil},
		{"empty tags", `,"tags":[]`, nil, nil},
		{"fields without trailText", `,"fields":{"headline":"h"}`, nil, nil},
		{"null trailText", `,"fields":{"trailText":null}`, nil, nil},
		{"empty trailText kept", `,"fields":{"trailText":""}`, nil, stringPtr("")},
		{"first tag wins", `,"tags":[{"webTitle":"A"},{"webTitle":"B"}]`, stringPtr("A"), nil},
		{"numeric trailText kept as text", `,"fields":{"trailText":5}`, nil, stringPtr("5")},
		{"boolean trailText kept as text", `,"fields":{"trailText":true}`, nil, stringPtr("true")},
		{"object trailText", `,"fields":{"trailText":{"html":"x"}}`, nil, nil},
		{"fields not object", `,"fields":"trail"`, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			articles, err := ExtractArticles(`{"response":{"results":[{` + required + tt.extra + `}]}}`)
			require.NoError(t, err)
			require.Len(t, articles, 1)
			assert.Equal(t, tt.wantAuthor, articles[0].Author)
			assert.Equal(t, tt.wantSummary, articles[0].Summary)
		})
	}
}

func TestExtractArticles_BrokenOptionalFields(t *testing.T) {
	const required = `"webTitle":"t","sectionName":"s","webPublicationDate":"d","webUrl":"u"`

	tests := []struct {
		name  string
		extra string
		field string
	}{
		{"tags not array", `,"tags":{"webTitle":"A"}`, "tags[0].webTitle"},
		{"tag without webTitle", `,"tags":[{"id":"profile/x"}]`, "tags[0].webTitle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractArticles(`{"response":{"results":[{` + required + tt.extra + `}]}}`)

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.field, parseErr.Field)
		})
	}
}

// TestExtractArticles_PreservesOrder verifies output order and length
// follow the results array
func TestExtractArticles_PreservesOrder(t *testing.T) {
	body := `{"response":{"results":[
		{"webTitle":"c","sectionName":"s","webPublicationDate":"d","webUrl":"u"},
		{"webTitle":"a","sectionName":"s","webPublicationDate":"d","webUrl":"u"},
		{"webTitle":"b","sectionName":"s","webPublicationDate":"d","webUrl":"u"}
	]}}`

	articles, err := ExtractArticles(body)
	require.NoError(t, err)
	require.Len(t, articles, 3)
	assert.Equal(t, "c", *articles[0].Title)
	assert.Equal(t, "a", *articles[1].Title)
	assert.Equal(t, "b", *articles[2].Title)
}

// TestExtractArticles_ValuesVerbatim verifies strings are not trimmed or
// reformatted
func TestExtractArticles_ValuesVerbatim(t *testing.T) {
	body := `{"response":{"results":[{"webTitle":"  spaced  ","sectionName":"","webPublicationDate":"2024-03-01T12:00:00Z","webUrl":"u","fields":{"trailText":"a &amp; b"}}]}}`

	articles, err := ExtractArticles(body)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "  spaced  ", *articles[0].Title)
	assert.Equal(t, "", *articles[0].Section)
	assert.Equal(t, "a &amp; b", *articles[0].Summary)
}

func TestParseErrorMessages(t *testing.T) {
	assert.Equal(t, "malformed response: results[2].webUrl: missing key",
		(&ParseError{Index: 2, Field: "webUrl", Err: errMissingKey}).Error())
	assert.Equal(t, "malformed response: response: missing key",
		(&ParseError{Index: -1, Field: "response", Err: errMissingKey}).Error())
}
