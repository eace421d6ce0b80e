package newsreader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// JSON keys of the content API envelope. "webTitle" appears twice: as the
// article title and as the contributor name inside a tag.
const (
	keyResponse    = "response"
	keyResults     = "results"
	keyWebTitle    = "webTitle"
	keySectionName = "sectionName"
	keyWebPubDate  = "webPublicationDate"
	keyWebURL      = "webUrl"
	keyTags        = "tags"
	keyFields      = "fields"
	keyTrailText   = "trailText"
	keyTagsAuthor  = "tags[0].webTitle"
)

var (
	errMissingKey = errors.New("missing key")
	errWrongType  = errors.New("unexpected JSON type")
)

// ExtractArticles turns a content API response into articles, one per
// entry of response.results, in source order.
//
// The extraction is all or nothing: a broken envelope, or a single entry
// missing webTitle, sectionName, webPublicationDate or webUrl, fails the
// whole batch with a *ParseError. Missing tags or fields only leave Author
// and Summary nil.
func ExtractArticles(body string) ([]Article, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyResponse
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return nil, &ParseError{Index: -1, Err: err}
	}

	responseRaw, ok := envelope[keyResponse]
	if !ok {
		return nil, &ParseError{Index: -1, Field: keyResponse, Err: errMissingKey}
	}
	response, err := decodeObject(responseRaw)
	if err != nil {
		return nil, &ParseError{Index: -1, Field: keyResponse, Err: err}
	}

	resultsRaw, ok := response[keyResults]
	if !ok {
		return nil, &ParseError{Index: -1, Field: keyResults, Err: errMissingKey}
	}
	results, err := decodeArray(resultsRaw)
	if err != nil {
		return nil, &ParseError{Index: -1, Field: keyResults, Err: err}
	}

	articles := make([]Article, 0, len(results))
	for i, entry := range results {
		article, err := extractArticle(i, entry)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}

	return articles, nil
}

// extractArticle reads one results entry.
func extractArticle(index int, raw json.RawMessage) (Article, error) {
	entry, err := decodeObject(raw)
	if err != nil {
		return Article{}, &ParseError{Index: index, Err: err}
	}

	title, err := requiredString(entry, keyWebTitle)
	if err != nil {
		return Article{}, &ParseError{Index: index, Field: keyWebTitle, Err: err}
	}
	section, err := requiredString(entry, keySectionName)
	if err != nil {
		return Article{}, &ParseError{Index: index, Field: keySectionName, Err: err}
	}
	publishedAt, err := requiredString(entry, keyWebPubDate)
	if err != nil {
		return Article{}, &ParseError{Index: index, Field: keyWebPubDate, Err: err}
	}
	url, err := requiredString(entry, keyWebURL)
	if err != nil {
		return Article{}, &ParseError{Index: index, Field: keyWebURL, Err: err}
	}

	author, err := extractAuthor(entry)
	if err != nil {
		return Article{}, &ParseError{Index: index, Field: keyTagsAuthor, Err: err}
	}
	return NewArticle(section, publishedAt, title, url, author, extractSummary(entry)), nil
}

// extractAuthor returns the webTitle of the first tag. The API only sends
// contributor tags because the request asks for show-tags=contributor.
func extractAuthor(entry map[string]json.RawMessage) (*string, error) {
	raw, ok := entry[keyTags]
	if !ok || isNull(raw) {
		return nil, nil
	}

	tags, err := decodeArray(raw)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, nil
	}

	first, err := decodeObject(tags[0])
	if err != nil {
		return nil, err
	}
	return requiredString(first, keyWebTitle)
}

// extractSummary returns fields.trailText when present. The summary never
// fails the batch: a number or boolean is kept as its JSON text, and a
// fields or trailText of any other shape leaves the summary absent.
func extractSummary(entry map[string]json.RawMessage) *string {
	raw, ok := entry[keyFields]
	if !ok || isNull(raw) {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return scalarText(fields[keyTrailText])
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeObject(raw json.RawMessage) (map[string]json.RawMessage, error) {
	if isNull(raw) {
		return nil, fmt.Errorf("%w: expected object, got null", errWrongType)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: expected object", errWrongType)
	}
	return obj, nil
}

func decodeArray(raw json.RawMessage) ([]json.RawMessage, error) {
	if isNull(raw) {
		return nil, fmt.Errorf("%w: expected array, got null", errWrongType)
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil, fmt.Errorf("%w: expected array", errWrongType)
	}
	return arr, nil
}

// requiredString reads a string value that must be present and non-null.
func requiredString(obj map[string]json.RawMessage, key string) (*string, error) {
	raw, ok := obj[key]
	if !ok || isNull(raw) {
		return nil, errMissingKey
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: expected string", errWrongType)
	}
	return &s, nil
}

// scalarText returns a JSON string's value, or the literal text of a number
// or boolean. Absent, null, objects and arrays give nil.
func scalarText(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	if raw[0] == '{' || raw[0] == '[' {
		return nil
	}

	text := string(raw)
	return &text
}
