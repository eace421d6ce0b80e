// Package render turns articles into display rows and writes them as a
// table, compact lines or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mattn/go-runewidth"

	"github.com/pevans/newsreader"
)

// Placeholders shown for missing fields.
const (
	TitleMissing   = "Title Missing"
	SectionUnknown = "Section Unknown"
	DateMissing    = "Date Missing"
	UnknownAuthor  = "Unknown Author"
	SummaryMissing = "Missing Summary"
)

// EmptyMessage is shown instead of a list with no rows.
const EmptyMessage = "Sorry, no articles found."

// Display widths, in terminal columns.
const (
	TitleWidth   = 70
	SummaryWidth = 150
	WrapWidth    = 76
)

// Row is one article as text, every field filled in.
type Row struct {
	Title       string
	Section     string
	PublishedAt string
	Author      string
	Summary     string
	URL         string
}

// RowSource is what the list view needs from its data: a length and a row
// by position.
type RowSource interface {
	Len() int
	Row(i int) Row
}

// Articles adapts an article slice to RowSource.
type Articles []newsreader.Article

func (a Articles) Len() int {
	return len(a)
}

// Row returns the i-th article with placeholders for missing fields and
// HTML removed from the summary.
func (a Articles) Row(i int) Row {
	article := a[i]

	summary := SummaryMissing
	if article.Summary != nil {
		if text := StripTags(*article.Summary); text != "" {
			summary = text
		}
	}

	return Row{
		Title:       orPlaceholder(article.Title, TitleMissing),
		Section:     orPlaceholder(article.Section, SectionUnknown),
		PublishedAt: orPlaceholder(article.PublishedAt, DateMissing),
		Author:      orPlaceholder(article.Author, UnknownAuthor),
		Summary:     summary,
		URL:         newsreader.Value(article.URL),
	}
}

func orPlaceholder(p *string, placeholder string) string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return placeholder
	}
	return *p
}

// StripTags returns the text content of an HTML fragment with runs of
// whitespace collapsed. Plain text passes through unchanged apart from
// whitespace and entity decoding.
func StripTags(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Truncate shortens s to width terminal columns, ending in "...".
func Truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}

// WrapText wraps text to a maximum display width.
func WrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	var current strings.Builder
	currentWidth := 0

	for _, word := range words {
		w := runewidth.StringWidth(word)
		switch {
		case currentWidth == 0:
			current.WriteString(word)
			currentWidth = w
		case currentWidth+1+w <= width:
			current.WriteByte(' ')
			current.WriteString(word)
			currentWidth += 1 + w
		default:
			lines = append(lines, current.String())
			current.Reset()
			current.WriteString(word)
			currentWidth = w
		}
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}

	return lines
}

// WriteTable writes rows in a human-readable, numbered layout. Numbers
// start at 1 and are what `open` accepts.
func WriteTable(w io.Writer, rows RowSource) error {
	if rows.Len() == 0 {
		_, err := fmt.Fprintln(w, EmptyMessage)
		return err
	}

	for i := 0; i < rows.Len(); i++ {
		row := rows.Row(i)

		if _, err := fmt.Fprintf(w, "%3d. %s\n", i+1, Truncate(row.Title, TitleWidth)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "     %s | %s | %s\n", row.Section, row.PublishedAt, row.Author); err != nil {
			return err
		}
		for _, line := range WrapText(Truncate(row.Summary, SummaryWidth), WrapWidth) {
			if _, err := fmt.Fprintf(w, "     %s\n", line); err != nil {
				return err
			}
		}
		if row.URL != "" {
			if _, err := fmt.Fprintf(w, "     URL: %s\n", row.URL); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	return nil
}

// WriteCompact writes one line per row.
func WriteCompact(w io.Writer, rows RowSource) error {
	if rows.Len() == 0 {
		_, err := fmt.Fprintln(w, EmptyMessage)
		return err
	}

	for i := 0; i < rows.Len(); i++ {
		row := rows.Row(i)
		if _, err := fmt.Fprintf(w, "%3d. %s (%s)\n", i+1, Truncate(row.Title, TitleWidth), row.Section); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes the listing as indented JSON. Missing article fields are
// omitted rather than replaced by placeholders.
func WriteJSON(w io.Writer, listing newsreader.Listing) error {
	data, err := json.MarshalIndent(listing, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
