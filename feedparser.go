package newsreader

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// ExtractFeed parses a section RSS or Atom feed into articles. The gofeed
// library detects the format, so both are handled the same way. Unlike the
// content API, feeds carry no required fields: whatever an item lacks stays
// nil on the article.
func ExtractFeed(body string) ([]Article, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyResponse
	}

	fp := gofeed.NewParser()
	feed, err := fp.ParseString(body)
	if err != nil {
		return nil, &ParseError{Index: -1, Err: fmt.Errorf("failed to parse feed: %w", err)}
	}

	return FeedToArticles(feed), nil
}

// FeedToArticles converts every item of an RSS or Atom feed, in order.
func FeedToArticles(feed *gofeed.Feed) []Article {
	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		articles = append(articles, FeedItemToArticle(item, feed.Title))
	}
	return articles
}

// FeedItemToArticle maps one feed item. Section comes from the first item
// category, falling back to the feed title ("World news | The Guardian").
func FeedItemToArticle(item *gofeed.Item, feedTitle string) Article {
	var section *string
	if len(item.Categories) > 0 && item.Categories[0] != "" {
		section = stringPtr(item.Categories[0])
	} else if feedTitle != "" {
		name, _, _ := strings.Cut(feedTitle, " | ")
		section = stringPtr(strings.TrimSpace(name))
	}

	// Published: <pubDate> (RSS) or <published>/<updated> (Atom), normalised
	// to the same layout the content API uses.
	var publishedAt *string
	if item.PublishedParsed != nil {
		publishedAt = stringPtr(item.PublishedParsed.UTC().Format(time.RFC3339))
	} else if item.UpdatedParsed != nil {
		publishedAt = stringPtr(item.UpdatedParsed.UTC().Format(time.RFC3339))
	}

	var title *string
	if item.Title != "" {
		title = stringPtr(item.Title)
	}

	var url *string
	if item.Link != "" {
		url = stringPtr(item.Link)
	}

	// Author: <author>, then Atom <author><name>, then <dc:creator>
	var author *string
	switch {
	case item.Author != nil && item.Author.Name != "":
		author = stringPtr(item.Author.Name)
	case len(item.Authors) > 0 && item.Authors[0] != nil && item.Authors[0].Name != "":
		author = stringPtr(item.Authors[0].Name)
	case item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0:
		author = stringPtr(item.DublinCoreExt.Creator[0])
	}

	var summary *string
	if item.Description != "" {
		summary = stringPtr(item.Description)
	}

	return NewArticle(section, publishedAt, title, url, author, summary)
}
