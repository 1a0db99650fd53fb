// Package collect reads RSS and Atom feeds for batch post generation.
package collect

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/TobiSchelling/perspost/internal/fetch"
)

// DefaultLimit is the number of entries taken from a feed when no limit is given.
const DefaultLimit = 5

// FeedEntry represents a parsed feed entry.
type FeedEntry struct {
	URL           string
	Title         string
	PublishedDate string // YYYY-MM-DD or empty
	Summary       string
	Source        string
}

// FeedConfig represents a single feed configuration.
type FeedConfig struct {
	URL  string
	Name string
}

// FeedReader fetches the newest entries of a feed.
type FeedReader struct {
	parser  *gofeed.Parser
	timeout time.Duration
	logger  *zap.Logger
}

// NewFeedReader creates a FeedReader. A nil logger is replaced by a no-op.
func NewFeedReader(timeout time.Duration, logger *zap.Logger) *FeedReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	parser := gofeed.NewParser()
	parser.UserAgent = "perspost/1.0 (feed reader)"
	return &FeedReader{parser: parser, timeout: timeout, logger: logger}
}

// Latest returns up to limit entries of the feed, newest first as the feed
// orders them. Entries without a link or title are skipped.
func (r *FeedReader) Latest(ctx context.Context, fc FeedConfig, limit int) ([]FeedEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	name := fc.Name
	if name == "" {
		name = SourceName(fc.URL)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	feed, err := r.parser.ParseURLWithContext(fc.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", fc.URL, err)
	}

	var entries []FeedEntry
	for _, item := range feed.Items {
		if len(entries) >= limit {
			break
		}
		entry := parseItem(item, name)
		if entry == nil {
			continue
		}
		entries = append(entries, *entry)
	}

	r.logger.Info("parsed feed",
		zap.String("source", name),
		zap.Int("items", len(feed.Items)),
		zap.Int("selected", len(entries)),
	)
	return entries, nil
}

func parseItem(item *gofeed.Item, source string) *FeedEntry {
	itemURL := item.Link
	if itemURL == "" {
		itemURL = item.GUID
	}
	if itemURL == "" {
		return nil
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		return nil
	}

	var publishedDate string
	if item.PublishedParsed != nil {
		publishedDate = item.PublishedParsed.Format("2006-01-02")
	} else if item.UpdatedParsed != nil {
		publishedDate = item.UpdatedParsed.Format("2006-01-02")
	}

	summary := item.Description
	if summary == "" {
		summary = item.Content
	}

	return &FeedEntry{
		URL:           itemURL,
		Title:         title,
		PublishedDate: publishedDate,
		Summary:       stripHTML(summary),
		Source:        source,
	}
}

func stripHTML(text string) string {
	if text == "" {
		return ""
	}
	plain, err := fetch.PlainText(strings.NewReader(text))
	if err != nil {
		return strings.Join(strings.Fields(text), " ")
	}
	return strings.Join(strings.Fields(plain), " ")
}

// SourceName derives a display name from a feed URL's host.
func SourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		name := parts[len(parts)-2]
		return strings.ToUpper(name[:1]) + name[1:]
	}
	return strings.ToUpper(host[:1]) + host[1:]
}
