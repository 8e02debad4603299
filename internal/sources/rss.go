package sources

import (
	"context"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

// FeedSource pulls items from one fixed RSS/Atom feed. Like the search
// client, a broken feed yields an empty result rather than an error.
type FeedSource struct {
	name   string
	url    string
	parser *gofeed.Parser
	logger zerolog.Logger
}

// NewFeedSource creates a source for one feed URL.
func NewFeedSource(name, feedURL string, logger zerolog.Logger) *FeedSource {
	parser := gofeed.NewParser()
	parser.UserAgent = "newsight/1.0"
	return &FeedSource{
		name:   name,
		url:    feedURL,
		parser: parser,
		logger: logger,
	}
}

// SourceName identifies this feed on stored articles.
func (f *FeedSource) SourceName() string {
	return f.name
}

// Fetch returns up to limit items from the feed, in feed order.
func (f *FeedSource) Fetch(ctx context.Context, limit int) []Item {
	feed, err := f.parser.ParseURLWithContext(f.url, ctx)
	if err != nil {
		f.logger.Warn().Err(err).Str("feed", f.name).Str("url", f.url).Msg("feed fetch failed")
		return nil
	}

	items := make([]Item, 0, limit)
	for _, entry := range feed.Items {
		if len(items) >= limit {
			break
		}
		if entry.Link == "" {
			continue
		}

		item := Item{
			Title:   CleanText(entry.Title),
			URL:     entry.Link,
			Summary: CleanText(entry.Description),
		}
		if entry.PublishedParsed != nil {
			item.PublishedAt = entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			item.PublishedAt = entry.UpdatedParsed
		}
		items = append(items, item)
	}
	return items
}
