package sources

import "time"

// Item is one candidate article coming out of a source, before
// scraping, deduplication or analysis.
type Item struct {
	Title       string
	URL         string
	Summary     string
	PublishedAt *time.Time
}
