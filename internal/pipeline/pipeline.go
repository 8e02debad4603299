package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	embedding "github.com/matthewjhunter/go-embedding"
	"github.com/rs/zerolog"

	"github.com/seojinpark/newsight/internal/ai"
	"github.com/seojinpark/newsight/internal/sources"
	"github.com/seojinpark/newsight/internal/storage"
)

// Feed summaries shorter than this are assumed to carry too little
// signal on their own and get the title prepended.
const minSummaryRunes = 10

// Searcher is a keyword news search source.
type Searcher interface {
	SourceName() string
	Search(ctx context.Context, query string, limit int) []sources.Item
}

// FeedPuller is a fixed feed source.
type FeedPuller interface {
	SourceName() string
	Fetch(ctx context.Context, limit int) []sources.Item
}

// PageScraper extracts full article text from a page URL.
type PageScraper interface {
	Scrape(ctx context.Context, url string) (string, error)
}

// ArticleAnalyzer produces the structured analysis for one article.
type ArticleAnalyzer interface {
	Analyze(ctx context.Context, title, content string) (*ai.Analysis, error)
}

// RunStats summarizes one pipeline run.
type RunStats struct {
	Candidates int
	Duplicates int
	Skipped    int
	Stored     int
}

// Runner executes the ingestion pipeline: search and feed collection,
// scraping, deduplication, analysis and persistence. Failures are
// per-item; one bad article never aborts the run.
type Runner struct {
	store    storage.Store
	search   Searcher
	feeds    []FeedPuller
	scraper  PageScraper
	deduper  *Deduper
	analyzer ArticleAnalyzer
	limit    int
	country  string
	language string
	logger   zerolog.Logger
}

// NewRunner wires a pipeline runner. limit caps items taken per keyword
// and per feed.
func NewRunner(store storage.Store, search Searcher, feeds []FeedPuller, scraper PageScraper,
	deduper *Deduper, analyzer ArticleAnalyzer, limit int, country, language string, logger zerolog.Logger) *Runner {
	return &Runner{
		store:    store,
		search:   search,
		feeds:    feeds,
		scraper:  scraper,
		deduper:  deduper,
		analyzer: analyzer,
		limit:    limit,
		country:  country,
		language: language,
		logger:   logger,
	}
}

// storedTags is the JSON shape persisted in the analysis tags column.
// Search-sourced articles carry the keyword that found them.
type storedTags struct {
	Tags          []string `json:"tags,omitempty"`
	SearchKeyword string   `json:"searchKeyword,omitempty"`
	KeywordID     int64    `json:"keywordId,omitempty"`
}

// Run ingests articles for the owner's approved keywords plus the fixed
// feeds. An empty owner email runs against the global approved keyword
// set. With no approved keywords the run is a no-op.
func (r *Runner) Run(ctx context.Context, ownerEmail string) (*RunStats, error) {
	keywords, err := r.store.ApprovedKeywords(ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("load approved keywords: %w", err)
	}

	stats := &RunStats{}
	if len(keywords) == 0 {
		r.logger.Info().Str("owner", ownerEmail).Msg("no approved keywords, nothing to ingest")
		return stats, nil
	}

	var userID *int64
	if ownerEmail != "" {
		user, err := r.store.GetUserByEmail(ownerEmail)
		if err != nil {
			return nil, fmt.Errorf("resolve owner %s: %w", ownerEmail, err)
		}
		userID = &user.ID
	}

	for _, kw := range keywords {
		items := r.search.Search(ctx, kw.Keyword, r.limit)
		for _, item := range items {
			stats.Candidates++
			r.processSearchItem(ctx, item, kw, userID, stats)
		}
	}

	for _, feed := range r.feeds {
		items := feed.Fetch(ctx, r.limit)
		for _, item := range items {
			stats.Candidates++
			r.processFeedItem(ctx, item, feed.SourceName(), userID, stats)
		}
	}

	r.logger.Info().
		Str("owner", ownerEmail).
		Int("candidates", stats.Candidates).
		Int("stored", stats.Stored).
		Int("duplicates", stats.Duplicates).
		Int("skipped", stats.Skipped).
		Msg("pipeline run finished")
	return stats, nil
}

// processSearchItem scrapes the full article body before the dedup and
// analysis stages.
func (r *Runner) processSearchItem(ctx context.Context, item sources.Item, kw storage.Keyword, userID *int64, stats *RunStats) {
	exists, err := r.store.ArticleExistsByURL(item.URL)
	if err != nil {
		r.logger.Warn().Err(err).Str("url", item.URL).Msg("url existence check failed")
		stats.Skipped++
		return
	}
	if exists {
		stats.Skipped++
		return
	}

	body, err := r.scraper.Scrape(ctx, item.URL)
	if err != nil {
		r.logger.Warn().Err(err).Str("url", item.URL).Msg("scrape failed, skipping item")
		stats.Skipped++
		return
	}

	r.persistItem(ctx, item, r.search.SourceName(), body, userID, kw.Keyword, kw.ID, stats)
}

// processFeedItem uses the feed summary as the body; feeds already
// provide text, so no scrape happens. Summaries too short to embed
// meaningfully get the title prepended.
func (r *Runner) processFeedItem(ctx context.Context, item sources.Item, sourceName string, userID *int64, stats *RunStats) {
	exists, err := r.store.ArticleExistsByURL(item.URL)
	if err != nil {
		r.logger.Warn().Err(err).Str("url", item.URL).Msg("url existence check failed")
		stats.Skipped++
		return
	}
	if exists {
		stats.Skipped++
		return
	}

	body := item.Summary
	if utf8.RuneCountInString(body) < minSummaryRunes {
		body = item.Title + " " + body
	}
	if strings.TrimSpace(body) == "" {
		r.logger.Warn().Str("url", item.URL).Msg("feed item has no text, skipping")
		stats.Skipped++
		return
	}

	r.persistItem(ctx, item, sourceName, body, userID, "", 0, stats)
}

// persistItem runs dedup, analysis and storage for one candidate.
func (r *Runner) persistItem(ctx context.Context, item sources.Item, sourceName, body string, userID *int64, searchKeyword string, keywordID int64, stats *RunStats) {
	dup, vec := r.deduper.IsDuplicate(ctx, body)
	if dup {
		r.logger.Info().Str("url", item.URL).Msg("duplicate story, skipping")
		stats.Duplicates++
		return
	}

	analysis, err := r.analyzer.Analyze(ctx, item.Title, body)
	if err != nil {
		r.logger.Warn().Err(err).Str("url", item.URL).Msg("analysis failed, skipping item")
		stats.Skipped++
		return
	}

	articleID, err := r.store.AddArticle(&storage.Article{
		Title:       item.Title,
		OriginalURL: item.URL,
		PublishedAt: item.PublishedAt,
		Source:      sourceName,
		Country:     r.country,
		Language:    r.language,
	})
	if err != nil {
		r.logger.Warn().Err(err).Str("url", item.URL).Msg("article insert failed")
		stats.Skipped++
		return
	}

	if vec != nil {
		if err := r.store.AddEmbedding(articleID, embedding.EncodeFloat32s(vec)); err != nil {
			r.logger.Warn().Err(err).Int64("article", articleID).Msg("embedding insert failed")
		}
	}

	tags, err := json.Marshal(storedTags{
		Tags:          analysis.Tags,
		SearchKeyword: searchKeyword,
		KeywordID:     keywordID,
	})
	if err != nil {
		tags = []byte("{}")
	}

	if _, err := r.store.AddAnalysis(&storage.Analysis{
		ArticleID: articleID,
		Summary:   analysis.Summary,
		Insight:   analysis.Insight,
		Category:  ai.NormalizeCategory(r.logger, analysis.Category),
		Tags:      string(tags),
		UserID:    userID,
	}); err != nil {
		r.logger.Warn().Err(err).Int64("article", articleID).Msg("analysis insert failed")
	}

	stats.Stored++
}
