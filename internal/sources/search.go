package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// SearchClient queries a keyword news search API (Naver open API wire
// shape). Failures are logged and produce an empty result, never an
// error; one broken source must not stall a pipeline run.
type SearchClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	sourceName   string
	client       *http.Client
	logger       zerolog.Logger
}

// NewSearchClient creates a search-API source.
func NewSearchClient(baseURL, clientID, clientSecret, sourceName string, logger zerolog.Logger) *SearchClient {
	return &SearchClient{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		sourceName:   sourceName,
		client:       &http.Client{Timeout: 10 * time.Second},
		logger:       logger,
	}
}

// SourceName identifies this source on stored articles.
func (c *SearchClient) SourceName() string {
	return c.sourceName
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	Title        string `json:"title"`
	OriginalLink string `json:"originallink"`
	Link         string `json:"link"`
	Description  string `json:"description"`
	PubDate      string `json:"pubDate"`
}

// Search returns up to limit recent news items for one keyword.
func (c *SearchClient) Search(ctx context.Context, query string, limit int) []Item {
	endpoint := fmt.Sprintf("%s/v1/search/news.json?query=%s&display=%d&sort=date",
		c.baseURL, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Warn().Err(err).Str("query", query).Msg("search request build failed")
		return nil
	}
	req.Header.Set("X-Naver-Client-Id", c.clientID)
	req.Header.Set("X-Naver-Client-Secret", c.clientSecret)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("query", query).Msg("search request failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Int("status", resp.StatusCode).Str("query", query).Msg("search returned non-200")
		return nil
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logger.Warn().Err(err).Str("query", query).Msg("search response parse failed")
		return nil
	}

	items := make([]Item, 0, len(decoded.Items))
	for _, it := range decoded.Items {
		link := it.OriginalLink
		if link == "" {
			link = it.Link
		}
		if link == "" {
			continue
		}

		item := Item{
			Title:   CleanText(it.Title),
			URL:     link,
			Summary: CleanText(it.Description),
		}
		if ts, err := time.Parse(time.RFC1123Z, it.PubDate); err == nil {
			item.PublishedAt = &ts
		}
		items = append(items, item)
	}
	return items
}
