package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Selectors that cover the article body markup of the news sites the
// pipeline ingests from, tried in order before falling back to the
// whole page text.
const articleSelectors = "article, #articleBody, #article_body, #newsct_article, .article-body, .article_content, .article-content, .content-body"

// Scraper fetches an article page and extracts its body text.
type Scraper struct {
	client *http.Client
}

// NewScraper creates a scraper with the given per-request timeout.
func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{
		client: &http.Client{Timeout: timeout},
	}
}

// Scrape downloads the page at url and returns its article text. An
// unreachable or unparseable page is an error; the caller skips the
// item.
func (s *Scraper) Scrape(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build scrape request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; newsight/1.0)")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page %s returned status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", url, err)
	}

	text := strings.TrimSpace(doc.Find(articleSelectors).First().Text())
	if text == "" {
		text = strings.TrimSpace(doc.Find("body").Text())
	}
	if text == "" {
		return "", fmt.Errorf("no article text found at %s", url)
	}
	return text, nil
}
