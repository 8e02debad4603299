package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/seojinpark/newsight"
)

type Format string

const (
	FormatJSON  Format = "json"
	FormatText  Format = "text"
	FormatHuman Format = "human"
)

type Formatter struct {
	format Format
	out    io.Writer
	err    io.Writer
}

// NewFormatter creates a new output formatter
func NewFormatter(format Format) *Formatter {
	return &Formatter{
		format: format,
		out:    os.Stdout,
		err:    os.Stderr,
	}
}

// NewFormatterWithWriters creates a formatter with custom output writers for testability
func NewFormatterWithWriters(format Format, out, errW io.Writer) *Formatter {
	return &Formatter{
		format: format,
		out:    out,
		err:    errW,
	}
}

// OutputRunStats outputs the result of one ingestion run
func (f *Formatter) OutputRunStats(stats *newsight.RunStats) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(stats)
	case FormatText:
		fmt.Fprintf(f.out, "candidates=%d\n", stats.Candidates)
		fmt.Fprintf(f.out, "duplicates=%d\n", stats.Duplicates)
		fmt.Fprintf(f.out, "skipped=%d\n", stats.Skipped)
		fmt.Fprintf(f.out, "stored=%d\n", stats.Stored)
		return nil
	case FormatHuman:
		fmt.Fprintf(f.out, "Collected %d candidates\n", stats.Candidates)
		if stats.Duplicates > 0 {
			fmt.Fprintf(f.out, "Dropped %d duplicates\n", stats.Duplicates)
		}
		if stats.Skipped > 0 {
			fmt.Fprintf(f.out, "Skipped %d (already stored or failed)\n", stats.Skipped)
		}
		fmt.Fprintf(f.out, "Stored %d new articles\n", stats.Stored)
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputArticleList outputs a list of articles
func (f *Formatter) OutputArticleList(articles []newsight.Article) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(articles)
	case FormatText:
		for _, a := range articles {
			fmt.Fprintf(f.out, "id=%d\ttitle=%s\turl=%s\tpublished=%s\n",
				a.ID, a.Title, a.OriginalURL, formatTime(a.PublishedAt))
		}
		return nil
	case FormatHuman:
		if len(articles) == 0 {
			fmt.Fprintln(f.out, "No articles")
			return nil
		}
		fmt.Fprintf(f.out, "Articles (%d):\n\n", len(articles))
		for _, a := range articles {
			fmt.Fprintf(f.out, "ID: %d\n", a.ID)
			fmt.Fprintf(f.out, "Title: %s\n", a.Title)
			fmt.Fprintf(f.out, "URL: %s\n", a.OriginalURL)
			if a.Source != "" {
				fmt.Fprintf(f.out, "Source: %s\n", a.Source)
			}
			if a.PublishedAt != nil {
				fmt.Fprintf(f.out, "Published: %s\n", a.PublishedAt.Format("2006-01-02 15:04"))
			}
			fmt.Fprintln(f.out, "---")
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputRankedArticles outputs a department ranking
func (f *Formatter) OutputRankedArticles(ranked []newsight.RankedArticle) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(ranked)
	case FormatText:
		for _, r := range ranked {
			fmt.Fprintf(f.out, "id=%d\tfinal=%.2f\tstored=%.2f\trelevance=%.3f\ttitle=%s\n",
				r.Article.ID, r.FinalScore, r.StoredScore, r.Relevance, r.Article.Title)
		}
		return nil
	case FormatHuman:
		if len(ranked) == 0 {
			fmt.Fprintln(f.out, "No ranked articles")
			return nil
		}
		for i, r := range ranked {
			fmt.Fprintf(f.out, "%d. %s (%.1f)\n", i+1, r.Article.Title, r.FinalScore)
			fmt.Fprintf(f.out, "   %s\n", r.Article.OriginalURL)
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputTopViewed outputs the trailing-window view ranking
func (f *Formatter) OutputTopViewed(ranked []newsight.TopViewedArticle) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(ranked)
	case FormatText:
		for _, v := range ranked {
			fmt.Fprintf(f.out, "id=%d\tviews=%d\ttitle=%s\n", v.ArticleID, v.ViewCount, v.Title)
		}
		return nil
	case FormatHuman:
		if len(ranked) == 0 {
			fmt.Fprintln(f.out, "No views recorded")
			return nil
		}
		for i, v := range ranked {
			fmt.Fprintf(f.out, "%d. %s (%d views)\n", i+1, v.Title, v.ViewCount)
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputRecommendations outputs suggested search keywords
func (f *Formatter) OutputRecommendations(items []newsight.Recommendation) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(items)
	case FormatText:
		for _, r := range items {
			fmt.Fprintf(f.out, "keyword=%s\tcategory=%s\n", r.Keyword, r.Category)
		}
		return nil
	case FormatHuman:
		if len(items) == 0 {
			fmt.Fprintln(f.out, "No recommendations")
			return nil
		}
		fmt.Fprintf(f.out, "Suggested keywords (%d):\n", len(items))
		for _, r := range items {
			fmt.Fprintf(f.out, "  %s [%s]\n", r.Keyword, r.Category)
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputKeywords outputs an owner's keyword list
func (f *Formatter) OutputKeywords(items []newsight.Keyword) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(items)
	case FormatText:
		for _, kw := range items {
			fmt.Fprintf(f.out, "id=%d\tkeyword=%s\tcategory=%s\tapproved=%t\n",
				kw.ID, kw.Keyword, kw.Category, kw.Approved)
		}
		return nil
	case FormatHuman:
		if len(items) == 0 {
			fmt.Fprintln(f.out, "No keywords")
			return nil
		}
		for _, kw := range items {
			fmt.Fprintf(f.out, "%d. %s [%s]\n", kw.ID, kw.Keyword, kw.Category)
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputKeywordUsage outputs the cross-user keyword aggregation
func (f *Formatter) OutputKeywordUsage(items []newsight.KeywordUsage) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(items)
	case FormatText:
		for _, u := range items {
			fmt.Fprintf(f.out, "keyword=%s\tcount=%d\n", u.Keyword, u.Count)
		}
		return nil
	case FormatHuman:
		if len(items) == 0 {
			fmt.Fprintln(f.out, "No keywords from other users")
			return nil
		}
		for _, u := range items {
			fmt.Fprintf(f.out, "%s (%d users)\n", u.Keyword, u.Count)
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputScore outputs an article's score breakdown
func (f *Formatter) OutputScore(score *newsight.ArticleScore) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(score)
	case FormatText:
		fmt.Fprintf(f.out, "article=%d\tscore=%.2f\tlikes=%d\tdislikes=%d\ttext=%.2f\tviews=%d\n",
			score.ArticleID, score.Score, score.LikeCount, score.DislikeCount,
			score.TextScore, score.ViewCount)
		return nil
	case FormatHuman:
		fmt.Fprintf(f.out, "Article %d\n", score.ArticleID)
		fmt.Fprintf(f.out, "Score: %.2f\n", score.Score)
		fmt.Fprintf(f.out, "Likes: %d  Dislikes: %d\n", score.LikeCount, score.DislikeCount)
		fmt.Fprintf(f.out, "Text relevance: %.2f\n", score.TextScore)
		fmt.Fprintf(f.out, "Views: %d\n", score.ViewCount)
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputFeedbackSummary outputs the per-article feedback rollup
func (f *Formatter) OutputFeedbackSummary(summary *newsight.FeedbackSummary) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(summary)
	case FormatText:
		reaction := "none"
		if summary.MyReaction != nil {
			if *summary.MyReaction {
				reaction = "like"
			} else {
				reaction = "dislike"
			}
		}
		fmt.Fprintf(f.out, "likes=%d\tdislikes=%d\tmine=%s\tcomments=%d\n",
			summary.Likes, summary.Dislikes, reaction, len(summary.Comments))
		return nil
	case FormatHuman:
		fmt.Fprintf(f.out, "Likes: %d  Dislikes: %d\n", summary.Likes, summary.Dislikes)
		if summary.MyReaction != nil {
			if *summary.MyReaction {
				fmt.Fprintln(f.out, "You liked this article")
			} else {
				fmt.Fprintln(f.out, "You disliked this article")
			}
		}
		for _, c := range summary.Comments {
			fmt.Fprintf(f.out, "  > %s\n", truncate(c, 200))
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// Error outputs an error message to stderr
func (f *Formatter) Error(format string, args ...interface{}) {
	fmt.Fprintf(f.err, format+"\n", args...)
}

// Warning outputs a warning message to stderr
func (f *Formatter) Warning(format string, args ...interface{}) {
	fmt.Fprintf(f.err, "Warning: "+format+"\n", args...)
}

// formatTime formats a time pointer for output
func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// truncate truncates a string to maxLen characters
func truncate(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
