package newsight

import "time"

// Article is a stored news article.
type Article struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	OriginalURL string     `json:"original_url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Source      string     `json:"source"`
	Country     string     `json:"country,omitempty"`
	Language    string     `json:"language,omitempty"`
}

// Analysis is the AI analysis stored for an article.
type Analysis struct {
	ArticleID int64     `json:"article_id"`
	Summary   string    `json:"summary"`
	Insight   string    `json:"insight,omitempty"`
	Category  string    `json:"category"`
	Tags      string    `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ArticleScore is the persisted engagement score of an article.
type ArticleScore struct {
	ArticleID    int64   `json:"article_id"`
	Score        float64 `json:"score"`
	LikeCount    int     `json:"like_count"`
	DislikeCount int     `json:"dislike_count"`
	TextScore    float64 `json:"text_score"`
	ViewCount    int     `json:"view_count"`
}

// Keyword is a search keyword, approved or pending, optionally owned by
// a user.
type Keyword struct {
	ID       int64  `json:"id"`
	Keyword  string `json:"keyword"`
	Approved bool   `json:"approved"`
	Category string `json:"category,omitempty"`
}

// Recommendation is one LLM-suggested search keyword.
type Recommendation struct {
	Keyword  string `json:"keyword"`
	Category string `json:"category"`
}

// KeywordUsage is one row of the cross-user keyword aggregation.
type KeywordUsage struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// RankedArticle is an article with its department ranking components.
type RankedArticle struct {
	Article     Article `json:"article"`
	StoredScore float64 `json:"stored_score"`
	Relevance   float64 `json:"relevance"`
	FinalScore  float64 `json:"final_score"`
}

// TopViewedArticle is one row of the trailing-window view ranking.
type TopViewedArticle struct {
	ArticleID int64  `json:"article_id"`
	Title     string `json:"title"`
	ViewCount int    `json:"view_count"`
}

// FeedbackSummary is the per-article feedback rollup.
type FeedbackSummary struct {
	Likes      int      `json:"likes"`
	Dislikes   int      `json:"dislikes"`
	MyReaction *bool    `json:"my_reaction,omitempty"`
	Comments   []string `json:"comments,omitempty"`
}

// RunStats summarizes one ingestion run.
type RunStats struct {
	Candidates int `json:"candidates"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
	Stored     int `json:"stored"`
}
