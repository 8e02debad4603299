package storage

import "time"

// Store defines the storage interface for newsight's data layer.
type Store interface {
	Close() error

	// Users
	CreateUser(email, name, department string) (int64, error)
	GetUserByEmail(email string) (*User, error)

	// Articles
	AddArticle(article *Article) (int64, error)
	GetArticle(articleID int64) (*Article, error)
	ArticleExistsByURL(url string) (bool, error)
	AllArticles() ([]Article, error)

	// Embeddings
	AddEmbedding(articleID int64, vector []byte) error
	EmbeddingByArticle(articleID int64) ([]byte, error)
	AllEmbeddings() ([]ArticleEmbedding, error)

	// Analyses
	AddAnalysis(analysis *Analysis) (int64, error)
	AnalysisByArticle(articleID int64) (*Analysis, error)
	AnalysesCreatedAfter(t time.Time) ([]AnalysisWithTitle, error)

	// Scores
	ScoreByArticle(articleID int64) (*ArticleScore, error)
	UpsertScore(score *ArticleScore) error

	// Keywords
	AddKeyword(keyword *Keyword) (int64, error)
	DeleteKeyword(keywordID int64) error
	ApprovedKeywords(ownerEmail string) ([]Keyword, error)
	ApprovedKeywordExists(text string) (bool, error)
	UserKeywordExists(ownerEmail, text string) (bool, error)
	AllKeywords() ([]Keyword, error)

	// Feedback
	AddFeedback(feedback *Feedback) (int64, error)
	UpdateFeedbackLiked(feedbackID int64, liked bool) error
	DeleteFeedback(feedbackID int64) error
	FeedbackByArticle(articleID int64) ([]Feedback, error)
	ReactionByUser(articleID int64, email string) (*Feedback, error)
	CountFeedback(articleID int64, liked bool) (int, error)

	// View logs
	AddViewLog(entry *ViewLog) error
	TopViewedSince(department string, since time.Time, limit int) ([]ViewAggregate, error)
}
