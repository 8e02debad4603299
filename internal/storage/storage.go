package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the Store implementation backed by a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

type User struct {
	ID         int64
	Email      string
	Name       string
	Department string
	CreatedAt  time.Time
}

type Article struct {
	ID          int64
	Title       string
	OriginalURL string
	PublishedAt *time.Time
	CreatedAt   time.Time
	Source      string
	Country     string
	Language    string
}

type ArticleEmbedding struct {
	ArticleID int64
	Vector    []byte
}

type Analysis struct {
	ID        int64
	ArticleID int64
	Summary   string
	Insight   string
	Category  string
	Tags      string
	UserID    *int64
	CreatedAt time.Time
}

// AnalysisWithTitle joins an analysis with its article's title for
// building recommendation context.
type AnalysisWithTitle struct {
	Analysis
	Title string
}

type ArticleScore struct {
	ArticleID    int64
	Score        float64
	LikeCount    int
	DislikeCount int
	TextScore    float64
	ViewCount    int
	UpdatedAt    time.Time
}

type Keyword struct {
	ID        int64
	UserID    *int64
	Keyword   string
	Approved  bool
	Category  string
	CreatedAt time.Time
}

type Feedback struct {
	ID           int64
	ArticleID    int64
	UserID       *int64
	Liked        *bool
	FeedbackText string
	CreatedAt    time.Time
}

type ViewLog struct {
	ArticleID  int64
	UserID     *int64
	Department string
}

// ViewAggregate is one row of the trailing-window view ranking.
type ViewAggregate struct {
	ArticleID int64
	Title     string
	ViewCount int
}

// NewSQLiteStore creates a new database connection and initializes the schema
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// Migrations for existing databases.
	migrations := []string{
		"ALTER TABLE articles ADD COLUMN country TEXT",
		"ALTER TABLE articles ADD COLUMN language TEXT",
		"ALTER TABLE keywords ADD COLUMN category TEXT",
	}
	for _, m := range migrations {
		db.Exec(m) // ignore "duplicate column" errors
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// User management

// CreateUser inserts a user and returns its ID. Email is unique,
// case-insensitively.
func (s *SQLiteStore) CreateUser(email, name, department string) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO users (email, name, department) VALUES (?, ?, ?)",
		email, name, department,
	)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	return result.LastInsertId()
}

// GetUserByEmail looks a user up by email, case-insensitively.
func (s *SQLiteStore) GetUserByEmail(email string) (*User, error) {
	var u User
	err := s.db.QueryRow(
		"SELECT id, email, name, department, created_at FROM users WHERE email = ? COLLATE NOCASE",
		email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Department, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Article management

// AddArticle inserts an article and returns its ID. The original URL is
// unique; a second insert for the same URL fails.
func (s *SQLiteStore) AddArticle(article *Article) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO articles (title, original_url, published_at, source, country, language)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		article.Title, article.OriginalURL, article.PublishedAt,
		article.Source, article.Country, article.Language,
	)
	if err != nil {
		return 0, fmt.Errorf("add article: %w", err)
	}
	return result.LastInsertId()
}

// GetArticle fetches a single article by ID
func (s *SQLiteStore) GetArticle(articleID int64) (*Article, error) {
	var a Article
	err := s.db.QueryRow(
		`SELECT id, title, original_url, published_at, created_at, source,
		        COALESCE(country, ''), COALESCE(language, '')
		 FROM articles WHERE id = ?`,
		articleID,
	).Scan(&a.ID, &a.Title, &a.OriginalURL, &a.PublishedAt, &a.CreatedAt,
		&a.Source, &a.Country, &a.Language)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ArticleExistsByURL reports whether an article with this original URL
// has already been stored.
func (s *SQLiteStore) ArticleExistsByURL(url string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM articles WHERE original_url = ?)",
		url,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check article url: %w", err)
	}
	return exists, nil
}

// AllArticles returns every stored article, newest first.
func (s *SQLiteStore) AllArticles() ([]Article, error) {
	rows, err := s.db.Query(
		`SELECT id, title, original_url, published_at, created_at, source,
		        COALESCE(country, ''), COALESCE(language, '')
		 FROM articles ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.Title, &a.OriginalURL, &a.PublishedAt,
			&a.CreatedAt, &a.Source, &a.Country, &a.Language); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// Embedding management

// AddEmbedding stores the encoded vector for an article, replacing any
// previous one.
func (s *SQLiteStore) AddEmbedding(articleID int64, vector []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO article_embeddings (article_id, vector) VALUES (?, ?)
		 ON CONFLICT(article_id) DO UPDATE SET vector = excluded.vector`,
		articleID, vector,
	)
	return err
}

// EmbeddingByArticle returns the encoded vector for one article.
func (s *SQLiteStore) EmbeddingByArticle(articleID int64) ([]byte, error) {
	var vector []byte
	err := s.db.QueryRow(
		"SELECT vector FROM article_embeddings WHERE article_id = ?",
		articleID,
	).Scan(&vector)
	if err != nil {
		return nil, err
	}
	return vector, nil
}

// AllEmbeddings returns every stored embedding.
func (s *SQLiteStore) AllEmbeddings() ([]ArticleEmbedding, error) {
	rows, err := s.db.Query("SELECT article_id, vector FROM article_embeddings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var embeddings []ArticleEmbedding
	for rows.Next() {
		var e ArticleEmbedding
		if err := rows.Scan(&e.ArticleID, &e.Vector); err != nil {
			return nil, err
		}
		embeddings = append(embeddings, e)
	}
	return embeddings, rows.Err()
}

// Analysis management

// AddAnalysis stores the AI analysis for an article
func (s *SQLiteStore) AddAnalysis(analysis *Analysis) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO article_analyses (article_id, summary, insight, category, tags, user_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		analysis.ArticleID, analysis.Summary, analysis.Insight,
		analysis.Category, analysis.Tags, analysis.UserID,
	)
	if err != nil {
		return 0, fmt.Errorf("add analysis: %w", err)
	}
	return result.LastInsertId()
}

// AnalysisByArticle returns the analysis for one article.
func (s *SQLiteStore) AnalysisByArticle(articleID int64) (*Analysis, error) {
	var a Analysis
	err := s.db.QueryRow(
		`SELECT id, article_id, summary, COALESCE(insight, ''), category,
		        COALESCE(tags, ''), user_id, created_at
		 FROM article_analyses WHERE article_id = ?`,
		articleID,
	).Scan(&a.ID, &a.ArticleID, &a.Summary, &a.Insight, &a.Category,
		&a.Tags, &a.UserID, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// AnalysesCreatedAfter returns analyses created after t, newest first,
// each joined with its article title.
func (s *SQLiteStore) AnalysesCreatedAfter(t time.Time) ([]AnalysisWithTitle, error) {
	rows, err := s.db.Query(
		`SELECT an.id, an.article_id, an.summary, COALESCE(an.insight, ''),
		        an.category, COALESCE(an.tags, ''), an.user_id, an.created_at,
		        ar.title
		 FROM article_analyses an
		 JOIN articles ar ON ar.id = an.article_id
		 WHERE an.created_at > ?
		 ORDER BY an.created_at DESC`,
		t,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var analyses []AnalysisWithTitle
	for rows.Next() {
		var a AnalysisWithTitle
		if err := rows.Scan(&a.ID, &a.ArticleID, &a.Summary, &a.Insight,
			&a.Category, &a.Tags, &a.UserID, &a.CreatedAt, &a.Title); err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

// Score management

// ScoreByArticle returns the stored score row for one article.
func (s *SQLiteStore) ScoreByArticle(articleID int64) (*ArticleScore, error) {
	var sc ArticleScore
	err := s.db.QueryRow(
		`SELECT article_id, score, like_count, dislike_count, text_score, view_count, updated_at
		 FROM article_scores WHERE article_id = ?`,
		articleID,
	).Scan(&sc.ArticleID, &sc.Score, &sc.LikeCount, &sc.DislikeCount,
		&sc.TextScore, &sc.ViewCount, &sc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// UpsertScore creates or replaces the score row for an article.
func (s *SQLiteStore) UpsertScore(score *ArticleScore) error {
	_, err := s.db.Exec(
		`INSERT INTO article_scores (article_id, score, like_count, dislike_count, text_score, view_count, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(article_id) DO UPDATE SET
		   score = excluded.score,
		   like_count = excluded.like_count,
		   dislike_count = excluded.dislike_count,
		   text_score = excluded.text_score,
		   view_count = excluded.view_count,
		   updated_at = CURRENT_TIMESTAMP`,
		score.ArticleID, score.Score, score.LikeCount, score.DislikeCount,
		score.TextScore, score.ViewCount,
	)
	return err
}

// Keyword management

// AddKeyword inserts a keyword row and returns its ID.
func (s *SQLiteStore) AddKeyword(keyword *Keyword) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO keywords (user_id, keyword, approved, category) VALUES (?, ?, ?, ?)",
		keyword.UserID, keyword.Keyword, keyword.Approved, keyword.Category,
	)
	if err != nil {
		return 0, fmt.Errorf("add keyword: %w", err)
	}
	return result.LastInsertId()
}

// DeleteKeyword removes a keyword by ID.
func (s *SQLiteStore) DeleteKeyword(keywordID int64) error {
	_, err := s.db.Exec("DELETE FROM keywords WHERE id = ?", keywordID)
	return err
}

// ApprovedKeywords returns the approved keywords owned by the user with
// the given email. An empty email returns every approved keyword.
func (s *SQLiteStore) ApprovedKeywords(ownerEmail string) ([]Keyword, error) {
	query := `SELECT k.id, k.user_id, k.keyword, k.approved, COALESCE(k.category, ''), k.created_at
	          FROM keywords k`
	args := []any{}
	if ownerEmail != "" {
		query += ` JOIN users u ON u.id = k.user_id
		           WHERE k.approved = 1 AND u.email = ? COLLATE NOCASE`
		args = append(args, ownerEmail)
	} else {
		query += " WHERE k.approved = 1"
	}
	query += " ORDER BY k.id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanKeywords(rows)
}

// ApprovedKeywordExists reports whether any approved keyword matches the
// text, case-insensitively.
func (s *SQLiteStore) ApprovedKeywordExists(text string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM keywords WHERE approved = 1 AND keyword = ? COLLATE NOCASE)",
		text,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check approved keyword: %w", err)
	}
	return exists, nil
}

// UserKeywordExists reports whether the user already owns this keyword,
// case-insensitively, approved or not.
func (s *SQLiteStore) UserKeywordExists(ownerEmail, text string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		`SELECT EXISTS(
		   SELECT 1 FROM keywords k
		   JOIN users u ON u.id = k.user_id
		   WHERE u.email = ? COLLATE NOCASE AND k.keyword = ? COLLATE NOCASE)`,
		ownerEmail, text,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user keyword: %w", err)
	}
	return exists, nil
}

// AllKeywords returns every keyword row.
func (s *SQLiteStore) AllKeywords() ([]Keyword, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, keyword, approved, COALESCE(category, ''), created_at
		 FROM keywords ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanKeywords(rows)
}

func scanKeywords(rows *sql.Rows) ([]Keyword, error) {
	var keywords []Keyword
	for rows.Next() {
		var k Keyword
		if err := rows.Scan(&k.ID, &k.UserID, &k.Keyword, &k.Approved,
			&k.Category, &k.CreatedAt); err != nil {
			return nil, err
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}

// Feedback management

// AddFeedback inserts a feedback row and returns its ID.
func (s *SQLiteStore) AddFeedback(feedback *Feedback) (int64, error) {
	var text any
	if feedback.FeedbackText != "" {
		text = feedback.FeedbackText
	}
	result, err := s.db.Exec(
		"INSERT INTO article_feedback (article_id, user_id, liked, feedback_text) VALUES (?, ?, ?, ?)",
		feedback.ArticleID, feedback.UserID, feedback.Liked, text,
	)
	if err != nil {
		return 0, fmt.Errorf("add feedback: %w", err)
	}
	return result.LastInsertId()
}

// UpdateFeedbackLiked flips an existing reaction row.
func (s *SQLiteStore) UpdateFeedbackLiked(feedbackID int64, liked bool) error {
	_, err := s.db.Exec("UPDATE article_feedback SET liked = ? WHERE id = ?", liked, feedbackID)
	return err
}

// DeleteFeedback removes a feedback row.
func (s *SQLiteStore) DeleteFeedback(feedbackID int64) error {
	_, err := s.db.Exec("DELETE FROM article_feedback WHERE id = ?", feedbackID)
	return err
}

// FeedbackByArticle returns all feedback for an article, newest first.
func (s *SQLiteStore) FeedbackByArticle(articleID int64) ([]Feedback, error) {
	rows, err := s.db.Query(
		`SELECT id, article_id, user_id, liked, COALESCE(feedback_text, ''), created_at
		 FROM article_feedback WHERE article_id = ? ORDER BY created_at DESC, id DESC`,
		articleID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var feedback []Feedback
	for rows.Next() {
		var f Feedback
		if err := rows.Scan(&f.ID, &f.ArticleID, &f.UserID, &f.Liked,
			&f.FeedbackText, &f.CreatedAt); err != nil {
			return nil, err
		}
		feedback = append(feedback, f)
	}
	return feedback, rows.Err()
}

// ReactionByUser returns the user's current like/dislike row for an
// article, or sql.ErrNoRows when they have not reacted.
func (s *SQLiteStore) ReactionByUser(articleID int64, email string) (*Feedback, error) {
	var f Feedback
	err := s.db.QueryRow(
		`SELECT f.id, f.article_id, f.user_id, f.liked, COALESCE(f.feedback_text, ''), f.created_at
		 FROM article_feedback f
		 JOIN users u ON u.id = f.user_id
		 WHERE f.article_id = ? AND u.email = ? COLLATE NOCASE AND f.liked IS NOT NULL
		 ORDER BY f.created_at DESC, f.id DESC
		 LIMIT 1`,
		articleID, email,
	).Scan(&f.ID, &f.ArticleID, &f.UserID, &f.Liked, &f.FeedbackText, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// CountFeedback counts reactions of one polarity for an article.
func (s *SQLiteStore) CountFeedback(articleID int64, liked bool) (int, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM article_feedback WHERE article_id = ? AND liked = ?",
		articleID, liked,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count feedback: %w", err)
	}
	return count, nil
}

// View log management

// AddViewLog appends one view event.
func (s *SQLiteStore) AddViewLog(entry *ViewLog) error {
	var dept any
	if entry.Department != "" {
		dept = entry.Department
	}
	_, err := s.db.Exec(
		"INSERT INTO user_article_logs (article_id, user_id, department) VALUES (?, ?, ?)",
		entry.ArticleID, entry.UserID, dept,
	)
	return err
}

// TopViewedSince ranks articles by view count within the trailing window,
// optionally restricted to one department's logs.
func (s *SQLiteStore) TopViewedSince(department string, since time.Time, limit int) ([]ViewAggregate, error) {
	query := `SELECT l.article_id, a.title, COUNT(*) AS views
	          FROM user_article_logs l
	          JOIN articles a ON a.id = l.article_id
	          WHERE l.viewed_at >= ?`
	args := []any{since}
	if department != "" {
		query += " AND l.department = ?"
		args = append(args, department)
	}
	query += " GROUP BY l.article_id, a.title ORDER BY views DESC, l.article_id LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ranked []ViewAggregate
	for rows.Next() {
		var v ViewAggregate
		if err := rows.Scan(&v.ArticleID, &v.Title, &v.ViewCount); err != nil {
			return nil, err
		}
		ranked = append(ranked, v)
	}
	return ranked, rows.Err()
}
