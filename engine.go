package newsight

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/seojinpark/newsight/internal/ai"
	"github.com/seojinpark/newsight/internal/config"
	"github.com/seojinpark/newsight/internal/feedback"
	"github.com/seojinpark/newsight/internal/keywords"
	"github.com/seojinpark/newsight/internal/pipeline"
	"github.com/seojinpark/newsight/internal/scoring"
	"github.com/seojinpark/newsight/internal/sources"
	"github.com/seojinpark/newsight/internal/storage"
)

// Default department ranking size.
const defaultTopLimit = 5

// Engine is the public API for newsight's trend sensing pipeline. It
// wraps storage, the ingestion runner, scoring, ranking, keyword
// recommendation and the feedback lifecycle.
type Engine struct {
	cfg         *config.Config
	logger      zerolog.Logger
	store       storage.Store
	runner      *pipeline.Runner
	dispatcher  *pipeline.Dispatcher
	scorer      *scoring.Scorer
	ranker      *scoring.Ranker
	recommender *keywords.Recommender
	keywords    *keywords.Manager
	feedback    *feedback.Service
}

// NewEngine creates an engine from config. AI clients are created
// eagerly but only contact ollama when called.
func NewEngine(cfg *config.Config, logger zerolog.Logger) (*Engine, error) {
	store, err := storage.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	embedder, err := ai.NewOllamaEmbedder(cfg.Ollama.BaseURL, cfg.Ollama.EmbedModel)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	analysisLLM, err := ai.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.AnalysisModel, 0.3)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create analysis client: %w", err)
	}
	recommendLLM, err := ai.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.RecommendModel, 0.7)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create recommendation client: %w", err)
	}

	search := sources.NewSearchClient(cfg.Search.BaseURL, cfg.Search.ClientID,
		cfg.Search.ClientSecret, cfg.Search.SourceName, logger)
	feedSources := make([]pipeline.FeedPuller, 0, len(cfg.Feeds))
	for _, f := range cfg.Feeds {
		feedSources = append(feedSources, sources.NewFeedSource(f.Name, f.URL, logger))
	}
	scraper := sources.NewScraper(cfg.ScrapeTimeout())

	deduper := pipeline.NewDeduper(store, embedder, cfg.Pipeline.DuplicateThreshold, logger)
	runner := pipeline.NewRunner(store, search, feedSources, scraper, deduper,
		ai.NewAnalyzer(analysisLLM), cfg.Pipeline.PerSourceLimit,
		cfg.Pipeline.Country, cfg.Pipeline.Language, logger)

	scorer := scoring.NewScorer(store, embedder, nil, logger)

	e := &Engine{
		cfg:         cfg,
		logger:      logger,
		store:       store,
		runner:      runner,
		scorer:      scorer,
		ranker:      scoring.NewRanker(store, logger),
		recommender: keywords.NewRecommender(store, recommendLLM, cfg.RecommendCacheTTL(), cfg.Recommend.ContextLimit, cfg.Recommend.WindowDays, logger),
		keywords:    keywords.NewManager(store),
		feedback:    feedback.NewService(store, scorer, logger),
	}
	e.dispatcher = pipeline.NewDispatcher(func(ctx context.Context, owner string) {
		if _, err := runner.Run(ctx, owner); err != nil {
			logger.Error().Err(err).Str("owner", owner).Msg("pipeline run failed")
		}
	}, cfg.Pipeline.MaxConcurrentRuns, cfg.RunTimeout(), logger)

	return e, nil
}

// Run executes one ingestion run synchronously. An empty owner email
// runs against the global approved keyword set.
func (e *Engine) Run(ctx context.Context, ownerEmail string) (*RunStats, error) {
	stats, err := e.runner.Run(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	return &RunStats{
		Candidates: stats.Candidates,
		Duplicates: stats.Duplicates,
		Skipped:    stats.Skipped,
		Stored:     stats.Stored,
	}, nil
}

// TriggerRun starts an asynchronous run for the owner. Reports whether
// a run was started; a run already in flight for the same owner or
// exhausted capacity rejects the trigger.
func (e *Engine) TriggerRun(ownerEmail string) bool {
	return e.dispatcher.Trigger(ownerEmail)
}

// WaitForRuns blocks until all triggered runs finish.
func (e *Engine) WaitForRuns() {
	e.dispatcher.Wait()
}

// RecommendKeywords suggests up to limit fresh search keywords for a
// department. Failures degrade to an empty list.
func (e *Engine) RecommendKeywords(ctx context.Context, department string, limit int) []Recommendation {
	items := e.recommender.Recommend(ctx, department, limit)
	out := make([]Recommendation, len(items))
	for i, r := range items {
		out[i] = Recommendation{Keyword: r.Keyword, Category: r.Category}
	}
	return out
}

// ApproveKeyword turns a suggestion into an approved keyword for the
// user. Approving a keyword the user already owns is a no-op.
func (e *Engine) ApproveKeyword(ownerEmail, keyword, category string) error {
	return e.recommender.Approve(ownerEmail, keyword, category)
}

// CreateKeyword registers an approved keyword directly. A duplicate, in
// any case form, is an error.
func (e *Engine) CreateKeyword(ownerEmail, keyword, category string) (*Keyword, error) {
	kw, err := e.keywords.Create(ownerEmail, keyword, category)
	if err != nil {
		return nil, err
	}
	result := keywordFromInternal(*kw)
	return &result, nil
}

// Keywords lists the owner's approved keywords; an empty email lists
// the global approved set.
func (e *Engine) Keywords(ownerEmail string) ([]Keyword, error) {
	internal, err := e.keywords.List(ownerEmail)
	if err != nil {
		return nil, err
	}
	out := make([]Keyword, len(internal))
	for i, kw := range internal {
		out[i] = keywordFromInternal(kw)
	}
	return out, nil
}

// DeleteKeyword removes a keyword by ID.
func (e *Engine) DeleteKeyword(keywordID int64) error {
	return e.keywords.Delete(keywordID)
}

// OtherUsersKeywords aggregates keywords owned by everyone except the
// current user, case-insensitively, most used first.
func (e *Engine) OtherUsersKeywords(currentEmail string) ([]KeywordUsage, error) {
	counts, err := e.keywords.OtherUsers(currentEmail)
	if err != nil {
		return nil, err
	}
	out := make([]KeywordUsage, len(counts))
	for i, c := range counts {
		out[i] = KeywordUsage{Keyword: c.Keyword, Count: c.Count}
	}
	return out, nil
}

// UpdateScore recomputes and persists an article's score.
func (e *Engine) UpdateScore(ctx context.Context, articleID int64) (*ArticleScore, error) {
	score, err := e.scorer.UpdateScore(ctx, articleID)
	if err != nil {
		return nil, err
	}
	result := scoreFromInternal(score)
	return &result, nil
}

// Score returns the stored score for an article, or a zero-valued score
// for an unscored one. Nothing is persisted on this path.
func (e *Engine) Score(articleID int64) (*ArticleScore, error) {
	score, err := e.scorer.GetScore(articleID)
	if err != nil {
		return nil, err
	}
	result := scoreFromInternal(score)
	return &result, nil
}

// TopArticles ranks stored articles for a department by blending the
// engagement score with interest relevance. A department without
// configured interest rules has no ranking and gets an empty list.
func (e *Engine) TopArticles(department string, limit int) ([]RankedArticle, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	interests := e.cfg.InterestMap()[department]

	ranked, err := e.ranker.TopN(interests, limit)
	if err != nil {
		return nil, err
	}
	out := make([]RankedArticle, len(ranked))
	for i, r := range ranked {
		out[i] = RankedArticle{
			Article:     articleFromInternal(r.Article),
			StoredScore: r.StoredScore,
			Relevance:   r.Relevance,
			FinalScore:  r.FinalScore,
		}
	}
	return out, nil
}

// TopViewedArticles ranks articles by views over the trailing window.
// days and limit fall back to 7 and 5 when not positive.
func (e *Engine) TopViewedArticles(department string, days, limit int) ([]TopViewedArticle, error) {
	if days <= 0 {
		days = 7
	}
	if limit <= 0 {
		limit = defaultTopLimit
	}

	ranked, err := e.ranker.TopViewed(department, days, limit)
	if err != nil {
		return nil, err
	}
	out := make([]TopViewedArticle, len(ranked))
	for i, v := range ranked {
		out[i] = TopViewedArticle{ArticleID: v.ArticleID, Title: v.Title, ViewCount: v.ViewCount}
	}
	return out, nil
}

// SubmitReaction records a like or dislike with toggle semantics and
// rescores the article.
func (e *Engine) SubmitReaction(ctx context.Context, articleID int64, email string, liked bool) error {
	return e.feedback.React(ctx, articleID, email, liked)
}

// SubmitComment appends a free-text comment and rescores the article.
func (e *Engine) SubmitComment(ctx context.Context, articleID int64, email, text string) error {
	return e.feedback.Comment(ctx, articleID, email, text)
}

// GetFeedbackSummary returns like/dislike counts, recent comments and
// the caller's own reaction for an article.
func (e *Engine) GetFeedbackSummary(articleID int64, email string) (*FeedbackSummary, error) {
	summary, err := e.feedback.Summary(articleID, email)
	if err != nil {
		return nil, err
	}

	result := &FeedbackSummary{
		Likes:      summary.Likes,
		Dislikes:   summary.Dislikes,
		MyReaction: summary.MyReaction,
	}
	for _, c := range summary.Comments {
		result.Comments = append(result.Comments, c.FeedbackText)
	}
	return result, nil
}

// RecordView appends one view event. The user email is optional; a
// known user's department fills in when none is given.
func (e *Engine) RecordView(articleID int64, email, department string) error {
	entry := &storage.ViewLog{ArticleID: articleID, Department: department}
	if email != "" {
		user, err := e.store.GetUserByEmail(email)
		if err != nil {
			return fmt.Errorf("resolve user %s: %w", email, err)
		}
		entry.UserID = &user.ID
		if entry.Department == "" {
			entry.Department = user.Department
		}
	}
	return e.store.AddViewLog(entry)
}

// Articles returns every stored article, newest first.
func (e *Engine) Articles() ([]Article, error) {
	internal, err := e.store.AllArticles()
	if err != nil {
		return nil, err
	}
	out := make([]Article, len(internal))
	for i, a := range internal {
		out[i] = articleFromInternal(a)
	}
	return out, nil
}

// Article returns one article by ID.
func (e *Engine) Article(articleID int64) (*Article, error) {
	a, err := e.store.GetArticle(articleID)
	if err != nil {
		return nil, err
	}
	result := articleFromInternal(*a)
	return &result, nil
}

// AnalysisFor returns the stored analysis of one article.
func (e *Engine) AnalysisFor(articleID int64) (*Analysis, error) {
	a, err := e.store.AnalysisByArticle(articleID)
	if err != nil {
		return nil, err
	}
	return &Analysis{
		ArticleID: a.ArticleID,
		Summary:   a.Summary,
		Insight:   a.Insight,
		Category:  a.Category,
		Tags:      a.Tags,
		CreatedAt: a.CreatedAt,
	}, nil
}

// CreateUser registers a user so keyword ownership and view logging can
// resolve. There is no authentication.
func (e *Engine) CreateUser(email, name, department string) (int64, error) {
	return e.store.CreateUser(email, name, department)
}

// Close releases all resources held by the engine.
func (e *Engine) Close() error {
	e.dispatcher.Wait()
	return e.store.Close()
}

// --- internal type conversion helpers ---

func articleFromInternal(a storage.Article) Article {
	return Article{
		ID:          a.ID,
		Title:       a.Title,
		OriginalURL: a.OriginalURL,
		PublishedAt: a.PublishedAt,
		CreatedAt:   a.CreatedAt,
		Source:      a.Source,
		Country:     a.Country,
		Language:    a.Language,
	}
}

func keywordFromInternal(kw storage.Keyword) Keyword {
	return Keyword{
		ID:       kw.ID,
		Keyword:  kw.Keyword,
		Approved: kw.Approved,
		Category: kw.Category,
	}
}

func scoreFromInternal(s *storage.ArticleScore) ArticleScore {
	return ArticleScore{
		ArticleID:    s.ArticleID,
		Score:        s.Score,
		LikeCount:    s.LikeCount,
		DislikeCount: s.DislikeCount,
		TextScore:    s.TextScore,
		ViewCount:    s.ViewCount,
	}
}
