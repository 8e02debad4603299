package scoring

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	embedding "github.com/matthewjhunter/go-embedding"
	"github.com/rs/zerolog"

	"github.com/seojinpark/newsight/internal/storage"
)

// ViewSource supplies the view count used in the score formula. The
// default implementation returns 0 for every article; wiring the view
// logs in changes ranking weights, so it stays an explicit decision.
type ViewSource interface {
	ViewCount(articleID int64) (int, error)
}

type zeroViews struct{}

func (zeroViews) ViewCount(int64) (int, error) { return 0, nil }

// Scorer computes and persists per-article engagement scores.
type Scorer struct {
	store    storage.Store
	embedder embedding.Embedder
	views    ViewSource
	logger   zerolog.Logger
}

// NewScorer wires a scorer. A nil views source counts every article as
// unviewed.
func NewScorer(store storage.Store, embedder embedding.Embedder, views ViewSource, logger zerolog.Logger) *Scorer {
	if views == nil {
		views = zeroViews{}
	}
	return &Scorer{store: store, embedder: embedder, views: views, logger: logger}
}

// Normalize maps a raw score onto the 0..100 scale. Non-finite input
// yields 0; everything else clamps to [-100, 100] before shifting.
func Normalize(raw float64) float64 {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}
	if raw > 100 {
		raw = 100
	}
	if raw < -100 {
		raw = -100
	}
	return (raw + 100) / 2
}

// UpdateScore recomputes the article's score from current feedback
// counts, keyword relevance and views, persists it and returns the row.
func (s *Scorer) UpdateScore(ctx context.Context, articleID int64) (*storage.ArticleScore, error) {
	likes, err := s.store.CountFeedback(articleID, true)
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}
	dislikes, err := s.store.CountFeedback(articleID, false)
	if err != nil {
		return nil, fmt.Errorf("count dislikes: %w", err)
	}

	textScore := s.textRelevance(ctx, articleID)

	views, err := s.views.ViewCount(articleID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("article", articleID).Msg("view count lookup failed")
		views = 0
	}

	raw := float64(likes)*2 - float64(dislikes) + textScore + math.Log(float64(views)+1)

	score := &storage.ArticleScore{
		ArticleID:    articleID,
		Score:        Normalize(raw),
		LikeCount:    likes,
		DislikeCount: dislikes,
		TextScore:    textScore,
		ViewCount:    views,
	}
	if err := s.store.UpsertScore(score); err != nil {
		return nil, fmt.Errorf("persist score: %w", err)
	}
	return score, nil
}

// GetScore returns the stored score for an article. An unscored article
// yields a zero-valued row; nothing is persisted on the read path.
func (s *Scorer) GetScore(articleID int64) (*storage.ArticleScore, error) {
	score, err := s.store.ScoreByArticle(articleID)
	if errors.Is(err, sql.ErrNoRows) {
		return &storage.ArticleScore{ArticleID: articleID}, nil
	}
	if err != nil {
		return nil, err
	}
	return score, nil
}

// textRelevance averages the cosine similarity between the article's
// embedding and each approved keyword's embedding, scaled by 10.
// Keywords whose embedding fails are left out of the average; a missing
// article embedding contributes 0.
func (s *Scorer) textRelevance(ctx context.Context, articleID int64) float64 {
	raw, err := s.store.EmbeddingByArticle(articleID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn().Err(err).Int64("article", articleID).Msg("embedding lookup failed")
		}
		return 0
	}
	articleVec := embedding.DecodeFloat32s(raw)

	keywords, err := s.store.ApprovedKeywords("")
	if err != nil {
		s.logger.Warn().Err(err).Msg("approved keyword lookup failed")
		return 0
	}
	if len(keywords) == 0 {
		return 0
	}

	var sum float64
	counted := 0
	for _, kw := range keywords {
		vec, err := embedding.Single(ctx, s.embedder, kw.Keyword)
		if err != nil {
			s.logger.Warn().Err(err).Str("keyword", kw.Keyword).Msg("keyword embedding failed")
			continue
		}
		sum += Cosine(articleVec, vec)
		counted++
	}
	if counted == 0 {
		return 0
	}
	return sum / float64(counted) * 10
}
