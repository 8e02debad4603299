package scoring

import (
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"time"

	embedding "github.com/matthewjhunter/go-embedding"
	"github.com/rs/zerolog"

	"github.com/seojinpark/newsight/internal/storage"
)

// Weights for blending the stored engagement score with department
// interest relevance.
const (
	storedScoreWeight float64 = 0.7
	relevanceWeight   float64 = 30
)

const pseudoEmbeddingDims = 256

// RankedArticle is one row of a department ranking.
type RankedArticle struct {
	Article     storage.Article
	StoredScore float64
	Relevance   float64
	FinalScore  float64
}

// Ranker orders stored articles for a department by blending engagement
// scores with interest-keyword relevance.
type Ranker struct {
	store  storage.Store
	logger zerolog.Logger
}

// NewRanker wires a ranker to the store.
func NewRanker(store storage.Store, logger zerolog.Logger) *Ranker {
	return &Ranker{store: store, logger: logger}
}

// pseudoEmbedding derives a deterministic vector from a keyword. The
// same keyword always maps to the same vector, so rankings are stable
// without calling an embedding model per request.
func pseudoEmbedding(keyword string) []float32 {
	h := fnv.New32a()
	h.Write([]byte(keyword))
	base := float32(h.Sum32()%100 + 1)

	vec := make([]float32, pseudoEmbeddingDims)
	for i := range vec {
		vec[i] = (base + float32(i)) / 300.0
	}
	return vec
}

// TopN returns the highest-ranked articles for the given interest
// keywords. A department with no interest keywords has no ranking and
// gets an empty list. Articles without an embedding contribute
// relevance 0 but still rank on their stored score; an article without
// a stored score ranks on relevance alone.
func (r *Ranker) TopN(interests []string, limit int) ([]RankedArticle, error) {
	if len(interests) == 0 {
		return nil, nil
	}

	articles, err := r.store.AllArticles()
	if err != nil {
		return nil, fmt.Errorf("load articles: %w", err)
	}
	embeddings, err := r.store.AllEmbeddings()
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}
	vecByArticle := make(map[int64][]byte, len(embeddings))
	for _, emb := range embeddings {
		vecByArticle[emb.ArticleID] = emb.Vector
	}

	keywordVecs := make([][]float32, len(interests))
	for i, kw := range interests {
		keywordVecs[i] = pseudoEmbedding(kw)
	}

	ranked := make([]RankedArticle, 0, len(articles))
	for _, article := range articles {
		var stored float64
		score, err := r.store.ScoreByArticle(article.ID)
		if err == nil {
			stored = score.Score
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load score for article %d: %w", article.ID, err)
		}

		relevance := 0.0
		if raw, ok := vecByArticle[article.ID]; ok {
			articleVec := embedding.DecodeFloat32s(raw)
			var sum float64
			for _, kv := range keywordVecs {
				sum += Cosine(articleVec, kv)
			}
			relevance = sum / float64(len(keywordVecs))
		}

		ranked = append(ranked, RankedArticle{
			Article:     article,
			StoredScore: stored,
			Relevance:   relevance,
			FinalScore:  stored*storedScoreWeight + relevance*relevanceWeight,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// TopViewed ranks articles by view count over the trailing window,
// optionally scoped to one department's view logs.
func (r *Ranker) TopViewed(department string, days, limit int) ([]storage.ViewAggregate, error) {
	since := time.Now().AddDate(0, 0, -days)
	return r.store.TopViewedSince(department, since, limit)
}
