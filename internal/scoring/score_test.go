package scoring

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"path/filepath"
	"testing"

	embedding "github.com/matthewjhunter/go-embedding"
	"github.com/rs/zerolog"

	"github.com/seojinpark/newsight/internal/storage"
)

type mockEmbedder struct {
	vec     []float32
	failFor map[string]bool
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if m.failFor[text] {
			return nil, errors.New("embed failed")
		}
		out[i] = m.vec
	}
	return out, nil
}

func (m *mockEmbedder) Model() string { return "mock" }

func newTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  float64
		want float64
	}{
		{"zero", 0, 50},
		{"positive", 13, 56.5},
		{"negative", -50, 25},
		{"upper clamp", 150, 100},
		{"lower clamp", -150, 0},
		{"at max", 100, 100},
		{"at min", -100, 0},
		{"nan", math.NaN(), 0},
		{"positive inf", math.Inf(1), 0},
		{"negative inf", math.Inf(-1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw); got != tt.want {
				t.Errorf("Normalize(%f) = %f, want %f", tt.raw, got, tt.want)
			}
		})
	}
}

func TestUpdateScore(t *testing.T) {
	store := newTestStore(t)

	articleID, _ := store.AddArticle(&storage.Article{
		Title: "A", OriginalURL: "https://example.com/a", Source: "Naver",
	})

	// Article embedding identical to the keyword embedding: relevance 10
	vec := []float32{1, 0, 0}
	store.AddEmbedding(articleID, embedding.EncodeFloat32s(vec))
	store.AddKeyword(&storage.Keyword{Keyword: "ai", Approved: true})

	liked, disliked := true, false
	store.AddFeedback(&storage.Feedback{ArticleID: articleID, Liked: &liked})
	store.AddFeedback(&storage.Feedback{ArticleID: articleID, Liked: &liked})
	store.AddFeedback(&storage.Feedback{ArticleID: articleID, Liked: &disliked})

	scorer := NewScorer(store, &mockEmbedder{vec: vec}, nil, zerolog.Nop())

	score, err := scorer.UpdateScore(context.Background(), articleID)
	if err != nil {
		t.Fatalf("UpdateScore failed: %v", err)
	}

	// raw = 2*2 - 1 + 10 + ln(1) = 13
	if math.Abs(score.Score-56.5) > 1e-9 {
		t.Errorf("Score = %f, want 56.5", score.Score)
	}
	if score.LikeCount != 2 || score.DislikeCount != 1 {
		t.Errorf("Counts = %d/%d, want 2/1", score.LikeCount, score.DislikeCount)
	}
	if math.Abs(score.TextScore-10) > 1e-9 {
		t.Errorf("TextScore = %f, want 10", score.TextScore)
	}

	// The row is persisted
	stored, err := store.ScoreByArticle(articleID)
	if err != nil {
		t.Fatalf("ScoreByArticle failed: %v", err)
	}
	if stored.Score != score.Score {
		t.Errorf("Persisted score %f differs from returned %f", stored.Score, score.Score)
	}
}

func TestUpdateScoreSkipsFailedKeywordEmbeddings(t *testing.T) {
	store := newTestStore(t)

	articleID, _ := store.AddArticle(&storage.Article{
		Title: "A", OriginalURL: "https://example.com/a", Source: "Naver",
	})
	vec := []float32{1, 0, 0}
	store.AddEmbedding(articleID, embedding.EncodeFloat32s(vec))
	store.AddKeyword(&storage.Keyword{Keyword: "good", Approved: true})
	store.AddKeyword(&storage.Keyword{Keyword: "broken", Approved: true})

	embedder := &mockEmbedder{vec: vec, failFor: map[string]bool{"broken": true}}
	scorer := NewScorer(store, embedder, nil, zerolog.Nop())

	score, err := scorer.UpdateScore(context.Background(), articleID)
	if err != nil {
		t.Fatalf("UpdateScore failed: %v", err)
	}

	// The failed keyword is left out of the average, not counted as 0
	if math.Abs(score.TextScore-10) > 1e-9 {
		t.Errorf("TextScore = %f, want 10", score.TextScore)
	}
}

func TestUpdateScoreWithoutEmbeddingOrKeywords(t *testing.T) {
	store := newTestStore(t)

	articleID, _ := store.AddArticle(&storage.Article{
		Title: "A", OriginalURL: "https://example.com/a", Source: "Naver",
	})

	scorer := NewScorer(store, &mockEmbedder{vec: []float32{1}}, nil, zerolog.Nop())

	score, err := scorer.UpdateScore(context.Background(), articleID)
	if err != nil {
		t.Fatalf("UpdateScore failed: %v", err)
	}
	if score.TextScore != 0 {
		t.Errorf("TextScore = %f, want 0", score.TextScore)
	}
	if score.Score != 50 {
		t.Errorf("Score = %f, want 50", score.Score)
	}
}

func TestGetScoreDoesNotPersist(t *testing.T) {
	store := newTestStore(t)

	articleID, _ := store.AddArticle(&storage.Article{
		Title: "A", OriginalURL: "https://example.com/a", Source: "Naver",
	})

	scorer := NewScorer(store, &mockEmbedder{vec: []float32{1}}, nil, zerolog.Nop())

	score, err := scorer.GetScore(articleID)
	if err != nil {
		t.Fatalf("GetScore failed: %v", err)
	}
	if score.Score != 0 || score.LikeCount != 0 {
		t.Errorf("Expected zero-valued score, got %+v", score)
	}

	if _, err := store.ScoreByArticle(articleID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetScore must not persist a row, lookup got %v", err)
	}
}
