package scoring

import (
	"testing"

	embedding "github.com/matthewjhunter/go-embedding"
	"github.com/rs/zerolog"

	"github.com/seojinpark/newsight/internal/storage"
)

func TestPseudoEmbeddingDeterminism(t *testing.T) {
	a := pseudoEmbedding("kubernetes")
	b := pseudoEmbedding("kubernetes")
	c := pseudoEmbedding("finance")

	if len(a) != pseudoEmbeddingDims {
		t.Fatalf("Expected %d dims, got %d", pseudoEmbeddingDims, len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Same keyword produced different vectors at dim %d", i)
		}
	}

	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("Different keywords produced identical vectors")
	}

	if a[0] < 1.0/300 || a[0] > 100.0/300 {
		t.Errorf("Base component out of range: %f", a[0])
	}
}

func TestTopN(t *testing.T) {
	store := newTestStore(t)
	ranker := NewRanker(store, zerolog.Nop())

	vec := embedding.EncodeFloat32s(pseudoEmbedding("cloud"))

	high, _ := store.AddArticle(&storage.Article{
		Title: "High", OriginalURL: "https://example.com/high", Source: "Naver",
	})
	store.AddEmbedding(high, vec)
	store.UpsertScore(&storage.ArticleScore{ArticleID: high, Score: 90})

	low, _ := store.AddArticle(&storage.Article{
		Title: "Low", OriginalURL: "https://example.com/low", Source: "Naver",
	})
	store.AddEmbedding(low, vec)
	store.UpsertScore(&storage.ArticleScore{ArticleID: low, Score: 10})

	// No embedding and no score: ranks last at relevance 0
	unembedded, _ := store.AddArticle(&storage.Article{
		Title: "Unembedded", OriginalURL: "https://example.com/none", Source: "Naver",
	})

	ranked, err := ranker.TopN([]string{"cloud", "kubernetes"}, 5)
	if err != nil {
		t.Fatalf("TopN failed: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("Expected 3 ranked articles, got %d", len(ranked))
	}
	if ranked[2].Article.ID != unembedded || ranked[2].FinalScore != 0 {
		t.Errorf("Expected unembedded unscored article last at 0, got %+v", ranked[2])
	}
	if ranked[0].Article.ID != high {
		t.Errorf("Expected high-scored article first, got %d", ranked[0].Article.ID)
	}
	if ranked[0].FinalScore <= ranked[1].FinalScore {
		t.Errorf("Ranking not descending: %f <= %f", ranked[0].FinalScore, ranked[1].FinalScore)
	}

	// Final score blends stored score and relevance
	want := 90*storedScoreWeight + ranked[0].Relevance*relevanceWeight
	if ranked[0].FinalScore != want {
		t.Errorf("FinalScore = %f, want %f", ranked[0].FinalScore, want)
	}

	limited, err := ranker.TopN([]string{"cloud"}, 1)
	if err != nil {
		t.Fatalf("TopN failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("Expected limit to cap results, got %d", len(limited))
	}
}

func TestTopNRanksUnembeddedArticles(t *testing.T) {
	store := newTestStore(t)
	ranker := NewRanker(store, zerolog.Nop())

	articleID, _ := store.AddArticle(&storage.Article{
		Title: "No embedding", OriginalURL: "https://example.com/a", Source: "Naver",
	})
	store.UpsertScore(&storage.ArticleScore{ArticleID: articleID, Score: 90})

	ranked, err := ranker.TopN([]string{"cloud"}, 5)
	if err != nil {
		t.Fatalf("TopN failed: %v", err)
	}
	if len(ranked) != 1 {
		t.Fatalf("Expected 1 ranked article, got %d", len(ranked))
	}
	if ranked[0].Relevance != 0 {
		t.Errorf("Expected relevance 0 without embedding, got %f", ranked[0].Relevance)
	}
	if ranked[0].FinalScore != 90*storedScoreWeight {
		t.Errorf("FinalScore = %f, want %f", ranked[0].FinalScore, 90*storedScoreWeight)
	}
}

func TestTopNWithoutInterests(t *testing.T) {
	store := newTestStore(t)
	ranker := NewRanker(store, zerolog.Nop())

	articleID, _ := store.AddArticle(&storage.Article{
		Title: "Scored", OriginalURL: "https://example.com/a", Source: "Naver",
	})
	store.UpsertScore(&storage.ArticleScore{ArticleID: articleID, Score: 90})

	ranked, err := ranker.TopN(nil, 5)
	if err != nil {
		t.Fatalf("TopN failed: %v", err)
	}
	if len(ranked) != 0 {
		t.Errorf("Expected no ranking without interest keywords, got %+v", ranked)
	}
}

func TestTopNWithoutScores(t *testing.T) {
	store := newTestStore(t)
	ranker := NewRanker(store, zerolog.Nop())

	articleID, _ := store.AddArticle(&storage.Article{
		Title: "Unscored", OriginalURL: "https://example.com/a", Source: "Naver",
	})
	store.AddEmbedding(articleID, embedding.EncodeFloat32s([]float32{0.5, 0.5}))

	ranked, err := ranker.TopN([]string{"ai"}, 5)
	if err != nil {
		t.Fatalf("TopN failed: %v", err)
	}
	if len(ranked) != 1 {
		t.Fatalf("Expected 1 ranked article, got %d", len(ranked))
	}
	if ranked[0].StoredScore != 0 {
		t.Errorf("Expected zero stored score, got %f", ranked[0].StoredScore)
	}
	if ranked[0].FinalScore != ranked[0].Relevance*relevanceWeight {
		t.Errorf("Unscored article should rank on relevance alone")
	}
}

func TestTopViewed(t *testing.T) {
	store := newTestStore(t)
	ranker := NewRanker(store, zerolog.Nop())

	articleID, _ := store.AddArticle(&storage.Article{
		Title: "Viewed", OriginalURL: "https://example.com/a", Source: "Naver",
	})
	store.AddViewLog(&storage.ViewLog{ArticleID: articleID, Department: "T_CLOUD"})
	store.AddViewLog(&storage.ViewLog{ArticleID: articleID, Department: "T_CLOUD"})

	ranked, err := ranker.TopViewed("T_CLOUD", 7, 5)
	if err != nil {
		t.Fatalf("TopViewed failed: %v", err)
	}
	if len(ranked) != 1 || ranked[0].ViewCount != 2 {
		t.Fatalf("Expected single article with 2 views, got %+v", ranked)
	}
}
