package newsight

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/seojinpark/newsight/internal/config"
	"github.com/seojinpark/newsight/internal/storage"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "test.db")

	engine, err := NewEngine(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}

func TestNewEngine(t *testing.T) {
	engine := newTestEngine(t)

	if engine.store == nil {
		t.Fatal("store is nil")
	}
	if engine.runner == nil {
		t.Fatal("runner is nil")
	}
	if engine.recommender == nil {
		t.Fatal("recommender is nil")
	}
	if engine.dispatcher == nil {
		t.Fatal("dispatcher is nil")
	}
}

func TestKeywordLifecycle(t *testing.T) {
	engine := newTestEngine(t)

	if _, err := engine.CreateUser("alice@example.com", "Alice", "T_CLOUD"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	kw, err := engine.CreateKeyword("alice@example.com", "Kubernetes", "INFRA")
	if err != nil {
		t.Fatalf("CreateKeyword: %v", err)
	}
	if !kw.Approved {
		t.Error("directly created keyword should be approved")
	}

	if _, err := engine.CreateKeyword("alice@example.com", "kubernetes", "INFRA"); err == nil {
		t.Error("expected duplicate keyword to be rejected")
	}

	mine, err := engine.Keywords("alice@example.com")
	if err != nil {
		t.Fatalf("Keywords: %v", err)
	}
	if len(mine) != 1 || mine[0].Keyword != "Kubernetes" {
		t.Fatalf("expected 1 keyword, got %+v", mine)
	}

	if err := engine.DeleteKeyword(mine[0].ID); err != nil {
		t.Fatalf("DeleteKeyword: %v", err)
	}
	mine, _ = engine.Keywords("alice@example.com")
	if len(mine) != 0 {
		t.Errorf("expected 0 keywords after delete, got %d", len(mine))
	}
}

func TestScoreUnscoredArticle(t *testing.T) {
	engine := newTestEngine(t)

	articleID, err := engine.store.AddArticle(&storage.Article{
		Title: "Test", OriginalURL: "https://example.com/test", Source: "Naver",
	})
	if err != nil {
		t.Fatalf("AddArticle: %v", err)
	}

	score, err := engine.Score(articleID)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if score.Score != 0 || score.LikeCount != 0 {
		t.Errorf("expected zero-valued score, got %+v", score)
	}
}

func TestFeedbackThroughEngine(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	engine.CreateUser("alice@example.com", "Alice", "T_CLOUD")
	articleID, _ := engine.store.AddArticle(&storage.Article{
		Title: "Test", OriginalURL: "https://example.com/test", Source: "Naver",
	})

	if err := engine.SubmitReaction(ctx, articleID, "alice@example.com", true); err != nil {
		t.Fatalf("SubmitReaction: %v", err)
	}
	if err := engine.SubmitComment(ctx, articleID, "alice@example.com", "solid reporting"); err != nil {
		t.Fatalf("SubmitComment: %v", err)
	}

	summary, err := engine.GetFeedbackSummary(articleID, "alice@example.com")
	if err != nil {
		t.Fatalf("GetFeedbackSummary: %v", err)
	}
	if summary.Likes != 1 {
		t.Errorf("likes: got %d", summary.Likes)
	}
	if summary.MyReaction == nil || !*summary.MyReaction {
		t.Error("expected own like in summary")
	}
	if len(summary.Comments) != 1 || summary.Comments[0] != "solid reporting" {
		t.Errorf("comments: got %v", summary.Comments)
	}

	// The reaction triggered a persisted rescore
	score, _ := engine.Score(articleID)
	if score.LikeCount != 1 {
		t.Errorf("expected rescored like count 1, got %+v", score)
	}
}

func TestViewLoggingAndRanking(t *testing.T) {
	engine := newTestEngine(t)

	engine.CreateUser("alice@example.com", "Alice", "T_CLOUD")
	articleID, _ := engine.store.AddArticle(&storage.Article{
		Title: "Viewed", OriginalURL: "https://example.com/v", Source: "Naver",
	})

	// Department falls back to the user's own
	if err := engine.RecordView(articleID, "alice@example.com", ""); err != nil {
		t.Fatalf("RecordView: %v", err)
	}
	if err := engine.RecordView(articleID, "", "T_CLOUD"); err != nil {
		t.Fatalf("RecordView anonymous: %v", err)
	}

	ranked, err := engine.TopViewedArticles("T_CLOUD", 0, 0)
	if err != nil {
		t.Fatalf("TopViewedArticles: %v", err)
	}
	if len(ranked) != 1 || ranked[0].ViewCount != 2 {
		t.Fatalf("expected 1 article with 2 views, got %+v", ranked)
	}
}

func TestTopArticlesEmpty(t *testing.T) {
	engine := newTestEngine(t)

	ranked, err := engine.TopArticles("T_CLOUD", 0)
	if err != nil {
		t.Fatalf("TopArticles: %v", err)
	}
	if len(ranked) != 0 {
		t.Errorf("expected 0 ranked articles, got %d", len(ranked))
	}
}

func TestArticleNotFound(t *testing.T) {
	engine := newTestEngine(t)

	if _, err := engine.Article(999); err == nil {
		t.Fatal("expected error for non-existent article")
	}
}

func TestClose(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "test.db")
	engine, err := NewEngine(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	if err := engine.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
