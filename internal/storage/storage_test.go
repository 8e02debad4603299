package storage

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	if store.db == nil {
		t.Fatal("Database connection is nil")
	}
}

func TestCreateAndGetUser(t *testing.T) {
	store := newTestStore(t)

	userID, err := store.CreateUser("alice@example.com", "Alice", "T_CLOUD")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if userID == 0 {
		t.Fatal("User ID should not be 0")
	}

	// Lookup is case-insensitive
	u, err := store.GetUserByEmail("ALICE@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if u.Department != "T_CLOUD" {
		t.Errorf("Department mismatch: got %s, want T_CLOUD", u.Department)
	}

	if _, err := store.GetUserByEmail("nobody@example.com"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected sql.ErrNoRows for unknown user, got %v", err)
	}
}

func TestAddArticleAndExistsByURL(t *testing.T) {
	store := newTestStore(t)

	now := time.Now()
	article := &Article{
		Title:       "Test Article",
		OriginalURL: "https://example.com/article1",
		PublishedAt: &now,
		Source:      "Naver",
		Country:     "KR",
		Language:    "ko",
	}
	articleID, err := store.AddArticle(article)
	if err != nil {
		t.Fatalf("AddArticle failed: %v", err)
	}
	if articleID == 0 {
		t.Fatal("Article ID should not be 0")
	}

	exists, err := store.ArticleExistsByURL("https://example.com/article1")
	if err != nil {
		t.Fatalf("ArticleExistsByURL failed: %v", err)
	}
	if !exists {
		t.Error("Expected article URL to exist")
	}

	exists, _ = store.ArticleExistsByURL("https://example.com/other")
	if exists {
		t.Error("Did not expect unknown URL to exist")
	}

	// The URL is unique
	if _, err := store.AddArticle(article); err == nil {
		t.Error("Expected duplicate URL insert to fail")
	}

	got, err := store.GetArticle(articleID)
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if got.Title != "Test Article" || got.Source != "Naver" {
		t.Errorf("Article mismatch: got %+v", got)
	}
}

func TestEmbeddings(t *testing.T) {
	store := newTestStore(t)

	articleID, _ := store.AddArticle(&Article{
		Title: "A", OriginalURL: "https://example.com/a", Source: "Naver",
	})

	if err := store.AddEmbedding(articleID, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("AddEmbedding failed: %v", err)
	}

	vector, err := store.EmbeddingByArticle(articleID)
	if err != nil {
		t.Fatalf("EmbeddingByArticle failed: %v", err)
	}
	if len(vector) != 4 {
		t.Errorf("Expected 4 bytes, got %d", len(vector))
	}

	// Replacing is allowed
	if err := store.AddEmbedding(articleID, []byte{9, 9}); err != nil {
		t.Fatalf("AddEmbedding replace failed: %v", err)
	}

	all, err := store.AllEmbeddings()
	if err != nil {
		t.Fatalf("AllEmbeddings failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("Expected 1 embedding, got %d", len(all))
	}
	if len(all[0].Vector) != 2 {
		t.Errorf("Expected replaced vector of 2 bytes, got %d", len(all[0].Vector))
	}
}

func TestAnalysesCreatedAfter(t *testing.T) {
	store := newTestStore(t)

	articleID, _ := store.AddArticle(&Article{
		Title: "AI chips", OriginalURL: "https://example.com/chips", Source: "Naver",
	})
	if _, err := store.AddAnalysis(&Analysis{
		ArticleID: articleID,
		Summary:   "Chips are getting faster",
		Insight:   "Supply chains matter",
		Category:  "INFRA",
		Tags:      `["chips"]`,
	}); err != nil {
		t.Fatalf("AddAnalysis failed: %v", err)
	}

	recent, err := store.AnalysesCreatedAfter(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("AnalysesCreatedAfter failed: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("Expected 1 recent analysis, got %d", len(recent))
	}
	if recent[0].Title != "AI chips" {
		t.Errorf("Joined title mismatch: got %s", recent[0].Title)
	}

	old, err := store.AnalysesCreatedAfter(time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("AnalysesCreatedAfter failed: %v", err)
	}
	if len(old) != 0 {
		t.Errorf("Expected no analyses after future cutoff, got %d", len(old))
	}
}

func TestUpsertScore(t *testing.T) {
	store := newTestStore(t)

	articleID, _ := store.AddArticle(&Article{
		Title: "A", OriginalURL: "https://example.com/a", Source: "Naver",
	})

	if _, err := store.ScoreByArticle(articleID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("Expected sql.ErrNoRows before upsert, got %v", err)
	}

	if err := store.UpsertScore(&ArticleScore{
		ArticleID: articleID, Score: 55.5, LikeCount: 2, DislikeCount: 1, TextScore: 3.2,
	}); err != nil {
		t.Fatalf("UpsertScore failed: %v", err)
	}

	if err := store.UpsertScore(&ArticleScore{
		ArticleID: articleID, Score: 60, LikeCount: 3, DislikeCount: 1, TextScore: 3.2,
	}); err != nil {
		t.Fatalf("UpsertScore update failed: %v", err)
	}

	sc, err := store.ScoreByArticle(articleID)
	if err != nil {
		t.Fatalf("ScoreByArticle failed: %v", err)
	}
	if sc.Score != 60 || sc.LikeCount != 3 {
		t.Errorf("Score row mismatch: got %+v", sc)
	}
}

func TestKeywordOwnershipAndLookup(t *testing.T) {
	store := newTestStore(t)

	aliceID, _ := store.CreateUser("alice@example.com", "Alice", "T_AI_SERVICE")
	bobID, _ := store.CreateUser("bob@example.com", "Bob", "T_CLOUD")

	if _, err := store.AddKeyword(&Keyword{UserID: &aliceID, Keyword: "RAG", Approved: true, Category: "LLM"}); err != nil {
		t.Fatalf("AddKeyword failed: %v", err)
	}
	store.AddKeyword(&Keyword{UserID: &bobID, Keyword: "Kubernetes", Approved: true, Category: "INFRA"})
	store.AddKeyword(&Keyword{UserID: &bobID, Keyword: "Serverless", Approved: false})

	// Per-owner listing only sees approved rows for that owner
	mine, err := store.ApprovedKeywords("alice@example.com")
	if err != nil {
		t.Fatalf("ApprovedKeywords failed: %v", err)
	}
	if len(mine) != 1 || mine[0].Keyword != "RAG" {
		t.Fatalf("Expected alice's single approved keyword, got %+v", mine)
	}

	// Empty owner is the global approved set
	global, err := store.ApprovedKeywords("")
	if err != nil {
		t.Fatalf("ApprovedKeywords global failed: %v", err)
	}
	if len(global) != 2 {
		t.Fatalf("Expected 2 approved keywords globally, got %d", len(global))
	}

	exists, _ := store.ApprovedKeywordExists("rag")
	if !exists {
		t.Error("Expected case-insensitive approved match for rag")
	}
	exists, _ = store.ApprovedKeywordExists("serverless")
	if exists {
		t.Error("Unapproved keyword should not match ApprovedKeywordExists")
	}

	// Ownership check is scoped to the user, approved or not
	exists, _ = store.UserKeywordExists("bob@example.com", "SERVERLESS")
	if !exists {
		t.Error("Expected bob to own serverless")
	}
	exists, _ = store.UserKeywordExists("alice@example.com", "serverless")
	if exists {
		t.Error("Alice should not own serverless")
	}
}

func TestFeedbackRoundTrip(t *testing.T) {
	store := newTestStore(t)

	articleID, _ := store.AddArticle(&Article{
		Title: "A", OriginalURL: "https://example.com/a", Source: "Naver",
	})
	userID, _ := store.CreateUser("alice@example.com", "Alice", "")

	liked := true
	fbID, err := store.AddFeedback(&Feedback{ArticleID: articleID, UserID: &userID, Liked: &liked})
	if err != nil {
		t.Fatalf("AddFeedback failed: %v", err)
	}

	reaction, err := store.ReactionByUser(articleID, "alice@example.com")
	if err != nil {
		t.Fatalf("ReactionByUser failed: %v", err)
	}
	if reaction.Liked == nil || !*reaction.Liked {
		t.Error("Expected a like reaction")
	}

	likes, _ := store.CountFeedback(articleID, true)
	dislikes, _ := store.CountFeedback(articleID, false)
	if likes != 1 || dislikes != 0 {
		t.Errorf("Counts mismatch: likes=%d dislikes=%d", likes, dislikes)
	}

	if err := store.UpdateFeedbackLiked(fbID, false); err != nil {
		t.Fatalf("UpdateFeedbackLiked failed: %v", err)
	}
	likes, _ = store.CountFeedback(articleID, true)
	dislikes, _ = store.CountFeedback(articleID, false)
	if likes != 0 || dislikes != 1 {
		t.Errorf("Counts after flip: likes=%d dislikes=%d", likes, dislikes)
	}

	// Text-only comments never count as reactions
	store.AddFeedback(&Feedback{ArticleID: articleID, UserID: &userID, FeedbackText: "good read"})
	all, err := store.FeedbackByArticle(articleID)
	if err != nil {
		t.Fatalf("FeedbackByArticle failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 feedback rows, got %d", len(all))
	}

	if err := store.DeleteFeedback(fbID); err != nil {
		t.Fatalf("DeleteFeedback failed: %v", err)
	}
	if _, err := store.ReactionByUser(articleID, "alice@example.com"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected sql.ErrNoRows after delete, got %v", err)
	}
}

func TestTopViewedSince(t *testing.T) {
	store := newTestStore(t)

	first, _ := store.AddArticle(&Article{
		Title: "First", OriginalURL: "https://example.com/1", Source: "Naver",
	})
	second, _ := store.AddArticle(&Article{
		Title: "Second", OriginalURL: "https://example.com/2", Source: "Naver",
	})

	for i := 0; i < 3; i++ {
		store.AddViewLog(&ViewLog{ArticleID: first, Department: "T_CLOUD"})
	}
	store.AddViewLog(&ViewLog{ArticleID: second, Department: "T_CLOUD"})
	store.AddViewLog(&ViewLog{ArticleID: second, Department: "T_FINANCE"})

	since := time.Now().Add(-time.Hour)

	ranked, err := store.TopViewedSince("T_CLOUD", since, 5)
	if err != nil {
		t.Fatalf("TopViewedSince failed: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("Expected 2 ranked articles, got %d", len(ranked))
	}
	if ranked[0].ArticleID != first || ranked[0].ViewCount != 3 {
		t.Errorf("Expected first article on top with 3 views, got %+v", ranked[0])
	}

	// Empty department aggregates every log
	all, err := store.TopViewedSince("", since, 5)
	if err != nil {
		t.Fatalf("TopViewedSince failed: %v", err)
	}
	if all[1].ViewCount != 2 {
		t.Errorf("Expected second article to count cross-department views, got %+v", all[1])
	}

	limited, _ := store.TopViewedSince("", since, 1)
	if len(limited) != 1 {
		t.Errorf("Expected limit to cap results, got %d", len(limited))
	}
}
