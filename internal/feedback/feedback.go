package feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/seojinpark/newsight/internal/storage"
)

const recentCommentLimit = 5

// Scorer recomputes an article's score after feedback changes.
type Scorer interface {
	UpdateScore(ctx context.Context, articleID int64) (*storage.ArticleScore, error)
}

// Service implements the like/dislike lifecycle and free-text comments.
// Every successful mutation recomputes the article score.
type Service struct {
	store  storage.Store
	scorer Scorer
	logger zerolog.Logger
}

// NewService wires a feedback service.
func NewService(store storage.Store, scorer Scorer, logger zerolog.Logger) *Service {
	return &Service{store: store, scorer: scorer, logger: logger}
}

// React records a like or dislike with toggle semantics: repeating the
// current reaction removes it, the opposite reaction replaces it.
func (s *Service) React(ctx context.Context, articleID int64, email string, liked bool) error {
	user, err := s.store.GetUserByEmail(email)
	if err != nil {
		return fmt.Errorf("resolve user %s: %w", email, err)
	}

	current, err := s.store.ReactionByUser(articleID, email)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.store.AddFeedback(&storage.Feedback{
			ArticleID: articleID,
			UserID:    &user.ID,
			Liked:     &liked,
		}); err != nil {
			return fmt.Errorf("record reaction: %w", err)
		}
	case err != nil:
		return fmt.Errorf("load current reaction: %w", err)
	case current.Liked != nil && *current.Liked == liked:
		if err := s.store.DeleteFeedback(current.ID); err != nil {
			return fmt.Errorf("cancel reaction: %w", err)
		}
	default:
		if err := s.store.UpdateFeedbackLiked(current.ID, liked); err != nil {
			return fmt.Errorf("flip reaction: %w", err)
		}
	}

	s.rescore(ctx, articleID)
	return nil
}

// Comment appends a free-text comment. Comments never count as
// reactions but still trigger a rescore.
func (s *Service) Comment(ctx context.Context, articleID int64, email, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fmt.Errorf("comment must not be blank")
	}

	user, err := s.store.GetUserByEmail(email)
	if err != nil {
		return fmt.Errorf("resolve user %s: %w", email, err)
	}

	if _, err := s.store.AddFeedback(&storage.Feedback{
		ArticleID:    articleID,
		UserID:       &user.ID,
		FeedbackText: trimmed,
	}); err != nil {
		return fmt.Errorf("record comment: %w", err)
	}

	s.rescore(ctx, articleID)
	return nil
}

// rescore recomputes the article score. The feedback mutation already
// succeeded, so a scoring failure is logged rather than returned.
func (s *Service) rescore(ctx context.Context, articleID int64) {
	if _, err := s.scorer.UpdateScore(ctx, articleID); err != nil {
		s.logger.Warn().Err(err).Int64("article", articleID).Msg("rescore after feedback failed")
	}
}

// Summary is the per-article feedback rollup shown alongside an
// article.
type Summary struct {
	Likes      int
	Dislikes   int
	MyReaction *bool
	Comments   []storage.Feedback
}

// Summary returns like/dislike counts, the caller's own reaction and
// the most recent comments.
func (s *Service) Summary(articleID int64, email string) (*Summary, error) {
	likes, err := s.store.CountFeedback(articleID, true)
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}
	dislikes, err := s.store.CountFeedback(articleID, false)
	if err != nil {
		return nil, fmt.Errorf("count dislikes: %w", err)
	}

	summary := &Summary{Likes: likes, Dislikes: dislikes}

	if email != "" {
		reaction, err := s.store.ReactionByUser(articleID, email)
		if err == nil {
			summary.MyReaction = reaction.Liked
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load own reaction: %w", err)
		}
	}

	all, err := s.store.FeedbackByArticle(articleID)
	if err != nil {
		return nil, fmt.Errorf("load feedback: %w", err)
	}
	for _, f := range all {
		if f.Liked == nil && f.FeedbackText != "" {
			summary.Comments = append(summary.Comments, f)
			if len(summary.Comments) >= recentCommentLimit {
				break
			}
		}
	}
	return summary, nil
}
