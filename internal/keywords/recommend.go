package keywords

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/seojinpark/newsight/internal/ai"
	"github.com/seojinpark/newsight/internal/storage"
)

const defaultRecommendLimit = 10

// Recommendation is one suggested search keyword with its category.
type Recommendation struct {
	Keyword  string `json:"keyword"`
	Category string `json:"category"`
}

type recommendResponse struct {
	Recommended []Recommendation `json:"recommended"`
}

type cacheEntry struct {
	items   []Recommendation
	expires time.Time
}

// Recommender asks the LLM for fresh search keywords based on recently
// analyzed articles. Responses are cached per (department, limit) so a
// page reload does not cost another model call. Failures degrade to an
// empty list.
type Recommender struct {
	store        storage.Store
	llm          ai.LLM
	ttl          time.Duration
	contextLimit int
	windowDays   int
	logger       zerolog.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewRecommender wires a recommender. contextLimit caps how many recent
// analyses go into the prompt; windowDays bounds their age.
func NewRecommender(store storage.Store, llm ai.LLM, ttl time.Duration, contextLimit, windowDays int, logger zerolog.Logger) *Recommender {
	return &Recommender{
		store:        store,
		llm:          llm,
		ttl:          ttl,
		contextLimit: contextLimit,
		windowDays:   windowDays,
		logger:       logger,
		cache:        make(map[string]cacheEntry),
	}
}

const recommendSystem = `You suggest news search keywords for a corporate AI trend sensing service. Respond ONLY with valid JSON.`

// Recommend returns up to limit keyword suggestions for a department.
// Suggestions that duplicate each other or an already-approved keyword
// are dropped, case-insensitively.
func (r *Recommender) Recommend(ctx context.Context, department string, limit int) []Recommendation {
	if limit <= 0 {
		limit = defaultRecommendLimit
	}

	key := department
	if key == "" {
		key = "ALL"
	}
	key += ":" + strconv.Itoa(limit)

	r.mu.Lock()
	if entry, ok := r.cache[key]; ok && time.Now().Before(entry.expires) {
		items := make([]Recommendation, len(entry.items))
		copy(items, entry.items)
		r.mu.Unlock()
		return items
	}
	r.mu.Unlock()

	recent, err := r.buildContext()
	if err != nil {
		r.logger.Warn().Err(err).Msg("recommendation context load failed")
		return nil
	}
	if len(recent) == 0 {
		// Nothing analyzed in the window, so there is nothing to
		// recommend from. Not cached; the next call re-checks.
		r.logger.Debug().Str("department", department).Msg("no recent analyses, skipping recommendation")
		return nil
	}

	prompt := r.buildPrompt(department, recent, limit)
	raw, err := r.llm.CompleteJSON(ctx, recommendSystem, prompt)
	if err != nil {
		r.logger.Warn().Err(err).Msg("keyword recommendation call failed")
		return nil
	}

	parsed, err := parseRecommendations(raw)
	if err != nil {
		r.logger.Warn().Err(err).Msg("keyword recommendation response rejected")
		return nil
	}

	items := r.filter(parsed, limit)

	r.mu.Lock()
	r.cache[key] = cacheEntry{items: items, expires: time.Now().Add(r.ttl)}
	r.mu.Unlock()

	result := make([]Recommendation, len(items))
	copy(result, items)
	return result
}

// buildContext renders recent analyses as prompt lines, newest first.
func (r *Recommender) buildContext() ([]string, error) {
	since := time.Now().AddDate(0, 0, -r.windowDays)
	analyses, err := r.store.AnalysesCreatedAfter(since)
	if err != nil {
		return nil, err
	}
	if len(analyses) > r.contextLimit {
		analyses = analyses[:r.contextLimit]
	}

	lines := make([]string, 0, len(analyses))
	for _, a := range analyses {
		lines = append(lines, fmt.Sprintf("- %s / %s / %s", a.Title, a.Summary, a.Insight))
	}
	return lines, nil
}

func (r *Recommender) buildPrompt(department string, recent []string, limit int) string {
	var b strings.Builder
	if department != "" {
		fmt.Fprintf(&b, "Suggest news search keywords for the %s department.\n\n", department)
	} else {
		b.WriteString("Suggest news search keywords for an AI and telecom trend sensing service.\n\n")
	}

	if len(recent) > 0 {
		b.WriteString("Recently analyzed articles:\n")
		for _, line := range recent {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, `Suggest up to %d new keywords worth tracking next. Respond ONLY with valid JSON in this exact format:
{
  "recommended": [
    {"keyword": "<search keyword>", "category": "<one of: Telco, LLM, INFRA, AI Ecosystem>"}
  ]
}`, limit)
	return b.String()
}

// parseRecommendations decodes the model reply, rejecting unknown
// fields.
func parseRecommendations(raw string) ([]Recommendation, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var resp recommendResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("malformed recommendation response: %w", err)
	}
	return resp.Recommended, nil
}

// filter drops blanks, in-batch duplicates and keywords already
// approved, then caps at limit.
func (r *Recommender) filter(parsed []Recommendation, limit int) []Recommendation {
	seen := make(map[string]bool)
	items := make([]Recommendation, 0, limit)
	for _, rec := range parsed {
		keyword := strings.TrimSpace(rec.Keyword)
		if keyword == "" {
			continue
		}

		lower := strings.ToLower(keyword)
		if seen[lower] {
			continue
		}
		seen[lower] = true

		exists, err := r.store.ApprovedKeywordExists(keyword)
		if err != nil {
			r.logger.Warn().Err(err).Str("keyword", keyword).Msg("approved keyword check failed")
			continue
		}
		if exists {
			continue
		}

		items = append(items, Recommendation{Keyword: keyword, Category: strings.TrimSpace(rec.Category)})
		if len(items) >= limit {
			break
		}
	}
	return items
}

// Approve turns one suggestion into an approved keyword. A blank or
// unknown owner approves into the unowned global set. Approving a
// keyword the owner already has is a silent no-op.
func (r *Recommender) Approve(ownerEmail, keyword, category string) error {
	trimmed := strings.TrimSpace(keyword)
	if trimmed == "" {
		return fmt.Errorf("keyword must not be blank")
	}

	var userID *int64
	if ownerEmail != "" {
		user, err := r.store.GetUserByEmail(ownerEmail)
		if err == nil {
			userID = &user.ID
		} else if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("resolve user %s: %w", ownerEmail, err)
		}
	}

	var exists bool
	var err error
	if userID != nil {
		exists, err = r.store.UserKeywordExists(ownerEmail, trimmed)
	} else {
		exists, err = r.store.ApprovedKeywordExists(trimmed)
	}
	if err != nil {
		return fmt.Errorf("check existing keyword: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := r.store.AddKeyword(&storage.Keyword{
		UserID:   userID,
		Keyword:  trimmed,
		Approved: true,
		Category: strings.TrimSpace(category),
	}); err != nil {
		return fmt.Errorf("approve keyword: %w", err)
	}
	return nil
}
