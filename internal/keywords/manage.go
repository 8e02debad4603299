package keywords

import (
	"fmt"
	"sort"
	"strings"

	"github.com/seojinpark/newsight/internal/storage"
)

// Manager handles direct keyword CRUD, separate from the recommendation
// approval flow. Directly created keywords are approved immediately and
// duplicates are rejected rather than silently ignored.
type Manager struct {
	store storage.Store
}

// NewManager wires a keyword manager.
func NewManager(store storage.Store) *Manager {
	return &Manager{store: store}
}

// Create adds an approved keyword for the user. Owning the same keyword
// in any case form is an error.
func (m *Manager) Create(ownerEmail, keyword, category string) (*storage.Keyword, error) {
	trimmed := strings.TrimSpace(keyword)
	if trimmed == "" {
		return nil, fmt.Errorf("keyword must not be blank")
	}

	user, err := m.store.GetUserByEmail(ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("resolve user %s: %w", ownerEmail, err)
	}

	exists, err := m.store.UserKeywordExists(ownerEmail, trimmed)
	if err != nil {
		return nil, fmt.Errorf("check existing keyword: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("keyword %q already registered", trimmed)
	}

	kw := &storage.Keyword{
		UserID:   &user.ID,
		Keyword:  trimmed,
		Approved: true,
		Category: strings.TrimSpace(category),
	}
	id, err := m.store.AddKeyword(kw)
	if err != nil {
		return nil, fmt.Errorf("create keyword: %w", err)
	}
	kw.ID = id
	return kw, nil
}

// List returns the owner's approved keywords; an empty email lists the
// global approved set.
func (m *Manager) List(ownerEmail string) ([]storage.Keyword, error) {
	return m.store.ApprovedKeywords(ownerEmail)
}

// Delete removes a keyword by ID.
func (m *Manager) Delete(keywordID int64) error {
	return m.store.DeleteKeyword(keywordID)
}

// KeywordCount is one row of the cross-user keyword aggregation.
type KeywordCount struct {
	Keyword string
	Count   int
}

// OtherUsers aggregates keywords owned by everyone except the current
// user, grouped case-insensitively with usage counts, most used first.
// The first casing seen is the one reported.
func (m *Manager) OtherUsers(currentEmail string) ([]KeywordCount, error) {
	var currentID int64
	if currentEmail != "" {
		user, err := m.store.GetUserByEmail(currentEmail)
		if err == nil {
			currentID = user.ID
		}
	}

	all, err := m.store.AllKeywords()
	if err != nil {
		return nil, fmt.Errorf("load keywords: %w", err)
	}

	counts := make(map[string]int)
	casing := make(map[string]string)
	for _, kw := range all {
		if kw.UserID != nil && *kw.UserID == currentID {
			continue
		}
		lower := strings.ToLower(kw.Keyword)
		if _, ok := casing[lower]; !ok {
			casing[lower] = kw.Keyword
		}
		counts[lower]++
	}

	result := make([]KeywordCount, 0, len(counts))
	for lower, count := range counts {
		result = append(result, KeywordCount{Keyword: casing[lower], Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Keyword < result[j].Keyword
	})
	return result, nil
}
