package pipeline

import (
	"context"

	embedding "github.com/matthewjhunter/go-embedding"
	"github.com/rs/zerolog"

	"github.com/seojinpark/newsight/internal/scoring"
	"github.com/seojinpark/newsight/internal/storage"
)

// Deduper decides whether incoming text near-duplicates an article that
// is already stored, by cosine similarity over embeddings.
type Deduper struct {
	store     storage.Store
	embedder  embedding.Embedder
	threshold float64
	logger    zerolog.Logger
}

// NewDeduper wires a deduper. threshold is the similarity at or above
// which two texts count as the same story.
func NewDeduper(store storage.Store, embedder embedding.Embedder, threshold float64, logger zerolog.Logger) *Deduper {
	return &Deduper{store: store, embedder: embedder, threshold: threshold, logger: logger}
}

// IsDuplicate embeds text and scans all stored embeddings. The check
// fails open: if the text cannot be embedded or stored vectors cannot
// be loaded, the item passes as new. The returned vector is reused by
// the caller for persistence so each item is embedded once.
func (d *Deduper) IsDuplicate(ctx context.Context, text string) (bool, []float32) {
	vec, err := embedding.Single(ctx, d.embedder, text)
	if err != nil {
		d.logger.Warn().Err(err).Msg("dedup embedding failed, passing item through")
		return false, nil
	}

	stored, err := d.store.AllEmbeddings()
	if err != nil {
		d.logger.Warn().Err(err).Msg("stored embedding load failed, passing item through")
		return false, vec
	}

	for _, emb := range stored {
		sim := scoring.Cosine(vec, embedding.DecodeFloat32s(emb.Vector))
		if sim >= d.threshold {
			d.logger.Debug().Int64("article", emb.ArticleID).Float64("similarity", sim).Msg("duplicate detected")
			return true, vec
		}
	}
	return false, vec
}
