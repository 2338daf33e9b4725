package view

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"wikigraph/backend/internal/constants"
	apperrors "wikigraph/backend/pkg/errors"
	"wikigraph/backend/pkg/logger"
)

// Store is the persistence surface the synthesizer depends on
type Store interface {
	// GetViewByPageName returns the stored view for a case-insensitive page
	// name match, or nil when no view exists
	GetViewByPageName(ctx context.Context, pageName string) (*View, error)

	// AddOrUpdateView persists a complete view atomically: parent upsert plus
	// full replacement of all child collections
	AddOrUpdateView(ctx context.Context, v *View) error

	// GetSimilarPageNames returns up to limit page names ordered by ascending
	// embedding distance. A failed query yields an empty result, not an error.
	GetSimilarPageNames(ctx context.Context, vect []float32, limit int, proximityThreshold float64) ([]string, error)
}

// Provider is the content and inference surface the synthesizer depends on
type Provider interface {
	// FetchContent resolves a subject to its source page. Missing and
	// ambiguous subjects come back as typed content errors.
	FetchContent(ctx context.Context, subject string) (*SourceContent, error)

	// ExtractTopics distills breakdown sentences from full source text
	ExtractTopics(ctx context.Context, fullText string) ([]Topic, error)

	// Embed returns one fixed-dimensionality vector per input text,
	// order-preserving. Callers keep batches within the provider limit.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// ScoreRelations rates candidate destination names against context text
	ScoreRelations(ctx context.Context, candidateNames []string, contextText string) ([]ScoredRelation, error)
}

// Manager orchestrates view synthesis: fetch, embed, classify, persist
type Manager struct {
	store      Store
	provider   Provider
	logger     *zap.Logger
	batchLimit int
	edgesLimit int
}

// NewManager creates a new view manager
func NewManager(store Store, provider Provider, edgesLimit int) *Manager {
	if edgesLimit < 1 {
		edgesLimit = constants.DefaultEdgesLimit
	}
	return &Manager{
		store:      store,
		provider:   provider,
		logger:     logger.Get(),
		batchLimit: constants.EmbeddingBatchLimit,
		edgesLimit: edgesLimit,
	}
}

// ReadOrCreateView returns the stored view for a subject, synthesizing and
// persisting it first when absent. A stored view is returned unchanged with
// no provider calls. Returns (nil, nil) when the subject does not resolve to
// a source page.
func (m *Manager) ReadOrCreateView(ctx context.Context, subjectName string, populateEdges bool) (*View, error) {
	v, err := m.store.GetViewByPageName(ctx, subjectName)
	if err != nil {
		return nil, err
	}
	if v != nil {
		return v, nil
	}
	return m.createView(ctx, subjectName, populateEdges)
}

// createView runs the full synthesis pipeline for a subject. Nothing is
// persisted unless every step before the final write succeeds.
func (m *Manager) createView(ctx context.Context, subjectName string, populateEdges bool) (*View, error) {
	m.logger.Info("Creating view", zap.String("subject", subjectName))

	src, err := m.provider.FetchContent(ctx, subjectName)
	if err != nil {
		if apperrors.IsNotFound(err) {
			m.logger.Warn("Subject does not resolve to a source page",
				zap.String("subject", subjectName),
				zap.Error(err),
			)
			return nil, nil
		}
		return nil, err
	}

	v := &View{
		ID:       src.ID,
		PageName: src.PageName,
		Summary:  src.Summary,
		DescImg:  src.DescImg,
		Links:    make([]Link, 0, len(src.Links)),
	}
	for _, dest := range src.Links {
		v.Links = append(v.Links, Link{
			ID:           fmt.Sprintf("l-%s-%s", src.PageName, dest),
			DestPageName: dest,
		})
	}

	topics, err := m.provider.ExtractTopics(ctx, src.FullText)
	if err != nil {
		m.logger.Error("Topic extraction failed",
			zap.String("page", src.PageName),
			zap.Error(err),
		)
		return nil, apperrors.NewNoTopics(src.PageName)
	}
	if len(topics) == 0 {
		return nil, apperrors.NewNoTopics(src.PageName)
	}

	if err := m.buildBreakDowns(ctx, v, topics); err != nil {
		return nil, err
	}

	summaryVects, err := m.provider.Embed(ctx, []string{v.Summary})
	if err != nil || len(summaryVects) != 1 {
		return nil, apperrors.NewEmbeddingFailed(0, err)
	}
	v.PageVect = summaryVects[0]

	if populateEdges {
		if err := m.PopulateEdges(ctx, v, src.FullText, false, m.edgesLimit); err != nil {
			// A missing edge set is recoverable; the view is still persisted
			// and a later population pass can fill it in.
			m.logger.Warn("Could not populate edges",
				zap.String("page", v.PageName),
				zap.Error(err),
			)
		} else {
			m.logger.Info("Populated edges",
				zap.String("page", v.PageName),
				zap.Int("edges", len(v.Edges)),
			)
		}
	}

	if err := m.store.AddOrUpdateView(ctx, v); err != nil {
		return nil, err
	}

	m.logger.Info("View created",
		zap.String("page", v.PageName),
		zap.Int("links", len(v.Links)),
		zap.Int("breakdowns", len(v.BreakDowns)),
	)
	return v, nil
}

// buildBreakDowns embeds all topic sentences in sequential batches and
// attaches the resulting breakdowns to the view. The first failed batch
// aborts the synthesis so no breakdown is ever left without its vector.
func (m *Manager) buildBreakDowns(ctx context.Context, v *View, topics []Topic) error {
	sentences := make([]string, len(topics))
	for i, t := range topics {
		sentences[i] = t.Sentence
	}

	vects := make([][]float32, 0, len(sentences))
	for start := 0; start < len(sentences); start += m.batchLimit {
		end := start + m.batchLimit
		if end > len(sentences) {
			end = len(sentences)
		}
		batch := start/m.batchLimit + 1

		batchVects, err := m.provider.Embed(ctx, sentences[start:end])
		if err != nil {
			return apperrors.NewEmbeddingFailed(batch, err)
		}
		if len(batchVects) != end-start {
			return apperrors.NewEmbeddingFailed(batch,
				fmt.Errorf("got %d vectors for %d sentences", len(batchVects), end-start))
		}
		vects = append(vects, batchVects...)
	}

	v.BreakDowns = make([]BreakDown, len(topics))
	for i, t := range topics {
		v.BreakDowns[i] = BreakDown{
			ID:       fmt.Sprintf("b-%s-%d", v.PageName, i),
			Sentence: t.Sentence,
			Vect:     vects[i],
		}
	}
	return nil
}
