package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"wikigraph/backend/internal/view"
	apperrors "wikigraph/backend/pkg/errors"
)

// ============================================================================
// View Operations
// ============================================================================

// GetViewByPageName assembles a complete view from the parent row and its
// three child collections. The lookup is case-insensitive exact matching.
// Returns (nil, nil) when no view matches.
func (s *Store) GetViewByPageName(ctx context.Context, pageName string) (*view.View, error) {
	var (
		v          view.View
		vectText   string
		summary    *string
		descImg    *string
		audio      *string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, page_name, summary, desc_img, COALESCE(page_vect::text, ''), audio
		 FROM views WHERE lower(page_name) = lower($1)`,
		pageName,
	).Scan(&v.ID, &v.PageName, &summary, &descImg, &vectText, &audio)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch view %q: %w", pageName, err)
	}
	v.Summary = deref(summary)
	v.DescImg = deref(descImg)
	v.Audio = deref(audio)
	if v.PageVect, err = parseVector(vectText); err != nil {
		return nil, fmt.Errorf("failed to parse page vector for %q: %w", pageName, err)
	}

	// The three child collections are independent reads
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		links, err := s.fetchLinks(gctx, v.ID)
		v.Links = links
		return err
	})
	g.Go(func() error {
		breakDowns, err := s.fetchBreakDowns(gctx, v.ID)
		v.BreakDowns = breakDowns
		return err
	})
	g.Go(func() error {
		edges, err := s.fetchEdges(gctx, v.ID)
		v.Edges = edges
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to assemble view %q: %w", pageName, err)
	}

	return &v, nil
}

func (s *Store) fetchLinks(ctx context.Context, viewID string) ([]view.Link, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, page_name FROM links WHERE view_id = $1`, viewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []view.Link{}
	for rows.Next() {
		var l view.Link
		if err := rows.Scan(&l.ID, &l.DestPageName); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (s *Store) fetchBreakDowns(ctx context.Context, viewID string) ([]view.BreakDown, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, sentence, COALESCE(vect::text, '') FROM breakdowns WHERE view_id = $1`, viewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	breakDowns := []view.BreakDown{}
	for rows.Next() {
		var (
			b        view.BreakDown
			vectText string
		)
		if err := rows.Scan(&b.ID, &b.Sentence, &vectText); err != nil {
			return nil, err
		}
		if b.Vect, err = parseVector(vectText); err != nil {
			return nil, err
		}
		breakDowns = append(breakDowns, b)
	}
	return breakDowns, rows.Err()
}

func (s *Store) fetchEdges(ctx context.Context, viewID string) ([]view.Edge, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT origin_page_id, dest_page_name, relevance, link_type, COALESCE(tags, '{}')
		 FROM edges WHERE view_id = $1 ORDER BY position`, viewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	edges := []view.Edge{}
	for rows.Next() {
		var (
			e        view.Edge
			linkType string
		)
		if err := rows.Scan(&e.OriginPageID, &e.DestPageName, &e.Relevance, &linkType, &e.Tags); err != nil {
			return nil, err
		}
		e.LinkType = view.LinkType(linkType)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// AddOrUpdateView persists a complete view in one transaction: the parent
// row is upserted, all existing child rows are dropped, and the current
// collections are reinserted. Any failure rolls the whole write back.
func (s *Store) AddOrUpdateView(ctx context.Context, v *view.View) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperrors.NewPersistenceFailed(v.ID, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO views (id, page_name, summary, desc_img, page_vect, audio)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
			page_name = EXCLUDED.page_name,
			summary   = EXCLUDED.summary,
			desc_img  = EXCLUDED.desc_img,
			page_vect = EXCLUDED.page_vect,
			audio     = EXCLUDED.audio`,
		v.ID, v.PageName, v.Summary, nullable(v.DescImg), nullable(vectorToString(v.PageVect)), nullable(v.Audio),
	)
	if err != nil {
		return apperrors.NewPersistenceFailed(v.ID, err)
	}

	// Replace-on-write: deletes and reinserts travel in one batch round trip
	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM links WHERE view_id = $1`, v.ID)
	batch.Queue(`DELETE FROM breakdowns WHERE view_id = $1`, v.ID)
	batch.Queue(`DELETE FROM edges WHERE view_id = $1`, v.ID)

	for _, l := range v.Links {
		batch.Queue(
			`INSERT INTO links (id, view_id, page_name) VALUES ($1, $2, $3)`,
			l.ID, v.ID, l.DestPageName,
		)
	}
	for _, b := range v.BreakDowns {
		batch.Queue(
			`INSERT INTO breakdowns (id, view_id, sentence, vect) VALUES ($1, $2, $3, $4)`,
			b.ID, v.ID, b.Sentence, nullable(vectorToString(b.Vect)),
		)
	}
	for i, e := range v.Edges {
		batch.Queue(
			`INSERT INTO edges (view_id, origin_page_id, dest_page_name, relevance, link_type, tags, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			v.ID, e.OriginPageID, e.DestPageName, e.Relevance, string(e.LinkType), e.Tags, i,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return apperrors.NewPersistenceFailed(v.ID, err)
		}
	}
	if err := results.Close(); err != nil {
		return apperrors.NewPersistenceFailed(v.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewPersistenceFailed(v.ID, err)
	}

	s.logger.Info("Saved view",
		zap.String("page", v.PageName),
		zap.Int("links", len(v.Links)),
		zap.Int("breakdowns", len(v.BreakDowns)),
		zap.Int("edges", len(v.Edges)),
	)
	return nil
}

// GetSimilarPageNames returns up to limit page names whose stored embedding
// cosine distance to vect is within 1-proximityThreshold, closest first. A
// failed query degrades to an empty result; missing similarity hits are a
// normal outcome for synthesis.
func (s *Store) GetSimilarPageNames(ctx context.Context, vect []float32, limit int, proximityThreshold float64) ([]string, error) {
	if len(vect) == 0 || limit < 1 {
		return []string{}, nil
	}
	distanceThreshold := 1 - proximityThreshold

	rows, err := s.pool.Query(ctx,
		`SELECT page_name
		 FROM views
		 WHERE page_vect IS NOT NULL AND (page_vect <=> $1) <= $2
		 ORDER BY page_vect <=> $1 ASC
		 LIMIT $3`,
		vectorToString(vect), distanceThreshold, limit,
	)
	if err != nil {
		s.logger.Warn("Similarity query failed", zap.Error(err))
		return []string{}, nil
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			s.logger.Warn("Similarity row scan failed", zap.Error(err))
			return []string{}, nil
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("Similarity query failed", zap.Error(err))
		return []string{}, nil
	}
	return names, nil
}

// UpdateViewAudio sets the narration reference in place. Audio is the one
// field mutated outside a full resynthesis.
func (s *Store) UpdateViewAudio(ctx context.Context, viewID, audioRef string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE views SET audio = $2 WHERE id = $1`, viewID, audioRef)
	if err != nil {
		return apperrors.NewPersistenceFailed(viewID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewPersistenceFailed(viewID, fmt.Errorf("no view row with id %s", viewID))
	}
	return nil
}

// DeleteView removes a view; child rows go with it via FK cascade
func (s *Store) DeleteView(ctx context.Context, viewID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM views WHERE id = $1`, viewID); err != nil {
		return apperrors.NewPersistenceFailed(viewID, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// nullable maps the empty string to NULL so optional columns stay NULL
// instead of collecting empty strings
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
