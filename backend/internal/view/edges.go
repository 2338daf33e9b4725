package view

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	apperrors "wikigraph/backend/pkg/errors"
)

// ============================================================================
// Edge Classification and Ranking
// ============================================================================

// PopulateEdges derives the ranked edge set for a view: per-breakdown
// similarity lookups unioned with the explicit link names, scored by the
// provider, classified by provenance, sorted by relevance and truncated to
// edgeCap. A scoring failure leaves view.Edges untouched. When upsert is set
// the updated view is persisted before returning.
func (m *Manager) PopulateEdges(ctx context.Context, v *View, contextText string, upsert bool, edgeCap int) error {
	if edgeCap < 1 {
		edgeCap = m.edgesLimit
	}

	similarNames := m.collectSimilarNames(ctx, v, edgeCap)

	candidates := make([]string, 0, len(similarNames)+len(v.Links))
	candidates = append(candidates, similarNames...)
	for _, l := range v.Links {
		candidates = append(candidates, l.DestPageName)
	}

	scored, err := m.provider.ScoreRelations(ctx, candidates, contextText)
	if err != nil {
		return apperrors.NewScoringFailed(v.PageName, err)
	}

	v.Edges = classifyAndRank(v, scored, similarNames, edgeCap)

	if upsert {
		return m.store.AddOrUpdateView(ctx, v)
	}
	return nil
}

// collectSimilarNames queries the store for the nearest page names of every
// breakdown embedding. Queries run concurrently; a failed or empty lookup
// just contributes no candidates.
func (m *Manager) collectSimilarNames(ctx context.Context, v *View, limit int) []string {
	perBreakDown := make([][]string, len(v.BreakDowns))

	g, gctx := errgroup.WithContext(ctx)
	for i, b := range v.BreakDowns {
		g.Go(func() error {
			names, err := m.store.GetSimilarPageNames(gctx, b.Vect, limit, 0)
			if err != nil {
				m.logger.Warn("Similarity lookup failed",
					zap.String("breakdown", b.ID),
					zap.Error(err),
				)
				return nil
			}
			perBreakDown[i] = names
			return nil
		})
	}
	_ = g.Wait()

	var flat []string
	for _, names := range perBreakDown {
		flat = append(flat, names...)
	}
	return flat
}

// classifyAndRank is a pure function from scored candidates to the final
// edge set. Provenance follows the invariant: hyper iff the destination
// matches an explicit link only, breakDown iff a similarity hit only, hybrid
// iff both. Matching is insensitive to case and punctuation, via a
// normalized-name index built once per pass.
func classifyAndRank(v *View, scored []ScoredRelation, similarNames []string, edgeCap int) []Edge {
	linkIndex := make(map[string]struct{}, len(v.Links))
	for _, l := range v.Links {
		linkIndex[normalizeName(l.DestPageName)] = struct{}{}
	}
	similarIndex := make(map[string]struct{}, len(similarNames))
	for _, name := range similarNames {
		similarIndex[normalizeName(name)] = struct{}{}
	}

	edges := make([]Edge, 0, len(scored))
	for _, s := range scored {
		key := normalizeName(s.DestPageName)
		_, inLinks := linkIndex[key]
		_, inSimilar := similarIndex[key]

		var linkType LinkType
		switch {
		case inLinks && inSimilar:
			linkType = LinkTypeHybrid
		case inLinks:
			linkType = LinkTypeHyper
		default:
			linkType = LinkTypeBreakDown
		}

		tags := make([]string, 0, len(s.Tags))
		for _, t := range s.Tags {
			if sanitized := SanitizeTag(t); sanitized != "" {
				tags = append(tags, sanitized)
			}
		}

		edges = append(edges, Edge{
			OriginPageID: v.ID,
			DestPageName: s.DestPageName,
			Relevance:    s.Relevance,
			LinkType:     linkType,
			Tags:         tags,
		})
	}

	// Stable sort keeps the provider's candidate order for equal relevance
	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].Relevance > edges[j].Relevance
	})
	if len(edges) > edgeCap {
		edges = edges[:edgeCap]
	}
	return edges
}
