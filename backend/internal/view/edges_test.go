package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testView(id string, linkNames ...string) *View {
	v := &View{ID: id, PageName: id}
	for _, name := range linkNames {
		v.Links = append(v.Links, Link{ID: "l-" + id + "-" + name, DestPageName: name})
	}
	return v
}

func TestClassifyAndRank_AlbedoScenario(t *testing.T) {
	v := testView("albedo", "Climate_change", "Reflectivity")
	similar := []string{"Climate_change", "Greenhouse_effect"}
	scored := []ScoredRelation{
		{DestPageName: "Climate_change", Relevance: 90, Tags: []string{"climate"}},
		{DestPageName: "Reflectivity", Relevance: 40, Tags: []string{"physics"}},
		{DestPageName: "Greenhouse_effect", Relevance: 30, Tags: []string{"climate"}},
	}

	edges := classifyAndRank(v, scored, similar, 2)

	require.Len(t, edges, 2)
	assert.Equal(t, "Climate_change", edges[0].DestPageName)
	assert.Equal(t, 90, edges[0].Relevance)
	assert.Equal(t, LinkTypeHybrid, edges[0].LinkType)
	assert.Equal(t, "Reflectivity", edges[1].DestPageName)
	assert.Equal(t, 40, edges[1].Relevance)
	assert.Equal(t, LinkTypeHyper, edges[1].LinkType)
}

func TestClassifyAndRank_LinkTypes(t *testing.T) {
	v := testView("origin", "LinkOnly", "Both")
	similar := []string{"Both", "SimilarOnly"}
	scored := []ScoredRelation{
		{DestPageName: "LinkOnly", Relevance: 10},
		{DestPageName: "Both", Relevance: 10},
		{DestPageName: "SimilarOnly", Relevance: 10},
	}

	edges := classifyAndRank(v, scored, similar, 20)

	require.Len(t, edges, 3)
	byName := map[string]LinkType{}
	for _, e := range edges {
		byName[e.DestPageName] = e.LinkType
		assert.Equal(t, "origin", e.OriginPageID)
	}
	assert.Equal(t, LinkTypeHyper, byName["LinkOnly"])
	assert.Equal(t, LinkTypeHybrid, byName["Both"])
	assert.Equal(t, LinkTypeBreakDown, byName["SimilarOnly"])
}

func TestClassifyAndRank_FormattingInsensitiveMatching(t *testing.T) {
	// The scorer reports "climate change" while the hyperlink extraction
	// produced "Climate_change"; that is still a hyper edge, not breakDown
	v := testView("albedo", "Climate_change")
	scored := []ScoredRelation{
		{DestPageName: "climate change", Relevance: 80},
	}

	edges := classifyAndRank(v, scored, nil, 20)

	require.Len(t, edges, 1)
	assert.Equal(t, LinkTypeHyper, edges[0].LinkType)
	// The scorer's spelling is kept on the edge
	assert.Equal(t, "climate change", edges[0].DestPageName)
}

func TestClassifyAndRank_SortedAndCapped(t *testing.T) {
	v := testView("page")
	scored := []ScoredRelation{
		{DestPageName: "a", Relevance: 10},
		{DestPageName: "b", Relevance: 95},
		{DestPageName: "c", Relevance: 50},
		{DestPageName: "d", Relevance: 70},
		{DestPageName: "e", Relevance: 20},
	}

	edges := classifyAndRank(v, scored, nil, 3)

	require.Len(t, edges, 3)
	assert.Equal(t, []string{"b", "d", "c"}, []string{edges[0].DestPageName, edges[1].DestPageName, edges[2].DestPageName})
	for i := 1; i < len(edges); i++ {
		assert.GreaterOrEqual(t, edges[i-1].Relevance, edges[i].Relevance)
	}
}

func TestClassifyAndRank_StableTies(t *testing.T) {
	// Equal relevance keeps the scorer's candidate order
	v := testView("page")
	scored := []ScoredRelation{
		{DestPageName: "first", Relevance: 50},
		{DestPageName: "second", Relevance: 50},
		{DestPageName: "third", Relevance: 50},
	}

	edges := classifyAndRank(v, scored, nil, 20)

	require.Len(t, edges, 3)
	assert.Equal(t, "first", edges[0].DestPageName)
	assert.Equal(t, "second", edges[1].DestPageName)
	assert.Equal(t, "third", edges[2].DestPageName)
}

func TestClassifyAndRank_TagsSanitized(t *testing.T) {
	v := testView("page")
	scored := []ScoredRelation{
		{DestPageName: "a", Relevance: 10, Tags: []string{"Physical Phenomenon", "GLOBAL", "!!!"}},
	}

	edges := classifyAndRank(v, scored, nil, 20)

	require.Len(t, edges, 1)
	assert.Equal(t, []string{"physical_phenomenon", "global"}, edges[0].Tags)
}
