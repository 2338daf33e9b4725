package view

// ============================================================================
// Domain Types
// ============================================================================

// LinkType classifies the provenance of an edge
type LinkType string

const (
	// LinkTypeHyper marks an edge backed only by an explicit hyperlink
	LinkTypeHyper LinkType = "hyper"
	// LinkTypeBreakDown marks an edge backed only by a breakdown similarity hit
	LinkTypeBreakDown LinkType = "breakDown"
	// LinkTypeHybrid marks an edge backed by both
	LinkTypeHybrid LinkType = "hybrid"
)

// View is the persisted graph node for one subject
type View struct {
	ID         string      `json:"id"`
	PageName   string      `json:"pageName"`
	Summary    string      `json:"summary"`
	DescImg    string      `json:"descImg,omitempty"`
	PageVect   []float32   `json:"pageVect,omitempty"`
	Audio      string      `json:"audio,omitempty"`
	Links      []Link      `json:"links"`
	BreakDowns []BreakDown `json:"breakDowns"`
	Edges      []Edge      `json:"edges"`
}

// Link is a raw, unscored hyperlink target extracted from source content.
// Relevance lives on Edge only; a link that survives edge population shows up
// there as a hyper or hybrid edge.
type Link struct {
	ID           string `json:"id"`
	DestPageName string `json:"destPageName"`
}

// BreakDown is a distilled sub-topic sentence with its own embedding
type BreakDown struct {
	ID       string    `json:"id"`
	Sentence string    `json:"sentence"`
	Vect     []float32 `json:"vect,omitempty"`
}

// Edge is a ranked, typed relation from a view to another subject name
type Edge struct {
	OriginPageID string   `json:"originPageId"`
	DestPageName string   `json:"destPageName"`
	Relevance    int      `json:"relevance"`
	LinkType     LinkType `json:"linkType"`
	Tags         []string `json:"tags"`
}

// ============================================================================
// Provider Payloads
// ============================================================================

// SourceContent is the validated result of fetching a subject's source page
type SourceContent struct {
	ID       string
	PageName string
	FullText string
	Summary  string
	DescImg  string
	Links    []string
}

// Topic is a single breakdown sentence extracted from source content
type Topic struct {
	Sentence string `json:"sentence"`
}

// ScoredRelation is a candidate edge scored by the inference provider
type ScoredRelation struct {
	DestPageName string   `json:"destPageName"`
	Relevance    int      `json:"relevance"`
	Tags         []string `json:"tags"`
}
