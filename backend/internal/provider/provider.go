// Package provider implements the content and inference boundary: fetching
// subject source pages and turning loosely-typed AI responses into the
// strongly-typed domain entities the synthesizer consumes.
package provider

// Provider bundles the MediaWiki and inference clients behind the
// synthesizer's content contract
type Provider struct {
	*Wiki
	*Inference
}

// New creates a combined content and inference provider
func New(wiki *Wiki, inference *Inference) *Provider {
	return &Provider{
		Wiki:      wiki,
		Inference: inference,
	}
}
