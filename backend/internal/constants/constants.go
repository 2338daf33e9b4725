package constants

// Embedding constants
const (
	// EmbeddingDimensions is the fixed dimensionality of every stored vector
	EmbeddingDimensions = 768

	// EmbeddingBatchLimit is the provider-side ceiling on texts per embedding call
	EmbeddingBatchLimit = 100
)

// Graph constants
const (
	// DefaultEdgesLimit caps the number of ranked edges kept per view
	DefaultEdgesLimit = 20

	// RelationScoringCap is the provider-side ceiling on scored candidates per call
	RelationScoringCap = 80
)
