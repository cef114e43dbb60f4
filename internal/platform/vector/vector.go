package vector

import "context"

// Vector is a single embedding with its payload metadata.
type Vector struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// VectorMatch is a query hit with a normalized similarity score in [0,1]
// for distance-based metrics (cosine scores pass through unchanged).
type VectorMatch struct {
	ID    string
	Score float64
}

// Store is the vector index used for book content retrieval. Namespaces
// partition the index per book so queries never cross book boundaries.
type Store interface {
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
	QueryMatches(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]VectorMatch, error)
	DeleteIDs(ctx context.Context, namespace string, ids []string) error
}
