// Package storage defines the persistence boundary: whole-blob JSON
// documents under stable logical keys. Callers load a full collection,
// mutate it in memory, and write it back whole; there is no partial update.
package storage

import "context"

// Logical keys for the two persisted collections.
const (
	KeyPredictions = "meme-finder-predictions"
	KeyWeights     = "meme-finder-algorithm-weights"
)

// BlobStore loads and saves opaque JSON blobs by key.
//
// Load returns (nil, nil) when the key has never been written; callers fall
// back to their documented defaults in that case and on any error.
type BlobStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
