package vectordb

import (
	"context"

	"github.com/ziadkadry99/docchat/internal/document"
)

// VectorStore holds named, append-only collections of embedded chunks.
type VectorStore interface {
	// Add appends entries to the named collection, creating it if needed.
	// Entries are never replaced: adding the same text twice stores it twice.
	Add(ctx context.Context, collection string, entries []Entry) error

	// Search returns up to k entries nearest to the query vector by cosine
	// similarity. A missing or empty collection yields no results.
	Search(ctx context.Context, collection string, query []float32, k int, filter *SearchFilter) ([]SearchResult, error)

	// Count returns the number of entries in the named collection.
	Count(collection string) int

	// Collections lists the collection names.
	Collections() []string
}

// Entry pairs a chunk with its embedding.
type Entry struct {
	Chunk  document.Chunk
	Vector []float32
}
