package vectordb

import "github.com/ziadkadry99/docchat/internal/document"

// SearchResult pairs a stored chunk with its similarity to the query.
type SearchResult struct {
	Chunk      document.Chunk `json:"chunk"`
	Similarity float32        `json:"similarity"`
	// Seq orders entries by insertion; lower was added earlier.
	Seq int64 `json:"-"`
}

// SearchFilter narrows a search by exact metadata match.
type SearchFilter struct {
	Source *string
	Format *document.Format
}

func buildWhereClause(filter *SearchFilter) map[string]string {
	if filter == nil {
		return nil
	}
	where := make(map[string]string)
	if filter.Source != nil {
		where[document.KeySource] = *filter.Source
	}
	if filter.Format != nil {
		where[document.KeyFormat] = string(*filter.Format)
	}
	if len(where) == 0 {
		return nil
	}
	return where
}
