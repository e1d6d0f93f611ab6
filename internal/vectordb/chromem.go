package vectordb

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/docchat/internal/document"
	"github.com/ziadkadry99/docchat/internal/errs"
)

const (
	keySeq       = "seq"
	defaultLimit = 10
)

// ChromemStore implements VectorStore on a chromem-go database. With a
// directory it persists every write to disk and reloads on open.
type ChromemStore struct {
	db        *chromem.DB
	embedFunc chromem.EmbeddingFunc

	// mu serialises appends against searches so a search never observes a
	// partially added batch.
	mu      sync.RWMutex
	lastSeq int64
}

// Open opens a persistent store under dir, or an in-memory store when dir is
// empty. embedFunc is used by chromem only for entries added without a vector.
func Open(dir string, embedFunc chromem.EmbeddingFunc) (*ChromemStore, error) {
	var (
		db  *chromem.DB
		err error
	)
	if dir == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dir, true)
		if err != nil {
			return nil, errs.E(errs.KindVectorStore, "open", fmt.Errorf("open %s: %w", dir, err))
		}
	}
	return &ChromemStore{db: db, embedFunc: embedFunc}, nil
}

func (s *ChromemStore) Add(ctx context.Context, collection string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.db.GetOrCreateCollection(collection, nil, s.embedFunc)
	if err != nil {
		return errs.E(errs.KindVectorStore, "add", fmt.Errorf("collection %q: %w", collection, err))
	}

	docs := make([]chromem.Document, len(entries))
	for i, e := range entries {
		if len(e.Vector) == 0 {
			return errs.E(errs.KindVectorStore, "add", fmt.Errorf("%w: chunk %s", errs.ErrEmptyEmbedding, e.Chunk.ID))
		}
		md := e.Chunk.Metadata.ToMap()
		md[keySeq] = strconv.FormatInt(s.nextSeq(), 10)
		docs[i] = chromem.Document{
			ID:        e.Chunk.ID,
			Content:   e.Chunk.Text,
			Metadata:  md,
			Embedding: e.Vector,
		}
	}

	if err := col.AddDocuments(ctx, docs, 1); err != nil {
		return errs.E(errs.KindVectorStore, "add", err)
	}
	return nil
}

// nextSeq returns a strictly increasing sequence number that also increases
// across restarts. Callers hold s.mu.
func (s *ChromemStore) nextSeq() int64 {
	seq := time.Now().UnixNano()
	if seq <= s.lastSeq {
		seq = s.lastSeq + 1
	}
	s.lastSeq = seq
	return seq
}

func (s *ChromemStore) Search(ctx context.Context, collection string, query []float32, k int, filter *SearchFilter) ([]SearchResult, error) {
	if k <= 0 {
		k = defaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	col := s.db.GetCollection(collection, s.embedFunc)
	if col == nil {
		return nil, nil
	}
	count := col.Count()
	if count == 0 {
		return nil, nil
	}

	where := buildWhereClause(filter)

	// Fetch past k until the last fetched result scores strictly below the
	// k-th, so every entry tied with the k-th is seen before ordering.
	n := min(k+1, count)
	var results []chromem.Result
	for {
		var err error
		results, err = col.QueryEmbedding(ctx, query, n, where, nil)
		if err != nil {
			return nil, errs.E(errs.KindVectorStore, "search", err)
		}
		if n >= count || len(results) < n {
			break
		}
		if len(results) > k && results[len(results)-1].Similarity < results[k-1].Similarity {
			break
		}
		n = min(n*2, count)
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		seq, _ := strconv.ParseInt(r.Metadata[keySeq], 10, 64)
		out[i] = SearchResult{
			Chunk: document.Chunk{
				ID:       r.ID,
				Text:     r.Content,
				Metadata: document.MetadataFromMap(r.Metadata),
			},
			Similarity: r.Similarity,
			Seq:        seq,
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Seq < out[j].Seq
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (s *ChromemStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col := s.db.GetCollection(collection, s.embedFunc)
	if col == nil {
		return 0
	}
	return col.Count()
}

func (s *ChromemStore) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for name := range s.db.ListCollections() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
