// Package retriever widens a question into several phrasings, searches the
// vector store with each, and merges the hits into one ranked list.
package retriever

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/docchat/internal/embeddings"
	"github.com/ziadkadry99/docchat/internal/errs"
	"github.com/ziadkadry99/docchat/internal/llm"
	"github.com/ziadkadry99/docchat/internal/logger"
	"github.com/ziadkadry99/docchat/internal/vectordb"
)

// DefaultK is the number of hits requested per query.
const DefaultK = 3

// DefaultMaxQueries caps how many generated phrasings are searched.
const DefaultMaxQueries = 3

const paraphrasePrompt = `You are an AI language model assistant. Your task is to generate %d different versions of the given user question to retrieve relevant documents from a vector database. By generating multiple perspectives on the user question, your goal is to help the user overcome some of the limitations of distance-based similarity search. Provide these alternative questions separated by newlines.
Original question: %s`

// Options configures a MultiQuery retriever.
type Options struct {
	Collection  string
	K           int
	MaxQueries  int
	Temperature float64
	Model       string
}

// MultiQuery is a retriever that expands the question with LLM-generated
// phrasings before searching.
type MultiQuery struct {
	llm      llm.Provider
	embedder embeddings.Embedder
	store    vectordb.VectorStore
	opts     Options
}

// Hit is one retrieved chunk together with the best rank it reached in any
// of the per-query result lists.
type Hit struct {
	vectordb.SearchResult
	Rank int
}

// Result is the merged retrieval output. Hits never repeat a chunk ID.
type Result struct {
	Queries []string
	Hits    []Hit
}

// New creates a MultiQuery retriever.
func New(provider llm.Provider, embedder embeddings.Embedder, store vectordb.VectorStore, opts Options) *MultiQuery {
	if opts.K <= 0 {
		opts.K = DefaultK
	}
	if opts.MaxQueries <= 0 {
		opts.MaxQueries = DefaultMaxQueries
	}
	return &MultiQuery{llm: provider, embedder: embedder, store: store, opts: opts}
}

// K returns the per-query hit count.
func (m *MultiQuery) K() int { return m.opts.K }

// Retrieve searches with the question and its generated phrasings. A
// failure to generate phrasings is logged and the question alone is used.
// Embedding or search failures are returned as retrieval errors.
func (m *MultiQuery) Retrieve(ctx context.Context, question string, k int) (*Result, error) {
	if k <= 0 {
		k = m.opts.K
	}

	queries := []string{question}
	alternatives, err := m.Paraphrase(ctx, question)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errs.E(errs.KindRetrieval, "paraphrase", ctx.Err())
		}
		logger.Warn("query expansion failed, searching with the original question: %v", err)
	} else {
		queries = append(queries, alternatives...)
	}
	logger.Debug("retrieving with %d queries: %q", len(queries), queries)

	perQuery := make([][]vectordb.SearchResult, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			vec, err := embeddings.EmbedOne(gctx, m.embedder, q)
			if err != nil {
				return errs.E(errs.KindRetrieval, "embed query", err)
			}
			hits, err := m.store.Search(gctx, m.opts.Collection, vec, k, nil)
			if err != nil {
				return errs.E(errs.KindRetrieval, "search", err)
			}
			perQuery[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Result{Queries: queries, Hits: merge(perQuery)}, nil
}

// Paraphrase asks the LLM for alternative phrasings of the question.
func (m *MultiQuery) Paraphrase(ctx context.Context, question string) ([]string, error) {
	resp, err := m.llm.Complete(ctx, llm.CompletionRequest{
		Model: m.opts.Model,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: fmt.Sprintf(paraphrasePrompt, m.opts.MaxQueries, question)},
		},
		Temperature: m.opts.Temperature,
	})
	if err != nil {
		return nil, err
	}
	return parseAlternatives(resp.Content, question, m.opts.MaxQueries), nil
}

var listMarker = regexp.MustCompile(`^\s*(?:[-*•]+|\d+[.)]|\(\d+\))\s*`)

// parseAlternatives splits an LLM reply into one query per line, dropping
// list markers, blank lines, repeats and copies of the original question.
func parseAlternatives(reply, original string, max int) []string {
	seen := map[string]bool{normalize(original): true}
	var out []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		line = strings.Trim(line, `"`)
		if line == "" {
			continue
		}
		key := normalize(line)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, line)
		if len(out) == max {
			break
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// merge unions per-query hit lists by chunk ID. Each chunk keeps the best
// rank it reached; the output is ordered by that rank, then similarity, then
// the order in which chunks were first seen.
func merge(perQuery [][]vectordb.SearchResult) []Hit {
	type entry struct {
		hit   Hit
		first int
	}
	byID := make(map[string]*entry)
	var order []*entry
	for _, hits := range perQuery {
		for rank, h := range hits {
			e, ok := byID[h.Chunk.ID]
			if !ok {
				e = &entry{hit: Hit{SearchResult: h, Rank: rank}, first: len(order)}
				byID[h.Chunk.ID] = e
				order = append(order, e)
				continue
			}
			if rank < e.hit.Rank {
				e.hit.Rank = rank
			}
			if h.Similarity > e.hit.Similarity {
				e.hit.Similarity = h.Similarity
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.hit.Rank != b.hit.Rank {
			return a.hit.Rank < b.hit.Rank
		}
		if a.hit.Similarity != b.hit.Similarity {
			return a.hit.Similarity > b.hit.Similarity
		}
		return a.first < b.first
	})

	out := make([]Hit, len(order))
	for i, e := range order {
		out[i] = e.hit
	}
	return out
}
