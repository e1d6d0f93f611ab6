package fixtures

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"unicode"
)

// Embedder is a deterministic bag-of-words embedder. Texts sharing words
// score higher under cosine similarity, which is enough to exercise
// retrieval end to end without a network.
type Embedder struct {
	Dim int

	mu    sync.Mutex
	Calls [][]string
	Err   error
}

// NewEmbedder returns an Embedder with 128 dimensions.
func NewEmbedder() *Embedder { return &Embedder{Dim: 128} }

func (e *Embedder) Name() string    { return "fixture-bow" }
func (e *Embedder) Dimensions() int { return e.Dim }

func (e *Embedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.Calls = append(e.Calls, append([]string(nil), texts...))
	err := e.Err
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *Embedder) vector(text string) []float32 {
	v := make([]float32, e.Dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		v[h.Sum32()%uint32(e.Dim)]++
	}
	// A constant component keeps texts without words from being zero.
	v[0] += 0.01

	var norm float64
	for _, x := range v {
		norm += float64(x * x)
	}
	n := float32(math.Sqrt(norm))
	for i := range v {
		v[i] /= n
	}
	return v
}
