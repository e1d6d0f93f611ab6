// Package chunker splits raw documents into bounded, overlapping chunks.
package chunker

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ziadkadry99/docchat/internal/document"
	"github.com/ziadkadry99/docchat/internal/errs"
)

// DefaultChunkSize is the maximum number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the number of characters shared by consecutive chunks.
const DefaultChunkOverlap = 100

// Chunker splits documents with a fixed-size sliding window measured in runes.
type Chunker struct {
	chunkSize int
	overlap   int
	newID     func() string
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithChunkSize sets the maximum chunk length in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		c.chunkSize = size
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// WithIDFunc replaces the chunk ID generator. Used in tests.
func WithIDFunc(fn func() string) Option {
	return func(c *Chunker) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// New creates a chunker, falling back to defaults for invalid settings.
func New(opts ...Option) *Chunker {
	c := newChunker(opts)
	if c.chunkSize <= 0 {
		c.chunkSize = DefaultChunkSize
	}
	if c.overlap < 0 {
		c.overlap = DefaultChunkOverlap
	}
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}
	return c
}

// NewStrict creates a chunker and rejects settings that cannot produce
// bounded overlapping chunks instead of correcting them.
func NewStrict(opts ...Option) (*Chunker, error) {
	c := newChunker(opts)
	if c.chunkSize <= 0 || c.overlap < 0 || c.overlap >= c.chunkSize {
		return nil, errs.E(errs.KindIngestion, "chunker",
			fmt.Errorf("%w: size=%d overlap=%d", errs.ErrInvalidChunking, c.chunkSize, c.overlap))
	}
	return c, nil
}

func newChunker(opts []Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Size returns the configured maximum chunk length.
func (c *Chunker) Size() int { return c.chunkSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split chunks every document in order. Chunks never span two documents.
func (c *Chunker) Split(docs []document.RawDocument) []document.Chunk {
	var out []document.Chunk
	for _, doc := range docs {
		out = append(out, c.SplitDocument(doc)...)
	}
	return out
}

// SplitDocument chunks a single document. Whitespace-only text yields no chunks.
func (c *Chunker) SplitDocument(doc document.RawDocument) []document.Chunk {
	if strings.TrimSpace(doc.Text) == "" {
		return nil
	}

	runes := []rune(doc.Text)
	step := c.chunkSize - c.overlap
	chunks := make([]document.Chunk, 0, len(runes)/step+1)

	for start, index := 0, 0; ; start, index = start+step, index+1 {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}

		meta := doc.Metadata
		meta.ChunkIndex = index
		chunks = append(chunks, document.Chunk{
			ID:       c.newID(),
			Text:     string(runes[start:end]),
			Metadata: meta,
		})

		if end == len(runes) {
			break
		}
	}
	return chunks
}
