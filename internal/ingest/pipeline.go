package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ziadkadry99/docchat/internal/chunker"
	"github.com/ziadkadry99/docchat/internal/document"
	"github.com/ziadkadry99/docchat/internal/embeddings"
	"github.com/ziadkadry99/docchat/internal/errs"
	"github.com/ziadkadry99/docchat/internal/loader"
	"github.com/ziadkadry99/docchat/internal/logger"
	"github.com/ziadkadry99/docchat/internal/vectordb"
	"github.com/ziadkadry99/docchat/internal/walker"
)

// Mode selects how files that were ingested before are treated.
type Mode string

const (
	// ModeIncremental skips files whose path and content hash are in the ledger.
	ModeIncremental Mode = "incremental"
	// ModeFull ingests every file again. Existing entries are kept, so
	// unchanged files end up stored twice.
	ModeFull Mode = "full"
)

// ProgressFunc is called after each file has been stored.
type ProgressFunc func(done, total int, path string)

// Options configures a Pipeline.
type Options struct {
	Collection string
	Mode       Mode
	Include    []string
	Exclude    []string
	Strict     bool
}

// Result summarises one ingestion run.
type Result struct {
	loader.Report
	ChunksAdded int           `json:"chunks_added"`
	Duration    time.Duration `json:"-"`
}

// Pipeline orchestrates ingestion: walk -> load -> chunk -> embed -> store.
// Runs are serialised; a second caller waits for the first to finish.
type Pipeline struct {
	embedder   embeddings.Embedder
	store      vectordb.VectorStore
	chunker    *chunker.Chunker
	ledger     *Ledger
	opts       Options
	onProgress ProgressFunc

	mu sync.Mutex
}

// NewPipeline creates a Pipeline. A nil ledger disables incremental mode.
func NewPipeline(
	embedder embeddings.Embedder,
	store vectordb.VectorStore,
	chk *chunker.Chunker,
	ledger *Ledger,
	opts Options,
) *Pipeline {
	if opts.Mode == "" {
		opts.Mode = ModeIncremental
	}
	if chk == nil {
		chk = chunker.New()
	}
	return &Pipeline{
		embedder: embedder,
		store:    store,
		chunker:  chk,
		ledger:   ledger,
		opts:     opts,
	}
}

// SetProgressFunc sets the progress callback.
func (p *Pipeline) SetProgressFunc(fn ProgressFunc) {
	p.onProgress = fn
}

// Collection returns the collection this pipeline writes to.
func (p *Pipeline) Collection() string { return p.opts.Collection }

// Run ingests every document under dir using the configured mode.
func (p *Pipeline) Run(ctx context.Context, dir string) (*Result, error) {
	return p.RunMode(ctx, dir, p.opts.Mode)
}

// RunMode ingests dir with an explicit mode. Files that fail to load are
// listed in the result and skipped. An embedding or vector store failure
// stops the run; files stored before it remain recorded.
func (p *Pipeline) RunMode(ctx context.Context, dir string, mode Mode) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	incremental := mode == ModeIncremental && p.ledger != nil

	dirOpts := loader.DirOptions{
		Include: p.opts.Include,
		Exclude: p.opts.Exclude,
		Strict:  p.opts.Strict,
	}
	if incremental {
		dirOpts.Skip = func(f walker.FileInfo) bool {
			seen, err := p.ledger.Seen(ctx, p.opts.Collection, f.Path, f.ContentHash)
			if err != nil {
				logger.Warn("ledger lookup for %s failed, ingesting: %v", f.RelPath, err)
				return false
			}
			return seen
		}
	}

	docs, report, err := loader.LoadDir(ctx, dir, dirOpts)
	result := &Result{Report: report}
	if err != nil {
		return result, err
	}
	for _, s := range report.Skipped {
		logger.Debug("unchanged, skipping %s", s)
	}
	for _, f := range report.Failed {
		logger.Warn("skipping %s: %s", f.Path, f.Error)
	}

	files := groupBySource(docs)
	for i, f := range files {
		n, err := p.storeFile(ctx, f)
		if err != nil {
			result.Duration = time.Since(start)
			return result, err
		}
		result.ChunksAdded += n
		if p.onProgress != nil {
			p.onProgress(i+1, len(files), f.source)
		}
	}

	// Loaded files that produced no documents (blank text, image-only PDFs)
	// are still recorded so they are not parsed again.
	if incremental {
		recorded := make(map[string]bool, len(files))
		for _, f := range files {
			recorded[f.source] = true
		}
		for _, path := range report.Loaded {
			if recorded[path] {
				continue
			}
			hash, err := walker.HashFile(path)
			if err != nil {
				continue
			}
			if err := p.ledger.Record(ctx, p.opts.Collection, path, hash, 0); err != nil {
				logger.Warn("%v", err)
			}
		}
	}

	result.Duration = time.Since(start)
	logger.Info("ingested %d files (%d chunks), skipped %d, failed %d in %s",
		len(report.Loaded), result.ChunksAdded, len(report.Skipped), len(report.Failed),
		result.Duration.Round(time.Millisecond))
	return result, nil
}

type sourceFile struct {
	source string
	hash   string
	docs   []document.RawDocument
}

// groupBySource splits the loaded documents per originating file, keeping
// load order.
func groupBySource(docs []document.RawDocument) []sourceFile {
	var files []sourceFile
	index := make(map[string]int)
	for _, d := range docs {
		i, ok := index[d.Metadata.Source]
		if !ok {
			i = len(files)
			index[d.Metadata.Source] = i
			files = append(files, sourceFile{source: d.Metadata.Source, hash: d.Metadata.ContentHash})
		}
		files[i].docs = append(files[i].docs, d)
	}
	return files
}

func (p *Pipeline) storeFile(ctx context.Context, f sourceFile) (int, error) {
	chunks := p.chunker.Split(f.docs)
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}

		vecs, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			if errs.KindOf(err) == errs.KindUnknown {
				err = errs.E(errs.KindEmbedding, f.source, err)
			}
			return 0, fmt.Errorf("embedding %s: %w", f.source, err)
		}
		if len(vecs) != len(chunks) {
			return 0, errs.E(errs.KindEmbedding, f.source,
				fmt.Errorf("%w: got %d vectors for %d chunks", errs.ErrEmptyEmbedding, len(vecs), len(chunks)))
		}

		entries := make([]vectordb.Entry, len(chunks))
		for i, c := range chunks {
			entries[i] = vectordb.Entry{Chunk: c, Vector: vecs[i]}
		}
		if err := p.store.Add(ctx, p.opts.Collection, entries); err != nil {
			return 0, fmt.Errorf("storing %s: %w", f.source, err)
		}
	}

	if p.ledger != nil {
		if err := p.ledger.Record(ctx, p.opts.Collection, f.source, f.hash, len(chunks)); err != nil {
			logger.Warn("%v", err)
		}
	}
	logger.Debug("stored %d chunks from %s", len(chunks), f.source)
	return len(chunks), nil
}
