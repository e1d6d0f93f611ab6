package embeddings

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/ziadkadry99/docchat/internal/errs"
	"github.com/ziadkadry99/docchat/internal/retry"
)

// RequestBatcher is implemented by embedders that send at most
// RequestBatchSize texts in one upstream request.
type RequestBatcher interface {
	RequestBatchSize() int
}

// Options configures a ResilientEmbedder.
type Options struct {
	// Timeout bounds a single upstream request attempt. Zero means no timeout.
	Timeout time.Duration
	// RequestsPerSecond and Burst configure the token bucket shared by all
	// callers. Zero RequestsPerSecond disables rate limiting.
	RequestsPerSecond float64
	Burst             int
	Retry             retry.Policy
}

// ResilientEmbedder wraps an Embedder with a per-attempt timeout, a rate
// limiter and bounded retry of transient failures. Large inputs are split
// into the inner embedder's request batches and every batch gets its own
// limiter token, timeout and retries.
type ResilientEmbedder struct {
	inner   Embedder
	opts    Options
	limiter *rate.Limiter
}

// NewResilient wraps e.
func NewResilient(e Embedder, opts Options) *ResilientEmbedder {
	r := &ResilientEmbedder{inner: e, opts: opts}
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return r
}

func (r *ResilientEmbedder) Name() string    { return r.inner.Name() }
func (r *ResilientEmbedder) Dimensions() int { return r.inner.Dimensions() }

func (r *ResilientEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	size := len(texts)
	if b, ok := r.inner.(RequestBatcher); ok && b.RequestBatchSize() > 0 {
		size = b.RequestBatchSize()
	}
	if size == 0 {
		return r.embedBatch(ctx, texts)
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		vecs, err := r.embedBatch(ctx, texts[start:min(start+size, len(texts))])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (r *ResilientEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := retry.Do(ctx, r.opts.Retry, "embed "+r.inner.Name(), func(ctx context.Context) error {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return errs.FromTransport(errs.KindEmbedding, "rate limit", err)
			}
		}

		attemptCtx := ctx
		if r.opts.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
			defer cancel()
		}

		vecs, err := r.inner.Embed(attemptCtx, texts)
		if err != nil {
			if errs.KindOf(err) == errs.KindUnknown {
				err = errs.FromTransport(errs.KindEmbedding, r.inner.Name(), err)
			}
			return err
		}
		out = vecs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
