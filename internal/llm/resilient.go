package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/ziadkadry99/docchat/internal/errs"
	"github.com/ziadkadry99/docchat/internal/retry"
)

// Options configures a ResilientProvider.
type Options struct {
	// Timeout bounds a single Complete attempt. Zero means no timeout.
	Timeout time.Duration
	// RequestsPerMinute caps the call rate. Zero disables limiting.
	RequestsPerMinute int
	Retry             retry.Policy
}

// ResilientProvider wraps a Provider with a token bucket rate limiter, a
// per-attempt timeout and bounded retry of transient failures.
type ResilientProvider struct {
	provider Provider
	opts     Options
	limiter  *rate.Limiter
}

// NewResilientProvider wraps the given provider.
func NewResilientProvider(provider Provider, opts Options) *ResilientProvider {
	p := &ResilientProvider{provider: provider, opts: opts}
	if opts.RequestsPerMinute > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), opts.RequestsPerMinute)
	}
	return p
}

func (p *ResilientProvider) Name() string {
	return p.provider.Name()
}

func (p *ResilientProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var resp *CompletionResponse
	err := retry.Do(ctx, p.opts.Retry, "complete "+p.provider.Name(), func(ctx context.Context) error {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return errs.FromTransport(errs.KindGeneration, "rate limit", err)
			}
		}

		attemptCtx := ctx
		if p.opts.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
			defer cancel()
		}

		r, err := p.provider.Complete(attemptCtx, req)
		if err != nil {
			if errs.KindOf(err) == errs.KindUnknown {
				err = errs.FromTransport(errs.KindGeneration, p.provider.Name(), err)
			}
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
