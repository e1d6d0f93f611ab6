package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ziadkadry99/docchat/internal/errs"
	"github.com/ziadkadry99/docchat/internal/retry"
)

func TestGoogleEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/models/embedding-001:embedContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "k" {
			t.Errorf("missing api key")
		}
		w.Write([]byte(`{"embedding":{"values":[0.1,0.2,0.3]}}`))
	}))
	defer srv.Close()

	e := NewGoogleEmbedder("k", ModelEmbedding001, srv.URL)
	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(vecs) != 2 || len(vecs[0]) != 3 {
		t.Errorf("unexpected vectors %v", vecs)
	}
	if e.Dimensions() != 768 {
		t.Errorf("Dimensions() = %d, want 768", e.Dimensions())
	}
}

func TestGoogleEmbedder_StatusClassification(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusServiceUnavailable, true},
		{http.StatusTooManyRequests, true},
		{http.StatusUnauthorized, false},
		{http.StatusBadRequest, false},
	}
	for _, tc := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tc.status)
		}))
		_, err := NewGoogleEmbedder("k", ModelEmbedding001, srv.URL).Embed(context.Background(), []string{"x"})
		srv.Close()

		if errs.KindOf(err) != errs.KindEmbedding {
			t.Errorf("status %d: kind = %v, want embedding", tc.status, errs.KindOf(err))
		}
		if errs.IsRetryable(err) != tc.retryable {
			t.Errorf("status %d: retryable = %v, want %v", tc.status, errs.IsRetryable(err), tc.retryable)
		}
	}
}

func TestGoogleEmbedder_RejectsEmptyVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embedding":{"values":[]}}`))
	}))
	defer srv.Close()

	_, err := NewGoogleEmbedder("k", ModelEmbedding001, srv.URL).Embed(context.Background(), []string{"x"})
	if !errors.Is(err, errs.ErrEmptyEmbedding) {
		t.Errorf("expected ErrEmptyEmbedding, got %v", err)
	}
}

func TestOllamaEmbedder_Batch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbedRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "nomic-embed-text" || len(req.Input) != 2 {
			t.Errorf("unexpected request %+v", req)
		}
		w.Write([]byte(`{"embeddings":[[1,0],[0,1]]}`))
	}))
	defer srv.Close()

	vecs, err := NewOllamaEmbedder("nomic-embed-text", 2, srv.URL).Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if vecs[1][1] != 1 {
		t.Errorf("unexpected vectors %v", vecs)
	}
}

func TestOllamaEmbedder_ZeroVectorIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embeddings":[[0,0]]}`))
	}))
	defer srv.Close()

	_, err := NewOllamaEmbedder("m", 2, srv.URL).Embed(context.Background(), []string{"a"})
	if !errors.Is(err, errs.ErrEmptyEmbedding) {
		t.Errorf("expected ErrEmptyEmbedding, got %v", err)
	}
}

func TestOpenAIEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.5,0.5]}],"model":"text-embedding-3-small"}`))
	}))
	defer srv.Close()

	vecs, err := NewOpenAIEmbedder("k", ModelTextEmbedding3Small, srv.URL+"/v1").Embed(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(vecs) != 1 || vecs[0][0] != 0.5 {
		t.Errorf("unexpected vectors %v", vecs)
	}
}

func TestOpenAIEmbedder_RateLimitedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIEmbedder("k", ModelTextEmbedding3Small, srv.URL+"/v1").Embed(context.Background(), []string{"a"})
	if !errs.IsRetryable(err) || errs.KindOf(err) != errs.KindEmbedding {
		t.Errorf("expected transient embedding error, got %v", err)
	}
}

type flakyEmbedder struct {
	failures int32
	calls    int32
	err      error
}

func (f *flakyEmbedder) Name() string    { return "flaky" }
func (f *flakyEmbedder) Dimensions() int { return 2 }
func (f *flakyEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if n <= f.failures {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

var fastRetry = retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}

func TestResilient_RetriesTransient(t *testing.T) {
	inner := &flakyEmbedder{failures: 2, err: errs.Transient(errs.KindEmbedding, "x", errors.New("503"))}
	r := NewResilient(inner, Options{Retry: fastRetry, RequestsPerSecond: 1000, Burst: 10})

	if _, err := r.Embed(context.Background(), []string{"a"}); err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestResilient_PermanentNotRetried(t *testing.T) {
	inner := &flakyEmbedder{failures: 5, err: errs.E(errs.KindEmbedding, "x", errors.New("401"))}
	r := NewResilient(inner, Options{Retry: fastRetry})

	if _, err := r.Embed(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1", inner.calls)
	}
}

type slowEmbedder struct{ flakyEmbedder }

func (s *slowEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestResilient_TimeoutIsTypedAndRetried(t *testing.T) {
	r := NewResilient(&slowEmbedder{}, Options{Timeout: 5 * time.Millisecond, Retry: retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}})

	_, err := r.Embed(context.Background(), []string{"a"})
	if errs.KindOf(err) != errs.KindEmbedding || !errs.IsRetryable(err) {
		t.Errorf("expected transient embedding error, got %v", err)
	}
}

func TestToChromemFunc(t *testing.T) {
	fn := ToChromemFunc(&flakyEmbedder{})
	v, err := fn(context.Background(), "a")
	if err != nil || len(v) != 2 {
		t.Errorf("ToChromemFunc() = %v, %v", v, err)
	}
}

func googleServer(t *testing.T, latency time.Duration, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(latency)
		w.Write([]byte(`{"embedding":{"values":[0.1,0.2,0.3]}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func sameTexts(n int) []string {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = "chunk"
	}
	return texts
}

func TestResilient_TimeoutPerUpstreamRequest(t *testing.T) {
	var calls atomic.Int32
	srv := googleServer(t, 20*time.Millisecond, &calls)

	// The batch takes ~400ms in total; each request needs ~20ms.
	r := NewResilient(NewGoogleEmbedder("k", ModelEmbedding001, srv.URL), Options{
		Timeout: 100 * time.Millisecond,
		Retry:   retry.Policy{MaxAttempts: 1},
	})

	vecs, err := r.Embed(context.Background(), sameTexts(20))
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(vecs) != 20 {
		t.Errorf("len(vecs) = %d, want 20", len(vecs))
	}
	if n := calls.Load(); n != 20 {
		t.Errorf("upstream calls = %d, want 20", n)
	}
}

func TestResilient_RateLimitPerUpstreamRequest(t *testing.T) {
	var calls atomic.Int32
	srv := googleServer(t, 0, &calls)

	r := NewResilient(NewGoogleEmbedder("k", ModelEmbedding001, srv.URL), Options{
		RequestsPerSecond: 100,
		Burst:             1,
		Retry:             retry.Policy{MaxAttempts: 1},
	})

	start := time.Now()
	if _, err := r.Embed(context.Background(), sameTexts(20)); err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	// 20 tokens at 100/s with a burst of 1 take at least 190ms.
	if elapsed := time.Since(start); elapsed < 180*time.Millisecond {
		t.Errorf("elapsed = %s, want each request to wait for a token", elapsed)
	}
}

type countingBatcher struct {
	flakyEmbedder
	sizes []int
}

func (c *countingBatcher) RequestBatchSize() int { return 3 }

func (c *countingBatcher) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	c.sizes = append(c.sizes, len(texts))
	return c.flakyEmbedder.Embed(ctx, texts)
}

func TestResilient_SplitsIntoRequestBatches(t *testing.T) {
	inner := &countingBatcher{}
	r := NewResilient(inner, Options{Retry: fastRetry})

	vecs, err := r.Embed(context.Background(), []string{"a", "b", "c", "d", "e", "f", "g"})
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(vecs) != 7 {
		t.Errorf("len(vecs) = %d, want 7", len(vecs))
	}
	if len(inner.sizes) != 3 || inner.sizes[0] != 3 || inner.sizes[2] != 1 {
		t.Errorf("batch sizes = %v, want [3 3 1]", inner.sizes)
	}
}
