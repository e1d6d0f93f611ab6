package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ziadkadry99/docchat/internal/errs"
)

var fast = Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

func TestDo_RetriesTransient(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fast, "embed", func(context.Context) error {
		calls++
		if calls < 3 {
			return errs.Transient(errs.KindEmbedding, "embed", errors.New("503"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_StopsOnPermanent(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fast, "embed", func(context.Context) error {
		calls++
		return errs.E(errs.KindEmbedding, "embed", errors.New("401"))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fast, "generate", func(context.Context) error {
		calls++
		return errs.Transient(errs.KindGeneration, "generate", errors.New("429"))
	})
	if !errs.IsRetryable(err) {
		t.Errorf("expected last transient error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	slow := Policy{MaxAttempts: 5, BaseDelay: time.Hour}
	calls := 0
	err := Do(ctx, slow, "embed", func(context.Context) error {
		calls++
		cancel()
		return errs.Transient(errs.KindEmbedding, "embed", errors.New("timeout"))
	})
	if err == nil || calls != 1 {
		t.Errorf("expected single call and error, got calls=%d err=%v", calls, err)
	}
}
