package errs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestE_NilPassthrough(t *testing.T) {
	assert.NoError(t, E(KindIngestion, "load", nil))
	assert.NoError(t, Transient(KindEmbedding, "embed", nil))
}

func TestKindOf(t *testing.T) {
	err := E(KindVectorStore, "add", errors.New("disk full"))
	assert.Equal(t, KindVectorStore, KindOf(err))

	wrapped := fmt.Errorf("ingest: %w", err)
	assert.Equal(t, KindVectorStore, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindVectorStore))

	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Transient(KindEmbedding, "embed", context.DeadlineExceeded)))
	assert.False(t, IsRetryable(E(KindEmbedding, "embed", errors.New("bad key"))))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestErrorUnwrapsCause(t *testing.T) {
	err := E(KindIngestion, "notes.bin", ErrUnparseable)
	assert.ErrorIs(t, err, ErrUnparseable)
	assert.Equal(t, "ingestion: notes.bin: unparseable document", err.Error())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "embedding_service", KindEmbedding.String())
	assert.Equal(t, "generation", KindGeneration.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestFromStatus(t *testing.T) {
	assert.True(t, IsRetryable(FromStatus(KindEmbedding, "embed", 429, "slow down")))
	assert.True(t, IsRetryable(FromStatus(KindGeneration, "complete", 503, "overloaded")))
	assert.False(t, IsRetryable(FromStatus(KindGeneration, "complete", 401, "bad key")))
	assert.Equal(t, KindGeneration, KindOf(FromStatus(KindGeneration, "complete", 400, "")))
}

func TestFromTransport(t *testing.T) {
	assert.True(t, IsRetryable(FromTransport(KindEmbedding, "embed", context.DeadlineExceeded)))
	assert.False(t, IsRetryable(FromTransport(KindEmbedding, "embed", context.Canceled)))
	assert.False(t, IsRetryable(FromTransport(KindEmbedding, "embed", errors.New("bad url"))))
	assert.NoError(t, FromTransport(KindEmbedding, "embed", nil))
}
