// Package errs defines the typed failures raised by the ingestion and
// question-answering pipeline. Each error carries a Kind that callers (the HTTP
// layer in particular) use to pick a response, and a retryable flag that the
// retry helpers consult.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure by the stage that produced it.
type Kind int

const (
	KindUnknown Kind = iota
	KindIngestion
	KindEmbedding
	KindVectorStore
	KindRetrieval
	KindGeneration
)

func (k Kind) String() string {
	switch k {
	case KindIngestion:
		return "ingestion"
	case KindEmbedding:
		return "embedding_service"
	case KindVectorStore:
		return "vector_store"
	case KindRetrieval:
		return "retrieval"
	case KindGeneration:
		return "generation"
	default:
		return "unknown"
	}
}

// Sentinel causes wrapped by typed errors.
var (
	// ErrUnparseable indicates a file whose content could not be read as text.
	ErrUnparseable = errors.New("unparseable document")

	// ErrEmptyEmbedding indicates the embedding service returned no vector.
	ErrEmptyEmbedding = errors.New("embedding service returned no vector")

	// ErrInvalidChunking indicates a chunk size / overlap combination that cannot
	// produce bounded, overlapping chunks.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrNoFile indicates an upload request carried no file.
	ErrNoFile = errors.New("no file provided")

	// ErrEmptyQuestion indicates a blank question.
	ErrEmptyQuestion = errors.New("no question provided")
)

// Error is a pipeline failure tagged with its Kind.
type Error struct {
	Kind      Kind
	Op        string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err as a permanent failure of the given kind. A nil err yields nil.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Transient wraps err as a retryable failure of the given kind.
func Transient(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Retryable: true, Err: err}
}

// KindOf returns the kind of the outermost typed error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether any typed error in err's chain is marked retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
