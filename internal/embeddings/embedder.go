package embeddings

import "context"

// Embedder turns texts into fixed-dimension vectors. Implementations return
// one vector per input text, in order, or a typed embedding-service error.
// They never return a zero vector in place of a failure.
type Embedder interface {
	// Embed generates embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string
}

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if err := checkVectors(e.Name(), vecs, 1); err != nil {
		return nil, err
	}
	return vecs[0], nil
}
