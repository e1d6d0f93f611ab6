package embeddings

import (
	"fmt"

	"github.com/ziadkadry99/docchat/internal/errs"
)

// checkVectors rejects responses with the wrong count or with empty or
// all-zero vectors.
func checkVectors(op string, vecs [][]float32, want int) error {
	if len(vecs) != want {
		return errs.E(errs.KindEmbedding, op, fmt.Errorf("%w: got %d vectors for %d texts", errs.ErrEmptyEmbedding, len(vecs), want))
	}
	for i, v := range vecs {
		if isZero(v) {
			return errs.E(errs.KindEmbedding, op, fmt.Errorf("%w: text %d", errs.ErrEmptyEmbedding, i))
		}
	}
	return nil
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
