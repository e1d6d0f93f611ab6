package loader

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ziadkadry99/docchat/internal/document"
	"github.com/ziadkadry99/docchat/internal/errs"
	"github.com/ziadkadry99/docchat/internal/walker"
)

// TextLoader is the fallback for every extension without a dedicated parser.
// It reads the file as text and rejects content that looks binary.
type TextLoader struct{}

func (TextLoader) Format() document.Format { return document.FormatText }

func (TextLoader) Load(_ context.Context, path string) ([]document.RawDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.E(errs.KindIngestion, path, err)
	}
	if walker.IsBinary(data) {
		return nil, errs.E(errs.KindIngestion, path, fmt.Errorf("%w: binary content", errs.ErrUnparseable))
	}

	text := strings.ToValidUTF8(string(data), "�")
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	return []document.RawDocument{{
		Text:     text,
		Metadata: document.NewMetadata(path, document.FormatText),
	}}, nil
}
