package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/ziadkadry99/docchat/internal/document"
	"github.com/ziadkadry99/docchat/internal/errs"
)

// PDFLoader yields one document per page that contains text.
type PDFLoader struct{}

func (PDFLoader) Format() document.Format { return document.FormatPDF }

func (PDFLoader) Load(ctx context.Context, path string) (docs []document.RawDocument, err error) {
	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			docs = nil
			err = errs.E(errs.KindIngestion, path, fmt.Errorf("%w: pdf: %v", errs.ErrUnparseable, r))
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, errs.E(errs.KindIngestion, path, fmt.Errorf("%w: open pdf: %v", errs.ErrUnparseable, err))
	}
	defer f.Close()

	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, errs.E(errs.KindIngestion, path, fmt.Errorf("%w: page %d: %v", errs.ErrUnparseable, i, err))
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		meta := document.NewMetadata(path, document.FormatPDF)
		meta.Page = i
		docs = append(docs, document.RawDocument{Text: text, Metadata: meta})
	}
	return docs, nil
}
