// Package loader turns files into raw documents. The loader for a file is
// chosen from its extension alone; content is only inspected by the loader
// itself.
package loader

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ziadkadry99/docchat/internal/document"
)

// Loader extracts raw documents from a file on disk.
type Loader interface {
	Load(ctx context.Context, path string) ([]document.RawDocument, error)
	Format() document.Format
}

// FormatForPath maps a file name to the document format its extension implies.
// Unknown extensions map to FormatText, the generic fallback.
func FormatForPath(path string) document.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return document.FormatPDF
	case ".docx":
		return document.FormatDOCX
	default:
		return document.FormatText
	}
}

// ForPath returns the loader for a file name.
func ForPath(path string) Loader {
	switch FormatForPath(path) {
	case document.FormatPDF:
		return PDFLoader{}
	case document.FormatDOCX:
		return DOCXLoader{}
	default:
		return TextLoader{}
	}
}

// LoadFile loads a single file with the loader chosen by ForPath and stamps
// the content hash onto every document it yields.
func LoadFile(ctx context.Context, path, contentHash string) ([]document.RawDocument, error) {
	docs, err := ForPath(path).Load(ctx, path)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].Metadata.ContentHash = contentHash
	}
	return docs, nil
}
