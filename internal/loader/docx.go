package loader

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/ziadkadry99/docchat/internal/document"
	"github.com/ziadkadry99/docchat/internal/errs"
)

// DOCXLoader yields a single document with the paragraph text of
// word/document.xml, one paragraph per line.
type DOCXLoader struct{}

func (DOCXLoader) Format() document.Format { return document.FormatDOCX }

func (DOCXLoader) Load(_ context.Context, path string) ([]document.RawDocument, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errs.E(errs.KindIngestion, path, fmt.Errorf("%w: open docx: %v", errs.ErrUnparseable, err))
	}
	defer zr.Close()

	text, err := extractDocumentText(&zr.Reader)
	if err != nil {
		return nil, errs.E(errs.KindIngestion, path, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	return []document.RawDocument{{
		Text:     text,
		Metadata: document.NewMetadata(path, document.FormatDOCX),
	}}, nil
}

func extractDocumentText(reader *zip.Reader) (string, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %v", errs.ErrUnparseable, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: %v", errs.ErrUnparseable, err)
		}
		return parseDocumentXML(content)
	}
	return "", fmt.Errorf("%w: missing word/document.xml", errs.ErrUnparseable)
}

// parseDocumentXML collects the text of every w:t under w:body, wherever it
// sits: plain paragraphs, table cells, hyperlinks or content controls.
// Paragraphs end with a newline; w:tab and w:br map to tab and newline.
func parseDocumentXML(content []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))

	var b strings.Builder
	inBody, inText := false, false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: document.xml: %v", errs.ErrUnparseable, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "body":
				inBody = true
			case "t":
				inText = inBody
			case "tab":
				if inBody {
					b.WriteByte('\t')
				}
			case "br", "cr":
				if inBody {
					b.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "body":
				inBody = false
			case "t":
				inText = false
			case "p":
				if inBody {
					b.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inText {
				b.Write(el)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
