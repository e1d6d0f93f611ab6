// Package render turns model answers, which are usually markdown, into HTML
// for the dashboard.
package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
)

// md is safe for concurrent use once built. Raw HTML in answers is not
// passed through.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
)

// Markdown converts markdown to HTML.
func Markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return buf.String(), nil
}

// MarkdownOrEscaped converts markdown to HTML and falls back to escaped
// text wrapped in a paragraph if conversion fails.
func MarkdownOrEscaped(src string) string {
	out, err := Markdown(src)
	if err != nil {
		return "<p>" + html.EscapeString(src) + "</p>"
	}
	return out
}
