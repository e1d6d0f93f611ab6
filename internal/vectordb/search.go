package vectordb

import (
	"fmt"
	"strings"
)

// FormatResults renders search results as human-readable text.
func FormatResults(results []SearchResult) string {
	if len(results) == 0 {
		return "No results found."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d result(s):\n\n", len(results))

	for i, r := range results {
		fmt.Fprintf(&sb, "--- Result %d (similarity: %.4f) ---\n", i+1, r.Similarity)

		md := r.Chunk.Metadata
		if md.Source != "" {
			location := md.Source
			if md.Page > 0 {
				location += fmt.Sprintf(" (page %d)", md.Page)
			}
			fmt.Fprintf(&sb, "Source: %s\n", location)
		}
		if md.Format != "" {
			fmt.Fprintf(&sb, "Format: %s\n", md.Format)
		}

		sb.WriteString("\n")
		sb.WriteString(r.Chunk.Text)
		sb.WriteString("\n\n")
	}

	return sb.String()
}
