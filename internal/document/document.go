package document

import (
	"path/filepath"
	"strconv"
)

// Format identifies the parser that produced a document.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatText Format = "text"
)

// Metadata describes where a piece of text came from.
type Metadata struct {
	Source      string `json:"source"`
	Page        int    `json:"page,omitempty"`
	FileName    string `json:"file_name,omitempty"`
	Format      Format `json:"format,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
	ChunkIndex  int    `json:"chunk_index"`
}

// NewMetadata returns metadata for a file path with FileName filled in.
func NewMetadata(source string, format Format) Metadata {
	return Metadata{
		Source:   source,
		FileName: filepath.Base(source),
		Format:   format,
	}
}

// RawDocument is one logical unit yielded by a loader: a PDF page, a DOCX
// file, or a plain text file.
type RawDocument struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Chunk is a bounded window of a RawDocument's text. Chunks of the same
// RawDocument share its metadata apart from ChunkIndex.
type Chunk struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Metadata keys used when flattening into string maps.
const (
	KeySource      = "source"
	KeyPage        = "page"
	KeyFileName    = "file_name"
	KeyFormat      = "format"
	KeyContentHash = "content_hash"
	KeyChunkIndex  = "chunk_index"
)

// ToMap flattens metadata into the string map used by the vector store.
func (m Metadata) ToMap() map[string]string {
	out := map[string]string{
		KeySource:     m.Source,
		KeyChunkIndex: strconv.Itoa(m.ChunkIndex),
	}
	if m.Page > 0 {
		out[KeyPage] = strconv.Itoa(m.Page)
	}
	if m.FileName != "" {
		out[KeyFileName] = m.FileName
	}
	if m.Format != "" {
		out[KeyFormat] = string(m.Format)
	}
	if m.ContentHash != "" {
		out[KeyContentHash] = m.ContentHash
	}
	return out
}

// MetadataFromMap is the inverse of ToMap. Unknown keys are ignored and
// malformed integers read as zero.
func MetadataFromMap(in map[string]string) Metadata {
	m := Metadata{
		Source:      in[KeySource],
		FileName:    in[KeyFileName],
		Format:      Format(in[KeyFormat]),
		ContentHash: in[KeyContentHash],
	}
	m.Page, _ = strconv.Atoi(in[KeyPage])
	m.ChunkIndex, _ = strconv.Atoi(in[KeyChunkIndex])
	return m
}
