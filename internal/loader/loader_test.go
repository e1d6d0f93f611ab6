package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/docchat/internal/document"
	"github.com/ziadkadry99/docchat/internal/errs"
	"github.com/ziadkadry99/docchat/internal/fixtures"
	"github.com/ziadkadry99/docchat/internal/walker"
)

func TestForPath(t *testing.T) {
	tests := []struct {
		path string
		want document.Format
	}{
		{"report.pdf", document.FormatPDF},
		{"REPORT.PDF", document.FormatPDF},
		{"letter.docx", document.FormatDOCX},
		{"notes.txt", document.FormatText},
		{"readme.md", document.FormatText},
		{"noext", document.FormatText},
		{"legacy.doc", document.FormatText},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatForPath(tc.path))
			assert.Equal(t, tc.want, ForPath(tc.path).Format())
		})
	}
}

func TestPDFLoader_OneDocumentPerPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zephyr.pdf")
	fixtures.WriteFile(path, fixtures.PDF(
		"The Zephyr project launched in March 2021.",
		"Zephyr ran on a shoestring budget.",
	))

	docs, err := PDFLoader{}.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Contains(t, docs[0].Text, "March 2021")
	assert.Equal(t, 1, docs[0].Metadata.Page)
	assert.Equal(t, 2, docs[1].Metadata.Page)
	assert.Equal(t, path, docs[1].Metadata.Source)
	assert.Equal(t, "zephyr.pdf", docs[1].Metadata.FileName)
	assert.Equal(t, document.FormatPDF, docs[1].Metadata.Format)
}

func TestPDFLoader_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	fixtures.WriteFile(path, []byte("this is not a pdf"))

	_, err := PDFLoader{}.Load(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, errs.KindIngestion, errs.KindOf(err))
}

func TestDOCXLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memo.docx")
	fixtures.WriteFile(path, fixtures.DOCX("First paragraph.", "Second & final."))

	docs, err := DOCXLoader{}.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "First paragraph.\nSecond & final.", docs[0].Text)
	assert.Zero(t, docs[0].Metadata.Page)
	assert.Equal(t, document.FormatDOCX, docs[0].Metadata.Format)
}

func TestDOCXLoader_TablesHyperlinksAndControls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.docx")
	fixtures.WriteFile(path, fixtures.DOCXBody(
		`<w:p><w:r><w:t>Intro paragraph.</w:t></w:r></w:p>`+
			`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Project</w:t></w:r></w:p></w:tc>`+
			`<w:tc><w:p><w:r><w:t>Zephyr launched 2021</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`+
			`<w:p><w:hyperlink><w:r><w:t>See the launch notes</w:t></w:r></w:hyperlink></w:p>`+
			`<w:sdt><w:sdtContent><w:p><w:r><w:t>Owner:</w:t><w:tab/><w:t>Ops</w:t></w:r></w:p></w:sdtContent></w:sdt>`,
	))

	docs, err := DOCXLoader{}.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t,
		"Intro paragraph.\nProject\nZephyr launched 2021\nSee the launch notes\nOwner:\tOps",
		docs[0].Text)
}

func TestDOCXLoader_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.docx")
	fixtures.WriteFile(path, []byte("plain"))

	_, err := DOCXLoader{}.Load(context.Background(), path)
	assert.ErrorIs(t, err, errs.ErrUnparseable)
}

func TestTextLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	fixtures.WriteFile(path, []byte("# Notes\nThe launch was delayed."))

	docs, err := TextLoader{}.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, document.FormatText, docs[0].Metadata.Format)

	bin := filepath.Join(dir, "image.png")
	fixtures.WriteFile(bin, []byte{0x89, 'P', 'N', 'G', 0, 0, 0})
	_, err = TextLoader{}.Load(context.Background(), bin)
	assert.ErrorIs(t, err, errs.ErrUnparseable)
	assert.Equal(t, errs.KindIngestion, errs.KindOf(err))
}

func TestLoadFile_StampsHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	fixtures.WriteFile(path, []byte("alpha"))

	docs, err := LoadFile(context.Background(), path, "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", docs[0].Metadata.ContentHash)
}

func TestLoadDir_SkipsFailuresAndContinues(t *testing.T) {
	dir := t.TempDir()
	fixtures.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha"))
	fixtures.WriteFile(filepath.Join(dir, "b.pdf"), []byte("garbage"))
	fixtures.WriteFile(filepath.Join(dir, "c.docx"), fixtures.DOCX("charlie"))

	docs, report, err := LoadDir(context.Background(), dir, DirOptions{})
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "alpha", docs[0].Text)
	assert.Equal(t, "charlie", docs[1].Text)
	assert.Len(t, report.Loaded, 2)
	require.Len(t, report.Failed, 1)
	assert.True(t, strings.HasSuffix(report.Failed[0].Path, "b.pdf"))
}

func TestLoadDir_Strict(t *testing.T) {
	dir := t.TempDir()
	fixtures.WriteFile(filepath.Join(dir, "b.pdf"), []byte("garbage"))

	_, _, err := LoadDir(context.Background(), dir, DirOptions{Strict: true})
	assert.Equal(t, errs.KindIngestion, errs.KindOf(err))
}

func TestLoadDir_OversizeFileIsReported(t *testing.T) {
	dir := t.TempDir()
	fixtures.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha"))
	fixtures.WriteFile(filepath.Join(dir, "big.txt"), []byte(strings.Repeat("B", 200)))

	docs, report, err := LoadDir(context.Background(), dir, DirOptions{MaxFileSize: 100})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Len(t, report.Loaded, 1)
	require.Len(t, report.Failed, 1)
	assert.True(t, strings.HasSuffix(report.Failed[0].Path, "big.txt"))
	assert.Contains(t, report.Failed[0].Error, "size limit")

	_, _, err = LoadDir(context.Background(), dir, DirOptions{MaxFileSize: 100, Strict: true})
	require.Error(t, err)
	assert.Equal(t, errs.KindIngestion, errs.KindOf(err))
	assert.ErrorIs(t, err, walker.ErrTooLarge)
}

func TestLoadDir_Skip(t *testing.T) {
	dir := t.TempDir()
	fixtures.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha"))
	fixtures.WriteFile(filepath.Join(dir, "b.txt"), []byte("bravo"))

	docs, report, err := LoadDir(context.Background(), dir, DirOptions{
		Skip: func(f walker.FileInfo) bool { return f.RelPath == "a.txt" },
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "bravo", docs[0].Text)
	assert.Len(t, report.Skipped, 1)
}

func TestLoadDir_MissingDirectory(t *testing.T) {
	_, _, err := LoadDir(context.Background(), filepath.Join(os.TempDir(), "docchat-missing-dir-xyz"), DirOptions{})
	assert.Equal(t, errs.KindIngestion, errs.KindOf(err))
}
