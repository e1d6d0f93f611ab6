package vectordb

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ziadkadry99/docchat/internal/document"
	"github.com/ziadkadry99/docchat/internal/fixtures"
)

const testCollection = "rag_chatbot"

func entry(t *testing.T, e *fixtures.Embedder, id, text, source string) Entry {
	t.Helper()
	vecs, err := e.Embed(context.Background(), []string{text})
	if err != nil {
		t.Fatal(err)
	}
	return Entry{
		Chunk: document.Chunk{
			ID:       id,
			Text:     text,
			Metadata: document.NewMetadata(source, document.FormatText),
		},
		Vector: vecs[0],
	}
}

func newMemoryStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := Open("", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return store
}

func TestChromemStore_AddAndSearch(t *testing.T) {
	ctx := context.Background()
	emb := fixtures.NewEmbedder()
	store := newMemoryStore(t)

	err := store.Add(ctx, testCollection, []Entry{
		entry(t, emb, "a", "The Zephyr project launched in March 2021", "data/zephyr.pdf"),
		entry(t, emb, "b", "Quarterly revenue grew by twelve percent", "data/finance.docx"),
		entry(t, emb, "c", "The cafeteria menu changes every Monday", "data/menu.txt"),
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if store.Count(testCollection) != 3 {
		t.Errorf("Count = %d, want 3", store.Count(testCollection))
	}

	q, _ := emb.Embed(ctx, []string{"When did the Zephyr project launch?"})
	results, err := store.Search(ctx, testCollection, q[0], 2, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].Chunk.ID != "a" {
		t.Errorf("top result = %s, want a", results[0].Chunk.ID)
	}
	if results[0].Chunk.Metadata.Source != "data/zephyr.pdf" {
		t.Errorf("source = %q", results[0].Chunk.Metadata.Source)
	}
	if results[0].Similarity < results[1].Similarity {
		t.Error("results not ordered by similarity")
	}
}

func TestChromemStore_KClampedToCollectionSize(t *testing.T) {
	ctx := context.Background()
	emb := fixtures.NewEmbedder()
	store := newMemoryStore(t)
	store.Add(ctx, testCollection, []Entry{entry(t, emb, "only", "single chunk", "a.txt")})

	q, _ := emb.Embed(ctx, []string{"chunk"})
	results, err := store.Search(ctx, testCollection, q[0], 5, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("len(results) = %d, want 1", len(results))
	}
}

func TestChromemStore_EmptyAndMissingCollection(t *testing.T) {
	store := newMemoryStore(t)
	results, err := store.Search(context.Background(), "missing", []float32{1, 0}, 3, nil)
	if err != nil || len(results) != 0 {
		t.Errorf("Search on missing collection = %v, %v", results, err)
	}
	if store.Count("missing") != 0 {
		t.Error("Count on missing collection should be 0")
	}
}

func TestChromemStore_DuplicatesAreKept(t *testing.T) {
	ctx := context.Background()
	emb := fixtures.NewEmbedder()
	store := newMemoryStore(t)

	text := "Identical paragraph uploaded twice"
	store.Add(ctx, testCollection, []Entry{entry(t, emb, "first", text, "a.txt")})
	store.Add(ctx, testCollection, []Entry{entry(t, emb, "second", text, "a.txt")})

	if store.Count(testCollection) != 2 {
		t.Fatalf("Count = %d, want 2", store.Count(testCollection))
	}

	q, _ := emb.Embed(ctx, []string{text})
	results, _ := store.Search(ctx, testCollection, q[0], 2, nil)
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	// Equal similarity: insertion order wins.
	if results[0].Chunk.ID != "first" || results[1].Chunk.ID != "second" {
		t.Errorf("tie order = %s,%s want first,second", results[0].Chunk.ID, results[1].Chunk.ID)
	}
}

func TestChromemStore_TiesBeyondK(t *testing.T) {
	ctx := context.Background()
	emb := fixtures.NewEmbedder()
	store := newMemoryStore(t)

	for i := 0; i < 6; i++ {
		store.Add(ctx, testCollection, []Entry{entry(t, emb, fmt.Sprintf("dup-%d", i), "same text everywhere", "a.txt")})
	}

	q, _ := emb.Embed(ctx, []string{"same text everywhere"})
	results, err := store.Search(ctx, testCollection, q[0], 3, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for i, r := range results {
		if want := fmt.Sprintf("dup-%d", i); r.Chunk.ID != want {
			t.Errorf("results[%d] = %s, want %s", i, r.Chunk.ID, want)
		}
	}
}

func TestChromemStore_Filter(t *testing.T) {
	ctx := context.Background()
	emb := fixtures.NewEmbedder()
	store := newMemoryStore(t)
	store.Add(ctx, testCollection, []Entry{
		entry(t, emb, "a", "launch dates", "a.txt"),
		entry(t, emb, "b", "launch dates", "b.txt"),
	})

	src := "b.txt"
	q, _ := emb.Embed(ctx, []string{"launch"})
	results, err := store.Search(ctx, testCollection, q[0], 2, &SearchFilter{Source: &src})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Chunk.ID != "b" {
		t.Errorf("filtered results = %+v", results)
	}
}

func TestChromemStore_RejectsMissingVector(t *testing.T) {
	store := newMemoryStore(t)
	err := store.Add(context.Background(), testCollection, []Entry{{Chunk: document.Chunk{ID: "x", Text: "t"}}})
	if err == nil {
		t.Fatal("expected error for entry without vector")
	}
}

func TestChromemStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	emb := fixtures.NewEmbedder()

	store, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Add(ctx, testCollection, []Entry{entry(t, emb, "a", "persisted chunk", "a.txt")})

	reopened, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Count(testCollection) != 1 {
		t.Errorf("Count after reopen = %d, want 1", reopened.Count(testCollection))
	}
	if got := reopened.Collections(); len(got) != 1 || got[0] != testCollection {
		t.Errorf("Collections() = %v", got)
	}
}

func TestChromemStore_ConcurrentAddAndSearch(t *testing.T) {
	ctx := context.Background()
	emb := fixtures.NewEmbedder()
	store := newMemoryStore(t)
	store.Add(ctx, testCollection, []Entry{entry(t, emb, "seed", "seed text", "a.txt")})

	q, _ := emb.Embed(ctx, []string{"text"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			store.Add(ctx, testCollection, []Entry{entry(t, emb, fmt.Sprintf("w%d", i), fmt.Sprintf("text %d", i), "b.txt")})
		}(i)
		go func() {
			defer wg.Done()
			results, err := store.Search(ctx, testCollection, q[0], 3, nil)
			if err != nil {
				t.Errorf("Search: %v", err)
			}
			for _, r := range results {
				if r.Chunk.Text == "" {
					t.Error("observed empty chunk")
				}
			}
		}()
	}
	wg.Wait()

	if store.Count(testCollection) != 9 {
		t.Errorf("Count = %d, want 9", store.Count(testCollection))
	}
}

func TestFormatResults(t *testing.T) {
	if FormatResults(nil) != "No results found." {
		t.Error("unexpected empty rendering")
	}
	meta := document.NewMetadata("data/zephyr.pdf", document.FormatPDF)
	meta.Page = 2
	out := FormatResults([]SearchResult{{Chunk: document.Chunk{Text: "body", Metadata: meta}, Similarity: 0.9}})
	if !strings.Contains(out, "Source: data/zephyr.pdf (page 2)") || !strings.Contains(out, "body") {
		t.Errorf("unexpected rendering %q", out)
	}
}
