package chat

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ziadkadry99/docchat/internal/chunker"
	"github.com/ziadkadry99/docchat/internal/conversation"
	"github.com/ziadkadry99/docchat/internal/errs"
	"github.com/ziadkadry99/docchat/internal/fixtures"
	"github.com/ziadkadry99/docchat/internal/ingest"
	"github.com/ziadkadry99/docchat/internal/llm"
	"github.com/ziadkadry99/docchat/internal/retriever"
	"github.com/ziadkadry99/docchat/internal/vectordb"
)

const collection = "rag_chatbot"

type harness struct {
	dir      string
	embedder *fixtures.Embedder
	store    *vectordb.ChromemStore
	llm      *fixtures.LLM
	history  *conversation.MemoryStore
	service  *Service
}

// newHarness wires the real retrieval and answer path over in-memory stores.
// Paraphrase requests get no alternatives; answer requests echo respond.
func newHarness(t *testing.T, opts Options, respond func(prompt string) (string, error)) *harness {
	t.Helper()
	store, err := vectordb.Open("", nil)
	if err != nil {
		t.Fatal(err)
	}
	h := &harness{
		dir:      t.TempDir(),
		embedder: fixtures.NewEmbedder(),
		store:    store,
		history:  conversation.NewMemoryStore(),
	}
	h.llm = &fixtures.LLM{Respond: func(req llm.CompletionRequest) (string, error) {
		prompt := req.Messages[len(req.Messages)-1].Content
		if strings.HasPrefix(prompt, "You are an AI language model assistant") {
			return "", nil
		}
		if respond == nil {
			return "fixture answer", nil
		}
		return respond(prompt)
	}}
	r := retriever.New(h.llm, h.embedder, store, retriever.Options{Collection: collection})
	h.service = NewService(NewOrchestrator(r, h.llm, opts), h.history)
	return h
}

func (h *harness) ingest(t *testing.T) {
	t.Helper()
	p := ingest.NewPipeline(h.embedder, h.store, chunker.New(), nil, ingest.Options{Collection: collection, Mode: ingest.ModeFull})
	if _, err := p.Run(context.Background(), h.dir); err != nil {
		t.Fatalf("ingest: %v", err)
	}
}

// answerPrompts returns the prompts of answer calls, skipping paraphrase calls.
func (h *harness) answerPrompts() []string {
	var out []string
	for _, c := range h.llm.Calls() {
		p := c.Messages[len(c.Messages)-1].Content
		if strings.HasPrefix(p, "You are a helpful AI assistant") {
			out = append(out, p)
		}
	}
	return out
}

func TestAsk_RoundTripCitesSource(t *testing.T) {
	h := newHarness(t, Options{Temperature: 0.3}, func(prompt string) (string, error) {
		if strings.Contains(prompt, "The Zephyr project launched in March 2021") {
			return "It launched in March 2021.", nil
		}
		return "I could not find that in the documents.", nil
	})
	fixtures.WriteFile(filepath.Join(h.dir, "zephyr.txt"), []byte("The Zephyr project launched in March 2021."))
	fixtures.WriteFile(filepath.Join(h.dir, "menu.txt"), []byte("Lunch is served at noon."))
	h.ingest(t)

	ans, err := h.service.Ask(context.Background(), "", "When did the Zephyr project launch?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if ans.Text != "It launched in March 2021." {
		t.Errorf("answer = %q", ans.Text)
	}
	found := false
	for _, s := range ans.Sources {
		if strings.HasSuffix(s.Source, "zephyr.txt") {
			found = true
		}
	}
	if !found {
		t.Errorf("sources %+v do not reference zephyr.txt", ans.Sources)
	}

	turns, _ := h.history.Snapshot(context.Background(), conversation.DefaultSession)
	if len(turns) != 1 || turns[0].Answer != ans.Text {
		t.Errorf("history = %+v", turns)
	}
}

func TestAsk_PromptCarriesTemperatureAndSections(t *testing.T) {
	h := newHarness(t, Options{Temperature: 0.3, Model: "gemini-2.0-flash"}, nil)
	if _, err := h.service.Ask(context.Background(), "s", "What is Zephyr?"); err != nil {
		t.Fatal(err)
	}
	calls := h.llm.Calls()
	last := calls[len(calls)-1]
	if last.Temperature != 0.3 || last.Model != "gemini-2.0-flash" {
		t.Errorf("request = %+v", last)
	}
	prompt := last.Messages[0].Content
	for _, want := range []string{"Context:", "Chat History:", "Question: What is Zephyr?", "Answer:"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAsk_GreetingOnEmptyCollection(t *testing.T) {
	h := newHarness(t, Options{}, func(string) (string, error) { return "Hello! How can I help?", nil })

	ans, err := h.service.Ask(context.Background(), "", "Hi")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if ans.Text == "" {
		t.Error("empty answer")
	}
	if ans.Sources == nil || len(ans.Sources) != 0 {
		t.Errorf("Sources = %#v, want empty non-nil", ans.Sources)
	}
}

func TestAsk_SecondQuestionSeesFirstInHistory(t *testing.T) {
	n := 0
	h := newHarness(t, Options{}, func(string) (string, error) {
		n++
		return fmt.Sprintf("answer %d", n), nil
	})
	ctx := context.Background()

	if _, err := h.service.Ask(ctx, "s1", "Who leads Zephyr?"); err != nil {
		t.Fatal(err)
	}
	if _, err := h.service.Ask(ctx, "s1", "What did I just ask?"); err != nil {
		t.Fatal(err)
	}

	prompts := h.answerPrompts()
	if len(prompts) != 2 {
		t.Fatalf("answer prompts = %d, want 2", len(prompts))
	}
	if strings.Contains(prompts[0], "Human: Who leads Zephyr?") {
		t.Error("first prompt already contains the question as history")
	}
	if !strings.Contains(prompts[1], "Human: Who leads Zephyr?\nAssistant: answer 1") {
		t.Errorf("second prompt lacks the first turn:\n%s", prompts[1])
	}
}

func TestAsk_SessionsAreIsolated(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	ctx := context.Background()
	h.service.Ask(ctx, "alice", "secret question")
	h.service.Ask(ctx, "bob", "other question")

	prompts := h.answerPrompts()
	if strings.Contains(prompts[1], "secret question") {
		t.Error("bob's prompt contains alice's history")
	}
}

func TestAsk_GenerationFailureLeavesHistoryUntouched(t *testing.T) {
	h := newHarness(t, Options{}, func(string) (string, error) {
		return "", errors.New("model unavailable")
	})

	_, err := h.service.Ask(context.Background(), "", "anything")
	if errs.KindOf(err) != errs.KindGeneration {
		t.Errorf("kind = %v, want generation", errs.KindOf(err))
	}
	turns, _ := h.service.History(context.Background(), "")
	if len(turns) != 0 {
		t.Errorf("history = %+v, want empty", turns)
	}
}

func TestAsk_RetrievalFailure(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	h.embedder.Err = errs.E(errs.KindEmbedding, "embed", errors.New("bad key"))

	_, err := h.service.Ask(context.Background(), "", "anything")
	if errs.KindOf(err) != errs.KindRetrieval {
		t.Errorf("kind = %v, want retrieval", errs.KindOf(err))
	}
}

func TestAsk_EmptyQuestion(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	if _, err := h.service.Ask(context.Background(), "", "   "); !errors.Is(err, errs.ErrEmptyQuestion) {
		t.Errorf("err = %v, want ErrEmptyQuestion", err)
	}
	if len(h.llm.Calls()) != 0 {
		t.Error("LLM called for a blank question")
	}
}

func TestClear_EmptiesSession(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	ctx := context.Background()
	h.service.Ask(ctx, "", "q1")
	h.service.Ask(ctx, "", "q2")

	if err := h.service.Clear(ctx, ""); err != nil {
		t.Fatal(err)
	}
	turns, _ := h.service.History(ctx, "")
	if len(turns) != 0 {
		t.Errorf("history after clear = %+v", turns)
	}
}

func TestAsk_ConcurrentSameSessionKeepsEveryTurn(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := h.service.Ask(ctx, "shared", fmt.Sprintf("question %d", i)); err != nil {
				t.Errorf("Ask: %v", err)
			}
		}(i)
	}
	wg.Wait()

	turns, _ := h.service.History(ctx, "shared")
	if len(turns) != 8 {
		t.Fatalf("turns = %d, want 8", len(turns))
	}
	// Each answer prompt saw exactly the turns committed before it.
	prompts := h.answerPrompts()
	for _, p := range prompts {
		seen := strings.Count(p, "\nHuman: ")
		if seen > 7 {
			t.Errorf("prompt saw %d prior turns", seen)
		}
	}
	counts := map[int]bool{}
	for _, p := range prompts {
		counts[strings.Count(p, "\nHuman: ")] = true
	}
	if len(counts) != 8 {
		t.Errorf("history sizes across prompts = %v, want 0..7 each once", counts)
	}
}

func TestAsk_CondenseQuestionUsedForRetrievalOnly(t *testing.T) {
	h := newHarness(t, Options{CondenseQuestion: true}, nil)
	h.llm.Respond = func(req llm.CompletionRequest) (string, error) {
		p := req.Messages[0].Content
		switch {
		case strings.HasPrefix(p, "Given the following conversation"):
			return "When did the Zephyr project launch?", nil
		case strings.HasPrefix(p, "You are an AI language model assistant"):
			return "", nil
		default:
			return "ok", nil
		}
	}
	fixtures.WriteFile(filepath.Join(h.dir, "zephyr.txt"), []byte("The Zephyr project launched in March 2021."))
	h.ingest(t)
	ctx := context.Background()

	h.service.Ask(ctx, "", "Tell me about Zephyr")
	h.embedder.Calls = nil
	if _, err := h.service.Ask(ctx, "", "When did it launch?"); err != nil {
		t.Fatal(err)
	}

	embedded := false
	for _, batch := range h.embedder.Calls {
		for _, text := range batch {
			if text == "When did the Zephyr project launch?" {
				embedded = true
			}
		}
	}
	if !embedded {
		t.Errorf("standalone question was not used for retrieval: %v", h.embedder.Calls)
	}
	prompts := h.answerPrompts()
	if !strings.Contains(prompts[len(prompts)-1], "Question: When did it launch?") {
		t.Error("answer prompt should carry the question as asked")
	}
}

func TestFormatHistory(t *testing.T) {
	if formatHistory(nil) != "" {
		t.Error("empty history should render as empty")
	}
	got := formatHistory([]conversation.Turn{{Question: "a", Answer: "b"}})
	if got != "\nHuman: a\nAssistant: b" {
		t.Errorf("formatHistory = %q", got)
	}
}
