package fixtures

import (
	"context"
	"sync"

	"github.com/ziadkadry99/docchat/internal/llm"
)

// LLM is a scripted llm.Provider. Respond decides the reply for each request;
// every request is recorded.
type LLM struct {
	Respond func(req llm.CompletionRequest) (string, error)

	mu    sync.Mutex
	calls []llm.CompletionRequest
}

func (l *LLM) Name() string { return "fixture" }

// Complete fails like a real provider once ctx is done.
func (l *LLM) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	l.mu.Lock()
	l.calls = append(l.calls, req)
	l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content := "fixture answer"
	if l.Respond != nil {
		var err error
		if content, err = l.Respond(req); err != nil {
			return nil, err
		}
	}
	return &llm.CompletionResponse{Content: content, Model: "fixture", FinishReason: "stop"}, nil
}

// Calls returns a copy of the recorded requests.
func (l *LLM) Calls() []llm.CompletionRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]llm.CompletionRequest(nil), l.calls...)
}

// LastUserMessage returns the content of the last user message of the i-th call.
func (l *LLM) LastUserMessage(i int) string {
	calls := l.Calls()
	if i < 0 || i >= len(calls) {
		return ""
	}
	msgs := calls[i].Messages
	for j := len(msgs) - 1; j >= 0; j-- {
		if msgs[j].Role == llm.RoleUser {
			return msgs[j].Content
		}
	}
	return ""
}
