// Package chat answers questions from retrieved document context and
// conversation history.
package chat

import (
	"context"
	"strings"

	"github.com/ziadkadry99/docchat/internal/conversation"
	"github.com/ziadkadry99/docchat/internal/document"
	"github.com/ziadkadry99/docchat/internal/errs"
	"github.com/ziadkadry99/docchat/internal/llm"
	"github.com/ziadkadry99/docchat/internal/logger"
	"github.com/ziadkadry99/docchat/internal/retriever"
)

// Retriever is what the orchestrator needs from retrieval.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) (*retriever.Result, error)
}

// Options configures an Orchestrator.
type Options struct {
	Model       string
	Temperature float64
	// CondenseQuestion rewrites follow-up questions into standalone ones
	// before retrieval when there is history.
	CondenseQuestion bool
}

// Usage reports token counts for one answer.
type Usage struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Cost         float64 `json:"cost"`
}

// Answer is the orchestrator's output.
type Answer struct {
	Text    string              `json:"answer"`
	Sources []document.Metadata `json:"sources"`
	Usage   Usage               `json:"-"`
}

// Orchestrator runs retrieval and one LLM call per question. It does not
// touch conversation history; callers own that.
type Orchestrator struct {
	retriever Retriever
	llm       llm.Provider
	opts      Options
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(r Retriever, provider llm.Provider, opts Options) *Orchestrator {
	return &Orchestrator{retriever: r, llm: provider, opts: opts}
}

// Answer retrieves context for the question, asks the LLM, and returns the
// reply with the metadata of every chunk placed in the prompt.
func (o *Orchestrator) Answer(ctx context.Context, question string, history []conversation.Turn) (*Answer, error) {
	searchQuery := question
	if o.opts.CondenseQuestion && len(history) > 0 {
		searchQuery = o.condense(ctx, question, history)
	}

	res, err := o.retriever.Retrieve(ctx, searchQuery, 0)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(res.Hits))
	sources := make([]document.Metadata, len(res.Hits))
	for i, h := range res.Hits {
		texts[i] = h.Chunk.Text
		sources[i] = h.Chunk.Metadata
	}

	resp, err := o.llm.Complete(ctx, llm.CompletionRequest{
		Model: o.opts.Model,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildPrompt(texts, history, question)},
		},
		Temperature: o.opts.Temperature,
	})
	if err != nil {
		if errs.KindOf(err) != errs.KindGeneration {
			err = errs.E(errs.KindGeneration, "answer", err)
		}
		return nil, err
	}

	usage := Usage{InputTokens: resp.InputTokens, OutputTokens: resp.OutputTokens}
	usage.Cost = llm.EstimateCost(resp.Model, resp.InputTokens, resp.OutputTokens)
	logger.Debug("answered with %d context chunks (%d in / %d out tokens, ~$%.5f)",
		len(texts), usage.InputTokens, usage.OutputTokens, usage.Cost)

	return &Answer{
		Text:    strings.TrimSpace(resp.Content),
		Sources: sources,
		Usage:   usage,
	}, nil
}

// condense returns a standalone version of a follow-up question, or the
// question itself if the rewrite fails.
func (o *Orchestrator) condense(ctx context.Context, question string, history []conversation.Turn) string {
	resp, err := o.llm.Complete(ctx, llm.CompletionRequest{
		Model: o.opts.Model,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildCondensePrompt(history, question)},
		},
		Temperature: 0,
	})
	if err != nil {
		logger.Warn("condensing question failed, retrieving with it as asked: %v", err)
		return question
	}
	standalone := strings.TrimSpace(resp.Content)
	if standalone == "" {
		return question
	}
	logger.Debug("condensed %q to %q", question, standalone)
	return standalone
}
