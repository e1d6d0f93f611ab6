package mcp

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/docchat/internal/audit"
	"github.com/ziadkadry99/docchat/internal/conversation"
	"github.com/ziadkadry99/docchat/internal/embeddings"
	"github.com/ziadkadry99/docchat/internal/vectordb"
)

const defaultSearchLimit = 5

// handleSearchDocuments runs a single similarity search without involving
// the LLM.
func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", defaultSearchLimit)
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	vec, err := embeddings.EmbedOne(ctx, s.embedder, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("embedding query failed: %v", err)), nil
	}

	results, err := s.store.Search(ctx, s.collection, vec, limit, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No results found. The documents may not be ingested yet. Run `docchat ingest` to index them."), nil
	}

	return mcp.NewToolResultText(vectordb.FormatResults(results)), nil
}

// handleAskDocuments answers a question through the full retrieval and
// generation path and records the turn in the session history.
func (s *Server) handleAskDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}
	sessionID := conversation.SessionOrDefault(request.GetString("session_id", ""))

	answer, err := s.chat.Ask(ctx, sessionID, question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("answering question: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString(answer.Text)
	sb.WriteString("\n")

	if len(answer.Sources) > 0 {
		sb.WriteString("\n## Sources\n\n")
		for _, src := range answer.Sources {
			if src.Page > 0 {
				fmt.Fprintf(&sb, "- %s (page %d)\n", src.Source, src.Page)
			} else {
				fmt.Fprintf(&sb, "- %s\n", src.Source)
			}
		}
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// handleClearHistory drops the turns of one session.
func (s *Server) handleClearHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := conversation.SessionOrDefault(request.GetString("session_id", ""))
	if err := s.chat.Clear(ctx, sessionID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("clearing history: %v", err)), nil
	}
	if s.audit != nil {
		if err := s.audit.Log(ctx, audit.Entry{
			Actor:     audit.ActorMCP,
			Action:    audit.ActionHistoryClear,
			SessionID: sessionID,
			Summary:   "cleared session " + sessionID,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "mcp: audit: %v\n", err)
		}
	}
	return mcp.NewToolResultText(fmt.Sprintf("Cleared conversation history for session %q.", sessionID)), nil
}
