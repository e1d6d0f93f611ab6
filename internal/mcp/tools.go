package mcp

import "github.com/mark3labs/mcp-go/mcp"

// searchDocumentsTool defines the search_documents MCP tool.
var searchDocumentsTool = mcp.NewTool("search_documents",
	mcp.WithDescription("Search the ingested documents semantically. Returns matching passages with their source file and page."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 5)"),
	),
)

// askDocumentsTool defines the ask_documents MCP tool.
var askDocumentsTool = mcp.NewTool("ask_documents",
	mcp.WithDescription("Ask a question answered from the ingested documents. Follow-up questions in the same session see earlier turns."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("The question to answer"),
	),
	mcp.WithString("session_id",
		mcp.Description("Conversation to continue (default session when omitted)"),
	),
)

// clearHistoryTool defines the clear_history MCP tool.
var clearHistoryTool = mcp.NewTool("clear_history",
	mcp.WithDescription("Forget the conversation history of a session."),
	mcp.WithString("session_id",
		mcp.Description("Conversation to clear (default session when omitted)"),
	),
)
