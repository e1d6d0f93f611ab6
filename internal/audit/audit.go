// Package audit records what changed the knowledge base or the chat
// history: uploads, ingestion runs and cleared sessions.
package audit

import "time"

// Actor identifies the surface an action came through.
type Actor string

const (
	ActorHTTP      Actor = "http"
	ActorDashboard Actor = "dashboard"
	ActorCLI       Actor = "cli"
	ActorMCP       Actor = "mcp"
)

// Action describes what was done.
type Action string

const (
	ActionUpload       Action = "upload"
	ActionIngest       Action = "ingest"
	ActionHistoryClear Action = "history_cleared"
)

// Entry is a single audit trail record.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Actor     Actor     `json:"actor"`
	Action    Action    `json:"action"`
	SessionID string    `json:"session_id,omitempty"`
	Summary   string    `json:"summary"`
	// Files lists the paths the action touched, failed ones included.
	Files  []string `json:"files,omitempty"`
	Chunks int      `json:"chunks"`
	Failed int      `json:"failed"`
}
