package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/docchat/internal/audit"
	"github.com/ziadkadry99/docchat/internal/conversation"
	"github.com/ziadkadry99/docchat/internal/document"
	"github.com/ziadkadry99/docchat/internal/render"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Type      string `json:"type"`       // "ask" or "clear"
	SessionID string `json:"session_id"` // empty for new sessions
	Content   string `json:"content"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type      string              `json:"type"` // "answer", "cleared" or "error"
	SessionID string              `json:"session_id"`
	Content   string              `json:"content"`
	HTML      string              `json:"html,omitempty"`
	Sources   []document.Metadata `json:"sources,omitempty"`
}

func (d *Dashboard) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("dashboard: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("dashboard: websocket read: %v", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			d.sendError(conn, "", "invalid message format")
			continue
		}

		// The browser keeps whatever session id the first reply carries.
		if req.SessionID == "" {
			req.SessionID = uuid.NewString()
		}

		d.dispatch(r.Context(), conn, req)
	}
}

// dispatch handles one message under its own deadline, detached from the
// upgrade request so a long-lived connection keeps working.
func (d *Dashboard) dispatch(parent context.Context, conn *websocket.Conn, req chatRequest) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), d.askTimeout)
	defer cancel()

	switch req.Type {
	case "ask":
		d.handleAsk(ctx, conn, req)
	case "clear":
		d.handleClear(ctx, conn, req)
	default:
		d.sendError(conn, req.SessionID, "unknown message type: "+req.Type)
	}
}

func (d *Dashboard) handleAsk(ctx context.Context, conn *websocket.Conn, req chatRequest) {
	if strings.TrimSpace(req.Content) == "" {
		d.sendError(conn, req.SessionID, "content is required")
		return
	}

	answer, err := d.chat.Ask(ctx, req.SessionID, req.Content)
	if err != nil {
		d.sendError(conn, req.SessionID, "question failed: "+err.Error())
		return
	}

	d.sendResponse(conn, chatResponse{
		Type:      "answer",
		SessionID: req.SessionID,
		Content:   answer.Text,
		HTML:      render.MarkdownOrEscaped(answer.Text),
		Sources:   answer.Sources,
	})
}

func (d *Dashboard) handleClear(ctx context.Context, conn *websocket.Conn, req chatRequest) {
	if err := d.chat.Clear(ctx, req.SessionID); err != nil {
		d.sendError(conn, req.SessionID, "clear failed: "+err.Error())
		return
	}
	if d.audit != nil {
		sessionID := conversation.SessionOrDefault(req.SessionID)
		err := d.audit.Log(ctx, audit.Entry{
			Actor:     audit.ActorDashboard,
			Action:    audit.ActionHistoryClear,
			SessionID: sessionID,
			Summary:   "cleared session " + sessionID,
		})
		if err != nil {
			log.Printf("dashboard: audit: %v", err)
		}
	}
	d.sendResponse(conn, chatResponse{
		Type:      "cleared",
		SessionID: req.SessionID,
		Content:   "Chat memory cleared successfully",
	})
}

func (d *Dashboard) sendResponse(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("dashboard: websocket write: %v", err)
	}
}

func (d *Dashboard) sendError(conn *websocket.Conn, sessionID, message string) {
	resp := chatResponse{
		Type:      "error",
		SessionID: sessionID,
		Content:   message,
	}
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("dashboard: websocket write error: %v", err)
	}
}
