package dashboard

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/docchat/internal/audit"
	"github.com/ziadkadry99/docchat/internal/chat"
)

// Dashboard serves the browser chat page and its websocket endpoint.
type Dashboard struct {
	chat       *chat.Service
	audit      *audit.Store
	askTimeout time.Duration
}

const defaultAskTimeout = 5 * time.Minute

// New creates a new Dashboard.
func New(svc *chat.Service) *Dashboard {
	return &Dashboard{chat: svc, askTimeout: defaultAskTimeout}
}

// SetAskTimeout bounds the handling of one websocket message. The connection
// itself has no deadline.
func (d *Dashboard) SetAskTimeout(timeout time.Duration) {
	if timeout > 0 {
		d.askTimeout = timeout
	}
}

// SetAudit records cleared sessions in store.
func (d *Dashboard) SetAudit(store *audit.Store) {
	d.audit = store
}

// RegisterRoutes mounts all dashboard routes onto the given router.
func (d *Dashboard) RegisterRoutes(r chi.Router) {
	r.Get("/", d.ServeIndex)
	r.Get("/ws/chat", d.handleWebSocket)
}
