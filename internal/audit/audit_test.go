package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/docchat/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestLogAndGetByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	entry := Entry{
		ID:      "test-1",
		Actor:   ActorHTTP,
		Action:  ActionUpload,
		Summary: "uploaded zephyr.pdf",
		Files:   []string{"/srv/data/zephyr.pdf"},
		Chunks:  4,
	}

	if err := store.Log(ctx, entry); err != nil {
		t.Fatalf("Log: %v", err)
	}

	got, err := store.GetByID(ctx, "test-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if got.Actor != ActorHTTP {
		t.Errorf("Actor = %q, want %q", got.Actor, ActorHTTP)
	}
	if got.Action != ActionUpload {
		t.Errorf("Action = %q, want %q", got.Action, ActionUpload)
	}
	if got.Chunks != 4 || got.Failed != 0 {
		t.Errorf("Chunks/Failed = %d/%d", got.Chunks, got.Failed)
	}
	if len(got.Files) != 1 || got.Files[0] != "/srv/data/zephyr.pdf" {
		t.Errorf("Files = %v", got.Files)
	}
	if got.SessionID != "" {
		t.Errorf("SessionID = %q, want empty", got.SessionID)
	}
	if got.Timestamp.IsZero() {
		t.Error("Timestamp should be set by the database")
	}
}

func TestLogGeneratesID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Log(ctx, Entry{Actor: ActorCLI, Action: ActionIngest}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	entries, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 || entries[0].ID == "" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestQueryFilters(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	store.Log(ctx, Entry{ID: "1", Actor: ActorCLI, Action: ActionIngest, Summary: "first"})
	store.Log(ctx, Entry{ID: "2", Actor: ActorHTTP, Action: ActionUpload, Summary: "second"})
	store.Log(ctx, Entry{ID: "3", Actor: ActorDashboard, Action: ActionHistoryClear, SessionID: "s1"})
	store.Log(ctx, Entry{ID: "4", Actor: ActorHTTP, Action: ActionHistoryClear, SessionID: "s2"})

	tests := []struct {
		name    string
		filter  QueryFilter
		wantIDs []string
	}{
		{"all newest first", QueryFilter{}, []string{"4", "3", "2", "1"}},
		{"by actor", QueryFilter{Actor: ActorHTTP}, []string{"4", "2"}},
		{"by action", QueryFilter{Action: ActionHistoryClear}, []string{"4", "3"}},
		{"by session", QueryFilter{SessionID: "s1"}, []string{"3"}},
		{"limit", QueryFilter{Limit: 2}, []string{"4", "3"}},
		{"offset without limit", QueryFilter{Offset: 3}, []string{"1"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entries, err := store.Query(ctx, tc.filter)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(entries) != len(tc.wantIDs) {
				t.Fatalf("got %d entries, want %d", len(entries), len(tc.wantIDs))
			}
			for i, e := range entries {
				if e.ID != tc.wantIDs[i] {
					t.Errorf("entries[%d] = %s, want %s", i, e.ID, tc.wantIDs[i])
				}
			}
		})
	}
}

func TestQueryTimeRange(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	store.Log(ctx, Entry{ID: "1", Actor: ActorCLI, Action: ActionIngest})

	future := time.Now().Add(time.Hour)
	entries, err := store.Query(ctx, QueryFilter{Since: &future})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries after %v, got %d", future, len(entries))
	}

	past := time.Now().Add(-time.Hour)
	entries, _ = store.Query(ctx, QueryFilter{Since: &past, Until: &future})
	if len(entries) != 1 {
		t.Errorf("expected 1 entry in range, got %d", len(entries))
	}
}

func TestDeleteBefore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	store.Log(ctx, Entry{ID: "1", Actor: ActorCLI, Action: ActionIngest})

	n, err := store.DeleteBefore(ctx, time.Now().Add(-time.Hour))
	if err != nil || n != 0 {
		t.Fatalf("DeleteBefore(past) = %d, %v", n, err)
	}
	n, err = store.DeleteBefore(ctx, time.Now().Add(time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("DeleteBefore(future) = %d, %v", n, err)
	}
}

func TestRoutes(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	store.Log(ctx, Entry{ID: "a", Actor: ActorHTTP, Action: ActionUpload, Summary: "uploaded a.txt"})
	store.Log(ctx, Entry{ID: "b", Actor: ActorCLI, Action: ActionIngest})

	r := chi.NewRouter()
	RegisterRoutes(r, store)

	t.Run("query", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/audit/?action=upload", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var entries []Entry
		if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(entries) != 1 || entries[0].ID != "a" {
			t.Errorf("entries = %+v", entries)
		}
	})

	t.Run("get by id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/audit/a", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var e Entry
		json.NewDecoder(w.Body).Decode(&e)
		if e.Summary != "uploaded a.txt" {
			t.Errorf("Summary = %q", e.Summary)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/audit/nope", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
	})
}
