package chat

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newHistoryRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/rooms/{room}/messages", h.GetHistory)
	return r
}

func TestGetHistory(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	for _, text := range []string{"first", "second", "third"} {
		if _, err := store.Append(ctx, "lobby", 1, "alice", text); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	h := NewHandler(newTestGateway("p1", store, &memoryBus{}), store, 500)
	router := newHistoryRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/rooms/lobby/messages", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var msgs []*Message
	if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].ID <= msgs[i-1].ID {
			t.Errorf("history not ascending: id %d after %d", msgs[i].ID, msgs[i-1].ID)
		}
	}
	if msgs[0].Text != "first" || msgs[2].Text != "third" {
		t.Errorf("history out of order: %q ... %q", msgs[0].Text, msgs[2].Text)
	}
}

func TestGetHistoryLimitClamped(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		store.Append(ctx, "lobby", 1, "alice", "msg")
	}

	h := NewHandler(newTestGateway("p1", store, &memoryBus{}), store, 3)
	router := newHistoryRouter(h)

	// Requested limit above the configured ceiling is clamped.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/rooms/lobby/messages?limit=100", nil))
	var msgs []*Message
	json.Unmarshal(rec.Body.Bytes(), &msgs)
	if len(msgs) != 3 {
		t.Errorf("got %d messages, want ceiling 3", len(msgs))
	}

	// Smaller requested limit is honored.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/rooms/lobby/messages?limit=2", nil))
	msgs = nil
	json.Unmarshal(rec.Body.Bytes(), &msgs)
	if len(msgs) != 2 {
		t.Errorf("got %d messages, want 2", len(msgs))
	}
}

func TestGetHistoryInvalidLimit(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(newTestGateway("p1", store, &memoryBus{}), store, 500)
	router := newHistoryRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/rooms/lobby/messages?limit=zero", nil))
	if rec.Code != 400 {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetHistoryEmptyRoom(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(newTestGateway("p1", store, &memoryBus{}), store, 500)
	router := newHistoryRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/rooms/empty/messages", nil))
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want empty JSON array", body)
	}
}

func TestGetHistoryStoreUnavailable(t *testing.T) {
	store := newFakeStore()
	store.fail = true
	h := NewHandler(newTestGateway("p1", store, &memoryBus{}), store, 500)
	router := newHistoryRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/rooms/lobby/messages", nil))
	if rec.Code != 503 {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
