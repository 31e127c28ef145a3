package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeValidator struct {
	userID   int
	username string
	err      error
}

func (f *fakeValidator) ValidateToken(string) (int, string, error) {
	return f.userID, f.username, f.err
}

func protected(t *testing.T, wantID int, wantName string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := r.Context().Value(UserKey).(int)
		name, ok2 := r.Context().Value(UsernameKey).(string)
		if !ok || !ok2 {
			t.Error("identity missing from request context")
		}
		if id != wantID || name != wantName {
			t.Errorf("context identity = (%d, %q), want (%d, %q)", id, name, wantID, wantName)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestHandleBearerHeader(t *testing.T) {
	am := NewAuthMiddleware(&fakeValidator{userID: 7, username: "alice"})
	h := am.Handle(protected(t, 7, "alice"))

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHandleQueryFallback(t *testing.T) {
	am := NewAuthMiddleware(&fakeValidator{userID: 7, username: "alice"})
	h := am.Handle(protected(t, 7, "alice"))

	req := httptest.NewRequest("GET", "/ws?token=some-token", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHandleMissingToken(t *testing.T) {
	am := NewAuthMiddleware(&fakeValidator{userID: 7, username: "alice"})
	h := am.Handle(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler reached without a token")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/ws", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHandleInvalidToken(t *testing.T) {
	am := NewAuthMiddleware(&fakeValidator{err: errors.New("expired")})
	h := am.Handle(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler reached with an invalid token")
	}))

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
