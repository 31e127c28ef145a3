package chat

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"roomchat/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict origins once the frontend host is pinned down.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Handler struct {
	gateway      *Gateway
	store        Store
	historyLimit int
}

func NewHandler(gateway *Gateway, store Store, historyLimit int) *Handler {
	return &Handler{
		gateway:      gateway,
		store:        store,
		historyLimit: historyLimit,
	}
}

// ServeWs upgrades the connection for an already-authenticated caller
// and runs the session until the transport drops. Identity comes from
// the auth middleware; a request that got this far has a verified token.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserKey).(int)
	username, ok2 := r.Context().Value(middleware.UsernameKey).(string)
	if !ok || !ok2 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	session := NewSession(uuid.New().String(), userID, username)
	h.gateway.Connect(session)

	client := NewClient(h.gateway, session, conn)
	go client.Run()
}

// GetHistory returns the tail of a room's message log in ascending id
// order. Live delivery carries the same ids, so a client can merge the
// two without duplicates.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	if room == "" {
		http.Error(w, "missing room", http.StatusBadRequest)
		return
	}

	limit := h.historyLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		if n < limit {
			limit = n
		}
	}

	msgs, err := h.store.ReadTail(r.Context(), room, limit)
	if err != nil {
		log.Error().Err(err).Str("room", room).Msg("history read failed")
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	if msgs == nil {
		msgs = []*Message{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(msgs)
}
