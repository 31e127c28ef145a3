package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"roomchat/internal/metrics"
)

// Gateway owns every live session on this process and turns client
// events into registry updates, store appends and backplane publishes.
// Each operation is a synchronous transition: callers (one goroutine per
// connection, plus the backplane subscriber) invoke them directly, and
// only Append and Publish can block.
type Gateway struct {
	origin    string // tags published events so we skip our own on receipt
	registry  *Registry
	store     Store
	backplane Backplane

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewGateway(origin string, registry *Registry, store Store, backplane Backplane) *Gateway {
	return &Gateway{
		origin:    origin,
		registry:  registry,
		store:     store,
		backplane: backplane,
		sessions:  make(map[string]*Session),
	}
}

// Connect registers a freshly authenticated session.
func (g *Gateway) Connect(s *Session) {
	g.mu.Lock()
	g.sessions[s.ID] = s
	g.mu.Unlock()
	metrics.WsConnections.Inc()
	log.Debug().Str("session_id", s.ID).Str("username", s.Username).Msg("session connected")
}

// Join places the session in room, leaving its previous room first. The
// joining session never sees its own join; members of the old room get
// exactly one leave before members of the new room get the join.
func (g *Gateway) Join(ctx context.Context, s *Session, room string) error {
	if strings.TrimSpace(room) == "" {
		return ErrInvalidRoom
	}

	prev := g.registry.Join(s, room)
	if prev == room {
		return nil
	}

	if prev != "" {
		g.broadcastPresence(ctx, KindUserLeft, prev, s)
	}
	g.broadcastPresence(ctx, KindUserJoined, room, s)

	log.Debug().Str("session_id", s.ID).Str("room", room).Msg("session joined room")
	return nil
}

// Typing relays a typing notification to the other members of the
// session's current room. Fire and forget: no retry, no ordering.
func (g *Gateway) Typing(ctx context.Context, s *Session, room string, stopped bool) error {
	if cur, ok := g.registry.Room(s.ID); !ok || cur != room {
		return ErrNotInRoom
	}
	kind := KindTyping
	if stopped {
		kind = KindStopTyping
	}
	g.broadcastPresence(ctx, kind, room, s)
	return nil
}

// SendMessage appends the text to the room's log and, only once the
// append succeeded, broadcasts the persisted message to every member of
// the room including the sender. Nobody sees a message that is not yet
// durable, and the sender sees the same canonical copy as everyone
// else rather than a local echo.
func (g *Gateway) SendMessage(ctx context.Context, s *Session, room, text string) error {
	if cur, ok := g.registry.Room(s.ID); !ok || cur != room {
		return ErrNotInRoom
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	msg, err := g.store.Append(ctx, room, s.UserID, s.Username, text)
	if err != nil {
		return err
	}
	metrics.MessagesPersisted.Inc()

	payload := encodeMessage(msg)
	g.registry.Broadcast(room, "", payload)
	g.publish(ctx, KindMessage, room, payload)
	return nil
}

// Disconnect tears the session down. A leave is emitted only if the
// session had actually joined a room.
func (g *Gateway) Disconnect(ctx context.Context, s *Session) {
	room := g.registry.Remove(s.ID)

	g.mu.Lock()
	delete(g.sessions, s.ID)
	g.mu.Unlock()
	s.Close()
	metrics.WsConnections.Dec()

	if room != "" {
		g.broadcastPresence(ctx, KindUserLeft, room, s)
	}
	log.Debug().Str("session_id", s.ID).Str("room", room).Msg("session disconnected")
}

// HandleRemote relays an event received from the backplane to local
// room members. Events this process published are dropped: their local
// relay already happened before the publish.
func (g *Gateway) HandleRemote(evt *Event) {
	if evt.Origin == g.origin {
		return
	}
	metrics.BackplaneReceived.Inc()
	g.registry.Broadcast(evt.Room, "", evt.Payload)
}

// SessionCount reports the number of live sessions on this process.
func (g *Gateway) SessionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}

func (g *Gateway) broadcastPresence(ctx context.Context, kind, room string, s *Session) {
	payload := encodePresence(kind, room, s.Username)
	g.registry.Broadcast(room, s.ID, payload)
	metrics.PresenceEvents.WithLabelValues(kind).Inc()
	g.publish(ctx, kind, room, payload)
}

func (g *Gateway) publish(ctx context.Context, kind, room string, payload []byte) {
	evt := &Event{
		Origin:  g.origin,
		Kind:    kind,
		Room:    room,
		Payload: payload,
		At:      time.Now().UTC(),
	}
	if err := g.backplane.Publish(ctx, evt); err != nil {
		// Local members already got the event; remote delivery resumes
		// when the backplane reconnects.
		log.Warn().Err(err).Str("kind", kind).Str("room", room).Msg("backplane publish failed")
	}
}
