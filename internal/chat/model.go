package chat

import (
	"encoding/json"
	"time"
)

// Message is one durably persisted chat message. The id is assigned by
// the store and strictly increases within a room; it is the only
// ordering contract clients can rely on.
type Message struct {
	ID        int64     `json:"id"`
	Room      string    `json:"room"`
	UserID    int       `json:"user_id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Event kinds carried over the backplane and delivered to clients.
const (
	KindMessage    = "message"
	KindUserJoined = "user_joined"
	KindUserLeft   = "user_left"
	KindTyping     = "typing"
	KindStopTyping = "stop_typing"
)

// ClientEvent is what a connected client sends over the websocket.
type ClientEvent struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Text string `json:"text,omitempty"`
}

type messageEvent struct {
	Type string `json:"type"`
	Message
}

type presenceEvent struct {
	Type     string `json:"type"`
	Room     string `json:"room"`
	Username string `json:"username"`
}

type errorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func encodeMessage(msg *Message) []byte {
	b, _ := json.Marshal(messageEvent{Type: KindMessage, Message: *msg})
	return b
}

func encodePresence(kind, room, username string) []byte {
	b, _ := json.Marshal(presenceEvent{Type: kind, Room: room, Username: username})
	return b
}

func encodeError(code, message string) []byte {
	b, _ := json.Marshal(errorEvent{Type: "error", Code: code, Message: message})
	return b
}

// Event is the envelope published to the backplane. Payload holds the
// exact bytes delivered to clients, so remote processes relay without
// re-encoding. Origin tags the publishing process; a process drops its
// own events on receipt because it already relayed them locally.
type Event struct {
	Origin  string          `json:"origin"`
	Kind    string          `json:"kind"`
	Room    string          `json:"room"`
	Payload json.RawMessage `json:"payload"`
	At      time.Time       `json:"at"`
}
