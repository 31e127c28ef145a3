package chat

import "sync"

const sendBuffer = 256

// Session is one authenticated connection. Identity is fixed at
// connection time; the current room lives in the Registry so membership
// and the session's own view of it cannot drift apart.
type Session struct {
	ID       string
	UserID   int
	Username string

	send      chan []byte
	closeOnce sync.Once
}

func NewSession(id string, userID int, username string) *Session {
	return &Session{
		ID:       id,
		UserID:   userID,
		Username: username,
		send:     make(chan []byte, sendBuffer),
	}
}

// Send queues an outbound frame without blocking. A slow consumer whose
// buffer is full loses the frame; real-time delivery is best effort.
func (s *Session) Send(payload []byte) bool {
	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

// Close closes the outbound queue exactly once. Only call after the
// session has been removed from the Registry.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.send)
	})
}
