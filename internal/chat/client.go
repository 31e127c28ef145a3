package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod     = (pongWait * 9) / 10 // Send pings to peer with this period. Must be less than pongWait.
	maxMessageSize = 4096                // Maximum frame size allowed from peer.
)

// Client pairs a session with its websocket connection and runs the two
// pumps between them.
type Client struct {
	gateway *Gateway
	session *Session
	conn    *websocket.Conn
}

func NewClient(gateway *Gateway, session *Session, conn *websocket.Conn) *Client {
	return &Client{gateway: gateway, session: session, conn: conn}
}

// Run starts the write pump and blocks in the read pump until the
// connection dies.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump decodes inbound frames and drives the gateway. Each event
// runs to completion before the next frame is read, so one connection's
// events never interleave with themselves; a blocked store append stalls
// only this connection.
func (c *Client) readPump() {
	defer func() {
		// Detached from the connection on purpose: an append that was in
		// flight when the transport died has already completed, and its
		// broadcast to the remaining members must not be cancelled.
		c.gateway.Disconnect(context.Background(), c.session)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("session_id", c.session.ID).Msg("websocket read failed")
			}
			return
		}
		c.dispatch(raw)
	}
}

func (c *Client) dispatch(raw []byte) {
	var evt ClientEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		c.session.Send(encodeError("validation", "malformed event"))
		return
	}

	ctx := context.Background()
	var err error
	switch evt.Type {
	case "join":
		err = c.gateway.Join(ctx, c.session, evt.Room)
	case "typing":
		err = c.gateway.Typing(ctx, c.session, evt.Room, false)
	case "stop_typing":
		err = c.gateway.Typing(ctx, c.session, evt.Room, true)
	case "message":
		err = c.gateway.SendMessage(ctx, c.session, evt.Room, evt.Text)
	default:
		c.session.Send(encodeError("validation", "unknown event type"))
		return
	}

	if err != nil {
		c.session.Send(encodeError(errorCode(err), err.Error()))
	}
}

// writePump drains the session's outbound queue onto the wire and keeps
// the connection alive with pings. It exits when the queue is closed or
// a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.session.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
