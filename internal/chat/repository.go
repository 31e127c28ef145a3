package chat

import (
	"context"
	"database/sql"
	"fmt"
)

// Store is the narrow contract the gateway has with the message log.
type Store interface {
	// Append durably persists a message and returns it with the
	// store-assigned id and timestamp. No partial writes: on error the
	// message does not exist.
	Append(ctx context.Context, room string, userID int, username, text string) (*Message, error)
	// ReadTail returns up to limit most recent messages for a room in
	// ascending id order.
	ReadTail(ctx context.Context, room string, limit int) ([]*Message, error)
}

// Repository implements Store on Postgres. The SERIAL primary key hands
// out the room-scoped monotone ids; concurrent appends get whatever
// order the database resolves, which is the one order everyone sees.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Append(ctx context.Context, room string, userID int, username, text string) (*Message, error) {
	const query = `
		INSERT INTO messages (room, user_id, username, text)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	msg := &Message{Room: room, UserID: userID, Username: username, Text: text}
	err := r.db.QueryRowContext(ctx, query, room, userID, username, text).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return msg, nil
}

func (r *Repository) ReadTail(ctx context.Context, room string, limit int) ([]*Message, error) {
	const query = `
		SELECT id, room, user_id, username, text, created_at
		FROM messages
		WHERE room = $1
		ORDER BY id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, room, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		msg := &Message{}
		if err := rows.Scan(&msg.ID, &msg.Room, &msg.UserID, &msg.Username, &msg.Text, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Fetched newest-first to apply the limit, returned oldest-first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
