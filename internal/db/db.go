package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
)

const connectAttempts = 10

type Database struct {
	Conn *sql.DB
}

// NewDatabase opens a pgx connection pool and waits for the database to
// accept connections. Container orchestration usually starts the server
// before Postgres is ready, so the ping is retried with a growing delay.
func NewDatabase(dsn string) (*Database, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	var pingErr error
	for i := 0; i < connectAttempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pingErr = conn.PingContext(ctx)
		cancel()
		if pingErr == nil {
			conn.SetMaxOpenConns(25)
			conn.SetMaxIdleConns(25)
			conn.SetConnMaxLifetime(5 * time.Minute)
			return &Database{Conn: conn}, nil
		}
		log.Warn().Err(pingErr).Int("attempts_left", connectAttempts-i-1).Msg("database not ready, retrying")
		time.Sleep(time.Duration(500+i*300) * time.Millisecond)
	}
	conn.Close()
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", connectAttempts, pingErr)
}

// Migrate creates the schema if it does not exist yet. Message ids come
// from the SERIAL primary key, which is what gives a room's history its
// total order.
func (d *Database) Migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            name TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS messages (
            id SERIAL PRIMARY KEY,
            room TEXT NOT NULL,
            user_id INTEGER REFERENCES users(id) ON DELETE CASCADE,
            username TEXT NOT NULL,
            text TEXT NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE INDEX IF NOT EXISTS idx_messages_room_id ON messages (room, id)`,
	}

	for _, query := range queries {
		if _, err := d.Conn.Exec(query); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
