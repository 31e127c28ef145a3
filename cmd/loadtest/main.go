package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Simple load generator: N users per room, each sending M messages,
// counting how many message events come back.

var (
	baseURL   = flag.String("base", "http://localhost:8080", "server base URL")
	wsURL     = flag.String("ws", "ws://localhost:8080/ws", "websocket URL")
	rooms     = flag.Int("rooms", 10, "number of rooms")
	perRoom   = flag.Int("per-room", 10, "users per room")
	msgCount  = flag.Int("messages", 20, "messages per user")
	sendDelay = flag.Duration("delay", 10*time.Millisecond, "delay between sends")
)

var received atomic.Int64

func main() {
	flag.Parse()
	log.Printf("starting load test: %d rooms, %d users each, %d messages per user",
		*rooms, *perRoom, *msgCount)

	var wg sync.WaitGroup
	for r := 0; r < *rooms; r++ {
		room := fmt.Sprintf("load-%d", r)
		for u := 0; u < *perRoom; u++ {
			wg.Add(1)
			go func(room string, n int) {
				defer wg.Done()
				runUser(room, n)
			}(room, u)
		}
	}
	wg.Wait()

	sent := int64(*rooms) * int64(*perRoom) * int64(*msgCount)
	log.Printf("done: sent %d messages, received %d message events", sent, received.Load())
}

func runUser(room string, n int) {
	username := fmt.Sprintf("%s-u%d", room, n)
	token := authenticate(username, "password123")
	if token == "" {
		return
	}

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("%s?token=%s", *wsURL, token), nil)
	if err != nil {
		log.Printf("ws connect failed [%s]: %v", username, err)
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"type": "join", "room": room}); err != nil {
		log.Printf("join failed [%s]: %v", username, err)
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var evt map[string]any
			if err := conn.ReadJSON(&evt); err != nil {
				return
			}
			if evt["type"] == "message" {
				received.Add(1)
			}
		}
	}()

	for i := 0; i < *msgCount; i++ {
		msg := map[string]string{
			"type": "message",
			"room": room,
			"text": fmt.Sprintf("load msg %d from %s", i, username),
		}
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("send failed [%s]: %v", username, err)
			break
		}
		time.Sleep(*sendDelay)
	}

	// Linger briefly so late fan-out is counted.
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

// authenticate registers (ignoring "already exists") and logs in.
func authenticate(username, password string) string {
	creds := map[string]string{"username": username, "password": password}
	postJSON("/register", creds)

	resp, err := postJSON("/login", creds)
	if err != nil {
		log.Printf("login failed [%s]: %v", username, err)
		return ""
	}
	defer resp.Body.Close()

	var data struct {
		Token string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&data)
	return data.Token
}

func postJSON(endpoint string, data any) (*http.Response, error) {
	body, _ := json.Marshal(data)
	return http.Post(*baseURL+endpoint, "application/json", bytes.NewBuffer(body))
}
