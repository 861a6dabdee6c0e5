// Package main provides a CLI that tails the live post feed over WebSocket,
// useful for watching cross-instance event mirroring during development and
// load tests.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Metrics tracks what the tail observed
type Metrics struct {
	EventsReceived int64
	CreatesSeen    int64
	DeletesSeen    int64
	Errors         int64
}

var metrics Metrics

type feedEvent struct {
	Kind string `json:"kind"`
	Post struct {
		ID      string `json:"id"`
		Content string `json:"content"`
		UserID  string `json:"user_id"`
	} `json:"post"`
	At time.Time `json:"at"`
}

func main() {
	host := flag.String("host", "localhost:8480", "API server host")
	duration := flag.Duration("duration", 0, "How long to tail (0 = until interrupted)")
	raw := flag.Bool("raw", false, "Print raw JSON payloads instead of a summary line")
	flag.Parse()

	log.Printf("Tailing live feed on %s", *host)

	u := url.URL{Scheme: "ws", Host: *host, Path: "/api/ws/feed"}
	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("dial failed: %v", err)
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("read error: %v", err)
					atomic.AddInt64(&metrics.Errors, 1)
				}
				return
			}
			atomic.AddInt64(&metrics.EventsReceived, 1)

			if *raw {
				fmt.Println(string(message))
				continue
			}

			var ev feedEvent
			if err := json.Unmarshal(message, &ev); err != nil {
				atomic.AddInt64(&metrics.Errors, 1)
				continue
			}
			switch ev.Kind {
			case "post_created":
				atomic.AddInt64(&metrics.CreatesSeen, 1)
				log.Printf("+ post %s by %s: %.60q", ev.Post.ID, ev.Post.UserID, ev.Post.Content)
			case "post_deleted":
				atomic.AddInt64(&metrics.DeletesSeen, 1)
				log.Printf("- post %s", ev.Post.ID)
			default:
				log.Printf("? unknown event kind %q", ev.Kind)
			}
		}
	}()

	var timeout <-chan time.Time
	if *duration > 0 {
		timeout = time.After(*duration)
	}

	select {
	case <-done:
	case <-timeout:
		log.Println("Duration reached")
	case <-interrupt:
		log.Println("Interrupted")
	}

	_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	select {
	case <-done:
	case <-time.After(time.Second):
	}

	printMetrics()
}

func printMetrics() {
	log.Println("\nTail Results")
	log.Println("============")
	log.Printf("Events Received: %d", atomic.LoadInt64(&metrics.EventsReceived))
	log.Printf("Creates Seen: %d", atomic.LoadInt64(&metrics.CreatesSeen))
	log.Printf("Deletes Seen: %d", atomic.LoadInt64(&metrics.DeletesSeen))
	log.Printf("Errors: %d", atomic.LoadInt64(&metrics.Errors))
}
