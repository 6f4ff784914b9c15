package notifications

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// waitForRegistration blocks until the hub goroutine has recorded the client,
// since registration completes after the channel handoff.
func waitForRegistration(t *testing.T, hub *Hub, userID int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		_, ok := hub.users[userID]
		hub.mu.RUnlock()
		if ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("user %d was never registered with the hub", userID)
}

func TestAsyncDispatcher_DeliversToConnectedUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{Hub: hub, Send: make(chan []byte, 4), UserID: 7}
	hub.Register <- client
	waitForRegistration(t, hub, 7)

	dispatcher := NewAsyncDispatcher(hub, testLogger(), 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dispatcher.Run(ctx)

	dispatcher.Send(7, EventDuelAccepted, map[string]interface{}{"duel_id": "d-1"})

	select {
	case raw := <-client.Send:
		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			t.Fatalf("failed to unmarshal delivered event: %v", err)
		}
		if event.UserID != 7 || event.Type != EventDuelAccepted {
			t.Fatalf("delivered event = %+v, want user 7 %s", event, EventDuelAccepted)
		}
		if event.Payload["duel_id"] != "d-1" {
			t.Fatalf("payload = %v, want duel_id d-1", event.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event delivery")
	}
}

func TestAsyncDispatcher_SendNeverBlocks(t *testing.T) {
	// No Run goroutine: the queue fills and further sends must drop, not block.
	dispatcher := NewAsyncDispatcher(NewHub(), testLogger(), 2)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			dispatcher.Send(1, EventDuelCompleted, map[string]interface{}{"i": i})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked on a full queue")
	}
}

func TestHub_SendToUserOffline(t *testing.T) {
	hub := NewHub()

	if err := hub.SendToUser(42, Event{UserID: 42}); err != ErrNoConnections {
		t.Fatalf("SendToUser() error = %v, want %v", err, ErrNoConnections)
	}
}
