package notifications

import (
	"context"
	"log/slog"
)

const (
	EventDuelAccepted  = "duel_accepted"
	EventDuelCompleted = "duel_completed"
)

// Event is a lifecycle notification addressed to a single user.
type Event struct {
	UserID  int                    `json:"user_id"`
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

// Dispatcher consumes lifecycle events for best-effort delivery. Send must
// never block the caller and must never surface delivery failures: the state
// transition that produced the event has already committed.
type Dispatcher interface {
	Send(userID int, eventType string, payload map[string]interface{})
}

// AsyncDispatcher queues events on a buffered channel and delivers them to the
// websocket hub from its own goroutine. When the queue is full the event is
// dropped after logging.
type AsyncDispatcher struct {
	hub    *Hub
	events chan Event
	logger *slog.Logger
}

func NewAsyncDispatcher(hub *Hub, logger *slog.Logger, queueSize int) *AsyncDispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &AsyncDispatcher{
		hub:    hub,
		events: make(chan Event, queueSize),
		logger: logger,
	}
}

func (d *AsyncDispatcher) Send(userID int, eventType string, payload map[string]interface{}) {
	event := Event{UserID: userID, Type: eventType, Payload: payload}
	select {
	case d.events <- event:
	default:
		d.logger.Warn("notification queue full, dropping event",
			slog.Int("user_id", userID),
			slog.String("event_type", eventType),
		)
	}
}

// Run delivers queued events until ctx is canceled. It is intended to be
// started once from main as a goroutine.
func (d *AsyncDispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.events:
			if err := d.hub.SendToUser(event.UserID, event); err != nil {
				d.logger.Warn("failed to deliver notification",
					slog.Int("user_id", event.UserID),
					slog.String("event_type", event.Type),
					slog.Any("error", err),
				)
			}
		}
	}
}
