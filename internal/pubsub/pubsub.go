package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"
)

// Channel is the postgres channel the projects trigger notifies on.
const Channel = "project_changes"

// OperationReload is sent to handlers after a reconnect, when notifications may have been missed.
const OperationReload = "RELOAD"

// ChangeEvent is one row change reported by the trigger.
type ChangeEvent struct {
	Table     string
	Operation string // INSERT, UPDATE, DELETE or RELOAD
}

type ChangeHandler func(event ChangeEvent)

// PubSub handles PostgreSQL LISTEN/NOTIFY for project changes made by any
// instance, so every instance can drop its cached project directory.
type PubSub struct {
	connStr  string
	listener *pq.Listener
	handlers []ChangeHandler
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewPubSub creates a new PubSub instance
func NewPubSub(connStr string) *PubSub {
	ctx, cancel := context.WithCancel(context.Background())

	return &PubSub{
		connStr:  connStr,
		handlers: make([]ChangeHandler, 0),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Subscribe adds a handler for change events
func (ps *PubSub) Subscribe(handler ChangeHandler) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.handlers = append(ps.handlers, handler)
}

// Start begins listening for notifications
func (ps *PubSub) Start() error {
	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			slog.Error("PubSub listener error", slog.Any("error", err))
		}
		switch ev {
		case pq.ListenerEventConnectionAttemptFailed:
			slog.Warn("PubSub connection attempt failed, will retry")
		case pq.ListenerEventDisconnected:
			slog.Warn("PubSub disconnected, will attempt reconnect")
		case pq.ListenerEventReconnected:
			slog.Info("PubSub reconnected, triggering full reload")
			ps.notifyHandlers(ChangeEvent{Table: "projects", Operation: OperationReload})
		}
	}

	ps.listener = pq.NewListener(ps.connStr, 10*time.Second, time.Minute, reportProblem)

	if err := ps.listener.Listen(Channel); err != nil {
		return fmt.Errorf("failed to listen on %s channel: %w", Channel, err)
	}

	slog.Info("PubSub started listening for project changes")

	go ps.processNotifications()

	return nil
}

// Stop closes the listener
func (ps *PubSub) Stop() {
	ps.cancel()
	if ps.listener != nil {
		ps.listener.Close()
	}
	slog.Info("PubSub stopped")
}

func (ps *PubSub) processNotifications() {
	for {
		select {
		case <-ps.ctx.Done():
			return
		case notification := <-ps.listener.Notify:
			if notification == nil {
				// Connection lost, will be handled by reportProblem callback
				continue
			}

			event, ok := ParsePayload(notification.Extra)
			if !ok {
				slog.Warn("Invalid notification payload", slog.String("payload", notification.Extra))
				continue
			}

			slog.Debug("Received project change notification",
				slog.String("table", event.Table),
				slog.String("operation", event.Operation))

			ps.notifyHandlers(event)
		}
	}
}

// ParsePayload reads the "table:operation" payload written by the trigger.
func ParsePayload(payload string) (ChangeEvent, bool) {
	parts := strings.SplitN(payload, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ChangeEvent{}, false
	}
	return ChangeEvent{Table: parts[0], Operation: parts[1]}, true
}

func (ps *PubSub) notifyHandlers(event ChangeEvent) {
	ps.mu.RLock()
	handlers := make([]ChangeHandler, len(ps.handlers))
	copy(handlers, ps.handlers)
	ps.mu.RUnlock()

	for _, handler := range handlers {
		// Run handlers in goroutines to avoid blocking the notification loop
		go handler(event)
	}
}
