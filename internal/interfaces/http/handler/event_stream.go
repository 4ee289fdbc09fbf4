package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hms/pharmacy/internal/domain/inventory"
	"github.com/hms/pharmacy/internal/domain/shared"
)

// Stream classes exposed to SSE clients. Each inventory event type maps
// onto exactly one class.
const (
	StreamClassInventoryUpdate = "inventory-update"
	StreamClassStockAlert      = "stock-alert"
	StreamClassBatchExpiry     = "batch-expiry"
)

// SSEClient represents one connected SSE client
type SSEClient struct {
	ID   string
	Chan chan SSEMessage
	Done chan struct{}
}

// SSEMessage is one event on the wire
type SSEMessage struct {
	Event string
	Data  string
	ID    string
}

// EventStreamHandler fans inventory events out to SSE clients. It
// subscribes to the in-process event bus; slow clients lose messages
// instead of blocking the broadcast.
type EventStreamHandler struct {
	BaseHandler
	logger     *zap.Logger
	clients    sync.Map // map[string]*SSEClient
	ctx        context.Context
	cancel     context.CancelFunc
	heartbeat  time.Duration
	bufferSize int
	started    bool
	startMu    sync.Mutex
}

// EventStreamOption configures the handler
type EventStreamOption func(*EventStreamHandler)

// WithStreamHeartbeat sets the heartbeat interval
func WithStreamHeartbeat(interval time.Duration) EventStreamOption {
	return func(h *EventStreamHandler) {
		if interval > 0 {
			h.heartbeat = interval
		}
	}
}

// WithStreamBufferSize sets the per-client message buffer
func WithStreamBufferSize(size int) EventStreamOption {
	return func(h *EventStreamHandler) {
		if size > 0 {
			h.bufferSize = size
		}
	}
}

// NewEventStreamHandler creates a new EventStreamHandler
func NewEventStreamHandler(logger *zap.Logger, opts ...EventStreamOption) *EventStreamHandler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &EventStreamHandler{
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		heartbeat:  30 * time.Second,
		bufferSize: 64,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers the event stream route
func (h *EventStreamHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/events/stream", h.Stream)
}

// EventTypes returns the event types this handler subscribes to
func (h *EventStreamHandler) EventTypes() []string {
	return []string{
		inventory.EventTypeStockLevelChanged,
		inventory.EventTypeBatchReceived,
		inventory.EventTypeBatchWrittenOff,
		inventory.EventTypeBatchRecalled,
		inventory.EventTypeBatchExpired,
		inventory.EventTypeAlertRaised,
		inventory.EventTypeAlertResolved,
	}
}

// Handle broadcasts a domain event to all connected clients
func (h *EventStreamHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	class := ClassifyEvent(event.EventType())
	if class == "" {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal stream event",
			zap.String("event_type", event.EventType()),
			zap.Error(err))
		return nil
	}

	h.broadcast(SSEMessage{
		Event: class,
		Data:  string(data),
		ID:    event.EventID().String(),
	})
	return nil
}

// ClassifyEvent maps an event type to its stream class. Unlisted event
// types are not broadcast.
func ClassifyEvent(eventType string) string {
	switch eventType {
	case inventory.EventTypeStockLevelChanged, inventory.EventTypeBatchReceived:
		return StreamClassInventoryUpdate
	case inventory.EventTypeAlertRaised, inventory.EventTypeAlertResolved:
		return StreamClassStockAlert
	case inventory.EventTypeBatchWrittenOff, inventory.EventTypeBatchRecalled, inventory.EventTypeBatchExpired:
		return StreamClassBatchExpiry
	default:
		return ""
	}
}

// Start begins the heartbeat loop
func (h *EventStreamHandler) Start() error {
	h.startMu.Lock()
	defer h.startMu.Unlock()

	if h.started {
		return fmt.Errorf("event stream handler already started")
	}

	go h.sendHeartbeats()

	h.started = true
	h.logger.Info("event stream handler started")
	return nil
}

// Stop disconnects all clients and stops the heartbeat loop
func (h *EventStreamHandler) Stop() {
	h.cancel()

	h.clients.Range(func(_, value any) bool {
		if client, ok := value.(*SSEClient); ok {
			close(client.Done)
		}
		return true
	})

	h.logger.Info("event stream handler stopped")
}

// broadcast sends a message to all connected clients
func (h *EventStreamHandler) broadcast(msg SSEMessage) {
	h.clients.Range(func(_, value any) bool {
		client, ok := value.(*SSEClient)
		if !ok {
			return true
		}

		select {
		case client.Chan <- msg:
		default:
			// Channel full, the client is not keeping up
			h.logger.Warn("client channel full, dropping message",
				zap.String("client_id", client.ID),
				zap.String("event", msg.Event))
		}
		return true
	})
}

func (h *EventStreamHandler) sendHeartbeats() {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.broadcast(SSEMessage{
				Event: "heartbeat",
				Data:  fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()),
			})
		}
	}
}

// Stream establishes a Server-Sent Events connection
// GET /api/v1/events/stream
func (h *EventStreamHandler) Stream(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	client := &SSEClient{
		ID:   uuid.New().String(),
		Chan: make(chan SSEMessage, h.bufferSize),
		Done: make(chan struct{}),
	}

	// The channel is never closed; a concurrent broadcast may hold a
	// reference after the delete, and an unreachable open channel is
	// simply collected.
	h.clients.Store(client.ID, client)
	defer h.clients.Delete(client.ID)

	h.logger.Info("SSE client connected", zap.String("client_id", client.ID))

	h.sendEvent(c.Writer, SSEMessage{
		Event: "connected",
		Data:  fmt.Sprintf(`{"client_id":"%s","timestamp":%d}`, client.ID, time.Now().Unix()),
	})
	c.Writer.Flush()

	reqCtx := c.Request.Context()
	for {
		select {
		case <-reqCtx.Done():
			h.logger.Info("SSE client disconnected", zap.String("client_id", client.ID))
			return
		case <-client.Done:
			return
		case <-h.ctx.Done():
			return
		case msg := <-client.Chan:
			h.sendEvent(c.Writer, msg)
			c.Writer.Flush()
		}
	}
}

func (h *EventStreamHandler) sendEvent(w io.Writer, msg SSEMessage) {
	if msg.Event != "" {
		fmt.Fprintf(w, "event: %s\n", msg.Event)
	}
	if msg.ID != "" {
		fmt.Fprintf(w, "id: %s\n", msg.ID)
	}
	fmt.Fprintf(w, "data: %s\n\n", msg.Data)
}

// ClientCount returns the number of connected SSE clients
func (h *EventStreamHandler) ClientCount() int {
	count := 0
	h.clients.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}
