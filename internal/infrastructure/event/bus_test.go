package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hms/pharmacy/internal/domain/inventory"
	"github.com/hms/pharmacy/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingHandler struct {
	types    []string
	received []shared.DomainEvent
	fail     bool
	panics   bool
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.panics {
		panic("handler exploded")
	}
	if h.fail {
		return errors.New("handler failed")
	}
	h.received = append(h.received, event)
	return nil
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func stockEvent(t *testing.T) shared.DomainEvent {
	t.Helper()
	item, err := inventory.NewStockItem(uuid.New(), 0, 0, 10)
	require.NoError(t, err)
	require.NoError(t, item.ApplyDelta(5))
	events := item.GetDomainEvents()
	require.Len(t, events, 1)
	return events[0]
}

func TestInMemoryEventBus(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to matching subscribers", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{types: []string{inventory.EventTypeStockLevelChanged}}
		bus.Subscribe(handler)

		require.NoError(t, bus.Publish(ctx, stockEvent(t)))
		assert.Len(t, handler.received, 1)
	})

	t.Run("wildcard subscribers receive everything", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{}
		bus.Subscribe(handler)

		require.NoError(t, bus.Publish(ctx, stockEvent(t)))
		assert.Len(t, handler.received, 1)
	})

	t.Run("unmatched event types are not delivered", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{types: []string{inventory.EventTypeAlertRaised}}
		bus.Subscribe(handler)

		require.NoError(t, bus.Publish(ctx, stockEvent(t)))
		assert.Empty(t, handler.received)
	})

	t.Run("a failing handler does not block the others", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		failing := &recordingHandler{types: []string{inventory.EventTypeStockLevelChanged}, fail: true}
		healthy := &recordingHandler{types: []string{inventory.EventTypeStockLevelChanged}}
		bus.Subscribe(failing)
		bus.Subscribe(healthy)

		require.NoError(t, bus.Publish(ctx, stockEvent(t)))
		assert.Len(t, healthy.received, 1)
	})

	t.Run("a panicking handler is contained", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		panicking := &recordingHandler{types: []string{inventory.EventTypeStockLevelChanged}, panics: true}
		healthy := &recordingHandler{types: []string{inventory.EventTypeStockLevelChanged}}
		bus.Subscribe(panicking)
		bus.Subscribe(healthy)

		require.NoError(t, bus.Publish(ctx, stockEvent(t)))
		assert.Len(t, healthy.received, 1)
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{types: []string{inventory.EventTypeStockLevelChanged}}
		bus.Subscribe(handler)
		bus.Unsubscribe(handler)

		require.NoError(t, bus.Publish(ctx, stockEvent(t)))
		assert.Empty(t, handler.received)
	})
}
