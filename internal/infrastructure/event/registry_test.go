package event

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storefront/backend/internal/domain/shared"
)

// mockHandler implements EventHandler for testing
type mockHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
}

func newMockHandler(eventTypes ...string) *mockHandler {
	return &mockHandler{
		eventTypes: eventTypes,
		handled:    make([]shared.DomainEvent, 0),
	}
}

func (h *mockHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.handled = append(h.handled, event)
	return nil
}

func (h *mockHandler) EventTypes() []string {
	return h.eventTypes
}

func TestHandlerRegistry_Register_SpecificTypes(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newMockHandler("order.placed", "order.paid")

	registry.Register(handler, "order.placed", "order.paid")

	handlers := registry.GetHandlers("order.placed")
	assert.Len(t, handlers, 1)
	assert.Equal(t, handler, handlers[0])

	handlers = registry.GetHandlers("order.paid")
	assert.Len(t, handlers, 1)
	assert.Equal(t, handler, handlers[0])

	handlers = registry.GetHandlers("order.cancelled")
	assert.Len(t, handlers, 0)
}

func TestHandlerRegistry_Register_Wildcard(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newMockHandler() // No event types = wildcard

	registry.Register(handler)

	handlers := registry.GetHandlers("order.placed")
	assert.Len(t, handlers, 1)
	assert.Equal(t, handler, handlers[0])

	handlers = registry.GetHandlers("product.published")
	assert.Len(t, handlers, 1)
	assert.Equal(t, handler, handlers[0])
}

func TestHandlerRegistry_Register_MixedTypes(t *testing.T) {
	registry := NewHandlerRegistry()
	specificHandler := newMockHandler("order.placed")
	wildcardHandler := newMockHandler()

	registry.Register(specificHandler, "order.placed")
	registry.Register(wildcardHandler)

	handlers := registry.GetHandlers("order.placed")
	assert.Len(t, handlers, 2)

	handlers = registry.GetHandlers("order.shipped")
	assert.Len(t, handlers, 1)
	assert.Equal(t, wildcardHandler, handlers[0])
}

func TestHandlerRegistry_Unregister_SpecificHandler(t *testing.T) {
	registry := NewHandlerRegistry()
	handler1 := newMockHandler("order.placed")
	handler2 := newMockHandler("order.placed")

	registry.Register(handler1, "order.placed")
	registry.Register(handler2, "order.placed")

	handlers := registry.GetHandlers("order.placed")
	assert.Len(t, handlers, 2)

	registry.Unregister(handler1)

	handlers = registry.GetHandlers("order.placed")
	assert.Len(t, handlers, 1)
	assert.Equal(t, handler2, handlers[0])
}

func TestHandlerRegistry_Unregister_WildcardHandler(t *testing.T) {
	registry := NewHandlerRegistry()
	wildcardHandler := newMockHandler()

	registry.Register(wildcardHandler)

	handlers := registry.GetHandlers("cart.purged")
	assert.Len(t, handlers, 1)

	registry.Unregister(wildcardHandler)

	handlers = registry.GetHandlers("cart.purged")
	assert.Len(t, handlers, 0)
}

func TestHandlerRegistry_Count(t *testing.T) {
	registry := NewHandlerRegistry()
	handler1 := newMockHandler("order.placed")
	handler2 := newMockHandler("media.uploaded")
	wildcardHandler := newMockHandler()

	registry.Register(handler1, "order.placed", "order.paid")
	registry.Register(handler2, "media.uploaded")
	registry.Register(wildcardHandler)

	assert.Equal(t, 3, registry.Count())
}

func TestHandlerRegistry_RegisterTwice(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newMockHandler("order.placed")

	registry.Register(handler, "order.placed")
	registry.Register(handler, "order.placed")
	registry.Register(handler)
	registry.Register(handler)

	assert.Len(t, registry.GetHandlers("order.placed"), 2)
	assert.Len(t, registry.GetHandlers("order.paid"), 1)
	assert.Equal(t, 1, registry.Count())
}
