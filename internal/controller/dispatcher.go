package controller

import (
	"context"
	"sync"

	"pdfchat/internal/domain"
)

// Handler reacts to one event. payload is the file path for uploads and the
// message text for chat; it is empty for load.
type Handler func(ctx context.Context, payload string)

// Dispatcher holds one handler per event type.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[domain.Event]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[domain.Event]Handler)}
}

// On registers h for e, replacing any previous handler.
func (d *Dispatcher) On(e domain.Event, h Handler) {
	d.mu.Lock()
	d.handlers[e] = h
	d.mu.Unlock()
}

// Fire runs the handler for e and reports whether one was registered.
func (d *Dispatcher) Fire(ctx context.Context, e domain.Event, payload string) bool {
	d.mu.RLock()
	h, ok := d.handlers[e]
	d.mu.RUnlock()
	if !ok {
		return false
	}
	h(ctx, payload)
	return true
}
