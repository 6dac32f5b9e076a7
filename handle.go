package syncws

import (
	"context"
	"sync"
)

type (
	// Handle is an opaque reference to a Client owned by a Registry. The zero
	// Handle is never issued.
	Handle uint64

	// HandleCallback is the Callback of the handle surface.
	HandleCallback func(h Handle, ev Event, userData any)

	// Registry owns Clients on behalf of callers that can only hold integers.
	Registry struct {
		mu      sync.RWMutex
		last    Handle
		clients map[Handle]*Client
		opts    []Option
	}
)

// Default backs the package level handle functions.
var Default = NewRegistry()

// NewRegistry returns a Registry whose Clients are built with opts.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		clients: make(map[Handle]*Client),
		opts:    opts,
	}
}

// Create builds a new Client in state NotInit and returns its handle.
// Handles are never reused.
func (r *Registry) Create() Handle {
	c := New(r.opts...)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.last++
	r.clients[r.last] = c
	return r.last
}

func (r *Registry) get(h Handle) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[h]
	return c, ok
}

// Client exposes the Client behind h.
func (r *Registry) Client(h Handle) (*Client, bool) {
	return r.get(h)
}

// Init returns StatusIOError for an unknown handle.
func (r *Registry) Init(h Handle, host string, port uint16, path string, cb HandleCallback, userData any) Status {
	c, ok := r.get(h)
	if !ok {
		return StatusIOError
	}

	var forward Callback
	if cb != nil {
		forward = func(_ *Client, ev Event, userData any) {
			cb(h, ev, userData)
		}
	}
	return c.Init(context.Background(), host, port, path, forward, userData)
}

// Loop returns StatusIOError for an unknown handle.
func (r *Registry) Loop(h Handle) Status {
	c, ok := r.get(h)
	if !ok {
		return StatusIOError
	}
	return c.Loop()
}

// Send ignores unknown handles.
func (r *Registry) Send(h Handle, text string) {
	if c, ok := r.get(h); ok {
		c.Send(text)
	}
}

// Drop releases the Client and forgets h. Unknown handles are ignored.
func (r *Registry) Drop(h Handle) {
	r.mu.Lock()
	c, ok := r.clients[h]
	delete(r.clients, h)
	r.mu.Unlock()

	if ok {
		c.Drop()
	}
}

// Len is the number of live handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Create registers a new Client in Default.
func Create() Handle { return Default.Create() }

// InitHandle initialises the Client behind h in Default.
func InitHandle(h Handle, host string, port uint16, path string, cb HandleCallback, userData any) Status {
	return Default.Init(h, host, port, path, cb, userData)
}

// LoopHandle runs one iteration of the Client behind h in Default.
func LoopHandle(h Handle) Status { return Default.Loop(h) }

// SendHandle queues text on the Client behind h in Default.
func SendHandle(h Handle, text string) { Default.Send(h, text) }

// DropHandle closes and forgets the Client behind h in Default.
func DropHandle(h Handle) { Default.Drop(h) }
