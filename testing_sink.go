package syncws

import "sync"

type mockSink struct {
	OnConnectFunc func(c *Client, payload []byte)
	OnTextFunc    func(c *Client, text string)
	OnCloseFunc   func(c *Client, reason CloseReason, code CloseCode)
}

func (m *mockSink) OnConnect(c *Client, payload []byte) {
	if m.OnConnectFunc != nil {
		m.OnConnectFunc(c, payload)
	}
}

func (m *mockSink) OnText(c *Client, text string) {
	if m.OnTextFunc != nil {
		m.OnTextFunc(c, text)
	}
}

func (m *mockSink) OnClose(c *Client, reason CloseReason, code CloseCode) {
	if m.OnCloseFunc != nil {
		m.OnCloseFunc(c, reason, code)
	}
}

// eventRecorder collects every event a Client delivers.
type eventRecorder struct {
	mu       sync.Mutex
	events   []Event
	userData []any
}

func (r *eventRecorder) Callback() Callback {
	return func(_ *Client, ev Event, userData any) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, ev)
		r.userData = append(r.userData, userData)
	}
}

func (r *eventRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *eventRecorder) Count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func (r *eventRecorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var texts []string
	for _, ev := range r.events {
		if ev.Kind == EventText {
			texts = append(texts, ev.Text)
		}
	}
	return texts
}

// Last returns the most recent event of kind.
func (r *eventRecorder) Last(kind EventKind) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == kind {
			return r.events[i], true
		}
	}
	return Event{}, false
}
