package syncws

import "fmt"

// EventKind tells which fields of an Event are set.
type EventKind int

const (
	EventConnect EventKind = iota
	EventText
	EventClose
)

func (k EventKind) String() string {
	switch k {
	case EventConnect:
		return "connect"
	case EventText:
		return "text"
	case EventClose:
		return "close"
	default:
		return "unknown"
	}
}

// CloseReason tells which side started the close handshake.
type CloseReason int

const (
	ServerClosed CloseReason = iota
	ClientClosed
)

func (r CloseReason) String() string {
	if r == ServerClosed {
		return "server"
	}
	return "client"
}

// Event is delivered to the callback once per connect, message or close.
// Only the fields of its Kind are set. Payload and Text must not be retained
// past the callback if the caller mutates them.
type Event struct {
	Kind EventKind
	// Payload is the body sent along with the upgrade response, if any.
	Payload []byte
	Text    string
	Reason  CloseReason
	Code    CloseCode
}

func newConnectEvent(payload []byte) Event {
	return Event{Kind: EventConnect, Payload: payload}
}

func newTextEvent(text []byte) Event {
	return Event{Kind: EventText, Text: string(text)}
}

func newCloseEvent(reason CloseReason, code CloseCode) Event {
	return Event{Kind: EventClose, Reason: reason, Code: code}
}

func (e Event) String() string {
	switch e.Kind {
	case EventConnect:
		return fmt.Sprintf("Event{connect,payload=%d bytes}", len(e.Payload))
	case EventText:
		return fmt.Sprintf("Event{text,data=%s}", e.Text)
	case EventClose:
		return fmt.Sprintf("Event{close,by=%s,code=%d}", e.Reason, e.Code)
	default:
		return "Event{unknown}"
	}
}
