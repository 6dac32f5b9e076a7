package syncws

import "sync/atomic"

// ConnectionState is where a Client is in its lifecycle. States only move
// forward; any state may jump to StateClosed.
type ConnectionState int32

const (
	StateNotInit ConnectionState = iota
	StateHandshaking
	StateOpen
	StateClientClosing
	StateServerClosing
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateNotInit:
		return "not_init"
	case StateHandshaking:
		return "handshaking"
	case StateOpen:
		return "open"
	case StateClientClosing:
		return "client_closing"
	case StateServerClosing:
		return "server_closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// IsClosing reports whether a close handshake is under way.
func (s ConnectionState) IsClosing() bool {
	return s == StateClientClosing || s == StateServerClosing
}

// canMove lists the legal transitions.
func (s ConnectionState) canMove(to ConnectionState) bool {
	switch {
	case to == StateClosed:
		return s != StateClosed
	case s == StateNotInit:
		return to == StateHandshaking
	case s == StateHandshaking:
		return to == StateOpen
	case s == StateOpen:
		return to == StateClientClosing || to == StateServerClosing
	default:
		return false
	}
}

// stateBox is written under the client's loop lock and read lock-free.
type stateBox struct {
	v atomic.Int32
}

func (b *stateBox) Load() ConnectionState {
	return ConnectionState(b.v.Load())
}

// Move performs the transition if it is legal and reports whether it did.
func (b *stateBox) Move(to ConnectionState) bool {
	from := b.Load()
	if !from.canMove(to) {
		return false
	}
	b.v.Store(int32(to))
	return true
}
