package syncws

import "fmt"

// Opcode is the 4 bit frame type of RFC 6455 section 5.2.
type Opcode byte

const (
	OpContinuation Opcode = 0x0
	OpText         Opcode = 0x1
	OpBinary       Opcode = 0x2
	OpClose        Opcode = 0x8
	OpPing         Opcode = 0x9
	OpPong         Opcode = 0xA
)

// Is reports whether o equals other.
func (o Opcode) Is(other Opcode) bool {
	return o == other
}

// IsControl reports whether o is Close, Ping, Pong or a reserved control
// opcode. Control frames cannot be fragmented.
func (o Opcode) IsControl() bool {
	return o&0x8 != 0
}

// IsData reports whether o carries message data.
func (o Opcode) IsData() bool {
	return o.Is(OpText) || o.Is(OpBinary) || o.Is(OpContinuation)
}

// IsClose reports whether o is OpClose.
func (o Opcode) IsClose() bool {
	return o.Is(OpClose)
}

// IsPing reports whether o is OpPing.
func (o Opcode) IsPing() bool {
	return o.Is(OpPing)
}

// IsPong reports whether o is OpPong.
func (o Opcode) IsPong() bool {
	return o.Is(OpPong)
}

func (o Opcode) isKnown() bool {
	switch o {
	case OpContinuation, OpText, OpBinary, OpClose, OpPing, OpPong:
		return true
	default:
		return false
	}
}

// String returns the marker used in traffic logs.
func (o Opcode) String() string {
	switch o {
	case OpContinuation:
		return "CONT"
	case OpText:
		return "DATA"
	case OpBinary:
		return "BIN"
	case OpClose:
		return "CLOSE"
	case OpPing:
		return "PING"
	case OpPong:
		return "PONG"
	default:
		return fmt.Sprintf("OP(%#x)", byte(o))
	}
}

// Frame is a single protocol unit. Payload is always held unmasked; Mask is
// only meaningful when Masked is set.
type Frame struct {
	Opcode  Opcode
	Fin     bool
	Masked  bool
	Mask    [4]byte
	Payload []byte
}

func (f Frame) String() string {
	return fmt.Sprintf("Frame{op=%s,fin=%t,masked=%t,len=%d}",
		f.Opcode, f.Fin, f.Masked, len(f.Payload))
}

// closePayload is the decoded body of a Close frame.
type closePayload struct {
	Code   CloseCode
	Reason string
}
