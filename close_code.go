package syncws

import (
	"github.com/fasthttp/websocket"
)

// CloseCode is the 16 bit status carried by Close frames.
type CloseCode uint16

const (
	CloseNormal             CloseCode = websocket.CloseNormalClosure
	CloseGoingAway          CloseCode = websocket.CloseGoingAway
	CloseProtocolError      CloseCode = websocket.CloseProtocolError
	CloseUnsupportedData    CloseCode = websocket.CloseUnsupportedData
	CloseNoStatus           CloseCode = websocket.CloseNoStatusReceived
	CloseAbnormal           CloseCode = websocket.CloseAbnormalClosure
	CloseInvalidPayload     CloseCode = websocket.CloseInvalidFramePayloadData
	ClosePolicyViolation    CloseCode = websocket.ClosePolicyViolation
	CloseMessageTooBig      CloseCode = websocket.CloseMessageTooBig
	CloseMandatoryExtension CloseCode = websocket.CloseMandatoryExtension
	CloseInternalError      CloseCode = websocket.CloseInternalServerErr
	CloseServiceRestart     CloseCode = websocket.CloseServiceRestart
	CloseTryAgainLater      CloseCode = websocket.CloseTryAgainLater
	CloseTLSHandshake       CloseCode = websocket.CloseTLSHandshake
)

// IsValidOnWire reports whether the code may appear inside a Close frame.
// 1005, 1006 and 1015 are reserved for local reporting only.
func (c CloseCode) IsValidOnWire() bool {
	switch {
	case c >= 1000 && c <= 1003:
		return true
	case c >= 1007 && c <= 1014:
		return true
	case c >= 3000 && c <= 4999:
		return true
	default:
		return false
	}
}

// IsError reports whether the close is caused by a failure rather than an
// orderly shutdown.
func (c CloseCode) IsError() bool {
	return c != CloseNormal && c != CloseGoingAway
}

// sanitize returns the code to echo back to the peer.
func (c CloseCode) sanitize() CloseCode {
	if c == CloseNoStatus {
		return CloseNormal
	}
	if !c.IsValidOnWire() {
		return CloseProtocolError
	}
	return c
}
