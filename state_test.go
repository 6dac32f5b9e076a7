package syncws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateBox_Transitions(t *testing.T) {
	var b stateBox
	assert.Equal(t, StateNotInit, b.Load())

	assert.False(t, b.Move(StateOpen), "open without handshake")
	assert.True(t, b.Move(StateHandshaking))
	assert.False(t, b.Move(StateNotInit))
	assert.True(t, b.Move(StateOpen))
	assert.False(t, b.Move(StateHandshaking))
	assert.True(t, b.Move(StateClientClosing))
	assert.False(t, b.Move(StateServerClosing))
	assert.False(t, b.Move(StateOpen))
	assert.True(t, b.Move(StateClosed))
	assert.False(t, b.Move(StateClosed))
	assert.Equal(t, StateClosed, b.Load())
}

func TestStateBox_AnyStateCloses(t *testing.T) {
	for _, st := range []ConnectionState{StateNotInit, StateHandshaking, StateOpen, StateServerClosing} {
		assert.True(t, st.canMove(StateClosed), st.String())
	}
}

func TestConnectionState_String(t *testing.T) {
	assert.Equal(t, "server_closing", StateServerClosing.String())
	assert.Equal(t, "unknown", ConnectionState(42).String())
	assert.True(t, StateClientClosing.IsClosing())
	assert.False(t, StateOpen.IsClosing())
}

func TestStatus(t *testing.T) {
	// values are a stable contract
	assert.Equal(t, 0, int(StatusOK))
	assert.Equal(t, 1, int(StatusUnreachableHost))
	assert.Equal(t, 2, int(StatusHandshakeError))
	assert.Equal(t, 3, int(StatusInvalidFrame))
	assert.Equal(t, 4, int(StatusConnectionCloseError))
	assert.Equal(t, 5, int(StatusUtf8DecodingError))
	assert.Equal(t, 6, int(StatusIOError))

	assert.False(t, StatusOK.IsTerminal())
	assert.True(t, StatusIOError.IsTerminal())
	assert.Equal(t, "utf8_decoding_error", StatusUtf8DecodingError.String())
}

func TestCloseCode(t *testing.T) {
	tests := []struct {
		code     CloseCode
		onWire   bool
		sanitize CloseCode
	}{
		{code: CloseNormal, onWire: true, sanitize: CloseNormal},
		{code: CloseUnsupportedData, onWire: true, sanitize: CloseUnsupportedData},
		{code: CloseNoStatus, onWire: false, sanitize: CloseNormal},
		{code: CloseAbnormal, onWire: false, sanitize: CloseProtocolError},
		{code: CloseInvalidPayload, onWire: true, sanitize: CloseInvalidPayload},
		{code: CloseTLSHandshake, onWire: false, sanitize: CloseProtocolError},
		{code: 999, onWire: false, sanitize: CloseProtocolError},
		{code: 4000, onWire: true, sanitize: 4000},
		{code: 5000, onWire: false, sanitize: CloseProtocolError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.onWire, tt.code.IsValidOnWire(), "code %d", tt.code)
		assert.Equal(t, tt.sanitize, tt.code.sanitize(), "code %d", tt.code)
	}

	assert.False(t, CloseNormal.IsError())
	assert.True(t, CloseProtocolError.IsError())
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusOK, StatusOf(nil))
	assert.Equal(t, StatusInvalidFrame, StatusOf(ErrMessageTooBig))
	assert.Equal(t, StatusConnectionCloseError, StatusOf(ErrCloseHandshake))
	assert.Equal(t, StatusIOError, StatusOf(errPeerClosed))

	err := newCloseError(ErrInvalidUTF8, CloseInvalidPayload, "bad text")
	assert.Equal(t, StatusUtf8DecodingError, StatusOf(err))
	assert.Contains(t, err.Error(), "close 1007: bad text")
	assert.Nil(t, newCloseError(nil, CloseNormal, ""))
}
