package syncws

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUnreachableHost    = errors.New("host cannot be reached")
	ErrHandshake          = errors.New("websocket handshake failed")
	ErrInvalidFrame       = errors.New("invalid websocket frame")
	ErrMessageTooBig      = errors.New("message exceeds the maximum size")
	ErrUnsupportedData    = errors.New("unsupported data frame")
	ErrInvalidUTF8        = errors.New("text payload is not valid utf-8")
	ErrConnectionClosed   = errors.New("connection has been closed")
	ErrCloseHandshake     = errors.New("close handshake did not complete")
	ErrIO                 = errors.New("i/o failure")
	ErrStreamClosed       = errors.New("stream has been closed")
	ErrAlreadyInitialized = errors.New("client already initialized")
)

// CloseError describes why the engine tore a connection down. Code is the close
// status put on the wire (or observed from the peer).
type CloseError struct {
	err    error
	Code   CloseCode
	Reason string
}

func (e CloseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s (close %d)", e.err, e.Code)
	}
	return fmt.Sprintf("%s (close %d: %s)", e.err, e.Code, e.Reason)
}

func (e CloseError) Unwrap() error { return e.err }

func newCloseError(err error, code CloseCode, reason string) *CloseError {
	if err == nil {
		return nil
	}
	return &CloseError{
		err:    err,
		Code:   code,
		Reason: reason,
	}
}

// StatusOf maps an engine error onto the status reported by Loop and Init.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrUnreachableHost):
		return StatusUnreachableHost
	case errors.Is(err, ErrHandshake):
		return StatusHandshakeError
	case errors.Is(err, ErrInvalidUTF8):
		return StatusUtf8DecodingError
	case errors.Is(err, ErrInvalidFrame),
		errors.Is(err, ErrMessageTooBig),
		errors.Is(err, ErrUnsupportedData):
		return StatusInvalidFrame
	case errors.Is(err, ErrConnectionClosed),
		errors.Is(err, ErrCloseHandshake):
		return StatusConnectionCloseError
	default:
		return StatusIOError
	}
}

// closeCodeOf picks the status code sent to the peer when err forces a close.
func closeCodeOf(err error) CloseCode {
	switch {
	case errors.Is(err, ErrInvalidUTF8):
		return CloseInvalidPayload
	case errors.Is(err, ErrMessageTooBig):
		return CloseMessageTooBig
	case errors.Is(err, ErrUnsupportedData):
		return CloseUnsupportedData
	case errors.Is(err, ErrInvalidFrame):
		return CloseProtocolError
	default:
		return CloseAbnormal
	}
}
