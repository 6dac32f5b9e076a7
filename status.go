package syncws

// Status is the result of Init and Loop. Values are part of the stable
// contract: anything other than StatusOK is terminal for the Client.
type Status int

const (
	StatusOK Status = iota
	StatusUnreachableHost
	StatusHandshakeError
	StatusInvalidFrame
	StatusConnectionCloseError
	StatusUtf8DecodingError
	StatusIOError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnreachableHost:
		return "unreachable_host"
	case StatusHandshakeError:
		return "handshake_error"
	case StatusInvalidFrame:
		return "invalid_frame"
	case StatusConnectionCloseError:
		return "connection_close_error"
	case StatusUtf8DecodingError:
		return "utf8_decoding_error"
	case StatusIOError:
		return "io_error"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the Client is done; Loop keeps returning s.
func (s Status) IsTerminal() bool {
	return s != StatusOK
}
