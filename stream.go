package syncws

import (
	"context"
	"time"
)

type (
	// Stream is the byte transport under a Client. Neither call may block the
	// caller for longer than a short poll interval.
	Stream interface {
		// ReadAvailable copies whatever is ready into p. It returns 0, nil when
		// nothing is ready and io.EOF once the peer closed its side.
		ReadAvailable(p []byte) (int, error)
		// Write sends as much of p as the transport accepts right now and
		// reports how much that was. The caller keeps the rest.
		Write(p []byte) (int, error)
		// Close shuts the stream down. Calling it more than once is harmless.
		Close() error
	}

	// Dialer opens a Stream to host:port within timeout.
	Dialer func(ctx context.Context, host string, port uint16, timeout time.Duration) (Stream, error)
)
