//go:build unix

package syncws

import (
	"io"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// readNonBlocking issues a single read(2) on the socket. The runtime poller is
// never parked on: EAGAIN is reported as zero bytes.
func (s *TCPStream) readNonBlocking(p []byte) (int, error) {
	var (
		n     int
		opErr error
	)

	err := s.raw.Read(func(fd uintptr) bool {
		n, opErr = unix.Read(int(fd), p)
		return true
	})
	if err != nil {
		return 0, err
	}

	switch {
	case errors.Is(opErr, unix.EAGAIN), errors.Is(opErr, unix.EINTR):
		return 0, nil
	case opErr != nil:
		return 0, opErr
	case n == 0:
		return 0, io.EOF
	}
	return n, nil
}

// writeNonBlocking issues a single write(2); a full send buffer yields a short
// or zero count instead of waiting.
func (s *TCPStream) writeNonBlocking(p []byte) (int, error) {
	var (
		n     int
		opErr error
	)

	err := s.raw.Write(func(fd uintptr) bool {
		n, opErr = unix.Write(int(fd), p)
		return true
	})
	if err != nil {
		return 0, err
	}

	switch {
	case errors.Is(opErr, unix.EAGAIN), errors.Is(opErr, unix.EINTR):
		return 0, nil
	case opErr != nil:
		return 0, opErr
	case n < 0:
		return 0, nil
	}
	return n, nil
}
