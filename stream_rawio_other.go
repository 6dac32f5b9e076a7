//go:build !unix

package syncws

import (
	"net"
	"time"

	"github.com/pkg/errors"
)

func (s *TCPStream) readNonBlocking(p []byte) (int, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.pollInterval)); err != nil {
		return 0, err
	}
	n, err := s.conn.Read(p)
	if isTimeout(err) {
		return n, nil
	}
	return n, err
}

func (s *TCPStream) writeNonBlocking(p []byte) (int, error) {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.pollInterval)); err != nil {
		return 0, err
	}
	n, err := s.conn.Write(p)
	if isTimeout(err) {
		return n, nil
	}
	return n, err
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
