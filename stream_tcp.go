package syncws

import (
	"context"
	"io"
	"net"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

// TCPStream is a Stream over a plain TCP connection.
type TCPStream struct {
	conn         *net.TCPConn
	raw          syscall.RawConn
	pollInterval time.Duration
	logger       logger

	closeOnce sync.Once
	closeErr  error
}

func newTCPStream(conn *net.TCPConn, pollInterval time.Duration, logger logger) (*TCPStream, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return nil, errors.Wrap(err, "cannot access raw connection")
	}

	if err := conn.SetNoDelay(true); err != nil {
		logger.Warnf("cannot disable nagle: %s", err)
	}

	return &TCPStream{
		conn:         conn,
		raw:          raw,
		pollInterval: pollInterval,
		logger:       logger,
	}, nil
}

// NewTCPDialer returns the Dialer used by default. Resolution and connection
// failures are reported as ErrUnreachableHost.
func NewTCPDialer(logger logger, pollInterval time.Duration) Dialer {
	return func(ctx context.Context, host string, port uint16, timeout time.Duration) (Stream, error) {
		addr := net.JoinHostPort(host, strconv.Itoa(int(port)))
		d := net.Dialer{Timeout: timeout}

		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			logger.Errorf("cannot connect to %s: %s", addr, err)
			return nil, errors.Wrap(ErrUnreachableHost, err.Error())
		}

		tcp, ok := conn.(*net.TCPConn)
		if !ok {
			_ = conn.Close()
			return nil, errors.Wrapf(ErrUnreachableHost, "unexpected connection type %T", conn)
		}

		s, err := newTCPStream(tcp, pollInterval, logger.WithField("remote", addr))
		if err != nil {
			_ = conn.Close()
			return nil, errors.Wrap(ErrUnreachableHost, err.Error())
		}

		logger.Debugf("success opening connection to %s", addr)
		return s, nil
	}
}

// ReadAvailable returns what is already buffered by the kernel, 0 when
// nothing is, and io.EOF once the peer shut its side.
func (s *TCPStream) ReadAvailable(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := s.readNonBlocking(p)
	if err == io.EOF {
		return 0, io.EOF
	}
	if err != nil {
		return n, errors.Wrap(ErrIO, err.Error())
	}
	return n, nil
}

// Write sends what the socket accepts right now and returns that count.
func (s *TCPStream) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := s.writeNonBlocking(p)
	if err != nil {
		return n, errors.Wrap(ErrIO, err.Error())
	}
	return n, nil
}

// Close is idempotent.
func (s *TCPStream) Close() error {
	s.closeOnce.Do(func() {
		_ = s.conn.CloseWrite()
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

func (s *TCPStream) LocalAddr() net.Addr { return s.conn.LocalAddr() }

func (s *TCPStream) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }
