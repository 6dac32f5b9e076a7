package syncws

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

type mockStream struct {
	mock.Mock
}

func (m *mockStream) ReadAvailable(p []byte) (int, error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *mockStream) Write(p []byte) (int, error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *mockStream) Close() error {
	args := m.Called()
	return args.Error(0)
}

// memStream is an in-memory Stream. Tests play the server by feeding inbound
// bytes and inspecting what the client wrote.
type memStream struct {
	mu sync.Mutex

	inbound []byte
	written []byte

	// writeLimit caps the bytes accepted per Write; 0 means no cap.
	writeLimit int
	// eof reports io.EOF once inbound is drained.
	eof      bool
	readErr  error
	writeErr error

	closed         bool
	writtenAtClose int
}

func newMemStream() *memStream {
	return &memStream{}
}

func (s *memStream) Dialer() Dialer {
	return func(context.Context, string, uint16, time.Duration) (Stream, error) {
		return s, nil
	}
}

func (s *memStream) Feed(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inbound = append(s.inbound, p...)
}

func (s *memStream) SetEOF() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eof = true
}

func (s *memStream) SetWriteLimit(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeLimit = n
}

func (s *memStream) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

func (s *memStream) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

func (s *memStream) ReadAvailable(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return 0, ErrStreamClosed
	case s.readErr != nil:
		return 0, s.readErr
	case len(s.inbound) == 0 && s.eof:
		return 0, io.EOF
	}

	n := copy(p, s.inbound)
	s.inbound = s.inbound[n:]
	return n, nil
}

func (s *memStream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return 0, ErrStreamClosed
	case s.writeErr != nil:
		return 0, s.writeErr
	}

	n := len(p)
	if s.writeLimit > 0 && n > s.writeLimit {
		n = s.writeLimit
	}
	s.written = append(s.written, p[:n]...)
	return n, nil
}

func (s *memStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		s.writtenAtClose = len(s.written)
	}
	return nil
}

func (s *memStream) Written() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.written...)
}

func (s *memStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// WrittenBeforeClose is what had been written when Close was called.
func (s *memStream) WrittenBeforeClose() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.written[:s.writtenAtClose]...)
}
