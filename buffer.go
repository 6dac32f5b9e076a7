package syncws

import (
	"github.com/pkg/errors"
)

var errBufferFull = errors.New("buffer limit reached")

// boundedBuffer is a growable byte buffer that refuses to hold more than max
// bytes. Consumed bytes are dropped from the front with Discard.
type boundedBuffer struct {
	buf []byte
	max int
}

func newBoundedBuffer(initial, max int) *boundedBuffer {
	if initial > max {
		initial = max
	}
	return &boundedBuffer{
		buf: make([]byte, 0, initial),
		max: max,
	}
}

func (b *boundedBuffer) Len() int { return len(b.buf) }

func (b *boundedBuffer) Cap() int { return b.max }

// Free is how many more bytes the buffer accepts.
func (b *boundedBuffer) Free() int { return b.max - len(b.buf) }

func (b *boundedBuffer) Bytes() []byte { return b.buf }

func (b *boundedBuffer) Write(p []byte) (int, error) {
	if len(p) > b.Free() {
		return 0, errors.Wrapf(errBufferFull, "need %d bytes, %d free", len(p), b.Free())
	}
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// Discard drops the first n bytes. The remaining bytes are moved to the front
// so the backing array does not grow without bound.
func (b *boundedBuffer) Discard(n int) {
	if n >= len(b.buf) {
		b.buf = b.buf[:0]
		return
	}
	copied := copy(b.buf, b.buf[n:])
	b.buf = b.buf[:copied]
}

func (b *boundedBuffer) Reset() {
	b.buf = b.buf[:0]
}

// Release drops the backing array.
func (b *boundedBuffer) Release() {
	b.buf = nil
}
