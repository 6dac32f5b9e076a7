package syncws

import (
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_UnknownHandle(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, StatusIOError, r.Init(42, "localhost", 80, "/", nil, nil))
	assert.Equal(t, StatusIOError, r.Loop(42))
	assert.NotPanics(t, func() {
		r.Send(42, "nobody")
		r.Drop(42)
	})
}

func TestRegistry_CreateDrop(t *testing.T) {
	r := NewRegistry(WithLogger(newTestLogger(io.Discard)))

	a, b := r.Create(), r.Create()
	assert.NotZero(t, a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, r.Len())

	assert.Equal(t, StatusOK, r.Loop(a))

	r.Drop(a)
	r.Drop(a)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, StatusIOError, r.Loop(a))

	_, ok := r.Client(b)
	assert.True(t, ok)
}

func TestRegistry_Session(t *testing.T) {
	stream := newMemStream()
	peer := newTestPeer(stream)
	r := NewRegistry(WithDialer(stream.Dialer()), WithLogger(newTestLogger(io.Discard)))

	type delivery struct {
		handle   Handle
		kind     EventKind
		userData any
	}
	var (
		mu   sync.Mutex
		seen []delivery
	)
	cb := func(h Handle, ev Event, userData any) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, delivery{handle: h, kind: ev.Kind, userData: userData})
	}

	h := r.Create()
	require.Equal(t, StatusOK, r.Init(h, "localhost", 8080, "/feed", cb, "ctx"))
	require.Equal(t, StatusOK, r.Loop(h))

	key, ok := peer.Request()
	require.True(t, ok)
	stream.Feed(upgradeResponse(key))
	require.Equal(t, StatusOK, r.Loop(h))

	r.Send(h, "hello")
	require.Equal(t, StatusOK, r.Loop(h))
	frames := peer.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, "hello", string(frames[0].Payload))

	stream.Feed(serverClose(CloseNormal, ""))
	require.Equal(t, StatusOK, r.Loop(h))
	assert.Equal(t, StatusConnectionCloseError, r.Loop(h))

	r.Drop(h)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.Equal(t, delivery{handle: h, kind: EventConnect, userData: "ctx"}, seen[0])
	assert.Equal(t, delivery{handle: h, kind: EventClose, userData: "ctx"}, seen[1])
}

func TestDefaultRegistry(t *testing.T) {
	h := Create()
	assert.NotZero(t, h)
	assert.Equal(t, StatusOK, LoopHandle(h))

	SendHandle(h, "queued before init")
	DropHandle(h)
	DropHandle(h)

	assert.Equal(t, StatusIOError, LoopHandle(h))
	assert.Equal(t, StatusIOError, InitHandle(h, "localhost", 80, "/", nil, nil))
}
