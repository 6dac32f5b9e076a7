package syncws

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveKeepAlive(t *testing.T) {
	now := time.Unix(1000, 0)
	k := newActiveKeepAlive(time.Second, func() []byte { return []byte("hb") })
	k.now = func() time.Time { return now }

	k.Start()
	_, due := k.Tick()
	assert.False(t, due)

	now = now.Add(999 * time.Millisecond)
	_, due = k.Tick()
	assert.False(t, due)

	now = now.Add(time.Millisecond)
	payload, due := k.Tick()
	assert.True(t, due)
	assert.Equal(t, []byte("hb"), payload)

	_, due = k.Tick()
	assert.False(t, due, "interval restarts after a ping")

	assert.True(t, k.LastPong().IsZero())
	k.Pong()
	assert.Equal(t, now, k.LastPong())
}

func TestActiveKeepAlive_Disabled(t *testing.T) {
	k := newActiveKeepAlive(0, nil)
	k.Start()
	assert.False(t, k.Enabled())

	_, due := k.Tick()
	assert.False(t, due)
}

func TestTimestampPayload(t *testing.T) {
	ms, err := strconv.ParseInt(string(TimestampPayload()), 10, 64)
	require.NoError(t, err)
	assert.InDelta(t, time.Now().UnixMilli(), ms, 5000)
}
