package syncws

import (
	"strconv"
	"time"
)

// KeepAlivePayloadFactory produces the application data of each client ping.
type KeepAlivePayloadFactory func() []byte

// TimestampPayload puts the current unix time in milliseconds in each ping.
func TimestampPayload() []byte {
	return []byte(strconv.FormatInt(time.Now().UnixMilli(), 10))
}

// activeKeepAlive decides when Loop should send a ping. It does not own a
// timer; Loop asks it on every iteration.
type activeKeepAlive struct {
	interval time.Duration
	payload  KeepAlivePayloadFactory
	now      func() time.Time

	lastPing time.Time
	lastPong time.Time
}

func newActiveKeepAlive(interval time.Duration, payload KeepAlivePayloadFactory) *activeKeepAlive {
	if payload == nil {
		payload = TimestampPayload
	}
	return &activeKeepAlive{
		interval: interval,
		payload:  payload,
		now:      time.Now,
	}
}

func (k *activeKeepAlive) Enabled() bool {
	return k.interval > 0
}

// Start resets the clock when the connection opens.
func (k *activeKeepAlive) Start() {
	k.lastPing = k.now()
}

// Tick returns a ping payload when the interval elapsed since the last ping.
func (k *activeKeepAlive) Tick() ([]byte, bool) {
	if !k.Enabled() {
		return nil, false
	}
	now := k.now()
	if now.Sub(k.lastPing) < k.interval {
		return nil, false
	}
	k.lastPing = now
	return k.payload(), true
}

func (k *activeKeepAlive) Pong() {
	k.lastPong = k.now()
}

// LastPong is the zero time until a pong has been seen.
func (k *activeKeepAlive) LastPong() time.Time {
	return k.lastPong
}
