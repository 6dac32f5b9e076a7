package syncws

import (
	"time"

	"github.com/pkg/errors"
)

// Close starts a client close handshake. It only has an effect on an open
// connection; Loop must keep being called for the handshake to complete.
func (c *Client) Close(code CloseCode, reason string) {
	c.loopMu.Lock()
	defer c.loopMu.Unlock()

	c.startClose(code, reason)
}

func (c *Client) startClose(code CloseCode, reason string) bool {
	if c.state.Load() != StateOpen {
		return false
	}
	if code != CloseNoStatus {
		code = code.sanitize()
	}

	c.queue.EnqueueCloseLast(c.codec.EncodeClose(code, reason))
	c.state.Move(StateClientClosing)
	c.closeIters = 0
	c.logger.Infof("closing connection with code %d", code)
	return true
}

// Drop closes the connection and releases every buffer. An open connection
// first gets a Close frame and a few iterations, spaced by the poll interval,
// for the peer to answer. Drop must not run concurrently with Loop, nor be
// called from a callback. Calling it again does nothing.
func (c *Client) Drop() {
	c.dropOnce.Do(c.drop)
}

func (c *Client) drop() {
	c.loopMu.Lock()
	c.startClose(CloseNormal, "Done")
	c.loopMu.Unlock()

	for i := 0; i < c.config.CloseIterations && c.state.Load().IsClosing(); i++ {
		if c.Loop() != StatusOK {
			break
		}
		if c.state.Load().IsClosing() {
			time.Sleep(c.config.PollInterval)
		}
	}

	c.loopMu.Lock()
	if st := c.state.Load(); st != StateClosed {
		if st != StateNotInit && !c.dispatcher.CloseDispatched() {
			c.dispatcher.Push(newCloseEvent(ClientClosed, CloseAbnormal))
		}
		c.setOutcome(StatusConnectionCloseError, errors.Wrapf(ErrConnectionClosed, "dropped while %s", st))
		c.state.Move(StateClosed)
		c.queue.Discard()
		c.closeStream()
	}

	events := c.dispatcher.Drain()
	c.recv.Release()
	c.codec.Release()
	c.chunk = nil
	c.request = nil
	c.negotiator = nil
	c.loopMu.Unlock()

	c.dispatcher.Deliver(events)
	c.dispatcher.Release()
	c.logger.Debug("client dropped")
}

// fail tears the connection down after err and returns the terminal status.
// Protocol violations get a best-effort Close frame first.
func (c *Client) fail(err error) Status {
	from := c.state.Load()
	code := closeCodeOf(err)

	by := ClientClosed
	if errors.Is(err, errPeerClosed) {
		by = ServerClosed
	}

	if code != CloseAbnormal && (from == StateOpen || from.IsClosing()) &&
		!c.queue.Sealed() && !c.queue.Interrupted() {
		if _, werr := c.stream.Write(c.codec.EncodeClose(code, "")); werr != nil {
			c.logger.Debugf("cannot send close %d: %s", code, werr)
		} else {
			c.logger.Debugf("=> [CLOSE] code %d", code)
		}
	}

	status := StatusOf(err)
	c.logger.Errorf("connection failed (%s): %s", status, err)
	c.setOutcome(status, newCloseError(err, code, ""))

	c.state.Move(StateClosed)
	if !c.dispatcher.CloseDispatched() {
		c.dispatcher.Push(newCloseEvent(by, code))
	}
	c.queue.Discard()
	c.closeStream()

	return c.statusLocked()
}

// finish ends an orderly close.
func (c *Client) finish() {
	c.setOutcome(StatusConnectionCloseError, ErrConnectionClosed)
	c.state.Move(StateClosed)
	if n := c.queue.Discard(); n > 0 {
		c.logger.Debugf("discarded %d frames after close", n)
	}
	c.closeStream()
	c.logger.Info("connection closed")
}

func (c *Client) closeStream() {
	if err := c.stream.Close(); err != nil {
		c.logger.Debugf("cannot close stream: %s", err)
	}
	c.stream = closedStream{}
}
