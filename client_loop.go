package syncws

import (
	"io"

	"github.com/pkg/errors"
)

var errPeerClosed = errors.New("connection closed by peer")

// Loop runs one non-blocking iteration: it writes what the stream accepts,
// reads what is available and dispatches the resulting events. StatusOK means
// call again; anything else is terminal and returned by every later call.
func (c *Client) Loop() Status {
	c.loopMu.Lock()
	status := c.iterate()
	events := c.dispatcher.Drain()
	c.loopMu.Unlock()

	c.dispatcher.Deliver(events)
	return status
}

func (c *Client) iterate() Status {
	if o := c.outcome.Load(); o != nil {
		return o.status
	}

	var err error
	switch c.state.Load() {
	case StateNotInit:
		return StatusOK
	case StateHandshaking:
		err = c.handshake()
	default:
		err = c.serve()
	}
	if err != nil {
		return c.fail(err)
	}

	if st := c.state.Load(); st.IsClosing() {
		c.closeIters++
		if c.closeIters >= c.config.CloseIterations {
			return c.fail(errors.Wrapf(ErrCloseHandshake, "no close from peer after %d iterations", c.closeIters))
		}
	}
	return StatusOK
}

func (c *Client) handshake() error {
	if len(c.request) > 0 {
		n, err := c.stream.Write(c.request)
		c.request = c.request[n:]
		if err != nil {
			return ioError(err)
		}
		if len(c.request) > 0 {
			return nil
		}
		c.logger.Debugf("upgrade request sent, key %s", c.negotiator.Key())
	}

	_, readErr := c.fill()

	res, err := c.negotiator.Feed(c.recv.Bytes())
	if err != nil {
		return err
	}
	if res == nil {
		switch {
		case errors.Is(readErr, io.EOF):
			return errors.Wrap(ErrHandshake, errPeerClosed.Error())
		case readErr != nil:
			return ioError(readErr)
		}
		return nil
	}

	c.recv.Discard(res.Consumed)
	c.protocol = res.Protocol
	c.negotiator = nil
	c.state.Move(StateOpen)
	c.keepAlive.Start()
	c.logger.Infof("connection open, protocol %q", res.Protocol)
	c.dispatcher.Push(newConnectEvent(res.Payload))

	// frames may have arrived along with the response
	if err := c.flush(); err != nil {
		return err
	}
	if err := c.decode(); err != nil {
		return err
	}
	if readErr != nil {
		return c.readFailed(readErr)
	}
	return c.flush()
}

func (c *Client) serve() error {
	if c.state.Load() == StateOpen {
		c.ping()
	}

	if err := c.flush(); err != nil || c.state.Load() == StateClosed {
		return err
	}

	_, readErr := c.fill()

	if err := c.decode(); err != nil {
		return err
	}
	if c.state.Load() == StateClosed {
		return nil
	}
	if readErr != nil {
		return c.readFailed(readErr)
	}
	return c.flush()
}

// fill reads whatever the stream has, up to one chunk.
func (c *Client) fill() (int, error) {
	n := min(len(c.chunk), c.recv.Free())
	if n == 0 {
		return 0, nil
	}

	read, err := c.stream.ReadAvailable(c.chunk[:n])
	if read > 0 {
		if _, werr := c.recv.Write(c.chunk[:read]); werr != nil {
			return 0, ioError(werr)
		}
	}
	return read, err
}

func (c *Client) readFailed(err error) error {
	if !errors.Is(err, io.EOF) {
		return ioError(err)
	}

	switch c.state.Load() {
	case StateServerClosing:
		// the peer already sent its Close; the reply is no longer needed
		c.finish()
		return nil
	case StateClientClosing:
		return errors.Wrap(ErrCloseHandshake, errPeerClosed.Error())
	default:
		return errPeerClosed
	}
}

func (c *Client) flush() error {
	closeSent, err := c.queue.Flush(c.stream)
	if err != nil {
		return err
	}
	if !closeSent {
		return nil
	}

	c.logger.Debug("=> [CLOSE]")
	if c.state.Load() == StateServerClosing {
		c.finish()
	}
	return nil
}

// decode handles every complete frame in the receive buffer.
func (c *Client) decode() error {
	for c.state.Load() != StateClosed {
		in, n, err := c.codec.Next(c.recv.Bytes())
		if errors.Is(err, errIncomplete) {
			return nil
		}
		c.recv.Discard(n)
		if err != nil {
			return err
		}
		if in.done {
			c.handle(in)
		}
	}
	return nil
}

func (c *Client) handle(in inbound) {
	switch {
	case in.close != nil:
		c.onClose(*in.close)
	case in.control != nil && in.control.Opcode.IsPing():
		c.logger.Debugf("<= [PING] %d bytes", len(in.control.Payload))
		c.pong(in.control.Payload)
	case in.control != nil && in.control.Opcode.IsPong():
		c.logger.Debugf("<= [PONG] %d bytes", len(in.control.Payload))
		c.keepAlive.Pong()
	case in.text != nil:
		c.logger.Debugf("<= [DATA] %d bytes", len(in.text))
		c.dispatcher.Push(newTextEvent(in.text))
	}
}

func (c *Client) onClose(cp closePayload) {
	c.logger.Debugf("<= [CLOSE] code %d reason %q", cp.Code, cp.Reason)

	code := cp.Code
	if code != CloseNoStatus {
		code = code.sanitize()
	}

	switch c.state.Load() {
	case StateOpen:
		c.dispatcher.Push(newCloseEvent(ServerClosed, code))
		c.queue.EnqueueControl(c.codec.EncodeClose(cp.Code.sanitize(), cp.Reason), true)
		c.state.Move(StateServerClosing)
		c.closeIters = 0
	case StateClientClosing:
		c.dispatcher.Push(newCloseEvent(ClientClosed, code))
		c.finish()
	}
}

// ping is the active keep-alive. The passive side is pong.
func (c *Client) ping() {
	payload, due := c.keepAlive.Tick()
	if !due {
		return
	}

	frame, err := c.codec.EncodeControl(OpPing, payload)
	if err != nil {
		c.logger.Warnf("cannot send ping: %s", err)
		return
	}
	c.queue.EnqueueControl(frame, false)
	c.logger.Debug("=> [PING]")
}

func (c *Client) pong(payload []byte) {
	frame, err := c.codec.EncodeControl(OpPong, payload)
	if err != nil {
		c.logger.Warnf("cannot answer ping: %s", err)
		return
	}
	c.queue.EnqueueControl(frame, false)
}

func ioError(err error) error {
	if errors.Is(err, ErrIO) {
		return err
	}
	return errors.Wrap(ErrIO, err.Error())
}
