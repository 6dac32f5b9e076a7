package syncws

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type (
	// Client is a single WebSocket connection driven by the caller. Init
	// connects, Loop performs one non-blocking iteration, Send queues a text
	// message from any goroutine and Drop tears everything down.
	//
	// A Client must not be copied.
	Client struct {
		config      Config
		configErr   error
		baseLogger  logger
		dialer      Dialer
		mask        MaskGenerator
		pingPayload KeepAlivePayloadFactory

		id     string
		logger logger

		// loopMu serialises Init, Loop, Close and Drop. It guards everything
		// below except state, queue and outcome, which are safe on their own.
		loopMu sync.Mutex
		state  stateBox

		stream     Stream
		recv       *boundedBuffer
		chunk      []byte
		codec      *FrameCodec
		queue      *outboundQueue
		dispatcher *eventDispatcher
		negotiator *handshakeNegotiator
		keepAlive  *activeKeepAlive

		// request holds the part of the upgrade request not written yet.
		request    []byte
		protocol   string
		closeIters int

		outcome  atomic.Pointer[outcome]
		dropOnce sync.Once
	}

	// outcome is the terminal result of a Client.
	outcome struct {
		status Status
		err    error
	}
)

// New builds a Client. It never fails: an invalid configuration is reported
// by Init. Use NewClient to get the validation error up front.
func New(opts ...Option) *Client {
	c := &Client{
		config:     DefaultConfig(),
		baseLogger: newNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.id = uuid.NewString()
	c.logger = c.baseLogger.WithField("client", c.id)

	if err := c.config.Validate(); err != nil {
		c.logger.Errorf("falling back to default configuration: %s", err)
		c.configErr = err
		c.config = DefaultConfig()
	}

	if c.dialer == nil {
		c.dialer = NewTCPDialer(c.logger, c.config.PollInterval)
	}

	c.stream = closedStream{}
	c.codec = NewFrameCodec(c.config.MaxFrameSize, c.config.MaxMessageSize, c.mask)
	c.queue = newOutboundQueue()
	c.recv = newBoundedBuffer(c.config.ReadChunkSize, c.config.recvBufferSize())
	c.chunk = make([]byte, c.config.ReadChunkSize)
	c.dispatcher = newEventDispatcher(c.logger)
	c.keepAlive = newActiveKeepAlive(c.config.PingInterval, c.pingPayload)

	return c
}

// NewClient is New with the configuration checked first.
func NewClient(opts ...Option) (*Client, error) {
	c := New(opts...)
	if c.configErr != nil {
		return nil, c.configErr
	}
	return c, nil
}

// Init connects to host:port and starts the upgrade for path. A connection
// failure is reported right away as StatusUnreachableHost, after cb received
// the Close event. The handshake itself completes over the following Loop
// calls. cb runs on the goroutine calling Init or Loop.
func (c *Client) Init(ctx context.Context, host string, port uint16, path string, cb Callback, userData any) Status {
	c.loopMu.Lock()

	if st := c.state.Load(); st != StateNotInit {
		status := c.statusLocked()
		c.loopMu.Unlock()
		c.logger.Warnf("%s: state %s", ErrAlreadyInitialized, st)
		return status
	}

	c.dispatcher.Bind(c, cb, userData)

	status := c.connect(ctx, host, port, path)
	events := c.dispatcher.Drain()
	c.loopMu.Unlock()

	c.dispatcher.Deliver(events)
	return status
}

func (c *Client) connect(ctx context.Context, host string, port uint16, path string) Status {
	if c.configErr != nil {
		return c.fail(c.configErr)
	}

	negotiator, err := newHandshakeNegotiator(handshakeParams{
		Host:      host,
		Port:      port,
		Path:      path,
		UserAgent: c.config.UserAgent,
		Protocols: c.config.Protocols,
		Headers:   c.config.Headers,
	}, c.logger)
	if err != nil {
		return c.fail(errors.Wrap(ErrIO, err.Error()))
	}

	c.logger.Infof("connecting to %s:%d", host, port)
	stream, err := c.dialer(ctx, host, port, c.config.ConnectTimeout)
	if err != nil {
		if !errors.Is(err, ErrUnreachableHost) {
			err = errors.Wrap(ErrUnreachableHost, err.Error())
		}
		return c.fail(err)
	}

	c.stream = stream
	c.negotiator = negotiator
	c.request = negotiator.Request()
	c.state.Move(StateHandshaking)
	return StatusOK
}

// Send queues text as one message. It never blocks. Messages sent before the
// handshake completes go out once it does; messages sent once a close has
// started are dropped.
func (c *Client) Send(text string) {
	if st := c.state.Load(); st == StateClosed || st.IsClosing() {
		c.logger.Debugf("ignoring send on a %s client", st)
		return
	}

	frames := c.codec.EncodeText(text)
	c.queue.Enqueue(frames...)
	c.logger.Debugf("=> [DATA] queued %d bytes in %d frames", len(text), len(frames))
}

// State is safe to call from any goroutine, callbacks included.
func (c *Client) State() ConnectionState {
	return c.state.Load()
}

// Protocol is the subprotocol chosen by the server, empty when none.
func (c *Client) Protocol() string {
	c.loopMu.Lock()
	defer c.loopMu.Unlock()
	return c.protocol
}

// Err explains a terminal status. It is nil while the Client is usable and
// ErrConnectionClosed after an orderly close.
func (c *Client) Err() error {
	if o := c.outcome.Load(); o != nil {
		return o.err
	}
	return nil
}

// ID identifies the Client in log lines.
func (c *Client) ID() string { return c.id }

// QueueStats is a snapshot of the outbound queue counters.
func (c *Client) QueueStats() QueueStats {
	return c.queue.Stats()
}

func (c *Client) statusLocked() Status {
	if o := c.outcome.Load(); o != nil {
		return o.status
	}
	return StatusOK
}

func (c *Client) setOutcome(status Status, err error) {
	c.outcome.CompareAndSwap(nil, &outcome{status: status, err: err})
}
