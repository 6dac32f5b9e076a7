package syncws

import (
	"maps"
	"slices"
	"time"
)

// Option customises a Client built by New.
type Option func(*Client)

// WithConfig replaces every tunable at once. Options applied after it still win.
// The Client keeps its own copy of the protocol list and the header map.
func WithConfig(cfg Config) Option {
	return func(c *Client) {
		cfg.Protocols = slices.Clone(cfg.Protocols)
		cfg.Headers = maps.Clone(cfg.Headers)
		c.config = cfg
	}
}

// WithLogger sets the logger. Use NewZapLogger to log through zap; the
// default discards everything.
func WithLogger(l logger) Option {
	return func(c *Client) {
		c.baseLogger = l
	}
}

// WithDialer swaps the transport, e.g. for TLS or in-memory streams.
func WithDialer(d Dialer) Option {
	return func(c *Client) {
		c.dialer = d
	}
}

// WithMaskGenerator overrides how frame masking keys are drawn. Keys must be
// unpredictable outside of tests.
func WithMaskGenerator(m MaskGenerator) Option {
	return func(c *Client) {
		c.mask = m
	}
}

// WithMaxFrameSize sets the payload size at which outgoing text is split
// into continuation frames.
func WithMaxFrameSize(n int) Option {
	return func(c *Client) {
		c.config.MaxFrameSize = n
	}
}

// WithMaxMessageSize bounds a reassembled incoming message. Bigger messages
// close the connection with 1009.
func WithMaxMessageSize(n int) Option {
	return func(c *Client) {
		c.config.MaxMessageSize = n
	}
}

// WithCloseIterations is how many Loop calls a close handshake may take.
func WithCloseIterations(n int) Option {
	return func(c *Client) {
		c.config.CloseIterations = n
	}
}

// WithPollInterval is the pause between Loop calls while Drop waits for the
// close handshake.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.config.PollInterval = d
	}
}

// WithConnectTimeout bounds the TCP dial.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.config.ConnectTimeout = d
	}
}

// WithPingInterval enables client pings. Zero disables them.
func WithPingInterval(d time.Duration) Option {
	return func(c *Client) {
		c.config.PingInterval = d
	}
}

// WithUserAgent sets the User-Agent of the upgrade request. Empty omits it.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.config.UserAgent = ua
	}
}

// WithProtocols sets the subprotocols offered in the upgrade request, in
// order of preference.
func WithProtocols(protocols ...string) Option {
	return func(c *Client) {
		c.config.Protocols = append([]string(nil), protocols...)
	}
}

// WithHeader adds an extra header to the upgrade request. Headers the
// handshake writes itself, and values containing CR or LF, fail validation.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if c.config.Headers == nil {
			c.config.Headers = make(map[string]string)
		}
		c.config.Headers[key] = value
	}
}

// WithPingPayload sets what goes in each client ping. Payloads over 125 bytes
// are not sent.
func WithPingPayload(f KeepAlivePayloadFactory) Option {
	return func(c *Client) {
		c.pingPayload = f
	}
}
