package syncws

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"golang.org/x/net/http/httpguts"
)

const (
	DefaultMaxFrameSize    = 4096
	DefaultMaxMessageSize  = 1 << 20
	DefaultReadChunkSize   = 4096
	DefaultConnectTimeout  = 10 * time.Second
	DefaultPollInterval    = 10 * time.Millisecond
	DefaultCloseIterations = 50
	DefaultUserAgent       = "syncws"

	// MaxHandshakeSize bounds the HTTP response header block.
	MaxHandshakeSize = 8 << 10

	envPrefix = "SYNCWS"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the tunables of a Client. The zero value is not usable; start
// from DefaultConfig or LoadConfig.
type Config struct {
	// MaxFrameSize is the largest payload put in one outbound frame. Longer
	// messages are fragmented.
	MaxFrameSize int `mapstructure:"max_frame_size"`
	// MaxMessageSize bounds a reassembled inbound message and, with frame
	// overhead, the receive buffer.
	MaxMessageSize int `mapstructure:"max_message_size"`
	// ReadChunkSize is the most bytes pulled from the stream per Loop.
	ReadChunkSize  int           `mapstructure:"read_chunk_size"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// PollInterval spaces the internal iterations of Drop and bounds reads on
	// platforms without raw non-blocking sockets.
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// CloseIterations is how many Loop calls a close handshake may take.
	CloseIterations int `mapstructure:"close_iterations"`
	// PingInterval enables client pings when positive.
	PingInterval time.Duration     `mapstructure:"ping_interval"`
	UserAgent    string            `mapstructure:"user_agent"`
	Protocols    []string          `mapstructure:"protocols"`
	Headers      map[string]string `mapstructure:"headers"`
}

// DefaultConfig returns the tunables used when no option overrides them.
func DefaultConfig() Config {
	return Config{
		MaxFrameSize:    DefaultMaxFrameSize,
		MaxMessageSize:  DefaultMaxMessageSize,
		ReadChunkSize:   DefaultReadChunkSize,
		ConnectTimeout:  DefaultConnectTimeout,
		PollInterval:    DefaultPollInterval,
		CloseIterations: DefaultCloseIterations,
		UserAgent:       DefaultUserAgent,
	}
}

// Validate reports the first unusable setting as an ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.MaxFrameSize <= 0:
		return errors.Wrapf(ErrInvalidConfig, "max_frame_size must be positive, got %d", c.MaxFrameSize)
	case c.MaxMessageSize <= 0:
		return errors.Wrapf(ErrInvalidConfig, "max_message_size must be positive, got %d", c.MaxMessageSize)
	case c.ReadChunkSize <= 0:
		return errors.Wrapf(ErrInvalidConfig, "read_chunk_size must be positive, got %d", c.ReadChunkSize)
	case c.ConnectTimeout <= 0:
		return errors.Wrapf(ErrInvalidConfig, "connect_timeout must be positive, got %s", c.ConnectTimeout)
	case c.PollInterval <= 0:
		return errors.Wrapf(ErrInvalidConfig, "poll_interval must be positive, got %s", c.PollInterval)
	case c.CloseIterations <= 0:
		return errors.Wrapf(ErrInvalidConfig, "close_iterations must be positive, got %d", c.CloseIterations)
	case c.PingInterval < 0:
		return errors.Wrapf(ErrInvalidConfig, "ping_interval cannot be negative, got %s", c.PingInterval)
	}
	if !httpguts.ValidHeaderFieldValue(c.UserAgent) {
		return errors.Wrapf(ErrInvalidConfig, "invalid user_agent %q", c.UserAgent)
	}
	for _, p := range c.Protocols {
		if !httpguts.ValidHeaderFieldName(p) {
			return errors.Wrapf(ErrInvalidConfig, "invalid subprotocol %q", p)
		}
	}
	for k, v := range c.Headers {
		switch {
		case !httpguts.ValidHeaderFieldName(k):
			return errors.Wrapf(ErrInvalidConfig, "invalid header name %q", k)
		case !httpguts.ValidHeaderFieldValue(v):
			return errors.Wrapf(ErrInvalidConfig, "invalid value for header %s", k)
		case isReservedHeader(k):
			return errors.Wrapf(ErrInvalidConfig, "header %s is set by the handshake", k)
		}
	}
	return nil
}

// isReservedHeader reports whether the upgrade request already writes name.
func isReservedHeader(name string) bool {
	switch strings.ToLower(name) {
	case "host", "upgrade", "connection", "content-length", "transfer-encoding":
		return true
	}
	return strings.HasPrefix(strings.ToLower(name), "sec-websocket-")
}

// recvBufferSize is the receive buffer bound: one maximal frame plus the
// largest header, and room for a handshake response.
func (c Config) recvBufferSize() int {
	size := c.MaxMessageSize + maxFrameHeaderSize
	if size < MaxHandshakeSize {
		size = MaxHandshakeSize
	}
	return size
}

// LoadConfig reads a configuration file (any format viper understands) on top
// of DefaultConfig. SYNCWS_* environment variables override file values, e.g.
// SYNCWS_MAX_FRAME_SIZE.
func LoadConfig(path string) (Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("max_frame_size", def.MaxFrameSize)
	v.SetDefault("max_message_size", def.MaxMessageSize)
	v.SetDefault("read_chunk_size", def.ReadChunkSize)
	v.SetDefault("connect_timeout", def.ConnectTimeout)
	v.SetDefault("poll_interval", def.PollInterval)
	v.SetDefault("close_iterations", def.CloseIterations)
	v.SetDefault("ping_interval", def.PingInterval)
	v.SetDefault("user_agent", def.UserAgent)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "cannot read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "cannot decode config")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
