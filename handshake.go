package syncws

import (
	"bufio"
	"bytes"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
)

const websocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

var headerTerminator = []byte("\r\n\r\n")

// AcceptKey computes the Sec-WebSocket-Accept value the server must answer
// with for the given Sec-WebSocket-Key.
func AcceptKey(key string) string {
	h := sha1.New()
	h.Write([]byte(key))
	h.Write([]byte(websocketGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func generateKey() (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", errors.Wrap(err, "cannot generate websocket key")
	}
	return base64.StdEncoding.EncodeToString(raw[:]), nil
}

type (
	handshakeParams struct {
		Host      string
		Port      uint16
		Path      string
		UserAgent string
		Protocols []string
		Headers   map[string]string
	}

	// handshakeResult is what a successful upgrade hands to the client.
	handshakeResult struct {
		Protocol string
		// Payload is the response body, if the server sent one.
		Payload []byte
		// Consumed is the number of buffered bytes that belonged to the
		// HTTP response. Anything after it is websocket data.
		Consumed int
	}

	handshakeNegotiator struct {
		params handshakeParams
		key    string
		logger logger

		// set once the header block parsed and validated, while a body is
		// still being waited for
		accepted   bool
		protocol   string
		headerSize int
		bodySize   int
	}
)

func newHandshakeNegotiator(params handshakeParams, logger logger) (*handshakeNegotiator, error) {
	key, err := generateKey()
	if err != nil {
		return nil, err
	}
	if params.Path == "" {
		params.Path = "/"
	}
	return &handshakeNegotiator{
		params: params,
		key:    key,
		logger: logger.WithField("stage", "handshake"),
	}, nil
}

func (h *handshakeNegotiator) Key() string { return h.key }

func (h *handshakeNegotiator) hostHeader() string {
	if h.params.Port == 0 || h.params.Port == 80 {
		return h.params.Host
	}
	host := h.params.Host
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}
	return host + ":" + strconv.Itoa(int(h.params.Port))
}

// Request renders the upgrade request. Header names the negotiator owns keep
// their RFC spelling; extra headers are normalized.
func (h *handshakeNegotiator) Request() []byte {
	var req fasthttp.RequestHeader
	req.DisableNormalizing()
	req.SetNoDefaultContentType(true)
	req.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(h.params.Path)
	req.SetHost(h.hostHeader())
	if h.params.UserAgent != "" {
		req.SetUserAgent(h.params.UserAgent)
	}
	req.Set(fasthttp.HeaderUpgrade, "websocket")
	req.Set(fasthttp.HeaderConnection, "Upgrade")
	req.Set(fasthttp.HeaderSecWebSocketKey, h.key)
	req.Set(fasthttp.HeaderSecWebSocketVersion, "13")
	if len(h.params.Protocols) > 0 {
		req.Set(fasthttp.HeaderSecWebSocketProtocol, strings.Join(h.params.Protocols, ", "))
	}

	keys := make([]string, 0, len(h.params.Headers))
	for k := range h.params.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		req.Add(string(fasthttp.AppendNormalizedHeaderKey(nil, k)), h.params.Headers[k])
	}

	return append([]byte(nil), req.Header()...)
}

// Feed inspects the bytes buffered so far. It returns nil, nil until the whole
// response (headers plus any announced body) is available.
func (h *handshakeNegotiator) Feed(buf []byte) (*handshakeResult, error) {
	if !h.accepted {
		end := bytes.Index(buf, headerTerminator)
		if end < 0 {
			if len(buf) >= MaxHandshakeSize {
				return nil, errors.Wrapf(ErrHandshake, "no end of headers within %d bytes", MaxHandshakeSize)
			}
			return nil, nil
		}

		h.headerSize = end + len(headerTerminator)
		resp, err := parseResponseHead(buf[:h.headerSize])
		if err != nil {
			return nil, err
		}
		if err := h.validate(resp); err != nil {
			return nil, err
		}

		h.bodySize = 0
		if n := resp.ContentLength(); n > 0 {
			if h.headerSize+n > MaxHandshakeSize {
				return nil, errors.Wrapf(ErrHandshake, "response body of %d bytes is too large", n)
			}
			h.bodySize = n
		}
		h.protocol = string(resp.Peek(fasthttp.HeaderSecWebSocketProtocol))
		h.accepted = true
	}

	total := h.headerSize + h.bodySize
	if len(buf) < total {
		return nil, nil
	}

	res := &handshakeResult{
		Protocol: h.protocol,
		Consumed: total,
	}
	if h.bodySize > 0 {
		res.Payload = append([]byte(nil), buf[h.headerSize:total]...)
	}
	return res, nil
}

func (h *handshakeNegotiator) validate(resp *fasthttp.ResponseHeader) error {
	if code := resp.StatusCode(); code != fasthttp.StatusSwitchingProtocols {
		return errors.Wrapf(ErrHandshake, "unexpected status %d %s", code, resp.StatusMessage())
	}

	if upgrade := resp.Peek(fasthttp.HeaderUpgrade); !strings.EqualFold(string(upgrade), "websocket") {
		return errors.Wrapf(ErrHandshake, "unexpected upgrade header %q", upgrade)
	}

	if !headerContainsToken(resp.PeekAll(fasthttp.HeaderConnection), "upgrade") {
		return errors.Wrapf(ErrHandshake, "unexpected connection header %q", resp.Peek(fasthttp.HeaderConnection))
	}

	accept := string(resp.Peek(fasthttp.HeaderSecWebSocketAccept))
	if accept == "" {
		return errors.Wrap(ErrHandshake, "missing Sec-WebSocket-Accept")
	}
	if accept != AcceptKey(h.key) {
		return errors.Wrapf(ErrHandshake, "Sec-WebSocket-Accept mismatch: %q", accept)
	}

	if p := string(resp.Peek(fasthttp.HeaderSecWebSocketProtocol)); p != "" && !h.offered(p) {
		return errors.Wrapf(ErrHandshake, "server selected unoffered subprotocol %q", p)
	}

	h.logger.Debugf("upgrade accepted: %d %s", resp.StatusCode(), resp.StatusMessage())
	return nil
}

func (h *handshakeNegotiator) offered(protocol string) bool {
	for _, p := range h.params.Protocols {
		if p == protocol {
			return true
		}
	}
	return false
}

// parseResponseHead parses the status line and headers of an HTTP/1.x
// response. block must end with the blank line.
func parseResponseHead(block []byte) (*fasthttp.ResponseHeader, error) {
	if !bytes.HasPrefix(block, []byte("HTTP/1.")) {
		line, _, _ := bytes.Cut(block, []byte("\r\n"))
		return nil, errors.Wrapf(ErrHandshake, "malformed status line %q", line)
	}

	resp := &fasthttp.ResponseHeader{}
	if err := resp.Read(bufio.NewReaderSize(bytes.NewReader(block), len(block)+16)); err != nil {
		return nil, errors.Wrapf(ErrHandshake, "malformed response head: %s", err)
	}
	return resp, nil
}

func headerContainsToken(values [][]byte, token string) bool {
	for _, v := range values {
		for _, t := range strings.Split(string(v), ",") {
			if strings.EqualFold(strings.TrimSpace(t), token) {
				return true
			}
		}
	}
	return false
}
