package syncws

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
)

// serverFrame encodes a frame the way a server sends it: unmasked.
func serverFrame(op Opcode, fin bool, payload []byte) []byte {
	return encodeFrame(Frame{Opcode: op, Fin: fin, Payload: payload})
}

func serverText(text string) []byte {
	return serverFrame(OpText, true, []byte(text))
}

func serverClose(code CloseCode, reason string) []byte {
	payload := make([]byte, 2, 2+len(reason))
	binary.BigEndian.PutUint16(payload, uint16(code))
	return serverFrame(OpClose, true, append(payload, reason...))
}

// upgradeResponse answers an upgrade request carrying key. Extra header lines
// are added verbatim.
func upgradeResponse(key string, extra ...string) []byte {
	var b strings.Builder
	b.WriteString("HTTP/1.1 101 Switching Protocols\r\n")
	b.WriteString("Upgrade: websocket\r\n")
	b.WriteString("Connection: Upgrade\r\n")
	b.WriteString("Sec-WebSocket-Accept: " + AcceptKey(key) + "\r\n")
	for _, line := range extra {
		b.WriteString(line + "\r\n")
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}

// testPeer reads what a client wrote to a memStream.
type testPeer struct {
	stream   *memStream
	consumed int
}

func newTestPeer(stream *memStream) *testPeer {
	return &testPeer{stream: stream}
}

// Request consumes the upgrade request and returns its key. ok is false while
// the request is incomplete.
func (p *testPeer) Request() (key string, ok bool) {
	buf := p.stream.Written()[p.consumed:]
	end := bytes.Index(buf, headerTerminator)
	if end < 0 {
		return "", false
	}
	p.consumed += end + len(headerTerminator)

	for _, line := range strings.Split(string(buf[:end]), "\r\n") {
		if v, found := strings.CutPrefix(line, "Sec-WebSocket-Key: "); found {
			return v, true
		}
	}
	return "", true
}

// Frames consumes and returns every complete frame written since the last
// call, unmasked.
func (p *testPeer) Frames() []Frame {
	buf := p.stream.Written()
	var frames []Frame
	for {
		f, n, err := decodeFrame(buf[p.consumed:], math.MaxInt32)
		if err != nil {
			return frames
		}
		p.consumed += n
		frames = append(frames, f)
	}
}
