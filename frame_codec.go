package syncws

import (
	"crypto/rand"
	"encoding/binary"
	"unicode/utf8"

	"github.com/pkg/errors"
)

const (
	maxControlPayload = 125
	// 2 byte base header, 8 byte extended length, 4 byte mask key.
	maxFrameHeaderSize = 14
)

var errIncomplete = errors.New("incomplete frame")

// MaskGenerator draws the masking key of each outgoing frame.
type MaskGenerator func() [4]byte

func randomMask() [4]byte {
	var key [4]byte
	if _, err := rand.Read(key[:]); err != nil {
		panic(errors.Wrap(err, "cannot read random mask"))
	}
	return key
}

func maskBytes(key [4]byte, p []byte) {
	for i := range p {
		p[i] ^= key[i&3]
	}
}

// encodeFrame serialises f. The payload is copied and masked in the output
// when f.Masked is set; f itself is left untouched.
func encodeFrame(f Frame) []byte {
	b0 := byte(f.Opcode) & 0x0F
	if f.Fin {
		b0 |= 0x80
	}

	var maskBit byte
	if f.Masked {
		maskBit = 0x80
	}

	plen := len(f.Payload)
	hdr := make([]byte, 0, maxFrameHeaderSize)
	hdr = append(hdr, b0)

	switch {
	case plen <= maxControlPayload:
		hdr = append(hdr, maskBit|byte(plen))
	case plen <= 0xFFFF:
		hdr = append(hdr, maskBit|126)
		hdr = binary.BigEndian.AppendUint16(hdr, uint16(plen))
	default:
		hdr = append(hdr, maskBit|127)
		hdr = binary.BigEndian.AppendUint64(hdr, uint64(plen))
	}

	if f.Masked {
		hdr = append(hdr, f.Mask[:]...)
	}

	out := make([]byte, len(hdr)+plen)
	copy(out, hdr)
	copy(out[len(hdr):], f.Payload)
	if f.Masked {
		maskBytes(f.Mask, out[len(hdr):])
	}
	return out
}

// decodeFrame parses one frame from the front of buf. It returns the number of
// bytes consumed, or errIncomplete when buf does not yet hold a whole frame.
func decodeFrame(buf []byte, maxPayload int) (Frame, int, error) {
	if len(buf) < 2 {
		return Frame{}, 0, errIncomplete
	}

	if buf[0]&0x70 != 0 {
		return Frame{}, 0, errors.Wrap(ErrInvalidFrame, "reserved bits set")
	}

	f := Frame{
		Fin:    buf[0]&0x80 != 0,
		Opcode: Opcode(buf[0] & 0x0F),
		Masked: buf[1]&0x80 != 0,
	}

	if !f.Opcode.isKnown() {
		return Frame{}, 0, errors.Wrapf(ErrInvalidFrame, "unknown opcode %#x", byte(f.Opcode))
	}

	length := uint64(buf[1] & 0x7F)
	offset := 2

	switch length {
	case 126:
		if len(buf) < offset+2 {
			return Frame{}, 0, errIncomplete
		}
		length = uint64(binary.BigEndian.Uint16(buf[offset:]))
		offset += 2
	case 127:
		if len(buf) < offset+8 {
			return Frame{}, 0, errIncomplete
		}
		length = binary.BigEndian.Uint64(buf[offset:])
		if length&(1<<63) != 0 {
			return Frame{}, 0, errors.Wrap(ErrInvalidFrame, "payload length has most significant bit set")
		}
		offset += 8
	}

	if f.Opcode.IsControl() {
		if !f.Fin {
			return Frame{}, 0, errors.Wrapf(ErrInvalidFrame, "fragmented %s frame", f.Opcode)
		}
		if length > maxControlPayload {
			return Frame{}, 0, errors.Wrapf(ErrInvalidFrame, "%s payload of %d bytes", f.Opcode, length)
		}
	}

	if length > uint64(maxPayload) {
		return Frame{}, 0, errors.Wrapf(ErrMessageTooBig, "frame payload of %d bytes", length)
	}

	if f.Masked {
		if len(buf) < offset+4 {
			return Frame{}, 0, errIncomplete
		}
		copy(f.Mask[:], buf[offset:offset+4])
		offset += 4
	}

	end := offset + int(length)
	if len(buf) < end {
		return Frame{}, 0, errIncomplete
	}

	f.Payload = make([]byte, length)
	copy(f.Payload, buf[offset:end])
	if f.Masked {
		maskBytes(f.Mask, f.Payload)
	}

	return f, end, nil
}

func parseClosePayload(p []byte) (closePayload, error) {
	switch len(p) {
	case 0:
		return closePayload{Code: CloseNoStatus}, nil
	case 1:
		return closePayload{}, errors.Wrap(ErrInvalidFrame, "close payload of 1 byte")
	}

	reason := p[2:]
	if !utf8.Valid(reason) {
		return closePayload{}, errors.Wrap(ErrInvalidFrame, "close reason is not valid utf-8")
	}

	return closePayload{
		Code:   CloseCode(binary.BigEndian.Uint16(p)),
		Reason: string(reason),
	}, nil
}

// FrameCodec turns text into masked client frames and reassembles inbound
// frames into messages. Decoding state is not safe for concurrent use; the
// encoding methods are.
type FrameCodec struct {
	maxFrameSize   int
	maxMessageSize int
	mask           MaskGenerator

	message    []byte
	fragmented bool
	validator  utf8Validator
}

// NewFrameCodec returns a codec splitting outgoing text at maxFrameSize
// and refusing incoming messages over maxMessageSize. A nil mask draws keys
// from crypto/rand.
func NewFrameCodec(maxFrameSize, maxMessageSize int, mask MaskGenerator) *FrameCodec {
	if mask == nil {
		mask = randomMask
	}
	return &FrameCodec{
		maxFrameSize:   maxFrameSize,
		maxMessageSize: maxMessageSize,
		mask:           mask,
	}
}

// EncodeText splits text into frames of at most maxFrameSize payload bytes.
// The empty string yields a single empty Text frame.
func (c *FrameCodec) EncodeText(text string) [][]byte {
	payload := []byte(text)
	if len(payload) == 0 {
		return [][]byte{c.encode(OpText, true, nil)}
	}

	frames := make([][]byte, 0, (len(payload)+c.maxFrameSize-1)/c.maxFrameSize)
	for sent := 0; sent < len(payload); sent += c.maxFrameSize {
		end := sent + c.maxFrameSize
		if end > len(payload) {
			end = len(payload)
		}
		op := OpContinuation
		if sent == 0 {
			op = OpText
		}
		frames = append(frames, c.encode(op, end == len(payload), payload[sent:end]))
	}
	return frames
}

// EncodeControl builds a single masked control frame. Payloads over 125
// bytes are an ErrInvalidFrame.
func (c *FrameCodec) EncodeControl(op Opcode, payload []byte) ([]byte, error) {
	if !op.IsControl() {
		return nil, errors.Wrapf(ErrInvalidFrame, "%s is not a control opcode", op)
	}
	if len(payload) > maxControlPayload {
		return nil, errors.Wrapf(ErrInvalidFrame, "control payload of %d bytes", len(payload))
	}
	return c.encode(op, true, payload), nil
}

// EncodeClose builds a Close frame. The reason is cut to fit the control
// payload limit without splitting a rune.
func (c *FrameCodec) EncodeClose(code CloseCode, reason string) []byte {
	if code == CloseNoStatus {
		return c.encode(OpClose, true, nil)
	}

	if limit := maxControlPayload - 2; len(reason) > limit {
		reason = reason[:limit]
		for len(reason) > 0 && !utf8.ValidString(reason) {
			reason = reason[:len(reason)-1]
		}
	}

	payload := make([]byte, 2, 2+len(reason))
	binary.BigEndian.PutUint16(payload, uint16(code))
	payload = append(payload, reason...)
	return c.encode(OpClose, true, payload)
}

func (c *FrameCodec) encode(op Opcode, fin bool, payload []byte) []byte {
	return encodeFrame(Frame{
		Opcode:  op,
		Fin:     fin,
		Masked:  true,
		Mask:    c.mask(),
		Payload: payload,
	})
}

// inbound is the outcome of feeding one decoded frame through the codec:
// either a control frame or a complete text message.
type inbound struct {
	control *Frame
	close   *closePayload
	text    []byte
	done    bool
}

// Next decodes the first frame of buf. It returns the bytes consumed and, when
// the frame completes something the caller must act on, a populated inbound.
// errIncomplete means more bytes are needed; nothing is consumed in that case.
func (c *FrameCodec) Next(buf []byte) (inbound, int, error) {
	f, n, err := decodeFrame(buf, c.maxMessageSize)
	if err != nil {
		return inbound{}, 0, err
	}

	in, err := c.assemble(f)
	if err != nil {
		return inbound{}, n, err
	}
	return in, n, nil
}

func (c *FrameCodec) assemble(f Frame) (inbound, error) {
	switch {
	case f.Opcode.IsClose():
		cp, err := parseClosePayload(f.Payload)
		if err != nil {
			return inbound{}, err
		}
		return inbound{control: &f, close: &cp, done: true}, nil
	case f.Opcode.IsControl():
		return inbound{control: &f, done: true}, nil
	case f.Opcode.Is(OpBinary):
		return inbound{}, errors.Wrap(ErrUnsupportedData, "binary messages are not supported")
	case f.Opcode.Is(OpText):
		if c.fragmented {
			return inbound{}, errors.Wrap(ErrInvalidFrame, "text frame inside a fragmented message")
		}
		c.message = c.message[:0]
		c.validator.Reset()
	case f.Opcode.Is(OpContinuation):
		if !c.fragmented {
			return inbound{}, errors.Wrap(ErrInvalidFrame, "continuation frame without a message")
		}
	}

	if len(c.message)+len(f.Payload) > c.maxMessageSize {
		c.resetMessage()
		return inbound{}, errors.Wrapf(ErrMessageTooBig, "message over %d bytes", c.maxMessageSize)
	}

	if !c.validator.Write(f.Payload) {
		c.resetMessage()
		return inbound{}, ErrInvalidUTF8
	}

	c.message = append(c.message, f.Payload...)
	c.fragmented = !f.Fin

	if !f.Fin {
		return inbound{}, nil
	}

	if !c.validator.Done() {
		c.resetMessage()
		return inbound{}, errors.Wrap(ErrInvalidUTF8, "message ends inside a rune")
	}

	text := make([]byte, len(c.message))
	copy(text, c.message)
	c.message = c.message[:0]
	return inbound{text: text, done: true}, nil
}

func (c *FrameCodec) resetMessage() {
	c.message = c.message[:0]
	c.fragmented = false
	c.validator.Reset()
}

// Release drops the reassembly buffer.
func (c *FrameCodec) Release() {
	c.message = nil
	c.fragmented = false
	c.validator.Reset()
}
