package syncws

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedMask() [4]byte { return [4]byte{1, 2, 3, 4} }

// decodeMessages feeds buf through codec and returns the complete texts.
func decodeMessages(t *testing.T, codec *FrameCodec, buf []byte) []string {
	t.Helper()

	var texts []string
	for len(buf) > 0 {
		in, n, err := codec.Next(buf)
		require.NoError(t, err)
		require.Positive(t, n)
		buf = buf[n:]
		if in.text != nil {
			texts = append(texts, string(in.text))
		}
	}
	return texts
}

func TestFrameCodec_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxFrame int
		frames   int
	}{
		{name: "empty", text: "", maxFrame: 16, frames: 1},
		{name: "single frame", text: "hello", maxFrame: 16, frames: 1},
		{name: "exact frame size", text: strings.Repeat("a", 16), maxFrame: 16, frames: 1},
		{name: "fragmented", text: strings.Repeat("abc", 20), maxFrame: 16, frames: 4},
		{name: "fragmented multibyte", text: strings.Repeat("€é", 30), maxFrame: 7, frames: 22},
		{name: "16 bit length", text: strings.Repeat("x", 300), maxFrame: 4096, frames: 1},
		{name: "64 bit length", text: strings.Repeat("y", 70000), maxFrame: 1 << 20, frames: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec := NewFrameCodec(tt.maxFrame, 1<<20, nil)

			frames := codec.EncodeText(tt.text)
			assert.Len(t, frames, tt.frames)

			texts := decodeMessages(t, codec, bytes.Join(frames, nil))
			assert.Equal(t, []string{tt.text}, texts)
		})
	}
}

func TestFrameCodec_FragmentLayout(t *testing.T) {
	codec := NewFrameCodec(4, 1024, nil)

	frames := codec.EncodeText("abcdefghij")
	require.Len(t, frames, 3)

	want := []struct {
		op      Opcode
		fin     bool
		payload string
	}{
		{OpText, false, "abcd"},
		{OpContinuation, false, "efgh"},
		{OpContinuation, true, "ij"},
	}
	for i, raw := range frames {
		f, n, err := decodeFrame(raw, 1024)
		require.NoError(t, err)
		assert.Equal(t, len(raw), n)
		assert.True(t, f.Masked)
		assert.Equal(t, want[i].op, f.Opcode)
		assert.Equal(t, want[i].fin, f.Fin)
		assert.Equal(t, want[i].payload, string(f.Payload))
	}
}

func TestFrameCodec_Masking(t *testing.T) {
	codec := NewFrameCodec(1024, 1024, fixedMask)

	frames := codec.EncodeText("hello")
	require.Len(t, frames, 1)

	want := []byte{
		0x81, 0x80 | 5,
		1, 2, 3, 4,
		'h' ^ 1, 'e' ^ 2, 'l' ^ 3, 'l' ^ 4, 'o' ^ 1,
	}
	assert.Equal(t, want, frames[0])
}

func TestFrameCodec_FreshMaskPerFrame(t *testing.T) {
	codec := NewFrameCodec(1, 1024, nil)
	frames := codec.EncodeText(strings.Repeat("z", 64))

	masks := make(map[[4]byte]struct{})
	for _, raw := range frames {
		f, _, err := decodeFrame(raw, 1024)
		require.NoError(t, err)
		masks[f.Mask] = struct{}{}
	}
	// 64 random keys colliding down to a handful is practically impossible.
	assert.Greater(t, len(masks), 60)
}

func TestEncodeFrame_LengthEncoding(t *testing.T) {
	tests := []struct {
		size   int
		marker byte
		header int
	}{
		{size: 0, marker: 0, header: 2},
		{size: 125, marker: 125, header: 2},
		{size: 126, marker: 126, header: 4},
		{size: 65535, marker: 126, header: 4},
		{size: 65536, marker: 127, header: 10},
	}

	for _, tt := range tests {
		raw := serverFrame(OpText, true, bytes.Repeat([]byte{'a'}, tt.size))
		assert.Equal(t, tt.marker, raw[1]&0x7F, "size %d", tt.size)
		assert.Len(t, raw, tt.header+tt.size, "size %d", tt.size)

		f, n, err := decodeFrame(raw, 1<<20)
		require.NoError(t, err)
		assert.Equal(t, len(raw), n)
		assert.Len(t, f.Payload, tt.size)
	}
}

func TestDecodeFrame_Incomplete(t *testing.T) {
	raw := serverFrame(OpText, true, bytes.Repeat([]byte{'q'}, 300))

	for i := 0; i < len(raw); i++ {
		_, n, err := decodeFrame(raw[:i], 1024)
		require.ErrorIs(t, err, errIncomplete, "prefix of %d bytes", i)
		assert.Zero(t, n)
	}

	codec := NewFrameCodec(1024, 1024, nil)
	_, n, err := codec.Next(raw[:len(raw)-1])
	assert.ErrorIs(t, err, errIncomplete)
	assert.Zero(t, n)
}

func TestDecodeFrame_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want error
	}{
		{name: "reserved bits", raw: []byte{0xC1, 0x00}, want: ErrInvalidFrame},
		{name: "unknown opcode", raw: []byte{0x83, 0x00}, want: ErrInvalidFrame},
		{name: "fragmented ping", raw: []byte{0x09, 0x00}, want: ErrInvalidFrame},
		{name: "oversized ping", raw: []byte{0x89, 126, 0x00, 126}, want: ErrInvalidFrame},
		{name: "length msb", raw: []byte{0x81, 127, 0x80, 0, 0, 0, 0, 0, 0, 0}, want: ErrInvalidFrame},
		{name: "too big", raw: []byte{0x81, 126, 0x04, 0x01}, want: ErrMessageTooBig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := decodeFrame(tt.raw, 1024)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFrameCodec_AssemblyErrors(t *testing.T) {
	tests := []struct {
		name   string
		frames [][]byte
		want   error
	}{
		{
			name:   "continuation without message",
			frames: [][]byte{serverFrame(OpContinuation, true, []byte("x"))},
			want:   ErrInvalidFrame,
		},
		{
			name: "text inside fragmented message",
			frames: [][]byte{
				serverFrame(OpText, false, []byte("a")),
				serverFrame(OpText, true, []byte("b")),
			},
			want: ErrInvalidFrame,
		},
		{
			name:   "binary",
			frames: [][]byte{serverFrame(OpBinary, true, []byte{1, 2})},
			want:   ErrUnsupportedData,
		},
		{
			name:   "invalid utf-8",
			frames: [][]byte{serverFrame(OpText, true, []byte{'o', 'k', 0xFF})},
			want:   ErrInvalidUTF8,
		},
		{
			name:   "message ends inside a rune",
			frames: [][]byte{serverFrame(OpText, true, []byte{0xE2, 0x82})},
			want:   ErrInvalidUTF8,
		},
		{
			name: "message over the limit",
			frames: [][]byte{
				serverFrame(OpText, false, bytes.Repeat([]byte{'a'}, 40)),
				serverFrame(OpContinuation, true, bytes.Repeat([]byte{'a'}, 40)),
			},
			want: ErrMessageTooBig,
		},
		{
			name:   "one byte close",
			frames: [][]byte{serverFrame(OpClose, true, []byte{0x03})},
			want:   ErrInvalidFrame,
		},
		{
			name:   "close reason not utf-8",
			frames: [][]byte{serverFrame(OpClose, true, []byte{0x03, 0xE8, 0xFF})},
			want:   ErrInvalidFrame,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec := NewFrameCodec(64, 64, nil)

			var err error
			for _, raw := range tt.frames {
				_, _, err = codec.Next(raw)
				if err != nil {
					break
				}
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFrameCodec_RuneSplitAcrossFragments(t *testing.T) {
	euro := []byte("€")
	codec := NewFrameCodec(64, 64, nil)

	buf := append(serverFrame(OpText, false, euro[:1]), serverFrame(OpContinuation, true, euro[1:])...)
	assert.Equal(t, []string{"€"}, decodeMessages(t, codec, buf))
}

func TestFrameCodec_ControlInsideFragments(t *testing.T) {
	codec := NewFrameCodec(64, 64, nil)

	buf := bytes.Join([][]byte{
		serverFrame(OpText, false, []byte("ab")),
		serverFrame(OpPing, true, []byte("p")),
		serverFrame(OpContinuation, true, []byte("cd")),
	}, nil)

	in, n, err := codec.Next(buf)
	require.NoError(t, err)
	assert.False(t, in.done)
	buf = buf[n:]

	in, n, err = codec.Next(buf)
	require.NoError(t, err)
	require.NotNil(t, in.control)
	assert.Equal(t, OpPing, in.control.Opcode)
	assert.Equal(t, []byte("p"), in.control.Payload)
	buf = buf[n:]

	in, _, err = codec.Next(buf)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(in.text))
}

func TestFrameCodec_ClosePayload(t *testing.T) {
	codec := NewFrameCodec(64, 64, nil)

	in, _, err := codec.Next(serverFrame(OpClose, true, nil))
	require.NoError(t, err)
	require.NotNil(t, in.close)
	assert.Equal(t, CloseNoStatus, in.close.Code)

	in, _, err = codec.Next(serverClose(CloseGoingAway, "bye"))
	require.NoError(t, err)
	require.NotNil(t, in.close)
	assert.Equal(t, CloseGoingAway, in.close.Code)
	assert.Equal(t, "bye", in.close.Reason)
}

func TestFrameCodec_EncodeClose(t *testing.T) {
	codec := NewFrameCodec(64, 64, nil)

	f, _, err := decodeFrame(codec.EncodeClose(CloseNormal, "Done"), 1024)
	require.NoError(t, err)
	cp, err := parseClosePayload(f.Payload)
	require.NoError(t, err)
	assert.Equal(t, CloseNormal, cp.Code)
	assert.Equal(t, "Done", cp.Reason)

	f, _, err = decodeFrame(codec.EncodeClose(CloseNoStatus, "ignored"), 1024)
	require.NoError(t, err)
	assert.Empty(t, f.Payload)

	f, _, err = decodeFrame(codec.EncodeClose(CloseNormal, strings.Repeat("é", 100)), 1024)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(f.Payload), maxControlPayload)
	assert.True(t, utf8.Valid(f.Payload[2:]))
}

func TestFrameCodec_EncodeControl(t *testing.T) {
	codec := NewFrameCodec(64, 64, nil)

	_, err := codec.EncodeControl(OpText, nil)
	assert.ErrorIs(t, err, ErrInvalidFrame)

	_, err = codec.EncodeControl(OpPing, make([]byte, maxControlPayload+1))
	assert.ErrorIs(t, err, ErrInvalidFrame)

	raw, err := codec.EncodeControl(OpPong, []byte("abc"))
	require.NoError(t, err)
	f, _, err := decodeFrame(raw, 64)
	require.NoError(t, err)
	assert.Equal(t, OpPong, f.Opcode)
	assert.True(t, f.Fin)
	assert.Equal(t, []byte("abc"), f.Payload)
}

func TestUTF8Validator(t *testing.T) {
	euro := []byte("€")

	var v utf8Validator
	assert.True(t, v.Write(euro[:1]))
	assert.True(t, v.Write(euro[1:2]))
	assert.True(t, v.Write(euro[2:]))
	assert.True(t, v.Done())

	assert.True(t, v.Write(euro[:2]))
	assert.False(t, v.Done())

	assert.False(t, v.Write([]byte{0xFF}))
	v.Reset()
	assert.False(t, v.Write([]byte{0xE2, 0x28, 0xA1}))
	v.Reset()
	assert.True(t, v.Write([]byte("plain ascii")))
	assert.True(t, v.Done())
}
