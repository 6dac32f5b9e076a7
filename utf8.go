package syncws

import "unicode/utf8"

// utf8Validator checks text split across fragments. A rune cut at a fragment
// boundary is carried over and completed by the next Write.
type utf8Validator struct {
	tail []byte
}

func (v *utf8Validator) Write(p []byte) bool {
	data := p
	if len(v.tail) > 0 {
		data = make([]byte, 0, len(v.tail)+len(p))
		data = append(data, v.tail...)
		data = append(data, p...)
	}

	cut := len(data)
	for i := len(data) - 1; i >= 0 && i >= len(data)-utf8.UTFMax; i-- {
		if utf8.RuneStart(data[i]) {
			if !utf8.FullRune(data[i:]) {
				cut = i
			}
			break
		}
	}

	if !utf8.Valid(data[:cut]) {
		return false
	}

	v.tail = append(v.tail[:0], data[cut:]...)
	return true
}

// Done reports whether the message ended on a rune boundary and resets the
// validator for the next message.
func (v *utf8Validator) Done() bool {
	ok := len(v.tail) == 0
	v.Reset()
	return ok
}

func (v *utf8Validator) Reset() {
	v.tail = v.tail[:0]
}
