package contentkey

import (
	"fmt"

	"ethportal.io/api/primitives"
)

// Reader is a bounds-checked cursor over a content-key payload (the bytes after the selector).
//
// The first failure is sticky: later reads return zero values and Err/Finish report it.
type Reader struct {
	buf []byte
	pos int
	err error
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

func (r *Reader) Err() error { return r.err }

func (r *Reader) remaining() int { return len(r.buf) - r.pos }

func (r *Reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n > r.remaining() {
		r.err = newError(KindMalformed, RuleTruncated,
			fmt.Sprintf("truncated content key: need %d bytes at offset %d, have %d", n, r.pos, r.remaining()))
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *Reader) Bytes32() (v primitives.Bytes32) {
	copy(v[:], r.next(len(v)))
	return v
}

func (r *Reader) Address() (v primitives.Address) {
	copy(v[:], r.next(len(v)))
	return v
}

func (r *Reader) U256() (v primitives.U256) {
	copy(v[:], r.next(len(v)))
	return v
}

// Nibbles reads a one-byte nibble count followed by that many nibble bytes.
// The count is checked against max and against the bytes present before anything is copied.
func (r *Reader) Nibbles(max int) primitives.Nibbles {
	lb := r.next(1)
	if lb == nil {
		return nil
	}
	n := int(lb[0])
	if n > max {
		r.err = newError(KindMalformed, RuleLengthPrefix,
			fmt.Sprintf("path length prefix %d exceeds maximum %d", n, max))
		return nil
	}
	if n > r.remaining() {
		r.err = newError(KindMalformed, RuleLengthPrefix,
			fmt.Sprintf("path length prefix %d exceeds remaining %d bytes", n, r.remaining()))
		return nil
	}
	raw := r.next(n)
	if n == 0 {
		return nil
	}
	out := make(primitives.Nibbles, n)
	copy(out, raw)
	if err := out.Validate(); err != nil {
		r.err = wrapError(KindMalformed, RuleNibble, "invalid path", err)
		return nil
	}
	return out
}

// Finish reports the first read error, or a trailing-bytes error if input was left unconsumed.
func (r *Reader) Finish() error {
	if r.err != nil {
		return r.err
	}
	if r.remaining() != 0 {
		return newError(KindMalformed, RuleTrailing,
			fmt.Sprintf("content key has %d unconsumed trailing bytes", r.remaining()))
	}
	return nil
}

// AppendNibbles appends the length-prefixed form read by Reader.Nibbles. It panics if n is
// longer than primitives.MaxNibbles; Codec.Encode reports that case as an error instead.
func AppendNibbles(dst []byte, n primitives.Nibbles) []byte {
	if len(n) > primitives.MaxNibbles {
		panic(fmt.Sprintf("contentkey: path has %d nibbles, max %d", len(n), primitives.MaxNibbles))
	}
	dst = append(dst, byte(len(n)))
	return append(dst, n...)
}
