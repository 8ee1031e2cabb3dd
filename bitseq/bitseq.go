// Package bitseq provides Sequence, an ordered sequence of bits that is
// big-endian within each byte. It is the intermediate representation shared
// by all of the coders in this module: encoders append bits to a Sequence,
// and decoders read bit fields back out of one at arbitrary offsets.
//
// A Sequence tracks its logical length in bits. Exporting it as bytes pads
// the final byte with zero bits; the padding is not recorded in the bytes
// themselves, so a consumer that needs the exact bit count after a trip
// through []byte must carry that count out of band and use FromBytesBits.
package bitseq

import (
	"errors"
	"strings"
)

// ErrOutOfRange is returned when a read extends past the logical end of a
// Sequence. Reads never zero-extend silently.
var ErrOutOfRange = errors.New("bitseq: read past end of sequence")

// ErrTruncatedStream is returned by decoders when a bit stream ends in the
// middle of a token or code. It lives here because every coder package
// reports the same condition.
var ErrTruncatedStream = errors.New("bitseq: truncated bit stream")

// MaxFieldWidth is the widest bit field AppendBits and ReadBits handle.
const MaxFieldWidth = 32

// A Sequence is an append-only bit container. The zero value is an empty
// sequence ready for use. Bit 0 of the sequence is the most significant bit
// of the first byte.
type Sequence struct {
	b []byte
	n int
}

// FromBytes returns a Sequence containing every bit of b, in order.
func FromBytes(b []byte) Sequence {
	buf := make([]byte, len(b))
	copy(buf, b)
	return Sequence{b: buf, n: 8 * len(b)}
}

// FromBytesBits returns a Sequence containing the first n bits of b. It is
// the inverse of Bytes for callers that preserved the logical bit count.
func FromBytesBits(b []byte, n int) (Sequence, error) {
	if n < 0 || n > 8*len(b) {
		return Sequence{}, ErrOutOfRange
	}
	s := FromBytes(b)
	s.b = s.b[:(n+7)>>3]
	s.n = n
	// Clear pad bits so later appends land on zeroes.
	if r := n & 7; r != 0 {
		s.b[len(s.b)-1] &= ^byte(0) << (8 - uint(r))
	}
	return s, nil
}

// Len returns the logical length of the sequence in bits.
func (s Sequence) Len() int {
	return s.n
}

// AppendBit appends a single bit.
func (s *Sequence) AppendBit(bit bool) {
	if s.n&7 == 0 {
		s.b = append(s.b, 0)
	}
	if bit {
		s.b[s.n>>3] |= 1 << (7 - uint(s.n&7))
	}
	s.n++
}

// AppendBits appends the width low-order bits of value, most significant
// first. width must be between 0 and MaxFieldWidth.
func (s *Sequence) AppendBits(width int, value uint32) {
	if width < 0 || width > MaxFieldWidth {
		panic("bitseq: bad field width")
	}
	for i := width - 1; i >= 0; i-- {
		s.AppendBit(value>>uint(i)&1 == 1)
	}
}

// AppendByte appends all eight bits of b, most significant first.
func (s *Sequence) AppendByte(b byte) {
	s.AppendBits(8, uint32(b))
}

// Append appends every bit of t to s.
func (s *Sequence) Append(t Sequence) {
	for i := 0; i < t.n; i++ {
		bit, _ := t.ReadBit(i)
		s.AppendBit(bit)
	}
}

// ReadBit returns the bit at offset.
func (s Sequence) ReadBit(offset int) (bool, error) {
	if offset < 0 || offset >= s.n {
		return false, ErrOutOfRange
	}
	return s.b[offset>>3]>>(7-uint(offset&7))&1 == 1, nil
}

// ReadBits returns the width bits starting at offset as an integer, most
// significant bit first. width must be between 0 and MaxFieldWidth.
func (s Sequence) ReadBits(offset, width int) (uint32, error) {
	if width < 0 || width > MaxFieldWidth {
		panic("bitseq: bad field width")
	}
	if offset < 0 || offset+width > s.n {
		return 0, ErrOutOfRange
	}
	var v uint32
	for i := 0; i < width; i++ {
		bit, _ := s.ReadBit(offset + i)
		v <<= 1
		if bit {
			v |= 1
		}
	}
	return v, nil
}

// Slice returns the subsequence of length bits starting at start.
func (s Sequence) Slice(start, length int) (Sequence, error) {
	if start < 0 || length < 0 || start+length > s.n {
		return Sequence{}, ErrOutOfRange
	}
	var out Sequence
	for i := 0; i < length; i++ {
		bit, _ := s.ReadBit(start + i)
		out.AppendBit(bit)
	}
	return out, nil
}

// Bytes returns the sequence as bytes, padding the final partial byte with
// zero bits. The result is a copy; mutating it does not affect s.
func (s Sequence) Bytes() []byte {
	out := make([]byte, len(s.b))
	copy(out, s.b)
	return out
}

// Bits returns the sequence as a slice of 0/1 ints, for collaborators that
// consume bit lists rather than packed bytes.
func (s Sequence) Bits() []int {
	out := make([]int, s.n)
	for i := range out {
		bit, _ := s.ReadBit(i)
		if bit {
			out[i] = 1
		}
	}
	return out
}

// Equal reports whether s and t have the same logical length and bits.
func (s Sequence) Equal(t Sequence) bool {
	if s.n != t.n {
		return false
	}
	for i := 0; i < s.n; i++ {
		a, _ := s.ReadBit(i)
		b, _ := t.ReadBit(i)
		if a != b {
			return false
		}
	}
	return true
}

// String renders the sequence as a string of '0' and '1' characters.
func (s Sequence) String() string {
	var sb strings.Builder
	sb.Grow(s.n)
	for i := 0; i < s.n; i++ {
		bit, _ := s.ReadBit(i)
		if bit {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
