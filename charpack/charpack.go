// Package charpack implements fixed-width character packing: each symbol of
// a small fixed alphabet maps to a constant-width bit code through a static
// lookup table. Two standard variants are provided, a case-folding 6-bit
// coder and a case-preserving 7-bit coder.
package charpack

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/windtexter/bitpress/bitseq"
)

// Errors reported by fixed-width coders.
var (
	// ErrBadCharset is returned by New when the charset does not fit the
	// requested code width or contains a duplicate symbol.
	ErrBadCharset = errors.New("charpack: invalid charset")

	// ErrUnsupportedSymbol is returned by Compress when the input contains
	// a character outside the codec's alphabet.
	ErrUnsupportedSymbol = errors.New("charpack: unsupported symbol")

	// ErrInvalidSymbolCode is returned by Decompress when a decoded code
	// value has no charset entry.
	ErrInvalidSymbolCode = errors.New("charpack: invalid symbol code")
)

// Charset6 is the alphabet of the 6-bit coder: 64 symbols, lower case only.
// Input is case-folded before lookup, so mixed-case text does not round-trip
// faithfully through this coder.
const Charset6 = "abcdefghijklmnopqrstuvwxyz" +
	"0123456789 .,?!-_:;'\"()[]{}@#$%^&*~\n+="

// Charset7 is the alphabet of the 7-bit coder: 88 symbols of the 128-code
// capacity, both cases defined so case survives a round trip.
const Charset7 = "ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz" +
	"0123456789 .,?!-_():;'\"@#$%^&*+=~©®\n"

// maxWidth bounds the code width a Codec will accept.
const maxWidth = 16

// A Codec packs text using width-bit codes from a fixed charset. Codecs are
// immutable after construction and safe for concurrent use.
type Codec struct {
	width    int
	foldCase bool
	encode   map[rune]uint32
	decode   []rune
}

// New builds a Codec for the given code width and charset. The charset
// assigns code i to its i'th rune; it must be non-empty, free of duplicates,
// and no larger than the 2^width code capacity. If foldCase is set, input
// characters are lower-cased before lookup.
func New(width int, charset string, foldCase bool) (*Codec, error) {
	if width < 1 || width > maxWidth {
		return nil, fmt.Errorf("%w: width %d out of range", ErrBadCharset, width)
	}
	capacity := 1 << uint(width)
	decode := make([]rune, capacity)
	for i := range decode {
		decode[i] = -1
	}
	encode := make(map[rune]uint32)
	n := 0
	for _, r := range charset {
		if n >= capacity {
			return nil, fmt.Errorf("%w: %d symbols exceed %d-bit capacity", ErrBadCharset, n+1, width)
		}
		if _, dup := encode[r]; dup {
			return nil, fmt.Errorf("%w: duplicate symbol %q", ErrBadCharset, r)
		}
		encode[r] = uint32(n)
		decode[n] = r
		n++
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: empty charset", ErrBadCharset)
	}
	return &Codec{
		width:    width,
		foldCase: foldCase,
		encode:   encode,
		decode:   decode,
	}, nil
}

// SixBit returns the standard 6-bit case-folding coder.
func SixBit() *Codec {
	c, err := New(6, Charset6, true)
	if err != nil {
		panic(err)
	}
	return c
}

// SevenBit returns the standard 7-bit case-preserving coder.
func SevenBit() *Codec {
	c, err := New(7, Charset7, false)
	if err != nil {
		panic(err)
	}
	return c
}

// Width returns the bit width of the codec's codes.
func (c *Codec) Width() int {
	return c.width
}

// Compress packs text into width-bit codes.
func (c *Codec) Compress(text string) (bitseq.Sequence, error) {
	var out bitseq.Sequence
	for _, r := range text {
		if c.foldCase {
			r = unicode.ToLower(r)
		}
		code, ok := c.encode[r]
		if !ok {
			return bitseq.Sequence{}, fmt.Errorf("%w: %q", ErrUnsupportedSymbol, r)
		}
		out.AppendBits(c.width, code)
	}
	return out, nil
}

// Decompress unpacks a sequence of width-bit codes back into text. A
// trailing chunk shorter than the code width means the caller lost the exact
// bit count and is feeding back pad bits; that fails rather than producing a
// phantom symbol.
func (c *Codec) Decompress(bits bitseq.Sequence) (string, error) {
	var sb strings.Builder
	for off := 0; off < bits.Len(); off += c.width {
		if bits.Len()-off < c.width {
			return "", fmt.Errorf("%w: %d trailing bits, need %d", bitseq.ErrTruncatedStream, bits.Len()-off, c.width)
		}
		code, err := bits.ReadBits(off, c.width)
		if err != nil {
			return "", err
		}
		r := c.decode[code]
		if r < 0 {
			return "", fmt.Errorf("%w: %d", ErrInvalidSymbolCode, code)
		}
		sb.WriteRune(r)
	}
	return sb.String(), nil
}
