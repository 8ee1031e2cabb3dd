// Package bitpress turns short text messages into bit sequences and back,
// using one of a small family of reversible coders: a windowed dictionary
// coder (lz77), a per-message entropy coder (huffman), two fixed-width
// character packers (six_bit, seven_bit), and an uncompressed utf8
// passthrough used as the baseline and safe default.
//
// The coder is chosen once, at construction. The resulting bit sequence is
// handed to outer layers (encryption, transport) that must preserve the
// exact bit count, not just the byte-rounded length; the huffman coder
// additionally produces a side-channel tree artifact that the matching
// decompress call requires.
package bitpress

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/windtexter/bitpress/bitseq"
	"github.com/windtexter/bitpress/charpack"
	"github.com/windtexter/bitpress/huffman"
	"github.com/windtexter/bitpress/lz77"
)

// Errors reported by the facade. The coder packages' own error kinds are
// re-exported here so callers can inspect every failure with errors.Is
// against a single surface.
var (
	// ErrUnsupportedMethod is returned by New for an unknown method.
	ErrUnsupportedMethod = errors.New("bitpress: unsupported compression method")

	// ErrTypeMismatch is returned when decompress input does not fit the
	// configured method, such as a tree supplied to a non-huffman coder.
	ErrTypeMismatch = errors.New("bitpress: input does not match configured method")

	ErrOutOfRange        = bitseq.ErrOutOfRange
	ErrTruncatedStream   = bitseq.ErrTruncatedStream
	ErrUnsupportedSymbol = charpack.ErrUnsupportedSymbol
	ErrInvalidSymbolCode = charpack.ErrInvalidSymbolCode
	ErrMissingTree       = huffman.ErrMissingTree
	ErrInvalidUTF8       = lz77.ErrInvalidUTF8
)

// A Method selects one of the coder strategies. The zero value is the utf8
// passthrough.
type Method int

const (
	UTF8 Method = iota
	LZ77
	Huffman
	SixBit
	SevenBit
)

var methodNames = [...]string{
	UTF8:     "utf8",
	LZ77:     "lz77",
	Huffman:  "huffman",
	SixBit:   "six_bit",
	SevenBit: "seven_bit",
}

// Methods lists the supported method names.
func Methods() []string {
	return append([]string(nil), methodNames[:]...)
}

// ParseMethod maps a method name to its Method value.
func ParseMethod(name string) (Method, error) {
	for m, n := range methodNames {
		if n == name {
			return Method(m), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedMethod, name)
}

// String returns the method's wire name.
func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("method(%d)", int(m))
	}
	return methodNames[m]
}

// A Compressor is the single entry point the rest of the system talks to.
// It binds one Method to its coder at construction and dispatches
// Compress/Decompress calls to it. Compressors are immutable and safe for
// concurrent use.
type Compressor struct {
	method Method
	lz     *lz77.Codec
	six    *charpack.Codec
	seven  *charpack.Codec
}

// New returns a Compressor for the given method, with the default lz77
// window size. Unknown methods fail here, not at first use.
func New(method Method) (*Compressor, error) {
	return NewWindow(method, lz77.DefaultWindowSize)
}

// NewWindow is New with an explicit lz77 window size. The size only affects
// the lz77 method and is clamped to lz77.MaxWindowSize.
func NewWindow(method Method, windowSize int) (*Compressor, error) {
	if method < 0 || int(method) >= len(methodNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMethod, int(method))
	}
	return &Compressor{
		method: method,
		lz:     lz77.New(windowSize),
		six:    charpack.SixBit(),
		seven:  charpack.SevenBit(),
	}, nil
}

// Method returns the method the Compressor was constructed with.
func (c *Compressor) Method() Method {
	return c.method
}

// Compress encodes text as a bit sequence. For the huffman method the
// returned tree is the second half of the payload and must travel with the
// bits; for every other method it is nil.
func (c *Compressor) Compress(text string) (bitseq.Sequence, *huffman.Tree, error) {
	if !utf8.ValidString(text) {
		return bitseq.Sequence{}, nil, fmt.Errorf("%w: input is not valid UTF-8 text", ErrTypeMismatch)
	}
	switch c.method {
	case UTF8:
		return bitseq.FromBytes([]byte(text)), nil, nil
	case LZ77:
		return c.lz.Compress(text), nil, nil
	case Huffman:
		bits, tree := huffman.Compress(text)
		return bits, tree, nil
	case SixBit:
		bits, err := c.six.Compress(text)
		return bits, nil, err
	case SevenBit:
		bits, err := c.seven.Compress(text)
		return bits, nil, err
	}
	return bitseq.Sequence{}, nil, fmt.Errorf("%w: %v", ErrUnsupportedMethod, c.method)
}

// Decompress decodes a bit sequence produced by the matching Compress call.
// The huffman method cannot be decoded this way: its tree travels out of
// band, so use DecompressTree.
func (c *Compressor) Decompress(bits bitseq.Sequence) (string, error) {
	if c.method == Huffman {
		return "", ErrMissingTree
	}
	return c.decompress(bits, nil)
}

// DecompressTree is Decompress with the huffman side-channel tree. Supplying
// a tree to any other method is a type contract violation.
func (c *Compressor) DecompressTree(bits bitseq.Sequence, tree *huffman.Tree) (string, error) {
	if c.method != Huffman && tree != nil {
		return "", fmt.Errorf("%w: %v does not take a tree", ErrTypeMismatch, c.method)
	}
	return c.decompress(bits, tree)
}

func (c *Compressor) decompress(bits bitseq.Sequence, tree *huffman.Tree) (string, error) {
	switch c.method {
	case UTF8:
		if bits.Len()%8 != 0 {
			return "", fmt.Errorf("%w: %d bits is not a whole number of bytes", ErrTruncatedStream, bits.Len())
		}
		b := bits.Bytes()
		if !utf8.Valid(b) {
			return "", ErrInvalidUTF8
		}
		return string(b), nil
	case LZ77:
		return c.lz.Decompress(bits)
	case Huffman:
		return huffman.Decompress(bits, tree)
	case SixBit:
		return c.six.Decompress(bits)
	case SevenBit:
		return c.seven.Decompress(bits)
	}
	return "", fmt.Errorf("%w: %v", ErrUnsupportedMethod, c.method)
}
