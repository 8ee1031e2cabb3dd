// Package lz77 implements a windowed dictionary coder over raw UTF-8 bytes.
// The stream is a sequence of tagged tokens: a literal is flag bit 0 followed
// by the byte (9 bits), a back-reference is flag bit 1 followed by a 12-bit
// distance and a 4-bit length (17 bits). The stream is zero-padded to a byte
// boundary when exported as bytes.
//
// The 12-bit distance field can address 4095 bytes even though the enforced
// window maximum is 400. The oversized field is part of the wire contract
// and is kept as-is; the extra range is simply never produced.
package lz77

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/chronos-tachyon/assert"

	"github.com/windtexter/bitpress/bitseq"
)

const (
	// MaxWindowSize caps how far back a match may reach.
	MaxWindowSize = 400

	// DefaultWindowSize is used when no explicit window size is configured.
	DefaultWindowSize = 20

	// LookaheadSize caps match length; 4 bits of length can express at
	// most 15.
	LookaheadSize = 15

	// MinMatchLength is the shortest match worth a token: a 1-byte match
	// costs 17 bits as a reference but only 9 as a literal.
	MinMatchLength = 2

	distanceBits = 12
	lengthBits   = 4
)

// ErrInvalidToken is returned by Decompress when a match token carries a
// distance or length no encoder could have produced.
var ErrInvalidToken = errors.New("lz77: invalid match token")

// ErrInvalidUTF8 is returned when decompressed bytes do not form valid
// UTF-8 text.
var ErrInvalidUTF8 = errors.New("decompressed data is not valid UTF-8")

// A Match is a back-reference: copy Length bytes starting Distance bytes
// behind the current output position. Length may exceed Distance, in which
// case the copy overlaps bytes it writes itself.
type Match struct {
	Distance int
	Length   int
}

// A Token is one decoded stream element: either a literal byte or a match.
type Token struct {
	IsMatch bool
	Literal byte
	Match   Match
}

// A Codec holds the window configuration. Codecs are immutable and safe for
// concurrent use.
type Codec struct {
	windowSize int
}

// New returns a Codec with the given window size, clamped to MaxWindowSize.
// A size below 1 selects DefaultWindowSize.
func New(windowSize int) *Codec {
	if windowSize < 1 {
		windowSize = DefaultWindowSize
	}
	if windowSize > MaxWindowSize {
		windowSize = MaxWindowSize
	}
	return &Codec{windowSize: windowSize}
}

// WindowSize returns the configured window size.
func (c *Codec) WindowSize() int {
	return c.windowSize
}

// findLongestMatch scans the window behind pos for the longest run that
// reproduces the bytes at pos. For each candidate length, window positions
// are tried oldest first and only a strictly longer match replaces the best
// one, so among equal lengths the largest distance wins. Candidate sources
// shorter than the match are tiled to cover self-overlapping matches.
func (c *Codec) findLongestMatch(data []byte, pos int) (Match, bool) {
	end := pos + LookaheadSize
	if end > len(data) {
		end = len(data)
	}
	start := pos - c.windowSize
	if start < 0 {
		start = 0
	}

	var best Match
	for length := MinMatchLength; length <= end-pos; length++ {
		target := data[pos : pos+length]
		for i := start; i < pos; i++ {
			if sourceMatches(data, i, pos, target) {
				best = Match{Distance: pos - i, Length: length}
				break
			}
		}
	}
	return best, best.Length >= MinMatchLength
}

// sourceMatches reports whether the window bytes starting at i, tiled with
// period pos-i, reproduce target.
func sourceMatches(data []byte, i, pos int, target []byte) bool {
	period := pos - i
	for k := range target {
		if data[i+k%period] != target[k] {
			return false
		}
	}
	return true
}

// Compress encodes text as a token stream, walking the bytes left to right
// and emitting a match token whenever the window holds a repeat of at least
// MinMatchLength bytes.
func (c *Codec) Compress(text string) bitseq.Sequence {
	data := []byte(text)
	var out bitseq.Sequence
	for pos := 0; pos < len(data); {
		if m, ok := c.findLongestMatch(data, pos); ok {
			assert.Assertf(m.Distance >= 1 && m.Distance <= c.windowSize,
				"match distance %d outside window %d", m.Distance, c.windowSize)
			assert.Assertf(m.Length >= MinMatchLength && m.Length <= LookaheadSize,
				"match length %d outside [%d, %d]", m.Length, MinMatchLength, LookaheadSize)
			out.AppendBit(true)
			out.AppendBits(distanceBits, uint32(m.Distance))
			out.AppendBits(lengthBits, uint32(m.Length))
			pos += m.Length
		} else {
			out.AppendBit(false)
			out.AppendByte(data[pos])
			pos++
		}
	}
	return out
}

// Tokens parses a compressed stream into its token list. Fewer than 9
// remaining bits are accepted only as zero padding; a nonzero remainder is a
// token that was cut off.
func Tokens(bits bitseq.Sequence) ([]Token, error) {
	var tokens []Token
	off := 0
	for bits.Len()-off >= 9 {
		flag, err := bits.ReadBit(off)
		if err != nil {
			return nil, err
		}
		off++
		if !flag {
			v, err := bits.ReadBits(off, 8)
			if err != nil {
				return nil, err
			}
			off += 8
			tokens = append(tokens, Token{Literal: byte(v)})
			continue
		}
		if bits.Len()-off < distanceBits+lengthBits {
			return nil, fmt.Errorf("%w: match token cut off at bit %d", bitseq.ErrTruncatedStream, off-1)
		}
		d, err := bits.ReadBits(off, distanceBits)
		if err != nil {
			return nil, err
		}
		off += distanceBits
		l, err := bits.ReadBits(off, lengthBits)
		if err != nil {
			return nil, err
		}
		off += lengthBits
		tokens = append(tokens, Token{
			IsMatch: true,
			Match:   Match{Distance: int(d), Length: int(l)},
		})
	}
	for ; off < bits.Len(); off++ {
		bit, err := bits.ReadBit(off)
		if err != nil {
			return nil, err
		}
		if bit {
			return nil, fmt.Errorf("%w: nonzero bits in trailing partial token", bitseq.ErrTruncatedStream)
		}
	}
	return tokens, nil
}

// Decompress parses the token stream and reassembles the original bytes,
// copying each match byte-at-a-time from Distance bytes behind the write
// position so self-overlapping matches reproduce correctly.
func (c *Codec) Decompress(bits bitseq.Sequence) (string, error) {
	tokens, err := Tokens(bits)
	if err != nil {
		return "", err
	}
	out := make([]byte, 0, len(tokens))
	for _, tok := range tokens {
		if !tok.IsMatch {
			out = append(out, tok.Literal)
			continue
		}
		m := tok.Match
		if m.Length < MinMatchLength || m.Distance < 1 || m.Distance > len(out) {
			return "", fmt.Errorf("%w: distance %d, length %d at output position %d",
				ErrInvalidToken, m.Distance, m.Length, len(out))
		}
		for j := 0; j < m.Length; j++ {
			out = append(out, out[len(out)-m.Distance])
		}
	}
	if !utf8.Valid(out) {
		return "", ErrInvalidUTF8
	}
	return string(out), nil
}

// DumpTokens renders a compressed stream as human-readable token text,
// "<0, c>" for literals and "<1, distance, length>" for matches.
func DumpTokens(bits bitseq.Sequence) (string, error) {
	tokens, err := Tokens(bits)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, tok := range tokens {
		if tok.IsMatch {
			fmt.Fprintf(&sb, "<1, %d, %d>", tok.Match.Distance, tok.Match.Length)
		} else {
			fmt.Fprintf(&sb, "<0, %d>", tok.Literal)
		}
	}
	return sb.String(), nil
}
