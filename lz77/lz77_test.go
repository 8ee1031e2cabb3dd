package lz77

import (
	"errors"
	"strings"
	"testing"

	"github.com/windtexter/bitpress/bitseq"
)

func roundTrip(t *testing.T, c *Codec, text string) {
	t.Helper()
	bits := c.Compress(text)
	got, err := c.Decompress(bits)
	if err != nil {
		t.Fatalf("%q: decompress: %v", text, err)
	}
	if got != text {
		t.Fatalf("%q: round trip produced %q", text, got)
	}
}

func TestRoundTrip(t *testing.T) {
	c := New(DefaultWindowSize)
	for _, text := range []string{
		"",
		"a",
		"ab",
		"aaaaaaaaaa",
		"abcabcabcabc",
		"the quick brown fox jumps over the lazy dog",
		"she sells sea shells by the sea shore, she sells sea shells",
		strings.Repeat("windtexter ", 100),
	} {
		roundTrip(t, c, text)
	}
}

func TestRoundTripMultiByteRunes(t *testing.T) {
	// Matches operate on raw bytes, so a match boundary may split a
	// multi-byte rune; the reassembled byte stream must still be the
	// original UTF-8.
	c := New(100)
	for _, text := range []string{
		"héllo héllo héllo",
		"日本語テキスト日本語テキスト日本語テキスト",
		"地地地地地地地地",
	} {
		roundTrip(t, c, text)
	}
}

func TestRepetitionUsesSelfOverlap(t *testing.T) {
	c := New(DefaultWindowSize)
	bits := c.Compress("aaaaaaaaaa")
	tokens, err := Tokens(bits)
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) < 2 {
		t.Fatalf("got %d tokens, want at least 2", len(tokens))
	}
	if tokens[0].IsMatch || tokens[0].Literal != 'a' {
		t.Fatalf("first token: got %+v, want literal 'a'", tokens[0])
	}
	covered := 1
	for _, tok := range tokens[1:] {
		if !tok.IsMatch {
			t.Fatalf("token %+v: want match", tok)
		}
		if tok.Match.Distance != 1 {
			t.Errorf("match distance: got %d, want 1", tok.Match.Distance)
		}
		if tok.Match.Length <= tok.Match.Distance {
			t.Errorf("match %+v does not self-overlap", tok.Match)
		}
		covered += tok.Match.Length
	}
	if covered != 10 {
		t.Errorf("tokens cover %d bytes, want 10", covered)
	}
}

func TestNoRepeatsAllLiterals(t *testing.T) {
	const text = "abcdefghij"
	c := New(DefaultWindowSize)
	bits := c.Compress(text)
	if bits.Len() != 9*len(text) {
		t.Errorf("Len: got %d bits, want %d", bits.Len(), 9*len(text))
	}
	tokens, err := Tokens(bits)
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != len(text) {
		t.Fatalf("got %d tokens, want %d literals", len(tokens), len(text))
	}
	for i, tok := range tokens {
		if tok.IsMatch || tok.Literal != text[i] {
			t.Errorf("token %d: got %+v, want literal %q", i, tok, text[i])
		}
	}
}

func TestMatchBounds(t *testing.T) {
	c := New(50)
	text := strings.Repeat("abcab", 40) + strings.Repeat("zq", 30)
	bits := c.Compress(text)
	tokens, err := Tokens(bits)
	if err != nil {
		t.Fatal(err)
	}
	pos := 0
	for _, tok := range tokens {
		if !tok.IsMatch {
			pos++
			continue
		}
		m := tok.Match
		if m.Distance < 1 || m.Distance > c.WindowSize() || m.Distance > pos {
			t.Errorf("match at position %d: distance %d out of bounds", pos, m.Distance)
		}
		if m.Length < MinMatchLength || m.Length > LookaheadSize {
			t.Errorf("match at position %d: length %d out of bounds", pos, m.Length)
		}
		pos += m.Length
	}
	if pos != len(text) {
		t.Errorf("tokens cover %d bytes, want %d", pos, len(text))
	}
}

func TestEqualLengthsKeepOldestMatch(t *testing.T) {
	// "ab" appears twice in the window when the third one is reached.
	// Among equal-length candidates the oldest window position wins, so
	// the emitted distance is the larger one.
	c := New(DefaultWindowSize)
	bits := c.Compress("abxxabyyab")
	tokens, err := Tokens(bits)
	if err != nil {
		t.Fatal(err)
	}
	last := tokens[len(tokens)-1]
	if !last.IsMatch {
		t.Fatalf("last token: got %+v, want match", last)
	}
	if last.Match.Distance != 8 || last.Match.Length != 2 {
		t.Errorf("last match: got distance %d length %d, want distance 8 length 2",
			last.Match.Distance, last.Match.Length)
	}
}

func TestWindowClamped(t *testing.T) {
	if New(100000).WindowSize() != MaxWindowSize {
		t.Error("oversized window not clamped to MaxWindowSize")
	}
	if New(0).WindowSize() != DefaultWindowSize {
		t.Error("zero window did not select DefaultWindowSize")
	}
}

func TestMatchesDoNotCrossWindow(t *testing.T) {
	// The repeat of "needle" sits further back than the window reaches,
	// so it must be re-emitted rather than referenced.
	c := New(8)
	text := "needle" + strings.Repeat("-", 20) + "needle"
	bits := c.Compress(text)
	tokens, err := Tokens(bits)
	if err != nil {
		t.Fatal(err)
	}
	for _, tok := range tokens {
		if tok.IsMatch && tok.Match.Distance > 8 {
			t.Errorf("match distance %d exceeds window 8", tok.Match.Distance)
		}
	}
	roundTrip(t, c, text)
}

func TestTruncatedStream(t *testing.T) {
	c := New(DefaultWindowSize)

	// Cut a match token in half: enough bits remain to read the flag but
	// not the distance and length fields.
	var cut bitseq.Sequence
	cut.AppendBit(true)
	cut.AppendBits(10, 0x3FF)
	if _, err := c.Decompress(cut); !errors.Is(err, bitseq.ErrTruncatedStream) {
		t.Errorf("half match token: got %v, want ErrTruncatedStream", err)
	}

	// Nonzero leftover bits after the last whole token are a dropped
	// token, not padding.
	var bad bitseq.Sequence
	bad.AppendBit(false)
	bad.AppendByte('x')
	bad.AppendBits(5, 0b00001)
	if _, err := c.Decompress(bad); !errors.Is(err, bitseq.ErrTruncatedStream) {
		t.Errorf("nonzero trailing bits: got %v, want ErrTruncatedStream", err)
	}
}

func TestZeroPaddingAccepted(t *testing.T) {
	// A stream that went through Bytes has up to 7 zero pad bits; those
	// decode cleanly without the out-of-band bit count.
	c := New(DefaultWindowSize)
	const text = "pad me to a byte boundary"
	bits := c.Compress(text)
	padded := bitseq.FromBytes(bits.Bytes())
	got, err := c.Decompress(padded)
	if err != nil {
		t.Fatal(err)
	}
	if got != text {
		t.Fatalf("round trip through padded bytes: got %q", got)
	}
}

func TestInvalidToken(t *testing.T) {
	// A match token at output position 0 has nothing to copy from.
	var bits bitseq.Sequence
	bits.AppendBit(true)
	bits.AppendBits(distanceBits, 3)
	bits.AppendBits(lengthBits, 5)
	c := New(DefaultWindowSize)
	if _, err := c.Decompress(bits); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("match with empty output buffer: got %v, want ErrInvalidToken", err)
	}
}

func TestDumpTokens(t *testing.T) {
	c := New(DefaultWindowSize)
	bits := c.Compress("aaaaa")
	dump, err := DumpTokens(bits)
	if err != nil {
		t.Fatal(err)
	}
	if dump != "<0, 97><1, 1, 4>" {
		t.Errorf("DumpTokens: got %q, want %q", dump, "<0, 97><1, 1, 4>")
	}
}

func BenchmarkCompress(b *testing.B) {
	text := strings.Repeat("she sells sea shells by the sea shore ", 30)
	c := New(MaxWindowSize)
	b.SetBytes(int64(len(text)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c.Compress(text)
	}
}

func BenchmarkDecompress(b *testing.B) {
	text := strings.Repeat("she sells sea shells by the sea shore ", 30)
	c := New(MaxWindowSize)
	bits := c.Compress(text)
	b.SetBytes(int64(len(text)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := c.Decompress(bits); err != nil {
			b.Fatal(err)
		}
	}
}
