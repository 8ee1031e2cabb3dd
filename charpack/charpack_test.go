package charpack

import (
	"errors"
	"strings"
	"testing"

	"github.com/windtexter/bitpress/bitseq"
)

func TestCharsetSizes(t *testing.T) {
	if n := len([]rune(Charset6)); n != 64 {
		t.Errorf("Charset6: %d symbols, want 64", n)
	}
	if n := len([]rune(Charset7)); n != 88 {
		t.Errorf("Charset7: %d symbols, want 88", n)
	}
}

func TestSixBitRoundTripFoldsCase(t *testing.T) {
	c := SixBit()
	bits, err := c.Compress("Hello, World!")
	if err != nil {
		t.Fatal(err)
	}
	if bits.Len() != 13*6 {
		t.Fatalf("Len: got %d, want %d", bits.Len(), 13*6)
	}
	text, err := c.Decompress(bits)
	if err != nil {
		t.Fatal(err)
	}
	if text != "hello, world!" {
		t.Fatalf("round trip: got %q, want %q", text, "hello, world!")
	}
}

func TestSixBitCaseFoldingIsLossy(t *testing.T) {
	c := SixBit()
	upper, err := c.Compress("HELLO")
	if err != nil {
		t.Fatal(err)
	}
	lower, err := c.Compress("hello")
	if err != nil {
		t.Fatal(err)
	}
	if !upper.Equal(lower) {
		t.Error("compressing HELLO and hello produced different bits")
	}
}

func TestSevenBitPreservesCase(t *testing.T) {
	c := SevenBit()
	const text = "The Quick Brown Fox, 42 times!"
	bits, err := c.Compress(text)
	if err != nil {
		t.Fatal(err)
	}
	if bits.Len() != len([]rune(text))*7 {
		t.Fatalf("Len: got %d, want %d", bits.Len(), len([]rune(text))*7)
	}
	got, err := c.Decompress(bits)
	if err != nil {
		t.Fatal(err)
	}
	if got != text {
		t.Fatalf("round trip: got %q, want %q", got, text)
	}
}

func TestUnsupportedSymbol(t *testing.T) {
	if _, err := SevenBit().Compress("café"); !errors.Is(err, ErrUnsupportedSymbol) {
		t.Errorf("seven-bit compress of é: got %v, want ErrUnsupportedSymbol", err)
	}
	if _, err := SixBit().Compress("naïve"); !errors.Is(err, ErrUnsupportedSymbol) {
		t.Errorf("six-bit compress of ï: got %v, want ErrUnsupportedSymbol", err)
	}
}

func TestTruncatedStream(t *testing.T) {
	c := SixBit()
	bits, err := c.Compress("abc")
	if err != nil {
		t.Fatal(err)
	}
	short, err := bits.Slice(0, bits.Len()-2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Decompress(short); !errors.Is(err, bitseq.ErrTruncatedStream) {
		t.Errorf("decompress of partial final chunk: got %v, want ErrTruncatedStream", err)
	}
}

func TestInvalidSymbolCode(t *testing.T) {
	c := SevenBit()
	var bits bitseq.Sequence
	bits.AppendBits(7, 127) // capacity 128, only 88 codes defined
	if _, err := c.Decompress(bits); !errors.Is(err, ErrInvalidSymbolCode) {
		t.Errorf("decompress of undefined code: got %v, want ErrInvalidSymbolCode", err)
	}
}

func TestNewRejectsBadCharsets(t *testing.T) {
	if _, err := New(2, "abcde", false); !errors.Is(err, ErrBadCharset) {
		t.Errorf("oversized charset: got %v, want ErrBadCharset", err)
	}
	if _, err := New(3, "aba", false); !errors.Is(err, ErrBadCharset) {
		t.Errorf("duplicate symbol: got %v, want ErrBadCharset", err)
	}
	if _, err := New(3, "", false); !errors.Is(err, ErrBadCharset) {
		t.Errorf("empty charset: got %v, want ErrBadCharset", err)
	}
	if _, err := New(0, "ab", false); !errors.Is(err, ErrBadCharset) {
		t.Errorf("zero width: got %v, want ErrBadCharset", err)
	}
}

func TestPartialCharsetDecode(t *testing.T) {
	// A charset smaller than capacity still round-trips its own symbols.
	c, err := New(3, "abcde", false)
	if err != nil {
		t.Fatal(err)
	}
	bits, err := c.Compress("adbec")
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Decompress(bits)
	if err != nil {
		t.Fatal(err)
	}
	if got != "adbec" {
		t.Fatalf("round trip: got %q, want %q", got, "adbec")
	}
}

func TestWholeAlphabetRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name    string
		c       *Codec
		charset string
	}{
		{"six_bit", SixBit(), Charset6},
		{"seven_bit", SevenBit(), Charset7},
	} {
		t.Run(tc.name, func(t *testing.T) {
			bits, err := tc.c.Compress(tc.charset)
			if err != nil {
				t.Fatal(err)
			}
			got, err := tc.c.Decompress(bits)
			if err != nil {
				t.Fatal(err)
			}
			want := tc.charset
			if tc.name == "six_bit" {
				want = strings.ToLower(want)
			}
			if got != want {
				t.Fatalf("round trip: got %q, want %q", got, want)
			}
		})
	}
}
