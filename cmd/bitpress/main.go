// Command bitpress compresses text files into bit-sequence envelopes and
// back. The envelope is a CBOR document carrying the method name, the exact
// bit count, the padded payload bytes, and (for the huffman method) the
// serialized side-channel tree, so nothing is lost between the two halves
// of a round trip.
package main

import (
	"fmt"
	"os"
	"strings"

	pb "github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"github.com/fxamacker/cbor/v2"
	flag "github.com/spf13/pflag"

	"github.com/windtexter/bitpress"
	"github.com/windtexter/bitpress/bitseq"
	"github.com/windtexter/bitpress/huffman"
	"github.com/windtexter/bitpress/lz77"
)

type envelope struct {
	Method  string `cbor:"method"`
	NumBits int    `cbor:"num_bits"`
	Payload []byte `cbor:"payload"`
	Tree    []byte `cbor:"tree,omitempty"`
}

var (
	methodFlag  = flag.String("method", "", "compression method: "+strings.Join(bitpress.Methods(), ", "))
	configFlag  = flag.String("config", "", "YAML settings file")
	windowFlag  = flag.Int("window", 0, "lz77 window size (max 400)")
	extFlag     = flag.String("ext", "wtx", "file extension for compressed output")
	verboseFlag = flag.BoolP("verbose", "v", false, "print the lz77 token stream")
	deleteFlag  = flag.Bool("delete", false, "delete input files after compressing")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s compress|decompress [flags] <file>...\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Flags:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}
	command, files := args[0], args[1:]

	if err := run(command, files); err != nil {
		color.Red("bitpress: %v", err)
		os.Exit(1)
	}
}

func run(command string, files []string) error {
	compressor, err := buildCompressor()
	if err != nil {
		return err
	}
	switch command {
	case "compress":
		return compressFiles(compressor, files)
	case "decompress":
		return decompressFiles(files)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// buildCompressor resolves the settings file first, then lets the command
// line override method and window size.
func buildCompressor() (*bitpress.Compressor, error) {
	settings := bitpress.DefaultSettings()
	if *configFlag != "" {
		loaded, err := bitpress.LoadSettings(*configFlag)
		if err != nil {
			return nil, err
		}
		settings = loaded
	}
	if *methodFlag != "" {
		settings.Compression.Method = *methodFlag
	}
	if *windowFlag > 0 {
		settings.Compression.LZ77WindowSize = *windowFlag
	}
	return settings.Compressor()
}

func compressFiles(c *bitpress.Compressor, files []string) error {
	total := int64(0)
	contents := make([][]byte, len(files))
	for i, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		contents[i] = data
		total += int64(len(data))
	}

	bar := pb.New64(total)
	bar.Set(pb.Bytes, true)
	bar.Start()
	defer bar.Finish()

	for i, file := range files {
		if err := compressFile(c, file, contents[i]); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		bar.Add(len(contents[i]))
		if *deleteFlag {
			if err := os.Remove(file); err != nil {
				return err
			}
		}
	}
	return nil
}

func compressFile(c *bitpress.Compressor, file string, data []byte) error {
	bits, tree, err := c.Compress(string(data))
	if err != nil {
		return err
	}
	if *verboseFlag && c.Method() == bitpress.LZ77 {
		dump, err := lz77.DumpTokens(bits)
		if err != nil {
			return err
		}
		fmt.Println(dump)
	}

	env := envelope{
		Method:  c.Method().String(),
		NumBits: bits.Len(),
		Payload: bits.Bytes(),
	}
	if tree != nil {
		env.Tree, err = tree.MarshalBinary()
		if err != nil {
			return err
		}
	}
	out, err := cbor.Marshal(env)
	if err != nil {
		return err
	}
	outFile := file + "." + *extFlag
	if err := os.WriteFile(outFile, out, 0o644); err != nil {
		return err
	}

	ratio := 100 * float64(len(out)) / float64(len(data))
	color.Green("%s -> %s", file, outFile)
	color.Cyan("  %d bytes in, %d bits out (%.1f%% with envelope)", len(data), bits.Len(), ratio)
	return nil
}

func decompressFiles(files []string) error {
	for _, file := range files {
		if err := decompressFile(file); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
	}
	return nil
}

func decompressFile(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	var env envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return err
	}
	method, err := bitpress.ParseMethod(env.Method)
	if err != nil {
		return err
	}
	c, err := bitpress.New(method)
	if err != nil {
		return err
	}
	bits, err := bitseq.FromBytesBits(env.Payload, env.NumBits)
	if err != nil {
		return err
	}
	var tree *huffman.Tree
	if env.Tree != nil {
		tree = new(huffman.Tree)
		if err := tree.UnmarshalBinary(env.Tree); err != nil {
			return err
		}
	}
	text, err := c.DecompressTree(bits, tree)
	if err != nil {
		return err
	}

	outFile := strings.TrimSuffix(file, "."+*extFlag)
	if outFile == file {
		outFile = file + ".out"
	}
	if err := os.WriteFile(outFile, []byte(text), 0o644); err != nil {
		return err
	}
	color.Green("%s -> %s (%s, %d bits)", file, outFile, env.Method, env.NumBits)
	return nil
}
