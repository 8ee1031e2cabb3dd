// Package huffman implements a per-message Huffman coder. A Tree is built
// from the symbol frequencies of one message and maps each distinct symbol
// to a variable-length prefix-free code; the encoded bit sequence carries no
// copy of the tree, so the tree is a second artifact the caller must hand to
// Decompress alongside the bits.
package huffman

import (
	"container/heap"
	"errors"
	"fmt"
	"strings"

	"github.com/chronos-tachyon/assert"

	"github.com/windtexter/bitpress/bitseq"
)

// ErrMissingTree is returned by Decompress when no tree is supplied. The
// encoded bits are undecodable without the tree that produced them.
var ErrMissingTree = errors.New("huffman: decompress requires the tree produced by compress")

// none marks an absent child link in the node arena.
const none = int32(-1)

// maxCodeBits bounds the code length this implementation emits. A message
// would need more than 2^32 bytes of pathologically skewed frequencies to
// exceed it.
const maxCodeBits = 32

// A node is one slot in the tree arena. Leaves carry a symbol and have both
// child links set to none; internal nodes link to earlier arena slots.
type node struct {
	weight int
	symbol rune
	left   int32
	right  int32
}

// A Tree is the prefix-free code for one message. The zero symbol count is
// represented by an empty arena and root == none.
type Tree struct {
	nodes []node
	root  int32
}

// A Code is one symbol's bit pattern: the Size low-order bits of Bits,
// most significant first.
type Code struct {
	Size uint8
	Bits uint32
}

// buildItem orders tree nodes in the construction heap. Ties on weight are
// broken by insertion sequence so the same message always yields the same
// tree, even though map iteration order varies.
type buildItem struct {
	weight int
	seq    int
	idx    int32
}

type buildHeap []buildItem

func (h buildHeap) Len() int { return len(h) }
func (h buildHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight < h[j].weight
	}
	return h[i].seq < h[j].seq
}
func (h buildHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *buildHeap) Push(x any) {
	*h = append(*h, x.(buildItem))
}

func (h *buildHeap) Pop() any {
	old := *h
	last := old[len(old)-1]
	*h = old[:len(old)-1]
	return last
}

// BuildTree counts symbol frequencies in text and merges the two
// lowest-weight nodes until one remains. The lower-weight branch of each
// merge sits on the 0 edge, the higher on the 1 edge. Leaves are seeded in
// first-appearance order of their symbols.
func BuildTree(text string) *Tree {
	freq := make(map[rune]int)
	var order []rune
	for _, r := range text {
		if freq[r] == 0 {
			order = append(order, r)
		}
		freq[r]++
	}

	t := &Tree{root: none}
	if len(order) == 0 {
		return t
	}

	h := make(buildHeap, 0, len(order))
	seq := 0
	for _, r := range order {
		idx := int32(len(t.nodes))
		t.nodes = append(t.nodes, node{weight: freq[r], symbol: r, left: none, right: none})
		h = append(h, buildItem{weight: freq[r], seq: seq, idx: idx})
		seq++
	}
	heap.Init(&h)

	for h.Len() > 1 {
		low := heap.Pop(&h).(buildItem)
		high := heap.Pop(&h).(buildItem)
		idx := int32(len(t.nodes))
		t.nodes = append(t.nodes, node{
			weight: low.weight + high.weight,
			left:   low.idx,
			right:  high.idx,
		})
		heap.Push(&h, buildItem{weight: low.weight + high.weight, seq: seq, idx: idx})
		seq++
	}

	t.root = heap.Pop(&h).(buildItem).idx
	return t
}

func (t *Tree) isLeaf(i int32) bool {
	return t.nodes[i].left == none
}

// Codes returns the symbol-to-code table for the tree. An alphabet of one
// distinct symbol still gets a usable single-bit code "0".
func (t *Tree) Codes() map[rune]Code {
	codes := make(map[rune]Code)
	if t.root == none {
		return codes
	}
	if t.isLeaf(t.root) {
		codes[t.nodes[t.root].symbol] = Code{Size: 1, Bits: 0}
		return codes
	}
	var walk func(i int32, depth uint8, bits uint32)
	walk = func(i int32, depth uint8, bits uint32) {
		if t.isLeaf(i) {
			codes[t.nodes[i].symbol] = Code{Size: depth, Bits: bits}
			return
		}
		assert.Assertf(depth < maxCodeBits, "code length %d exceeds %d bits", depth+1, maxCodeBits)
		walk(t.nodes[i].left, depth+1, bits<<1)
		walk(t.nodes[i].right, depth+1, bits<<1|1)
	}
	walk(t.root, 0, 0)
	return codes
}

// CodeFor returns the code assigned to symbol r, if r occurs in the tree.
func (t *Tree) CodeFor(r rune) (Code, bool) {
	c, ok := t.Codes()[r]
	return c, ok
}

// NumSymbols returns the number of distinct symbols the tree covers.
func (t *Tree) NumSymbols() int {
	if t.root == none {
		return 0
	}
	n := 0
	for i := range t.nodes {
		if t.isLeaf(int32(i)) {
			n++
		}
	}
	return n
}

// Compress builds the tree for text and emits each character's code bits in
// sequence. Both return values must be retained: the bits are undecodable
// without the tree.
func Compress(text string) (bitseq.Sequence, *Tree) {
	tree := BuildTree(text)
	codes := tree.Codes()
	var out bitseq.Sequence
	for _, r := range text {
		c, ok := codes[r]
		assert.Assertf(ok, "symbol %q missing from its own tree", r)
		out.AppendBits(int(c.Size), c.Bits)
	}
	return out, tree
}

// Decompress walks the bit stream against tree, emitting a symbol each time
// the walk reaches a leaf. Exhausting the stream partway down the tree means
// the trailing code was cut off.
func Decompress(bits bitseq.Sequence, tree *Tree) (string, error) {
	if tree == nil {
		return "", ErrMissingTree
	}
	if tree.root == none {
		if bits.Len() == 0 {
			return "", nil
		}
		return "", fmt.Errorf("%w: %d bits against an empty tree", bitseq.ErrTruncatedStream, bits.Len())
	}

	var sb strings.Builder
	if tree.isLeaf(tree.root) {
		// Degenerate single-symbol alphabet: every emitted code is "0".
		for i := 0; i < bits.Len(); i++ {
			bit, err := bits.ReadBit(i)
			if err != nil {
				return "", err
			}
			if bit {
				return "", fmt.Errorf("%w: unmatched bits at offset %d", bitseq.ErrTruncatedStream, i)
			}
			sb.WriteRune(tree.nodes[tree.root].symbol)
		}
		return sb.String(), nil
	}

	cur := tree.root
	for i := 0; i < bits.Len(); i++ {
		bit, err := bits.ReadBit(i)
		if err != nil {
			return "", err
		}
		if bit {
			cur = tree.nodes[cur].right
		} else {
			cur = tree.nodes[cur].left
		}
		if tree.isLeaf(cur) {
			sb.WriteRune(tree.nodes[cur].symbol)
			cur = tree.root
		}
	}
	if cur != tree.root {
		return "", fmt.Errorf("%w: stream ended mid-code", bitseq.ErrTruncatedStream)
	}
	return sb.String(), nil
}
