package huffman

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ErrBadTree is returned by UnmarshalBinary when the wire data does not
// describe a well-formed tree arena.
var ErrBadTree = errors.New("huffman: malformed tree")

// encMode encodes trees with Core Deterministic Encoding (RFC 8949 §4.2) so
// the same tree always serializes to identical bytes.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("huffman: CBOR encoder initialization failed: " + err.Error())
	}
}

// wireNode mirrors node for serialization. Arena order guarantees children
// precede their parent, which UnmarshalBinary relies on for validation.
type wireNode struct {
	Weight int   `cbor:"w"`
	Symbol rune  `cbor:"s"`
	Left   int32 `cbor:"l"`
	Right  int32 `cbor:"r"`
}

type wireTree struct {
	Nodes []wireNode `cbor:"nodes"`
	Root  int32      `cbor:"root"`
}

// MarshalBinary serializes the tree to deterministic CBOR, for transports
// that carry the side-channel tree next to the payload bits.
func (t *Tree) MarshalBinary() ([]byte, error) {
	w := wireTree{Root: t.root, Nodes: make([]wireNode, len(t.nodes))}
	for i, n := range t.nodes {
		w.Nodes[i] = wireNode{Weight: n.weight, Symbol: n.symbol, Left: n.left, Right: n.right}
	}
	return encMode.Marshal(w)
}

// UnmarshalBinary replaces t with the tree described by data, rejecting
// arenas whose links are out of range or not strictly child-before-parent.
func (t *Tree) UnmarshalBinary(data []byte) error {
	var w wireTree
	if err := cbor.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrBadTree, err)
	}
	nodes := make([]node, len(w.Nodes))
	for i, n := range w.Nodes {
		leaf := n.Left == none && n.Right == none
		if !leaf {
			if n.Left < 0 || n.Right < 0 || n.Left >= int32(i) || n.Right >= int32(i) {
				return fmt.Errorf("%w: node %d links (%d, %d)", ErrBadTree, i, n.Left, n.Right)
			}
		}
		nodes[i] = node{weight: n.Weight, symbol: n.Symbol, left: n.Left, right: n.Right}
	}
	switch {
	case len(nodes) == 0:
		if w.Root != none {
			return fmt.Errorf("%w: root %d with empty arena", ErrBadTree, w.Root)
		}
	case w.Root < 0 || w.Root >= int32(len(nodes)):
		return fmt.Errorf("%w: root %d out of range", ErrBadTree, w.Root)
	}
	t.nodes = nodes
	t.root = w.Root
	return nil
}
