// Package dom provides a minimal laid-out text document: the container,
// text nodes, selections and client-rect queries that a highlighter needs
// from its host page.
//
// The tree is two levels deep. A Document holds Blocks (paragraphs) and each
// Block holds Text nodes (runs). Offsets inside a Text node count runes.
package dom

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// NodePath locates a text node from the document root: the block index
// followed by the text index inside that block.
type NodePath []int

// Equal returns true if two paths are identical.
func (p NodePath) Equal(other NodePath) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the path.
func (p NodePath) Clone() NodePath {
	if p == nil {
		return nil
	}
	out := make(NodePath, len(p))
	copy(out, p)
	return out
}

// Compare orders paths in document order.
func (p NodePath) Compare(other NodePath) int {
	for i := 0; i < len(p) && i < len(other); i++ {
		switch {
		case p[i] < other[i]:
			return -1
		case p[i] > other[i]:
			return 1
		}
	}
	switch {
	case len(p) < len(other):
		return -1
	case len(p) > len(other):
		return 1
	}
	return 0
}

// String returns the path as slash-separated indices, e.g. "2/0".
func (p NodePath) String() string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, "/")
}

// ParseNodePath parses the String form of a path.
func ParseNodePath(s string) (NodePath, error) {
	if s == "" {
		return nil, ErrInvalidPath
	}
	parts := strings.Split(s, "/")
	path := make(NodePath, len(parts))
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 {
			return nil, ErrInvalidPath
		}
		path[i] = v
	}
	return path, nil
}

// Text is a run of text inside a Block.
type Text struct {
	block *Block
	data  string
}

// Data returns the text content.
func (t *Text) Data() string {
	return t.data
}

// Len returns the length of the text in runes.
func (t *Text) Len() int {
	return utf8.RuneCountInString(t.data)
}

// Path returns the node's path, or false if the node is not attached to a
// document.
func (t *Text) Path() (NodePath, bool) {
	if t == nil || t.block == nil || t.block.doc == nil {
		return nil, false
	}
	bi := t.block.index()
	if bi < 0 {
		return nil, false
	}
	ti := t.index()
	if ti < 0 {
		return nil, false
	}
	return NodePath{bi, ti}, true
}

func (t *Text) index() int {
	for i, c := range t.block.children {
		if c == t {
			return i
		}
	}
	return -1
}

// Block is a paragraph: a sequence of Text runs laid out as one flow.
type Block struct {
	doc      *Document
	children []*Text
}

// Texts returns the block's text nodes.
func (b *Block) Texts() []*Text {
	out := make([]*Text, len(b.children))
	copy(out, b.children)
	return out
}

// Text returns the concatenated text of all runs.
func (b *Block) Text() string {
	var sb strings.Builder
	for _, c := range b.children {
		sb.WriteString(c.data)
	}
	return sb.String()
}

func (b *Block) index() int {
	if b.doc == nil {
		return -1
	}
	for i, c := range b.doc.blocks {
		if c == b {
			return i
		}
	}
	return -1
}

// Boundary is a position inside a text node.
type Boundary struct {
	Node   *Text
	Offset int
}

// At creates a boundary.
func At(node *Text, offset int) Boundary {
	return Boundary{Node: node, Offset: offset}
}

// Valid returns true if the node is attached and the offset is within it.
func (b Boundary) Valid() bool {
	if _, ok := b.Node.Path(); !ok {
		return false
	}
	return b.Offset >= 0 && b.Offset <= b.Node.Len()
}

// Compare orders two attached boundaries in document order.
func (b Boundary) Compare(other Boundary) int {
	pa, _ := b.Node.Path()
	pb, _ := other.Node.Path()
	if c := pa.Compare(pb); c != 0 {
		return c
	}
	switch {
	case b.Offset < other.Offset:
		return -1
	case b.Offset > other.Offset:
		return 1
	}
	return 0
}
