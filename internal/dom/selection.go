package dom

import "errors"

// Errors returned by document operations.
var (
	// ErrInvalidPath indicates a node path string could not be parsed.
	ErrInvalidPath = errors.New("invalid node path")

	// ErrOutOfRange indicates a block or text index that does not exist.
	ErrOutOfRange = errors.New("index out of range")
)

// Selection is a user selection between an anchor (where it started) and a
// focus (where it ended). The focus may precede the anchor.
type Selection struct {
	Anchor Boundary
	Focus  Boundary
}

// NewSelection creates a selection.
func NewSelection(anchor, focus Boundary) *Selection {
	return &Selection{Anchor: anchor, Focus: focus}
}

// IsCollapsed returns true if the selection selects nothing.
func (s *Selection) IsCollapsed() bool {
	if s == nil {
		return true
	}
	return s.Anchor.Node == s.Focus.Node && s.Anchor.Offset == s.Focus.Offset
}

// Valid returns true if both ends are attached and within their nodes.
func (s *Selection) Valid() bool {
	return s != nil && s.Anchor.Valid() && s.Focus.Valid()
}

// Backward returns true if the focus precedes the anchor.
func (s *Selection) Backward() bool {
	if !s.Valid() {
		return false
	}
	return s.Focus.Compare(s.Anchor) < 0
}

// Ordered returns the selection ends in document order.
func (s *Selection) Ordered() (start, end Boundary) {
	if s.Backward() {
		return s.Focus, s.Anchor
	}
	return s.Anchor, s.Focus
}
