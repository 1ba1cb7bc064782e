package pagetl

import "strconv"

// NodeID identifies a node for the lifetime of its document.
type NodeID uint64

func (id NodeID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// NodeType is the coarse node category the engine cares about.
type NodeType int

const (
	// NodeOther covers comments, doctypes, documents and anything unknown.
	NodeOther NodeType = iota
	// NodeElement is an element node.
	NodeElement
	// NodeText is a text node.
	NodeText
	// NodeDocument is a document or fragment container; it is descended
	// into but never classified.
	NodeDocument
)

// Node is the capability surface the engine needs from a DOM. The document
// owns the node; the engine only holds references and never assumes they
// stay attached.
//
// Parent returns nil at the top of the tree. Tag returns the lowercase tag
// name for elements and "" otherwise. SetText and SetAttr return ErrDetached
// when the node is no longer part of its document.
type Node interface {
	ID() NodeID
	Type() NodeType
	Tag() string
	Parent() Node
	Children() []Node
	Attr(name string) (string, bool)
	SetAttr(name, value string) error
	Text() string
	SetText(text string) error
}

// Mutation is one event delivered by a mutation source.
type Mutation struct {
	Added   []Node
	Removed []Node
}
