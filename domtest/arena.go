// Package domtest provides a synthetic in-memory DOM for exercising the
// engine without an HTML parser.
package domtest

import (
	"sync"

	"github.com/ZaguanLabs/pagetl"
)

// Attrs is an attribute set for Element.
type Attrs map[string]string

// Arena allocates nodes with sequential ids. All nodes of an arena share one
// lock, so concurrent reads and writes are safe.
type Arena struct {
	mu     sync.Mutex
	next   pagetl.NodeID
	writes int
}

// New creates an empty arena.
func New() *Arena {
	return &Arena{}
}

// Node is an arena node. It implements pagetl.Node.
type Node struct {
	arena    *Arena
	id       pagetl.NodeID
	typ      pagetl.NodeType
	tag      string
	attrs    map[string]string
	text     string
	parent   *Node
	children []*Node
	removed  bool

	// PanicOnChildren makes Children panic, for exercising recovery paths.
	PanicOnChildren bool
}

func (a *Arena) alloc(typ pagetl.NodeType) *Node {
	a.mu.Lock()
	a.next++
	id := a.next
	a.mu.Unlock()
	return &Node{arena: a, id: id, typ: typ}
}

// Document returns a document node holding children.
func (a *Arena) Document(children ...*Node) *Node {
	return a.alloc(pagetl.NodeDocument).Append(children...)
}

// Element returns an element node. attrs may be nil.
func (a *Arena) Element(tag string, attrs Attrs, children ...*Node) *Node {
	n := a.alloc(pagetl.NodeElement)
	n.tag = tag
	n.attrs = make(map[string]string, len(attrs))
	for k, v := range attrs {
		n.attrs[k] = v
	}
	return n.Append(children...)
}

// Text returns a text node.
func (a *Arena) Text(text string) *Node {
	n := a.alloc(pagetl.NodeText)
	n.text = text
	return n
}

// Comment returns a node of a type the engine does not handle.
func (a *Arena) Comment(text string) *Node {
	n := a.alloc(pagetl.NodeOther)
	n.text = text
	return n
}

// Writes returns the number of successful SetText/SetAttr calls.
func (a *Arena) Writes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.writes
}

// Chain nests depth elements of tag and puts leaf at the bottom. It returns
// the outermost element.
func (a *Arena) Chain(depth int, tag string, leaf *Node) *Node {
	n := leaf
	for i := 0; i < depth; i++ {
		n = a.Element(tag, nil, n)
	}
	return n
}

// Append attaches children to n and returns n.
func (n *Node) Append(children ...*Node) *Node {
	n.arena.mu.Lock()
	defer n.arena.mu.Unlock()
	for _, c := range children {
		c.parent = n
		c.removed = false
		n.children = append(n.children, c)
	}
	return n
}

// Remove detaches n from its parent. Writes to n or its descendants fail
// with pagetl.ErrDetached afterwards.
func (n *Node) Remove() {
	n.arena.mu.Lock()
	defer n.arena.mu.Unlock()
	n.removed = true
	if p := n.parent; p != nil {
		for i, c := range p.children {
			if c == n {
				p.children = append(p.children[:i:i], p.children[i+1:]...)
				break
			}
		}
		n.parent = nil
	}
}

// detached must be called with the arena lock held.
func (n *Node) detached() bool {
	for c := n; c != nil; c = c.parent {
		if c.removed {
			return true
		}
	}
	return false
}

func (n *Node) ID() pagetl.NodeID { return n.id }

func (n *Node) Type() pagetl.NodeType { return n.typ }

func (n *Node) Tag() string { return n.tag }

func (n *Node) Parent() pagetl.Node {
	n.arena.mu.Lock()
	p := n.parent
	n.arena.mu.Unlock()
	if p == nil {
		return nil
	}
	return p
}

func (n *Node) Children() []pagetl.Node {
	if n.PanicOnChildren {
		panic("domtest: children unavailable")
	}
	n.arena.mu.Lock()
	defer n.arena.mu.Unlock()
	out := make([]pagetl.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *Node) Attr(name string) (string, bool) {
	n.arena.mu.Lock()
	defer n.arena.mu.Unlock()
	v, ok := n.attrs[name]
	return v, ok
}

func (n *Node) SetAttr(name, value string) error {
	n.arena.mu.Lock()
	defer n.arena.mu.Unlock()
	if n.detached() {
		return pagetl.ErrDetached
	}
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[name] = value
	n.arena.writes++
	return nil
}

func (n *Node) Text() string {
	n.arena.mu.Lock()
	defer n.arena.mu.Unlock()
	return n.text
}

func (n *Node) SetText(text string) error {
	n.arena.mu.Lock()
	defer n.arena.mu.Unlock()
	if n.detached() {
		return pagetl.ErrDetached
	}
	n.text = text
	n.arena.writes++
	return nil
}

var _ pagetl.Node = (*Node)(nil)
