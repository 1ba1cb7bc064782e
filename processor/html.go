package processor

import (
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/ZaguanLabs/pagetl"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLProcessor parses HTML into documents the engine can scan and write to.
type HTMLProcessor struct{}

// NewHTMLProcessor creates a new HTML processor.
func NewHTMLProcessor() *HTMLProcessor {
	return &HTMLProcessor{}
}

// Parse implements pagetl.ContentProcessor.
func (p *HTMLProcessor) Parse(content string) (pagetl.Document, error) {
	return p.ParseDocument(content)
}

// ParseDocument parses content into a *Document.
func (p *HTMLProcessor) ParseDocument(content string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, &pagetl.ProcessorError{
			Message:     "failed to parse HTML",
			Cause:       err,
			ContentType: "html",
		}
	}
	return &Document{
		doc:  doc,
		root: doc.Nodes[0],
		ids:  make(map[*html.Node]pagetl.NodeID),
	}, nil
}

// ContentType returns "html".
func (p *HTMLProcessor) ContentType() string {
	return "html"
}

// Document is a parsed HTML page. Node ids are assigned on first use and
// stay stable for the lifetime of the document. Reads and writes through
// its nodes are safe for concurrent use.
type Document struct {
	doc  *goquery.Document
	root *html.Node

	mu sync.RWMutex // guards the tree

	idMu sync.Mutex
	ids  map[*html.Node]pagetl.NodeID
	next pagetl.NodeID
}

// Root returns the document node.
func (d *Document) Root() pagetl.Node {
	return d.wrap(d.root)
}

// Find returns the nodes matching a CSS selector.
func (d *Document) Find(selector string) []pagetl.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()

	sel := d.doc.Find(selector)
	nodes := make([]pagetl.Node, 0, sel.Length())
	for _, n := range sel.Nodes {
		nodes = append(nodes, d.wrap(n))
	}
	return nodes
}

// Render serialises the document. When targetLang is set, the <html>
// element gets matching lang and dir attributes.
func (d *Document) Render(targetLang string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if targetLang != "" {
		htmlTag := d.doc.Find("html")
		if htmlTag.Length() > 0 {
			htmlTag.SetAttr("lang", pagetl.ToHTMLLang(targetLang))
			htmlTag.SetAttr("dir", pagetl.GetDirection(targetLang))
		}
	}

	out, err := d.doc.Html()
	if err != nil {
		return "", &pagetl.ProcessorError{
			Message:     "failed to serialize HTML",
			Cause:       err,
			ContentType: "html",
		}
	}
	return out, nil
}

// Append parses fragment in the context of parent and appends the result
// to it. The returned mutation lists the new top-level nodes.
func (d *Document) Append(parent pagetl.Node, fragment string) (pagetl.Mutation, error) {
	p, err := d.unwrap(parent)
	if err != nil {
		return pagetl.Mutation{}, err
	}
	if p.Type != html.ElementNode {
		return pagetl.Mutation{}, &pagetl.ProcessorError{Message: "append target is not an element", ContentType: "html"}
	}

	ctx := &html.Node{Type: html.ElementNode, Data: p.Data, DataAtom: atom.Lookup([]byte(p.Data))}
	parsed, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return pagetl.Mutation{}, &pagetl.ProcessorError{Message: "failed to parse fragment", Cause: err, ContentType: "html"}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.attached(p) {
		return pagetl.Mutation{}, pagetl.ErrDetached
	}

	var m pagetl.Mutation
	for _, n := range parsed {
		p.AppendChild(n)
		m.Added = append(m.Added, d.wrap(n))
	}
	return m, nil
}

// Remove detaches n from the document. Later writes through n fail with
// pagetl.ErrDetached.
func (d *Document) Remove(n pagetl.Node) (pagetl.Mutation, error) {
	hn, err := d.unwrap(n)
	if err != nil {
		return pagetl.Mutation{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if hn.Parent == nil || !d.attached(hn) {
		return pagetl.Mutation{}, pagetl.ErrDetached
	}
	hn.Parent.RemoveChild(hn)
	return pagetl.Mutation{Removed: []pagetl.Node{n}}, nil
}

func (d *Document) unwrap(n pagetl.Node) (*html.Node, error) {
	hn, ok := n.(*node)
	if !ok || hn == nil || hn.d != d {
		return nil, &pagetl.ProcessorError{Message: "node does not belong to this document", ContentType: "html"}
	}
	return hn.n, nil
}

func (d *Document) wrap(n *html.Node) pagetl.Node {
	if n == nil {
		return nil
	}
	return &node{d: d, n: n}
}

func (d *Document) id(n *html.Node) pagetl.NodeID {
	d.idMu.Lock()
	defer d.idMu.Unlock()
	id, ok := d.ids[n]
	if !ok {
		d.next++
		id = d.next
		d.ids[n] = id
	}
	return id
}

// attached reports whether n still hangs off the document root. Must be
// called with mu held.
func (d *Document) attached(n *html.Node) bool {
	for n != nil {
		if n == d.root {
			return true
		}
		n = n.Parent
	}
	return false
}

// node adapts *html.Node to pagetl.Node.
type node struct {
	d *Document
	n *html.Node
}

func (n *node) ID() pagetl.NodeID {
	return n.d.id(n.n)
}

func (n *node) Type() pagetl.NodeType {
	switch n.n.Type {
	case html.ElementNode:
		return pagetl.NodeElement
	case html.TextNode:
		return pagetl.NodeText
	case html.DocumentNode:
		return pagetl.NodeDocument
	default:
		return pagetl.NodeOther
	}
}

func (n *node) Tag() string {
	if n.n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(n.n.Data)
}

func (n *node) Parent() pagetl.Node {
	n.d.mu.RLock()
	p := n.n.Parent
	n.d.mu.RUnlock()
	return n.d.wrap(p)
}

func (n *node) Children() []pagetl.Node {
	n.d.mu.RLock()
	defer n.d.mu.RUnlock()

	var children []pagetl.Node
	for c := n.n.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, n.d.wrap(c))
	}
	return children
}

func (n *node) Attr(name string) (string, bool) {
	n.d.mu.RLock()
	defer n.d.mu.RUnlock()

	for _, a := range n.n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (n *node) SetAttr(name, value string) error {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()

	if !n.d.attached(n.n) {
		return pagetl.ErrDetached
	}
	for i, a := range n.n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.n.Attr[i].Val = value
			return nil
		}
	}
	n.n.Attr = append(n.n.Attr, html.Attribute{Key: name, Val: value})
	return nil
}

func (n *node) Text() string {
	if n.n.Type != html.TextNode {
		return ""
	}
	n.d.mu.RLock()
	defer n.d.mu.RUnlock()
	return n.n.Data
}

func (n *node) SetText(text string) error {
	if n.n.Type != html.TextNode {
		return &pagetl.ProcessorError{Message: "not a text node", ContentType: "html"}
	}
	n.d.mu.Lock()
	defer n.d.mu.Unlock()

	if !n.d.attached(n.n) {
		return pagetl.ErrDetached
	}
	n.n.Data = text
	return nil
}

// Verify HTMLProcessor implements ContentProcessor
var _ ContentProcessor = (*HTMLProcessor)(nil)
