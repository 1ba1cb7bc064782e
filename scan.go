package pagetl

import (
	"log/slog"
	"strings"

	"github.com/ZaguanLabs/pagetl/cache"
)

// scanAttrs lists the attributes collected from elements, in emit order.
var scanAttrs = []Kind{KindPlaceholder, KindTitle, KindAlt}

// Scanner walks DOM subtrees and collects translatable items.
type Scanner struct {
	classifier *Classifier
	results    *cache.Bounded[string, []TranslatableItem]
	logger     *slog.Logger
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithScanCacheCapacity caps the number of memoised scan results.
func WithScanCacheCapacity(n int) ScannerOption {
	return func(s *Scanner) {
		s.results = cache.NewBounded[string, []TranslatableItem](n)
	}
}

// WithScannerLogger sets the logger used for recovered traversal failures.
func WithScannerLogger(logger *slog.Logger) ScannerOption {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// NewScanner creates a Scanner that consults classifier for every node.
func NewScanner(classifier *Classifier, opts ...ScannerOption) *Scanner {
	if classifier == nil {
		classifier = NewClassifier(ClassifierConfig{})
	}
	s := &Scanner{
		classifier: classifier,
		results:    cache.NewBounded[string, []TranslatableItem](DefaultCacheCapacity),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Classifier returns the classifier the scanner consults.
func (s *Scanner) Classifier() *Classifier {
	return s.classifier
}

// Scan returns every translatable item under root. The walk is iterative
// (an explicit stack, pre-order) so deep documents cannot exhaust the
// goroutine stack. Nil nodes, nodes of unknown type and nodes deeper than
// opts.MaxDepth are skipped; Scan never fails.
func (s *Scanner) Scan(root Node, opts ScanOptions) []TranslatableItem {
	if root == nil {
		return nil
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}

	var key string
	if opts.EnableCache {
		key = ScanCacheKey(root, opts)
		if cached, ok := s.results.Get(key); ok {
			return append([]TranslatableItem(nil), cached...)
		}
	}

	items := s.walk(root, opts)

	if opts.EnableCache {
		s.results.Put(key, append([]TranslatableItem(nil), items...))
	}
	return items
}

// ClearCache drops all memoised scan results.
func (s *Scanner) ClearCache() {
	s.results.Clear()
}

// CacheLen returns the number of memoised scan results.
func (s *Scanner) CacheLen() int {
	return s.results.Len()
}

type pendingNode struct {
	node  Node
	depth int
}

func (s *Scanner) walk(root Node, opts ScanOptions) (items []TranslatableItem) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("pagetl: scan aborted", "root", rootMarker(root), "panic", r, "items", len(items))
		}
	}()

	stack := []pendingNode{{node: root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := p.node
		if n == nil || p.depth > opts.MaxDepth {
			continue
		}

		switch n.Type() {
		case NodeText:
			if s.classifier.IsSkippableSubtree(n) {
				continue
			}
			text := n.Text()
			if strings.TrimSpace(text) == "" || s.classifier.IsIgnorableNode(n, opts.EnableAdvancedFiltering) {
				continue
			}
			items = append(items, TranslatableItem{
				Kind:    KindText,
				Origin:  Origin{Node: n},
				Content: text,
				Depth:   p.depth,
			})

		case NodeElement:
			if s.classifier.IsSkippableSubtree(n) {
				continue
			}
			for _, kind := range scanAttrs {
				if kind == KindAlt && !opts.IncludeAlt {
					continue
				}
				value, ok := n.Attr(kind.Attr())
				if !ok || strings.TrimSpace(value) == "" || s.classifier.ignorable(value, opts.EnableAdvancedFiltering) {
					continue
				}
				items = append(items, TranslatableItem{
					Kind:    kind,
					Origin:  Origin{Node: n, Attr: kind.Attr()},
					Content: value,
					Depth:   p.depth,
				})
			}
			stack = pushChildren(stack, n, p.depth+1)

		case NodeDocument:
			stack = pushChildren(stack, n, p.depth+1)
		}
	}
	return items
}

// pushChildren pushes the children of n in reverse so they pop in document order.
func pushChildren(stack []pendingNode, n Node, depth int) []pendingNode {
	children := n.Children()
	for i := len(children) - 1; i >= 0; i-- {
		stack = append(stack, pendingNode{node: children[i], depth: depth})
	}
	return stack
}
