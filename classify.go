package pagetl

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ZaguanLabs/pagetl/cache"
)

// DefaultSkipClasses are the class markers that exclude an element and its subtree.
var DefaultSkipClasses = []string{"notranslate", "dont-translate", "no-translate", "skiptranslate"}

// IgnoredTags contains HTML tags whose content is never translated.
var IgnoredTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// StrictIgnoredTags extends IgnoredTags for pages where embedded media,
// code and form widgets must be left alone entirely.
var StrictIgnoredTags = map[string]bool{
	"svg":      true,
	"img":      true,
	"code":     true,
	"pre":      true,
	"form":     true,
	"input":    true,
	"textarea": true,
	"select":   true,
	"canvas":   true,
	"video":    true,
	"audio":    true,
	"iframe":   true,
	"object":   true,
	"embed":    true,
	"math":     true,
	"kbd":      true,
	"samp":     true,
}

var (
	emailPattern    = regexp.MustCompile(`[^\s@]+@[^\s@]+\.[^\s@]+`)
	govDotPattern   = regexp.MustCompile(`(?i)\s*[\[(]\s*dot\s*[\])]\s*`)
	govAtPattern    = regexp.MustCompile(`(?i)\s*[\[(]\s*at\s*[\])]\s*`)
	phonePattern    = regexp.MustCompile(`^\+?[\d\s().\-]{7,}$`)
	datePattern     = regexp.MustCompile(`^\d{1,4}[./\-]\d{1,2}[./\-]\d{1,4}$`)
	timePattern     = regexp.MustCompile(`(?i)^\d{1,2}:\d{2}(:\d{2})?\s*([ap]\.?m\.?)?$`)
	currencyPattern = regexp.MustCompile(`(?i)^(?:[-+]?(?:[$€£¥₹₩]|usd|eur|gbp|jpy|chf)\s?\d[\d.,\s]*|[-+]?\d[\d.,\s]*\s?(?:[$€£¥₹₩]|usd|eur|gbp|jpy|chf))$`)
)

// ClassifierConfig configures a Classifier.
type ClassifierConfig struct {
	SkipClasses       []string // nil means DefaultSkipClasses
	StrictTags        bool     // add StrictIgnoredTags to the skip set
	Advanced          bool     // default for the advanced text filters
	SourceLang        string   // declared page language (default: "en")
	LanguageDetection bool     // disables the non-source-language heuristic
	MaxAncestorLevels int      // default: DefaultMaxAncestorLevels
	VerdictCapacity   int      // default: DefaultCacheCapacity
}

type textVerdictKey struct {
	id       NodeID
	advanced bool
}

type textVerdict struct {
	text      string
	ignorable bool
}

// Classifier answers the engine's two questions about a node: is it (or a
// near ancestor) marked as untranslatable, and is its text worth sending.
// Verdicts are memoised per node id.
type Classifier struct {
	skipClasses       map[string]bool
	skipTags          map[string]bool
	advanced          bool
	sourceLang        string
	languageDetection bool
	maxAncestors      int

	elements *cache.Bounded[NodeID, bool]
	subtrees *cache.Bounded[NodeID, bool]
	texts    *cache.Bounded[textVerdictKey, textVerdict]
}

// NewClassifier creates a Classifier from cfg.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	classes := cfg.SkipClasses
	if classes == nil {
		classes = DefaultSkipClasses
	}
	skipClasses := make(map[string]bool, len(classes))
	for _, c := range classes {
		skipClasses[c] = true
	}

	skipTags := make(map[string]bool, len(IgnoredTags)+len(StrictIgnoredTags))
	for tag := range IgnoredTags {
		skipTags[tag] = true
	}
	if cfg.StrictTags {
		for tag := range StrictIgnoredTags {
			skipTags[tag] = true
		}
	}

	sourceLang := cfg.SourceLang
	if sourceLang == "" {
		sourceLang = "en"
	}
	levels := cfg.MaxAncestorLevels
	if levels <= 0 {
		levels = DefaultMaxAncestorLevels
	}
	capacity := cfg.VerdictCapacity
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}

	return &Classifier{
		skipClasses:       skipClasses,
		skipTags:          skipTags,
		advanced:          cfg.Advanced,
		sourceLang:        sourceLang,
		languageDetection: cfg.LanguageDetection,
		maxAncestors:      levels,
		elements:          cache.NewBounded[NodeID, bool](capacity),
		subtrees:          cache.NewBounded[NodeID, bool](capacity),
		texts:             cache.NewBounded[textVerdictKey, textVerdict](capacity),
	}
}

// IsSkippableElement reports whether n is an element carrying a skip marker
// or a skipped tag.
func (c *Classifier) IsSkippableElement(n Node) bool {
	if n == nil || n.Type() != NodeElement {
		return false
	}
	if v, ok := c.elements.Get(n.ID()); ok {
		return v
	}
	v := c.skippableElement(n)
	c.elements.Put(n.ID(), v)
	return v
}

func (c *Classifier) skippableElement(n Node) bool {
	if c.skipTags[n.Tag()] {
		return true
	}
	if v, ok := n.Attr("translate"); ok && strings.EqualFold(strings.TrimSpace(v), "no") {
		return true
	}
	if _, ok := n.Attr("data-no-translate"); ok {
		return true
	}
	if classes, ok := n.Attr("class"); ok {
		for _, class := range strings.Fields(classes) {
			if c.skipClasses[class] {
				return true
			}
		}
	}
	return false
}

// IsSkippableSubtree reports whether n or one of its first MaxAncestorLevels
// ancestors is a skippable element. Markers further up are not seen; the cap
// keeps a full-document scan linear in the number of nodes. A nil node is
// skippable.
func (c *Classifier) IsSkippableSubtree(n Node) bool {
	if n == nil {
		return true
	}
	if v, ok := c.subtrees.Get(n.ID()); ok {
		return v
	}
	v := false
	cur := n
	for level := 0; cur != nil && level <= c.maxAncestors; level++ {
		if c.IsSkippableElement(cur) {
			v = true
			break
		}
		cur = cur.Parent()
	}
	c.subtrees.Put(n.ID(), v)
	return v
}

// IsIgnorableText reports whether text should never be sent for translation,
// using the classifier's default filtering mode.
func (c *Classifier) IsIgnorableText(text string) bool {
	return c.ignorable(text, c.advanced)
}

// IsIgnorableNode is IsIgnorableText for the content of text node n, with
// the verdict memoised on the node. A nil node is ignorable.
func (c *Classifier) IsIgnorableNode(n Node, advanced bool) bool {
	if n == nil {
		return true
	}
	text := n.Text()
	key := textVerdictKey{id: n.ID(), advanced: advanced}
	if v, ok := c.texts.Get(key); ok && v.text == text {
		return v.ignorable
	}
	ignorable := c.ignorable(text, advanced)
	c.texts.Put(key, textVerdict{text: text, ignorable: ignorable})
	return ignorable
}

// Forget drops every verdict held for the given nodes.
func (c *Classifier) Forget(ids ...NodeID) {
	for _, id := range ids {
		c.elements.Delete(id)
		c.subtrees.Delete(id)
		c.texts.Delete(textVerdictKey{id: id})
		c.texts.Delete(textVerdictKey{id: id, advanced: true})
	}
}

// Reset drops all verdicts.
func (c *Classifier) Reset() {
	c.elements.Clear()
	c.subtrees.Clear()
	c.texts.Clear()
}

func (c *Classifier) ignorable(text string, advanced bool) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || isNumeric(trimmed) || containsEmail(trimmed) {
		return true
	}
	if !c.languageDetection && IsLatinScript(c.sourceLang) && !hasLatinOrDigit(trimmed) {
		return true
	}
	if advanced {
		return isIconGlyph(trimmed) ||
			phonePattern.MatchString(trimmed) && countDigits(trimmed) >= 7 ||
			datePattern.MatchString(trimmed) ||
			timePattern.MatchString(trimmed) ||
			currencyPattern.MatchString(trimmed)
	}
	return false
}

// containsEmail normalises "[dot]"/"[at]" obfuscation and then looks for an
// address anywhere in the text.
func containsEmail(text string) bool {
	normalized := govDotPattern.ReplaceAllString(text, ".")
	normalized = govAtPattern.ReplaceAllString(normalized, "@")
	return emailPattern.MatchString(normalized)
}

// isNumeric reports whether s is digits plus number punctuation only.
func isNumeric(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsSpace(r), strings.ContainsRune(".,+-%", r):
		default:
			return false
		}
	}
	return digits > 0
}

func hasLatinOrDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) || unicode.Is(unicode.Latin, r) {
			return true
		}
	}
	return false
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
