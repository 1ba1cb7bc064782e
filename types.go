package pagetl

import (
	"strconv"
	"time"
)

// TranslationStyle controls the tone and formality of translations.
type TranslationStyle string

const (
	// StyleFormal uses formal, professional language suitable for official documents.
	StyleFormal TranslationStyle = "formal"
	// StyleNeutral uses a neutral, professional tone suitable for general content.
	StyleNeutral TranslationStyle = "neutral"
	// StyleCasual uses casual, conversational language suitable for blogs/social media.
	StyleCasual TranslationStyle = "casual"
	// StyleMarketing uses persuasive, engaging language for promotional content.
	StyleMarketing TranslationStyle = "marketing"
	// StyleTechnical uses precise, technical language for documentation.
	StyleTechnical TranslationStyle = "technical"
)

// Kind says where a translatable item lives.
type Kind int

const (
	KindText Kind = iota
	KindPlaceholder
	KindTitle
	KindAlt
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPlaceholder:
		return "placeholder"
	case KindTitle:
		return "title"
	case KindAlt:
		return "alt"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Attr returns the attribute name backing the kind, or "" for text.
func (k Kind) Attr() string {
	switch k {
	case KindPlaceholder:
		return "placeholder"
	case KindTitle:
		return "title"
	case KindAlt:
		return "alt"
	default:
		return ""
	}
}

// Origin is the exact location a translation is written back to: a text
// node, or an element plus attribute name.
type Origin struct {
	Node Node
	Attr string // empty for text nodes
}

// key identifies the origin independently of the Node value.
func (o Origin) key() originKey {
	if o.Node == nil {
		return originKey{}
	}
	return originKey{id: o.Node.ID(), attr: o.Attr}
}

type originKey struct {
	id   NodeID
	attr string
}

// TranslatableItem is one unit of translatable content found by a scan.
type TranslatableItem struct {
	Kind    Kind
	Origin  Origin
	Content string // snapshot at scan time
	Depth   int    // distance from the scan root
}

// ScanOptions configures a single traversal.
type ScanOptions struct {
	MaxDepth                int  // runaway guard (default: 1000)
	EnableCache             bool // serve and store results in the scan cache
	EnableAdvancedFiltering bool // phone/date/time/currency/icon-glyph filters
	IncludeAlt              bool // collect alt attributes
}

// DefaultScanOptions returns the options used when none are given.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		MaxDepth:   DefaultMaxDepth,
		IncludeAlt: true,
	}
}

// cacheKey serialises the options for the scan cache key.
func (o ScanOptions) cacheKey() string {
	return "d=" + strconv.Itoa(o.MaxDepth) +
		",a=" + strconv.FormatBool(o.EnableAdvancedFiltering) +
		",alt=" + strconv.FormatBool(o.IncludeAlt)
}

const (
	// DefaultMaxDepth bounds traversal depth.
	DefaultMaxDepth = 1000
	// DefaultMaxAncestorLevels is how many ancestors skip markers are looked up on.
	DefaultMaxAncestorLevels = 5
	// DefaultCacheCapacity caps the scan and verdict caches.
	DefaultCacheCapacity = 10000
	// DefaultBatchSize is the fixed batch size.
	DefaultBatchSize = 50
	// DefaultBatchInterval is the pause between bulk batches.
	DefaultBatchInterval = 100 * time.Millisecond
	// DefaultBatchTimeout bounds one translation call.
	DefaultBatchTimeout = 30 * time.Second
	// DefaultTrickleWindow is the debounce window of the trickle path.
	DefaultTrickleWindow = 250 * time.Millisecond
	// DefaultTrickleThreshold flushes the trickle buffer immediately.
	DefaultTrickleThreshold = 25
)

// ItemResult is the outcome for one item of a scheduled translation.
type ItemResult struct {
	Item       TranslatableItem
	Translated string // set when OK
	OK         bool
	Err        error
}

// Report summarises a bulk or trickle dispatch.
type Report struct {
	TotalItems int
	Batches    int
	Translated int // items written back
	Cached     int // items served by the translation memory
	Failed     int // items left untouched
	Elapsed    time.Duration
}

// add folds another report into r.
func (r *Report) add(o Report) {
	r.TotalItems += o.TotalItems
	r.Batches += o.Batches
	r.Translated += o.Translated
	r.Cached += o.Cached
	r.Failed += o.Failed
	r.Elapsed += o.Elapsed
}

// ProcessedContent is the result of a translation operation.
type ProcessedContent struct {
	Content         string // Translated content
	TranslatedCount int    // Number of items written back
	CachedCount     int    // Number of translation memory hits
	FailedCount     int    // Number of items left in the original language
	TotalNodes      int    // Total translatable items found
}

// RTLLanguages contains language codes that use right-to-left text direction.
var RTLLanguages = map[string]bool{
	"ar": true, // Arabic
	"he": true, // Hebrew
	"fa": true, // Persian/Farsi
	"ur": true, // Urdu
	"ps": true, // Pashto
	"sd": true, // Sindhi
	"ug": true, // Uyghur
}
