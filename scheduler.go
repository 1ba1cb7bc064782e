package pagetl

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

var (
	errEmptyTranslation = errors.New("empty translation")
	errStaleDispatch    = errors.New("superseded by a newer dispatch")
	errStaleContent     = errors.New("content changed since scan")
)

// SchedulerConfig controls batching, pacing and the trickle path.
type SchedulerConfig struct {
	BatchSize         int           // fixed batch size (default: 50)
	MaxBatchSize      int           // upper bound for adaptive sizing (default: BatchSize)
	Adaptive          bool          // shrink batches as average content grows
	Interval          time.Duration // gap between dispatches (default: 100ms)
	Timeout           time.Duration // per-call bound (default: 30s)
	TrickleWindow     time.Duration // debounce window (default: 250ms)
	TrickleThreshold  int           // immediate flush size (default: 25)
	ParallelThreshold int           // batch size from which cache lookups fan out (default: 16)

	SourceLang    string
	ExcludedTerms []string
	Context       string
	Glossary      map[string]string
	Style         TranslationStyle

	Cache   TranslationCache
	Logger  *slog.Logger
	OnPhase func(State)  // called on every phase change of a bulk Schedule (optional)
	OnFlush func(Report) // called after every trickle flush (optional)
}

func (c *SchedulerConfig) defaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = c.BatchSize
	}
	if c.Interval < 0 {
		c.Interval = 0
	} else if c.Interval == 0 {
		c.Interval = DefaultBatchInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultBatchTimeout
	}
	if c.TrickleWindow <= 0 {
		c.TrickleWindow = DefaultTrickleWindow
	}
	if c.TrickleThreshold <= 0 {
		c.TrickleThreshold = DefaultTrickleThreshold
	}
	if c.ParallelThreshold <= 0 {
		c.ParallelThreshold = 16
	}
	if c.SourceLang == "" {
		c.SourceLang = "en"
	}
	if c.Style == "" {
		c.Style = StyleNeutral
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Scheduler groups items into batches, sends them to the provider and writes
// the results back. All DOM writes go through one lock; provider calls of
// different flushes may overlap.
type Scheduler struct {
	cfg       SchedulerConfig
	provider  AIProvider
	sanitizer *bluemonday.Policy
	logger    *slog.Logger

	writeMu sync.Mutex

	mu       sync.Mutex
	latest   map[originKey]string // newest dispatch id per origin
	buf      []TranslatableItem
	buffered map[originKey]bool
	target   string
	timer    *time.Timer
	timerGen uint64
	closed   bool
	inflight sync.WaitGroup
	flushing atomic.Int32
}

// NewScheduler creates a Scheduler sending batches to provider.
func NewScheduler(provider AIProvider, cfg SchedulerConfig) *Scheduler {
	cfg.defaults()
	return &Scheduler{
		cfg:       cfg,
		provider:  provider,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    cfg.Logger,
		latest:    make(map[originKey]string),
		buffered:  make(map[originKey]bool),
	}
}

// BatchSize returns the batch size used for items. With adaptive sizing,
// longer average content yields smaller batches.
func (s *Scheduler) BatchSize(items []TranslatableItem) int {
	if !s.cfg.Adaptive || len(items) == 0 {
		return s.cfg.BatchSize
	}
	return AdaptiveBatchSize(items, s.cfg.MaxBatchSize)
}

// AdaptiveBatchSize picks a batch size from the average content length:
// above 100 characters 25, above 50 35, above 20 50, otherwise max. The
// result never exceeds max.
func AdaptiveBatchSize(items []TranslatableItem, max int) int {
	if len(items) == 0 {
		return max
	}
	total := 0
	for _, item := range items {
		total += len([]rune(strings.TrimSpace(item.Content)))
	}
	avg := total / len(items)

	size := max
	switch {
	case avg > 100:
		size = 25
	case avg > 50:
		size = 35
	case avg > 20:
		size = 50
	}
	if size > max {
		size = max
	}
	return size
}

// Partition splits items into consecutive batches of at most size items.
// The batches share the backing array of items.
func Partition(items []TranslatableItem, size int) [][]TranslatableItem {
	if size <= 0 {
		size = DefaultBatchSize
	}
	batches := make([][]TranslatableItem, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end:end])
	}
	return batches
}

// Schedule translates items in bulk: batches go out one after another,
// spaced by the configured interval. The first batch is sent at once. A
// failed batch is logged and its items are reported as failed; the remaining
// batches still run. The returned results are aligned with items.
func (s *Scheduler) Schedule(ctx context.Context, items []TranslatableItem, targetLang string) ([]ItemResult, Report) {
	return s.schedule(ctx, items, targetLang, s.cfg.OnPhase)
}

// schedule runs one pass. Pacing is local to the pass: concurrent passes do
// not share interval slots.
func (s *Scheduler) schedule(ctx context.Context, items []TranslatableItem, targetLang string, onPhase func(State)) ([]ItemResult, Report) {
	phase := func(st State) {
		if onPhase != nil {
			onPhase(st)
		}
	}

	start := time.Now()
	results := make([]ItemResult, len(items))
	for i := range items {
		results[i].Item = items[i]
	}
	rep := Report{TotalItems: len(items)}

	if len(items) == 0 || SameLanguage(s.cfg.SourceLang, targetLang) {
		rep.Elapsed = time.Since(start)
		return results, rep
	}

	phase(StateBatching)
	batches := Partition(items, s.BatchSize(items))
	limiter := NewRateLimiter(RateLimitConfig{Interval: s.cfg.Interval})

	offset := 0
	for i, batch := range batches {
		out := results[offset : offset+len(batch)]
		offset += len(batch)

		if err := limiter.Wait(ctx); err != nil {
			failAll(out, err)
			rep.Failed += len(out)
			continue
		}
		rep.add(s.dispatch(ctx, i, batch, targetLang, out, phase))
	}

	rep.Elapsed = time.Since(start)
	phase(StateIdle)
	return results, rep
}

// dispatch sends one batch and writes its results back into the DOM.
func (s *Scheduler) dispatch(ctx context.Context, index int, batch []TranslatableItem, targetLang string, out []ItemResult, phase func(State)) Report {
	rep := Report{Batches: 1}

	ids := s.tag(batch)

	phase(StateTranslating)
	translations, cached, err := s.translate(ctx, batch, targetLang)
	if err != nil {
		err = &BatchError{Index: index, Size: len(batch), Cause: err}
		s.logger.Warn("pagetl: batch left untranslated",
			"batch", index, "items", len(batch), "target", targetLang, "error", err)
		s.untag(batch, ids)
		failAll(out, err)
		rep.Failed = len(batch)
		return rep
	}
	rep.Cached = cached

	phase(StateWritingBack)
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	for i, item := range batch {
		translated := s.sanitize(translations[i])
		if err := s.writeBack(item, ids[i], translated); err != nil {
			out[i].Err = err
			rep.Failed++
			s.logger.Debug("pagetl: write-back skipped",
				"kind", item.Kind.String(), "depth", item.Depth, "reason", err)
			continue
		}
		out[i].OK = true
		out[i].Translated = translated
		rep.Translated++
	}
	return rep
}

// tag assigns every item of batch a fresh dispatch id and records it as the
// newest dispatch for its origin.
func (s *Scheduler) tag(batch []TranslatableItem) []string {
	ids := make([]string, len(batch))
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range batch {
		ids[i] = uuid.NewString()
		s.latest[item.Origin.key()] = ids[i]
	}
	return ids
}

// untag forgets dispatch ids that will never be written back.
func (s *Scheduler) untag(batch []TranslatableItem, ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range batch {
		key := item.Origin.key()
		if s.latest[key] == ids[i] {
			delete(s.latest, key)
		}
	}
}

// writeBack applies translated to the item's origin. It is only applied if
// id is still the newest dispatch for the origin and the origin still holds
// the scanned content. Must be called with writeMu held.
func (s *Scheduler) writeBack(item TranslatableItem, id, translated string) error {
	key := item.Origin.key()

	s.mu.Lock()
	current := s.latest[key]
	if current == id {
		delete(s.latest, key)
	}
	s.mu.Unlock()

	if current != id {
		return errStaleDispatch
	}
	if strings.TrimSpace(translated) == "" {
		return errEmptyTranslation
	}

	n := item.Origin.Node
	if n == nil {
		return ErrDetached
	}
	if item.Origin.Attr == "" {
		if n.Text() != item.Content {
			return errStaleContent
		}
		return n.SetText(preserveWhitespace(item.Content, translated))
	}
	if v, ok := n.Attr(item.Origin.Attr); !ok || v != item.Content {
		return errStaleContent
	}
	return n.SetAttr(item.Origin.Attr, translated)
}

// translate returns translations aligned with batch, consulting the
// translation memory first. Texts are sent trimmed and once per batch.
func (s *Scheduler) translate(ctx context.Context, batch []TranslatableItem, targetLang string) ([]string, int, error) {
	texts := make([]string, len(batch))
	hashes := make([]string, len(batch))
	for i, item := range batch {
		texts[i] = strings.TrimSpace(item.Content)
		hashes[i] = HashText(texts[i])
	}

	known := s.lookup(hashes, targetLang)

	var (
		missTexts    []string
		missContexts []string
		missHashes   []string
		seen         = make(map[string]bool)
	)
	cached := 0
	for i, h := range hashes {
		if _, ok := known[h]; ok {
			cached++
			continue
		}
		if seen[h] {
			continue
		}
		seen[h] = true
		missTexts = append(missTexts, texts[i])
		missContexts = append(missContexts, itemContext(batch[i]))
		missHashes = append(missHashes, h)
	}

	if len(missTexts) > 0 {
		if s.provider == nil {
			return nil, 0, &ProviderError{Message: "no provider configured"}
		}

		callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		results, err := s.provider.Translate(callCtx, TranslateRequest{
			Texts:         missTexts,
			TargetLang:    targetLang,
			SourceLang:    s.cfg.SourceLang,
			ExcludedTerms: s.cfg.ExcludedTerms,
			Context:       s.cfg.Context,
			TextContexts:  missContexts,
			Glossary:      s.cfg.Glossary,
			Style:         s.cfg.Style,
		})
		cancel()
		if err != nil {
			return nil, 0, err
		}
		if len(results) != len(missTexts) {
			return nil, 0, &CountMismatchError{Expected: len(missTexts), Got: len(results)}
		}

		for i, h := range missHashes {
			known[h] = results[i]
			if s.cfg.Cache != nil && strings.TrimSpace(results[i]) != "" {
				key := CacheKey(h, targetLang)
				if err := s.cfg.Cache.Set(key, results[i]); err != nil {
					s.logger.Warn("pagetl: translation memory write failed",
						"error", &CacheError{Message: "set " + key, Cause: err})
				}
			}
		}
	}

	out := make([]string, len(batch))
	for i, h := range hashes {
		out[i] = known[h]
	}
	return out, cached, nil
}

// lookup resolves hashes against the translation memory.
func (s *Scheduler) lookup(hashes []string, targetLang string) map[string]string {
	if s.cfg.Cache == nil {
		return make(map[string]string)
	}
	if len(hashes) >= s.cfg.ParallelThreshold {
		return ParallelCacheLookup(s.cfg.Cache, hashes, targetLang)
	}
	hits := make(map[string]string)
	for _, h := range hashes {
		if _, done := hits[h]; done {
			continue
		}
		if val, ok := s.cfg.Cache.Get(CacheKey(h, targetLang)); ok {
			hits[h] = val
		}
	}
	return hits
}

// Enqueue adds items to the trickle buffer. The buffer is flushed at once
// when it reaches the threshold, cancelling the pending debounce timer;
// otherwise the timer is restarted and flushes after a quiet window. Items
// whose origin is already buffered are dropped.
func (s *Scheduler) Enqueue(items []TranslatableItem, targetLang string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	for _, item := range items {
		key := item.Origin.key()
		if s.buffered[key] {
			continue
		}
		s.buffered[key] = true
		s.buf = append(s.buf, item)
	}
	s.target = targetLang

	if len(s.buf) >= s.cfg.TrickleThreshold {
		pending := s.takeLocked()
		s.inflight.Add(1)
		s.mu.Unlock()
		go func() {
			defer s.inflight.Done()
			s.flush(context.Background(), pending, targetLang)
		}()
		return
	}

	if len(s.buf) > 0 {
		s.restartTimerLocked()
	}
	s.mu.Unlock()
}

// restartTimerLocked (re)arms the debounce timer. Must be called with mu held.
func (s *Scheduler) restartTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timerGen++
	gen := s.timerGen
	s.timer = time.AfterFunc(s.cfg.TrickleWindow, func() { s.onTimer(gen) })
}

func (s *Scheduler) onTimer(gen uint64) {
	s.mu.Lock()
	if gen != s.timerGen || s.closed {
		s.mu.Unlock()
		return
	}
	pending := s.takeLocked()
	target := s.target
	s.inflight.Add(1)
	s.mu.Unlock()

	defer s.inflight.Done()
	s.flush(context.Background(), pending, target)
}

// takeLocked empties the buffer and disarms the timer. Must be called with mu held.
func (s *Scheduler) takeLocked() []TranslatableItem {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
	pending := s.buf
	s.buf = nil
	s.buffered = make(map[originKey]bool)
	return pending
}

// flush translates a drained trickle buffer. Flushes do not report phases;
// they are counted by Flushing instead.
func (s *Scheduler) flush(ctx context.Context, items []TranslatableItem, targetLang string) Report {
	if len(items) == 0 {
		return Report{}
	}
	s.flushing.Add(1)
	defer s.flushing.Add(-1)

	_, rep := s.schedule(ctx, items, targetLang, nil)
	if s.cfg.OnFlush != nil {
		s.cfg.OnFlush(rep)
	}
	return rep
}

// Pending returns the number of buffered trickle items.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

// Flushing returns the number of trickle flushes in progress.
func (s *Scheduler) Flushing() int {
	return int(s.flushing.Load())
}

// Flush drains the trickle buffer synchronously.
func (s *Scheduler) Flush(ctx context.Context) Report {
	s.mu.Lock()
	pending := s.takeLocked()
	target := s.target
	s.mu.Unlock()
	return s.flush(ctx, pending, target)
}

// Wait blocks until every asynchronous trickle flush has finished.
func (s *Scheduler) Wait() {
	s.inflight.Wait()
}

// Close stops accepting trickle items, flushes what is buffered and waits
// for in-flight flushes. In-flight provider calls are not cancelled.
func (s *Scheduler) Close(ctx context.Context) Report {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Report{}
	}
	s.closed = true
	pending := s.takeLocked()
	target := s.target
	s.mu.Unlock()

	rep := s.flush(ctx, pending, target)
	s.inflight.Wait()
	return rep
}

// sanitize strips markup a backend may have added; text and attribute
// values are written as plain text.
func (s *Scheduler) sanitize(translated string) string {
	if !strings.ContainsAny(translated, "<>&") {
		return translated
	}
	return html.UnescapeString(s.sanitizer.Sanitize(translated))
}

func failAll(out []ItemResult, err error) {
	for i := range out {
		out[i].OK = false
		out[i].Err = err
	}
}

// itemContext is the disambiguation hint sent with an item.
func itemContext(item TranslatableItem) string {
	switch item.Kind {
	case KindPlaceholder:
		return "input placeholder"
	case KindTitle:
		return "tooltip"
	case KindAlt:
		return "image alt text"
	}
	if n := item.Origin.Node; n != nil {
		if p := n.Parent(); p != nil && p.Tag() != "" {
			return "in <" + p.Tag() + ">"
		}
	}
	return ""
}

// preserveWhitespace preserves the original leading/trailing whitespace.
func preserveWhitespace(original, translated string) string {
	leadingLen := len(original) - len(strings.TrimLeft(original, " \t\n\r"))
	trailingLen := len(original) - len(strings.TrimRight(original, " \t\n\r"))
	if leadingLen == len(original) {
		return translated
	}
	return original[:leadingLen] + strings.TrimSpace(translated) + original[len(original)-trailingLen:]
}
