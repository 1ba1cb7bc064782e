package pagetl

import (
	"log/slog"
	"time"
)

// Option configures a Translator or a Session.
type Option func(*settings)

type settings struct {
	sourceLang    string
	cache         TranslationCache
	excludedTerms []string
	context       string
	glossary      map[string]string
	style         TranslationStyle
	processors    map[string]ContentProcessor
	logger        *slog.Logger
	cacheCapacity int

	scan       ScanOptions
	classifier ClassifierConfig
	scheduler  SchedulerConfig
}

func newSettings(opts ...Option) *settings {
	st := &settings{
		sourceLang:    "en",
		style:         StyleNeutral,
		processors:    make(map[string]ContentProcessor),
		cacheCapacity: DefaultCacheCapacity,
		scan:          DefaultScanOptions(),
	}
	for _, opt := range opts {
		opt(st)
	}
	if st.logger == nil {
		st.logger = slog.Default()
	}
	if st.scan.MaxDepth <= 0 {
		st.scan.MaxDepth = DefaultMaxDepth
	}

	st.classifier.SourceLang = st.sourceLang
	st.classifier.Advanced = st.scan.EnableAdvancedFiltering
	st.classifier.VerdictCapacity = st.cacheCapacity

	st.scheduler.SourceLang = st.sourceLang
	st.scheduler.ExcludedTerms = st.excludedTerms
	st.scheduler.Context = st.context
	st.scheduler.Glossary = st.glossary
	st.scheduler.Style = st.style
	st.scheduler.Cache = st.cache
	st.scheduler.Logger = st.logger
	return st
}

// WithSourceLang sets the source language.
func WithSourceLang(lang string) Option {
	return func(s *settings) {
		s.sourceLang = lang
	}
}

// WithCache sets the translation memory.
func WithCache(cache TranslationCache) Option {
	return func(s *settings) {
		s.cache = cache
	}
}

// WithExcludedTerms sets terms that should not be translated.
func WithExcludedTerms(terms []string) Option {
	return func(s *settings) {
		s.excludedTerms = terms
	}
}

// WithContext sets the global translation context.
func WithContext(ctx string) Option {
	return func(s *settings) {
		s.context = ctx
	}
}

// WithGlossary sets preferred translations for specific phrases.
func WithGlossary(glossary map[string]string) Option {
	return func(s *settings) {
		s.glossary = glossary
	}
}

// WithStyle sets the translation style/register.
func WithStyle(style TranslationStyle) Option {
	return func(s *settings) {
		s.style = style
	}
}

// WithProcessor registers a content processor.
func WithProcessor(processor ContentProcessor) Option {
	return func(s *settings) {
		s.processors[processor.ContentType()] = processor
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithScanOptions replaces the scan options.
func WithScanOptions(opts ScanOptions) Option {
	return func(s *settings) {
		s.scan = opts
	}
}

// WithAdvancedFiltering toggles the phone/date/time/currency/icon filters.
func WithAdvancedFiltering(enabled bool) Option {
	return func(s *settings) {
		s.scan.EnableAdvancedFiltering = enabled
	}
}

// WithScanCache toggles memoisation of scan results.
func WithScanCache(enabled bool) Option {
	return func(s *settings) {
		s.scan.EnableCache = enabled
	}
}

// WithStrictTags adds media, code and form tags to the skip set.
func WithStrictTags(enabled bool) Option {
	return func(s *settings) {
		s.classifier.StrictTags = enabled
	}
}

// WithSkipClasses replaces the class markers that exclude a subtree.
func WithSkipClasses(classes []string) Option {
	return func(s *settings) {
		s.classifier.SkipClasses = classes
	}
}

// WithLanguageDetection declares that an upstream language detector is in
// place, which turns off the non-source-language text heuristic.
func WithLanguageDetection(enabled bool) Option {
	return func(s *settings) {
		s.classifier.LanguageDetection = enabled
	}
}

// WithCacheCapacity caps the scan and verdict caches.
func WithCacheCapacity(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.cacheCapacity = n
		}
	}
}

// WithBatchSize sets the fixed batch size.
func WithBatchSize(n int) Option {
	return func(s *settings) {
		s.scheduler.BatchSize = n
	}
}

// WithAdaptiveBatching sizes batches by average content length, never above max.
func WithAdaptiveBatching(max int) Option {
	return func(s *settings) {
		s.scheduler.Adaptive = true
		s.scheduler.MaxBatchSize = max
	}
}

// WithBatchInterval sets the pause between bulk batches. A negative value
// disables pacing.
func WithBatchInterval(d time.Duration) Option {
	return func(s *settings) {
		s.scheduler.Interval = d
	}
}

// WithTimeout bounds every translation call.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.scheduler.Timeout = d
	}
}

// WithTrickle configures the debounce window and immediate-flush threshold
// of the incremental path.
func WithTrickle(window time.Duration, threshold int) Option {
	return func(s *settings) {
		s.scheduler.TrickleWindow = window
		s.scheduler.TrickleThreshold = threshold
	}
}

// WithPhaseHook is called on every phase change of a bulk pass.
func WithPhaseHook(fn func(State)) Option {
	return func(s *settings) {
		s.scheduler.OnPhase = fn
	}
}

// WithFlushHook is called with the report of every trickle flush.
func WithFlushHook(fn func(Report)) Option {
	return func(s *settings) {
		s.scheduler.OnFlush = fn
	}
}
