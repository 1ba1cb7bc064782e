package pagetl

import (
	"context"
	"errors"
)

// Translator translates whole documents: every call parses the content,
// runs one bulk pass over it in a fresh Session and renders the result.
type Translator struct {
	targetLang string
	provider   AIProvider
	opts       []Option
	settings   *settings
}

// AIProvider is the interface for AI translation backends.
type AIProvider interface {
	Translate(ctx context.Context, req TranslateRequest) ([]string, error)
}

// TranslateRequest contains the parameters for a translation request.
type TranslateRequest struct {
	Texts         []string
	TargetLang    string
	SourceLang    string
	ExcludedTerms []string
	Context       string
	TextContexts  []string
	Glossary      map[string]string
	Style         TranslationStyle
}

// TranslationCache is the interface for translation memory.
type TranslationCache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}

// ContentProcessor parses content of one type into a traversable Document.
type ContentProcessor interface {
	Parse(content string) (Document, error)
	ContentType() string
}

// Document is parsed content whose nodes can be scanned and written to.
type Document interface {
	Root() Node
	// Render serialises the document, tagging it for targetLang where the
	// format allows.
	Render(targetLang string) (string, error)
}

// NewTranslator creates a new Translator with the given target language and provider.
func NewTranslator(targetLang string, provider AIProvider, opts ...Option) *Translator {
	return &Translator{
		targetLang: targetLang,
		provider:   provider,
		opts:       opts,
		settings:   newSettings(opts...),
	}
}

// Process translates content of the specified type.
func (t *Translator) Process(ctx context.Context, content string, contentType string) (*ProcessedContent, error) {
	if t.IsSourceLang() {
		return &ProcessedContent{Content: content}, nil
	}

	doc, err := t.parse(content, contentType)
	if err != nil {
		return nil, err
	}

	session := t.NewSession()
	defer session.Close()

	results, rep, err := session.translate(ctx, doc.Root())
	if err != nil {
		return nil, err
	}
	if rep.TotalItems == 0 {
		return &ProcessedContent{Content: content}, nil
	}
	if rep.Translated == 0 && rep.Failed > 0 {
		if berr := firstBatchError(results); berr != nil {
			return nil, berr
		}
	}

	out, err := doc.Render(t.targetLang)
	if err != nil {
		return nil, &ProcessorError{Message: "render failed", Cause: err, ContentType: contentType}
	}

	return &ProcessedContent{
		Content:         out,
		TranslatedCount: rep.Translated,
		CachedCount:     rep.Cached,
		FailedCount:     rep.Failed,
		TotalNodes:      rep.TotalItems,
	}, nil
}

// ProcessHTML is a convenience method for processing HTML content.
func (t *Translator) ProcessHTML(ctx context.Context, html string) (*ProcessedContent, error) {
	return t.Process(ctx, html, "html")
}

// DryRun returns the items a Process call would send, without translating.
func (t *Translator) DryRun(content string, contentType string) ([]TranslatableItem, error) {
	doc, err := t.parse(content, contentType)
	if err != nil {
		return nil, err
	}
	return t.NewSession().Scan(doc.Root()), nil
}

// NewSession creates a Session sharing the translator's provider, options
// and translation memory.
func (t *Translator) NewSession() *Session {
	return NewSession(t.targetLang, t.provider, t.opts...)
}

func (t *Translator) parse(content, contentType string) (Document, error) {
	processor, ok := t.settings.processors[contentType]
	if !ok {
		return nil, &ProcessorError{
			Message:     "no processor registered for content type",
			ContentType: contentType,
		}
	}
	return processor.Parse(content)
}

// firstBatchError returns the batch failure behind results, if any.
func firstBatchError(results []ItemResult) error {
	for _, r := range results {
		var berr *BatchError
		if errors.As(r.Err, &berr) {
			return berr
		}
	}
	return nil
}

// TargetLang returns the target language.
func (t *Translator) TargetLang() string {
	return t.targetLang
}

// SourceLang returns the source language.
func (t *Translator) SourceLang() string {
	return t.settings.sourceLang
}

// IsSourceLang checks if the target language matches the source language.
// When true, translation can be bypassed.
func (t *Translator) IsSourceLang(targetLangOverride ...string) bool {
	return SameLanguage(t.pick(targetLangOverride), t.settings.sourceLang)
}

// IsRTL returns true if the target language uses right-to-left text direction.
func (t *Translator) IsRTL(targetLangOverride ...string) bool {
	return IsRTL(t.pick(targetLangOverride))
}

// GetDir returns the text direction for the target language ("ltr" or "rtl").
func (t *Translator) GetDir(targetLangOverride ...string) string {
	return GetDirection(t.pick(targetLangOverride))
}

func (t *Translator) pick(override []string) string {
	if len(override) > 0 && override[0] != "" {
		return override[0]
	}
	return t.targetLang
}

// Glossary returns the glossary of preferred translations.
func (t *Translator) Glossary() map[string]string {
	return t.settings.glossary
}

// Style returns the translation style.
func (t *Translator) Style() TranslationStyle {
	return t.settings.style
}

// Context returns the global translation context.
func (t *Translator) Context() string {
	return t.settings.context
}

// ExcludedTerms returns the list of excluded terms.
func (t *Translator) ExcludedTerms() []string {
	return t.settings.excludedTerms
}
