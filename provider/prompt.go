package provider

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ZaguanLabs/pagetl"
)

// promptItem is one string of the user message. Hint names the UI role of
// the string (placeholder, tooltip, image alt text) when it is not body text.
type promptItem struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
	Hint string `json:"hint,omitempty"`
}

// systemPrompt renders the instructions for one batch.
func systemPrompt(req TranslateRequest) string {
	target := pagetl.GetLanguageName(req.TargetLang)
	source := req.SourceLang
	if source == "" {
		source = "en"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Role\nYou localise the user interface of a live web page from %s into %s. ",
		pagetl.GetLanguageName(source), target)
	b.WriteString("Every string is a fragment of the same page, shown to the same reader, so terminology must stay consistent across them.\n")

	b.WriteString("\n# Page\n")
	if req.Context != "" {
		fmt.Fprintf(&b, "The page belongs to: %s. Match the vocabulary its visitors expect.\n", req.Context)
	} else {
		b.WriteString("Headings, paragraphs, links, button labels, form placeholders, tooltips and image descriptions of a web page.\n")
	}

	fmt.Fprintf(&b, "\n# Register\n%s\n", pagetl.GetStyleDescription(req.Style))

	b.WriteString(`
# Rules
- Translate meaning, not words. The result must read as if written natively in ` + target + `.
- Keep labels short: a button or link label stays about as long as the original.
- Hints ("input placeholder", "tooltip", "image alt text") describe where a string appears. Use them, never translate or echo them.
- Leave URLs, email addresses, file names, code and markup untouched.
- Leave placeholders such as {{name}}, {count}, %s and $1 exactly as they are.
- Keep numbers, but use the target locale's punctuation around them.
`)
	if hint := pagetl.GetLocaleClarification(req.TargetLang); hint != "" {
		fmt.Fprintf(&b, "- Locale: %s\n", hint)
	}

	if len(req.ExcludedTerms) > 0 {
		b.WriteString("\n# Never translate\nCopy these terms verbatim wherever they occur:\n")
		for _, term := range req.ExcludedTerms {
			fmt.Fprintf(&b, "- %s\n", term)
		}
	}

	if len(req.Glossary) > 0 {
		b.WriteString("\n# Glossary\nPrefer these renderings unless the sentence demands otherwise:\n")
		terms := make([]string, 0, len(req.Glossary))
		for term := range req.Glossary {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		for _, term := range terms {
			fmt.Fprintf(&b, "- %q → %s\n", term, req.Glossary[term])
		}
	}

	b.WriteString(`
# Output
The input is {"items":[{"id":0,"text":"...","hint":"..."}]}.
Reply with a JSON object {"translations":[{"id":0,"text":"..."}]} holding exactly one entry per input id.
No Markdown fences, no commentary.`)
	return b.String()
}

// userMessage encodes the batch with stable ids so answers can be matched
// back even if the model reorders them.
func userMessage(req TranslateRequest) string {
	items := make([]promptItem, len(req.Texts))
	for i, text := range req.Texts {
		items[i] = promptItem{ID: i, Text: text}
		if i < len(req.TextContexts) {
			items[i].Hint = req.TextContexts[i]
		}
	}
	data, _ := json.Marshal(map[string][]promptItem{"items": items})
	return string(data)
}

// decodeTranslations accepts the requested shape as well as the plain
// string arrays some models fall back to, bare or under any key.
func decodeTranslations(content string, want int) ([]string, error) {
	content = stripFence(content)

	var raw json.RawMessage
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &obj); err == nil {
		if v, ok := obj["translations"]; ok {
			raw = v
		} else {
			keys := make([]string, 0, len(obj))
			for k := range obj {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if v := obj[k]; strings.HasPrefix(strings.TrimSpace(string(v)), "[") {
					raw = v
					break
				}
			}
		}
	} else {
		raw = json.RawMessage(content)
	}
	if raw == nil {
		return nil, invalidResponse(nil)
	}

	var texts []string
	if err := json.Unmarshal(raw, &texts); err == nil {
		if len(texts) != want {
			return nil, &pagetl.CountMismatchError{Expected: want, Got: len(texts)}
		}
		return texts, nil
	}

	var items []promptItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, invalidResponse(err)
	}
	if len(items) != want {
		return nil, &pagetl.CountMismatchError{Expected: want, Got: len(items)}
	}
	out := make([]string, want)
	seen := make([]bool, want)
	for _, it := range items {
		if it.ID < 0 || it.ID >= want || seen[it.ID] {
			return nil, invalidResponse(fmt.Errorf("unexpected id %d", it.ID))
		}
		seen[it.ID] = true
		out[it.ID] = it.Text
	}
	return out, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // language tag
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func invalidResponse(cause error) *pagetl.ProviderError {
	return &pagetl.ProviderError{Message: "invalid response format from OpenAI", Cause: cause}
}
