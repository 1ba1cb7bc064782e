package pagetl_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ZaguanLabs/pagetl"
	"github.com/ZaguanLabs/pagetl/cache"
	"github.com/ZaguanLabs/pagetl/domtest"
	"github.com/ZaguanLabs/pagetl/processor"
	"github.com/ZaguanLabs/pagetl/provider"
)

const mediumPage = `<!DOCTYPE html>
<html>
<head><title>Test Page</title></head>
<body>
	<nav><a href="/">Home</a><a href="/about" title="About us">About</a></nav>
	<main>
		<h1>Welcome to Our Site</h1>
		<p>This is a paragraph with some text.</p>
		<p>Another paragraph here.</p>
		<input placeholder="Search the catalogue">
		<ul>
			<li>Item one</li>
			<li>Item two</li>
			<li>Item three</li>
		</ul>
	</main>
	<footer><p class="notranslate">Acme Corp</p><p>Shipping worldwide</p></footer>
</body>
</html>`

func BenchmarkClassifier_IgnorableText(b *testing.B) {
	c := pagetl.NewClassifier(pagetl.ClassifierConfig{Advanced: true})
	texts := []string{"Hello World", "+1 555 123 4567", "info@example.com", "10:30", "arrow_back", "1,234.56"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.IsIgnorableText(texts[i%len(texts)])
	}
}

func BenchmarkScanner_DeepTree(b *testing.B) {
	a := domtest.New()
	root := a.Document()
	for i := 0; i < 200; i++ {
		root.Append(a.Chain(8, "div", a.Text(fmt.Sprintf("Paragraph %d", i))))
	}
	s := pagetl.NewScanner(pagetl.NewClassifier(pagetl.ClassifierConfig{}))
	opts := pagetl.DefaultScanOptions()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Scan(root, opts)
	}
}

func BenchmarkScanner_Cached(b *testing.B) {
	doc, err := processor.NewHTMLProcessor().ParseDocument(mediumPage)
	if err != nil {
		b.Fatal(err)
	}
	s := pagetl.NewScanner(pagetl.NewClassifier(pagetl.ClassifierConfig{}))
	opts := pagetl.DefaultScanOptions()
	opts.EnableCache = true
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Scan(doc.Root(), opts)
	}
}

func BenchmarkHTMLProcessor_ParseAndScan_Medium(b *testing.B) {
	proc := processor.NewHTMLProcessor()
	s := pagetl.NewScanner(pagetl.NewClassifier(pagetl.ClassifierConfig{}))
	opts := pagetl.DefaultScanOptions()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		doc, _ := proc.Parse(mediumPage)
		s.Scan(doc.Root(), opts)
	}
}

func BenchmarkScheduler_Schedule(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 120; i++ {
		fmt.Fprintf(&sb, "<p>Sentence number %d of the page.</p>", i)
	}
	content := sb.String()
	proc := processor.NewHTMLProcessor()
	s := pagetl.NewScheduler(provider.NewMockProvider(), pagetl.SchedulerConfig{Interval: -1})
	scanner := pagetl.NewScanner(pagetl.NewClassifier(pagetl.ClassifierConfig{}))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		doc, _ := proc.Parse(content)
		items := scanner.Scan(doc.Root(), pagetl.DefaultScanOptions())
		b.StartTimer()
		s.Schedule(context.Background(), items, "es")
	}
}

func BenchmarkTranslator_WarmMemory(b *testing.B) {
	translator := newTestTranslator("es_ES", provider.NewMockProvider(),
		pagetl.WithCache(cache.NewInMemoryCache(0)))
	translator.ProcessHTML(context.Background(), mediumPage)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		translator.ProcessHTML(context.Background(), mediumPage)
	}
}

func BenchmarkDiffItems(b *testing.B) {
	a := domtest.New()
	var oldTexts, newTexts []string
	for i := 0; i < 500; i++ {
		oldTexts = append(oldTexts, fmt.Sprintf("Line %d", i))
		newTexts = append(newTexts, fmt.Sprintf("Line %d", i+i%3))
	}
	oldItems, newItems := textItems(a, oldTexts...), textItems(a, newTexts...)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pagetl.DiffItems(oldItems, newItems)
	}
}

func BenchmarkSession_Trickle(b *testing.B) {
	a := domtest.New()
	root := a.Document()
	s := pagetl.NewSession("fr", provider.NewMockProvider(),
		pagetl.WithBatchInterval(-1),
		pagetl.WithTrickle(time.Hour, 32),
	)
	defer s.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n := a.Element("p", nil, a.Text(fmt.Sprintf("Comment %d", i)))
		root.Append(n)
		s.OnNodesAdded([]pagetl.Node{n})
	}
}
