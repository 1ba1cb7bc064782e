// Package pagetl translates web pages in place.
//
// A Scanner walks a DOM (anything implementing Node) and collects the text
// nodes and attribute values a reader would see: body text, placeholders,
// titles, alt text. A Scheduler groups those items into bounded batches,
// answers what it can from a TranslationCache and sends the rest to an
// AIProvider. Results are written back to the nodes they came from, unless
// the node changed or left the document in the meantime.
//
// Session keeps a page translated after the first pass. Mutations fed to
// OnNodesAdded or Observe are scanned, buffered and flushed in trickle
// batches once the page goes quiet or the buffer fills:
//
//	doc, _ := processor.NewHTMLProcessor().ParseDocument(page)
//	s := pagetl.NewSession("es_ES", p,
//	    pagetl.WithCache(cache.NewInMemoryCache(3600)),
//	    pagetl.WithTrickle(250*time.Millisecond, 25),
//	)
//	defer s.Close()
//
//	report, err := s.Translate(ctx, doc.Root())
//
// Translator is the one-shot form for documents held as strings; it parses
// with a ContentProcessor, runs a single pass and renders the result:
//
//	t := pagetl.NewTranslator("de", p, pagetl.WithProcessor(processor.NewHTMLProcessor()))
//	res, err := t.ProcessHTML(ctx, "<p>Hello World</p>")
package pagetl
