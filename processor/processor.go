// Package processor adapts parsed documents to the pagetl Node interface.
// HTMLProcessor parses with goquery, hands out a Document whose nodes can be
// scanned and written back, and renders the result with lang and dir set for
// the target language.
package processor

import "github.com/ZaguanLabs/pagetl"

type ContentProcessor = pagetl.ContentProcessor
