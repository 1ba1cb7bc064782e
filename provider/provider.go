// Package provider holds the translation backends a Translator or Session
// dispatches batches to: a chat-completion backend, a plain JSON-over-HTTP
// endpoint, a deterministic mock and a circuit breaker that wraps any of them.
//
// Every backend satisfies pagetl.AIProvider, so they compose with the
// retry and rate-limit wrappers of the root package.
package provider

import "github.com/ZaguanLabs/pagetl"

type (
	AIProvider       = pagetl.AIProvider
	TranslateRequest = pagetl.TranslateRequest
)
