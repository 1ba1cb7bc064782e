// Package cache holds the translation memory backends: an in-process map
// with TTL and an optional entry cap, a size-bounded memo, Redis and SQLite.
// Any backend that can list its entries can be dumped to and reloaded from a
// JSON-lines file.
package cache

import "errors"

// ErrUnsupported is returned by Dump for caches that cannot list entries.
var ErrUnsupported = errors.New("cache does not support enumeration")

// TranslationCache maps a CacheKey to a translated string. Get reports a
// miss for absent and expired keys alike.
type TranslationCache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}

// Enumerable caches can list their live entries.
type Enumerable interface {
	TranslationCache
	Entries() (map[string]string, error)
}
