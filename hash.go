package pagetl

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashText returns the hex SHA-256 of text without surrounding whitespace,
// so reflowed markup maps to the same translation memory entry.
func HashText(text string) string {
	trimmed := strings.TrimSpace(text)
	hash := sha256.Sum256([]byte(trimmed))
	return hex.EncodeToString(hash[:])
}

// CacheKey is the translation memory key for a HashText digest in targetLang.
func CacheKey(hash, targetLang string) string {
	return hash + ":" + targetLang
}

// ScanCacheKey builds the scan cache key for root and opts. The root marker
// falls back from the id attribute to the class attribute to the tag name;
// the node id is appended so equal markers on different nodes do not collide.
func ScanCacheKey(root Node, opts ScanOptions) string {
	return rootMarker(root) + "|" + opts.cacheKey()
}

func rootMarker(n Node) string {
	if n == nil {
		return "<nil>"
	}
	var marker string
	if id, ok := n.Attr("id"); ok && id != "" {
		marker = "#" + id
	} else if class, ok := n.Attr("class"); ok && class != "" {
		marker = "." + strings.Join(strings.Fields(class), ".")
	} else if tag := n.Tag(); tag != "" {
		marker = tag
	} else {
		marker = "node"
	}
	return marker + "@" + n.ID().String()
}
