package wit

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachingSectionParser wraps another SectionParser with a bounded
// content-addressed cache, so re-loading the same module bytes under a
// different registry name (a common pattern when fanning one compiled
// module out to several instances) skips re-parsing the interface-types
// section. Parsing is pure and side-effect-free, so caching by content
// hash is safe regardless of which module the bytes are loaded as.
type CachingSectionParser struct {
	inner SectionParser
	cache *lru.Cache[string, *Section]
}

// NewCachingSectionParser wraps inner with an LRU cache holding up to size
// parsed sections.
func NewCachingSectionParser(inner SectionParser, size int) *CachingSectionParser {
	cache, err := lru.New[string, *Section](size)
	if err != nil {
		// Only returned for a non-positive size, which is a caller bug.
		panic(err)
	}
	return &CachingSectionParser{inner: inner, cache: cache}
}

// Parse returns the cached Section for raw's content hash if present,
// otherwise parses through inner and caches the result.
func (p *CachingSectionParser) Parse(raw []byte) (*Section, error) {
	key := contentKey(raw)
	if section, ok := p.cache.Get(key); ok {
		return section, nil
	}

	section, err := p.inner.Parse(raw)
	if err != nil {
		return nil, err
	}
	p.cache.Add(key, section)
	return section, nil
}

func contentKey(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
