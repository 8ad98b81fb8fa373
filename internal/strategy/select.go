// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"strings"
	"sync"

	"github.com/pdiddy/docconv/internal/formats"
)

// Select applies the selection rules to a format pair. The first matching
// rule wins:
//
//  1. both formats are images       -> ImageConversion
//  2. rtf to docx                   -> RtfToDocx
//  3. html to docx                  -> HtmlToDocx
//  4. output is pdf                 -> PdfOutput
//  5. input is pdf                  -> PdfInput
//  6. anything else                 -> GenericDocument
//
// Select never fails. Unknown identifiers reach the external tool verbatim.
// Identifiers are compared as given; Selector normalizes them first.
func Select(t Tools, in, out string) Strategy {
	switch {
	case formats.IsImage(in) && formats.IsImage(out):
		return newImageConversion(t, in, out)
	case in == "rtf" && out == "docx":
		return newRtfToDocx(t)
	case in == "html" && out == "docx":
		return newHtmlToDocx(t)
	case out == "pdf":
		return newPdfOutput(t, in)
	case in == "pdf":
		return newPdfInput(t, out)
	default:
		return newGenericDocument(t, in, out)
	}
}

// Key returns the cache key for a format pair.
func Key(in, out string) string {
	return normalize(in) + "-to-" + normalize(out)
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Selector memoizes Select per format pair. Identifiers are lowercased and
// trimmed before both the cache key and the rules are applied, so a cached
// strategy always equals a fresh selection.
//
// Selector is safe for concurrent use. The cache only grows; two callers
// racing on the same key may both build a strategy and either write wins.
type Selector struct {
	tools Tools

	mu    sync.RWMutex
	cache map[string]Strategy
}

// NewSelector returns a Selector whose strategies invoke the given tools.
func NewSelector(t Tools) *Selector {
	return &Selector{
		tools: t.withDefaults(),
		cache: make(map[string]Strategy),
	}
}

// Select returns the strategy for the pair, building and caching it on first use.
func (s *Selector) Select(in, out string) Strategy {
	in, out = normalize(in), normalize(out)
	key := Key(in, out)

	s.mu.RLock()
	st, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return st
	}

	st = Select(s.tools, in, out)

	s.mu.Lock()
	s.cache[key] = st
	s.mu.Unlock()
	return st
}

// Len returns the number of cached format pairs.
func (s *Selector) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}
