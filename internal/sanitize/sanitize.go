// Package sanitize provides reversible masking of clipboard text. It detects
// sensitive fragments using a remote named-entity tagger plus local regex
// patterns, replaces each one with a [TAG_uid] placeholder, and restores the
// originals from a process-local Cache when placeholder text comes back.
//
// Usage:
//
//	cache, _ := sanitize.NewCache(0)
//	m := sanitize.NewMasker(cache, ner.New(url, timeout))
//	masked := m.Mask(ctx, text, tags)
//	// text leaves the machine
//	restored := m.Unmask(masked)
package sanitize

import (
	"context"
	"log/slog"
)

// Masker applies the masking and unmasking transforms against one Cache.
// It is safe for concurrent use; the Cache serialises its own mutations.
type Masker struct {
	cache  *Cache
	remote Extractor // nil disables the remote pass
}

// NewMasker creates a Masker that records substitutions in cache.
// remote may be nil, in which case only the local patterns run.
func NewMasker(cache *Cache, remote Extractor) *Masker {
	return &Masker{cache: cache, remote: remote}
}

// Cache returns the cache this Masker writes to.
func (m *Masker) Cache() *Cache { return m.cache }

// MaskResult describes one Mask call.
type MaskResult struct {
	Text     string // placeholder-substituted text
	Masked   int    // number of fragments replaced
	Degraded bool   // remote pass failed; only local patterns applied
}

// Mask replaces every selected entity in text with a placeholder.
// See MaskDetailed.
func (m *Masker) Mask(ctx context.Context, text string, tags TagSet) string {
	return m.MaskDetailed(ctx, text, tags).Text
}

// MaskDetailed replaces every selected entity in text with a placeholder and
// records each substitution in the cache.
//
// Remote spans are applied first, in extraction order; each one replaces the
// first occurrence of its fragment that is not already inside a placeholder.
// A fragment the tagger reports once is therefore masked once, even if it
// appears again later in the text. Local patterns then run for EMAIL, PHONE
// and SSN against the partially masked text.
//
// A failed remote call never fails the mask: it is logged and the result is
// marked Degraded. Fragments that cannot be found verbatim are left as-is.
func (m *Masker) MaskDetailed(ctx context.Context, text string, tags TagSet) MaskResult {
	res := MaskResult{Text: text}
	if text == "" || tags.Len() == 0 {
		return res
	}

	working := text
	if m.remote != nil {
		spans, err := m.remote.Extract(ctx, text)
		if err != nil {
			slog.Warn("sanitize: remote tagger failed, using local patterns only", "err", err)
			res.Degraded = true
			spans = nil
		}
		for _, sp := range spans {
			if !tags.Has(sp.Tag) {
				continue
			}
			var ok bool
			if working, ok = m.substitute(working, sp); ok {
				res.Masked++
			}
		}
	}

	for _, p := range localPatterns {
		if !tags.Has(p.tag) {
			continue
		}
		for _, sp := range p.spans(working) {
			var ok bool
			if working, ok = m.substitute(working, sp); ok {
				res.Masked++
			}
		}
	}

	res.Text = working
	return res
}

// substitute replaces the first free occurrence of sp.Text in text with a
// fresh placeholder. It reports false when no such occurrence exists.
func (m *Masker) substitute(text string, sp Span) (string, bool) {
	idx := indexOutsidePlaceholders(text, sp.Text)
	if idx < 0 {
		return text, false
	}
	uid := m.cache.Store(sp.Tag, sp.Text)
	slog.Debug("sanitize: masked", "tag", sp.Tag, "uid", uid)
	return text[:idx] + Placeholder(sp.Tag, uid) + text[idx+len(sp.Text):], true
}

// UnmaskResult describes one Unmask call.
type UnmaskResult struct {
	Text       string // text with resolvable placeholders restored
	Restored   int    // placeholders replaced by their originals
	Unresolved int    // placeholders left verbatim (unknown UID or tag mismatch)
}

// Unmask restores every placeholder the cache can resolve. See UnmaskDetailed.
func (m *Masker) Unmask(text string) string {
	return m.UnmaskDetailed(text).Text
}

// UnmaskDetailed restores each placeholder whose UID is in the cache and whose
// tag matches the cached tag. Everything else, including placeholders minted
// by another process or evicted from the cache, is left untouched.
// Restoration is a single left-to-right pass, so restored text is never
// rescanned.
func (m *Masker) UnmaskDetailed(text string) UnmaskResult {
	var res UnmaskResult
	res.Text = placeholderRe.ReplaceAllStringFunc(text, func(tok string) string {
		sub := placeholderRe.FindStringSubmatch(tok)
		e, ok := m.cache.Get(sub[2])
		if !ok || e.Tag != sub[1] {
			res.Unresolved++
			return tok
		}
		res.Restored++
		return e.Original
	})
	return res
}
