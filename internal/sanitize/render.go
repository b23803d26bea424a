package sanitize

import (
	"context"
	"fmt"
	"strings"
)

// Render joins the span texts back into a sentence, replacing every span whose
// tag is selected with a bare {TAG} marker. Unlike Mask it is one-way: nothing
// is cached. The tag gate is the same one Mask applies, so an empty TagSet
// renders the text unchanged.
func Render(spans []Span, tags TagSet) string {
	var b strings.Builder
	for _, sp := range spans {
		if tags.Has(sp.Tag) {
			b.WriteString("{" + sp.Tag + "}")
			continue
		}
		b.WriteString(sp.Text)
	}
	return strings.TrimSpace(strings.ReplaceAll(b.String(), "  ", " "))
}

// Redact runs the remote tagger over text and renders the result with Render.
// Unlike Mask a remote failure is returned, since without spans there is
// nothing to render.
func (m *Masker) Redact(ctx context.Context, text string, tags TagSet) (string, error) {
	if m.remote == nil {
		return "", fmt.Errorf("sanitize: redact: %w", ErrRemoteUnavailable)
	}
	spans, err := m.remote.Extract(ctx, text)
	if err != nil {
		return "", fmt.Errorf("sanitize: redact: %w", err)
	}
	return Render(spans, tags), nil
}
