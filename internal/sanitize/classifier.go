package sanitize

import (
	"context"
	"errors"
	"sort"
)

// Canonical entity tags. Placeholders encode one of these as their TAG part.
const (
	TagPerson       = "PERSON"
	TagDate         = "DATE"
	TagTime         = "TIME"
	TagLocation     = "LOCATION"
	TagOrganization = "ORGANIZATION"
	TagEmail        = "EMAIL"
	TagPhone        = "PHONE"
	TagSSN          = "SSN"

	// TagOutside is what the remote tagger reports for non-entity words.
	TagOutside = "O"
)

// ErrRemoteUnavailable is returned by remote extractors when the tagging
// service cannot produce a usable result: network failure, timeout,
// non-2xx status, or a body that does not match the protocol.
var ErrRemoteUnavailable = errors.New("remote tagger unavailable")

// Span is a (fragment, tag) pair produced by an extractor.
type Span struct {
	Text string // surface text as reported by the extractor
	Tag  string // e.g. "PERSON", "LOCATION", or "O"
}

// Extractor turns raw text into an ordered sequence of spans.
// Spans tagged TagOutside are passed through; callers filter them.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]Span, error)
}

// TagSet is the set of tags eligible for masking.
type TagSet map[string]struct{}

// NewTagSet builds a TagSet from the given tags.
func NewTagSet(tags ...string) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// Has reports whether tag is in the set. TagOutside is never selected.
func (s TagSet) Has(tag string) bool {
	if tag == TagOutside {
		return false
	}
	_, ok := s[tag]
	return ok
}

// Add inserts tags into the set.
func (s TagSet) Add(tags ...string) {
	for _, t := range tags {
		s[t] = struct{}{}
	}
}

// Len returns the number of tags in the set.
func (s TagSet) Len() int { return len(s) }

// Sorted returns the tags in lexical order, for display and logging.
func (s TagSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
