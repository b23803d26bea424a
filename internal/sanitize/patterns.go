package sanitize

import "regexp"

// pattern pairs a tag with the regex that finds values of that tag locally.
type pattern struct {
	tag   string
	regex *regexp.Regexp
}

// localPatterns catch structured identifiers the remote tagger may miss.
// They run after the remote pass, in this order, against the partially
// masked text.
var localPatterns = []pattern{
	{
		TagEmail,
		regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`),
	},
	// Domestic mobile numbers: 010-1234-5678, 011-123-4567.
	{
		TagPhone,
		regexp.MustCompile(`01[016789]-\d{3,4}-\d{4}`),
	},
	// Resident registration numbers: 6 digits, hyphen, 7 digits.
	{
		TagSSN,
		regexp.MustCompile(`\d{6}-\d{7}`),
	},
}

// spans returns every match of p in text, in document order.
func (p pattern) spans(text string) []Span {
	matches := p.regex.FindAllString(text, -1)
	spans := make([]Span, 0, len(matches))
	for _, m := range matches {
		spans = append(spans, Span{Text: m, Tag: p.tag})
	}
	return spans
}
