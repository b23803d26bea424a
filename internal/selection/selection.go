// Package selection maps the field categories a user picked in the selection
// UI to the entity tags the masker should replace.
package selection

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/gonkalabs/eraseme/internal/sanitize"
)

// DefaultFile is where the selection UI persists the user's choice.
const DefaultFile = "selected_fields.json"

// Set is an ordered list of category labels, e.g. "이름", "전화번호".
type Set []string

// categoryTags is the closed label → tag table. Labels missing here
// contribute no tags.
var categoryTags = map[string][]string{
	"이름":     {sanitize.TagPerson},
	"날짜":     {sanitize.TagDate},
	"시간":     {sanitize.TagTime},
	"장소":     {sanitize.TagLocation},
	"기관":     {sanitize.TagOrganization},
	"이메일":    {sanitize.TagEmail},
	"전화번호":   {sanitize.TagPhone},
	"주민등록번호": {sanitize.TagSSN},
}

// labels lists the known categories in the order the selection UI shows them.
var labels = []string{"이름", "주민등록번호", "전화번호", "이메일", "날짜", "시간", "장소", "기관"}

// Labels returns the known category labels in display order.
func Labels() []string {
	return append([]string(nil), labels...)
}

// TagsFor returns the tags selected by set. Unknown labels are ignored.
func TagsFor(set Set) sanitize.TagSet {
	tags := sanitize.NewTagSet()
	for _, label := range set {
		tags.Add(categoryTags[label]...)
	}
	return tags
}

// normalize drops blank labels and duplicates, keeping first-seen order.
func normalize(set Set) Set {
	out := make(Set, 0, len(set))
	seen := make(map[string]bool, len(set))
	for _, label := range set {
		label = strings.TrimSpace(label)
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	return out
}

// Load reads a JSON array of labels from path. A missing file is not an
// error: it means nothing is selected.
func Load(path string) (Set, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Set{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selection: read %s: %w", path, err)
	}
	var set Set
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("selection: parse %s: %w", path, err)
	}
	return normalize(set), nil
}

// Save writes set to path as an indented JSON array.
func Save(path string, set Set) error {
	b, err := json.MarshalIndent(normalize(set), "", "  ")
	if err != nil {
		return fmt.Errorf("selection: marshal: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o600); err != nil {
		return fmt.Errorf("selection: write %s: %w", path, err)
	}
	return nil
}

// Policy holds the active selection for one selection file. The watcher reads
// Tags on every masking call; Reload, Save and Reset may run concurrently
// from the control API or a signal handler.
type Policy struct {
	path string

	mu  sync.RWMutex
	set Set
}

// NewPolicy loads path and returns a Policy for it.
func NewPolicy(path string) (*Policy, error) {
	p := &Policy{path: path}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Path returns the selection file this Policy reads.
func (p *Policy) Path() string { return p.path }

// Selection returns a copy of the active labels.
func (p *Policy) Selection() Set {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append(Set(nil), p.set...)
}

// Tags derives the active TagSet from the current selection.
func (p *Policy) Tags() sanitize.TagSet {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return TagsFor(p.set)
}

// Reload re-reads the selection file. On error the previous selection stays
// active.
func (p *Policy) Reload() error {
	set, err := Load(p.path)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.set = set
	p.mu.Unlock()
	slog.Info("selection: loaded", "file", p.path, "labels", len(set), "tags", TagsFor(set).Sorted())
	return nil
}

// Save persists set and makes it active.
func (p *Policy) Save(set Set) error {
	if err := Save(p.path, set); err != nil {
		return err
	}
	p.mu.Lock()
	p.set = normalize(set)
	p.mu.Unlock()
	return nil
}

// Reset removes the selection file and clears the active selection.
func (p *Policy) Reset() error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("selection: reset %s: %w", p.path, err)
	}
	p.mu.Lock()
	p.set = Set{}
	p.mu.Unlock()
	return nil
}
