// Package watcher polls the clipboard and rewrites each external copy:
// plain text is masked, placeholder text is restored.
package watcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/gonkalabs/eraseme/internal/clipboard"
	"github.com/gonkalabs/eraseme/internal/sanitize"
)

// DefaultInterval is the time between clipboard polls.
const DefaultInterval = 500 * time.Millisecond

// Kind says which transform handled a clipboard change.
type Kind string

const (
	KindMasked   Kind = "masked"
	KindRestored Kind = "restored"
)

// Event describes one handled clipboard change.
type Event struct {
	Kind   Kind
	Before string // clipboard text as copied
	After  string // text written back (equal to Before if nothing changed)
	Count  int    // fragments masked or placeholders restored
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithOnEvent sets a callback invoked after every handled change.
// It runs on the watcher goroutine.
func WithOnEvent(fn func(Event)) Option {
	return func(w *Watcher) { w.onEvent = fn }
}

// Watcher owns the clipboard snapshot. It is not safe for concurrent use:
// Run and Poll must be called from a single goroutine.
type Watcher struct {
	cb       clipboard.Clipboard
	masker   *sanitize.Masker
	tags     func() sanitize.TagSet
	interval time.Duration
	onEvent  func(Event)

	snapshot string
}

// New creates a Watcher. tags is consulted on every masking call so that a
// reloaded selection takes effect on the next copy.
func New(cb clipboard.Clipboard, masker *sanitize.Masker, tags func() sanitize.TagSet, opts ...Option) *Watcher {
	w := &Watcher{
		cb:       cb,
		masker:   masker,
		tags:     tags,
		interval: DefaultInterval,
		onEvent:  logEvent,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Prime records the current clipboard content as already seen, so text that
// was on the clipboard before startup is never rewritten.
func (w *Watcher) Prime() {
	current, err := w.cb.ReadText()
	if err != nil {
		slog.Warn("watcher: initial clipboard read failed", "err", err)
		return
	}
	w.snapshot = current
}

// Run primes the snapshot and polls until ctx is cancelled.
// It returns ctx.Err().
func (w *Watcher) Run(ctx context.Context) error {
	w.Prime()
	slog.Info("watcher: watching clipboard", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("watcher: stopped")
			return ctx.Err()
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}

// Poll runs one iteration: read, compare with the snapshot, transform, write
// back. It reports whether a change was handled. Failures are logged and never
// stop subsequent polls.
func (w *Watcher) Poll(ctx context.Context) (ev Event, handled bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("watcher: poll panicked", "panic", r)
			ev, handled = Event{}, false
		}
	}()

	current, err := w.cb.ReadText()
	if err != nil {
		slog.Warn("watcher: clipboard read failed", "err", err)
		return Event{}, false
	}
	if current == w.snapshot {
		return Event{}, false
	}
	// Mark the input as seen first so a failing transform cannot re-trigger
	// on every tick.
	w.snapshot = current

	ev = Event{Before: current}
	if sanitize.HasPlaceholder(current) {
		res := w.masker.UnmaskDetailed(current)
		ev.Kind, ev.After, ev.Count = KindRestored, res.Text, res.Restored
	} else {
		res := w.masker.MaskDetailed(ctx, current, w.tags())
		ev.Kind, ev.After, ev.Count = KindMasked, res.Text, res.Masked
	}

	if ev.After != current {
		if err := w.cb.WriteText(ev.After); err != nil {
			slog.Warn("watcher: clipboard write failed", "kind", ev.Kind, "err", err)
			return Event{}, false
		}
	}
	// Our own write will be read back next tick; it must match.
	w.snapshot = ev.After

	if w.onEvent != nil {
		w.onEvent(ev)
	}
	return ev, true
}

// Snapshot returns the last clipboard text the watcher considers seen.
func (w *Watcher) Snapshot() string { return w.snapshot }

func logEvent(ev Event) {
	switch ev.Kind {
	case KindRestored:
		slog.Info("watcher: masked text detected, restored", "restored", ev.Count, "text", ev.After)
	default:
		slog.Info("watcher: new copy detected, masked", "masked", ev.Count, "text", ev.After)
	}
}
