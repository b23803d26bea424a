package watcher

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonkalabs/eraseme/internal/clipboard"
	"github.com/gonkalabs/eraseme/internal/sanitize"
)

func newTestWatcher(t *testing.T, cb clipboard.Clipboard, remote sanitize.Extractor, tags sanitize.TagSet, opts ...Option) *Watcher {
	t.Helper()
	cache, err := sanitize.NewCache(0)
	require.NoError(t, err)
	m := sanitize.NewMasker(cache, remote)
	opts = append([]Option{WithOnEvent(func(Event) {})}, opts...)
	return New(cb, m, func() sanitize.TagSet { return tags }, opts...)
}

type failingExtractor struct{ calls int }

func (f *failingExtractor) Extract(context.Context, string) ([]sanitize.Span, error) {
	f.calls++
	return nil, sanitize.ErrRemoteUnavailable
}

type brokenClipboard struct{}

func (brokenClipboard) ReadText() (string, error) { return "", errors.New("access denied") }
func (brokenClipboard) WriteText(string) error    { return errors.New("access denied") }

// readOnlyClipboard accepts reads but rejects writes.
type readOnlyClipboard struct{ *clipboard.Memory }

func (readOnlyClipboard) WriteText(string) error { return errors.New("locked") }

func TestPoll_PreexistingContentIsIgnored(t *testing.T) {
	cb := clipboard.NewMemory("foo@bar.com")
	w := newTestWatcher(t, cb, nil, sanitize.NewTagSet(sanitize.TagEmail))

	w.Prime()
	_, handled := w.Poll(context.Background())

	assert.False(t, handled)
	assert.Zero(t, cb.Writes())
}

func TestPoll_MasksPlainCopy(t *testing.T) {
	cb := clipboard.NewMemory("")
	w := newTestWatcher(t, cb, nil, sanitize.NewTagSet(sanitize.TagEmail))
	w.Prime()

	cb.Copy("문의: foo@bar.com")
	ev, handled := w.Poll(context.Background())

	require.True(t, handled)
	assert.Equal(t, KindMasked, ev.Kind)
	assert.Equal(t, 1, ev.Count)
	assert.Regexp(t, `^문의: \[EMAIL_[a-f0-9]{8}\]$`, ev.After)

	text, _ := cb.ReadText()
	assert.Equal(t, ev.After, text)
	assert.Equal(t, 1, cb.Writes())
	assert.Equal(t, ev.After, w.Snapshot())
}

func TestPoll_OwnWriteDoesNotRetrigger(t *testing.T) {
	cb := clipboard.NewMemory("")
	w := newTestWatcher(t, cb, nil, sanitize.NewTagSet(sanitize.TagEmail))
	w.Prime()

	cb.Copy("foo@bar.com")
	_, handled := w.Poll(context.Background())
	require.True(t, handled)

	for i := 0; i < 3; i++ {
		_, handled = w.Poll(context.Background())
		assert.False(t, handled, "masked write-back must match the snapshot")
	}
	assert.Equal(t, 1, cb.Writes())
}

func TestPoll_RestoresMaskedCopy(t *testing.T) {
	cb := clipboard.NewMemory("")
	w := newTestWatcher(t, cb, nil, sanitize.NewTagSet(sanitize.TagPhone))
	w.Prime()

	cb.Copy("call 010-1234-5678")
	masked, handled := w.Poll(context.Background())
	require.True(t, handled)

	// The user pastes the masked text somewhere and copies it back.
	cb.Copy("reply: " + masked.After)
	ev, handled := w.Poll(context.Background())

	require.True(t, handled)
	assert.Equal(t, KindRestored, ev.Kind)
	assert.Equal(t, 1, ev.Count)
	assert.Equal(t, "reply: call 010-1234-5678", ev.After)

	text, _ := cb.ReadText()
	assert.Equal(t, "reply: call 010-1234-5678", text)

	_, handled = w.Poll(context.Background())
	assert.False(t, handled, "restored write-back must not be masked again")
	assert.Equal(t, 2, cb.Writes())
}

func TestPoll_ForeignPlaceholderIsLeftAlone(t *testing.T) {
	cb := clipboard.NewMemory("")
	w := newTestWatcher(t, cb, nil, sanitize.NewTagSet(sanitize.TagEmail))
	w.Prime()

	cb.Copy("[PERSON_deadbeef] foo@bar.com")
	ev, handled := w.Poll(context.Background())

	require.True(t, handled)
	assert.Equal(t, KindRestored, ev.Kind, "placeholder text is routed to unmask")
	assert.Equal(t, "[PERSON_deadbeef] foo@bar.com", ev.After)
	assert.Zero(t, cb.Writes(), "unchanged text is not written back")
	assert.Equal(t, ev.After, w.Snapshot())
}

func TestPoll_NoTagsUpdatesSnapshotOnly(t *testing.T) {
	cb := clipboard.NewMemory("")
	w := newTestWatcher(t, cb, nil, sanitize.NewTagSet())
	w.Prime()

	cb.Copy("foo@bar.com")
	ev, handled := w.Poll(context.Background())
	require.True(t, handled)
	assert.Equal(t, "foo@bar.com", ev.After)

	_, handled = w.Poll(context.Background())
	assert.False(t, handled)
	assert.Zero(t, cb.Writes())
}

func TestPoll_RemoteFailureLeavesTextUnchanged(t *testing.T) {
	cb := clipboard.NewMemory("")
	remote := &failingExtractor{}
	w := newTestWatcher(t, cb, remote, sanitize.NewTagSet(sanitize.TagPerson, sanitize.TagLocation))
	w.Prime()

	cb.Copy("Tom went to Paris")
	ev, handled := w.Poll(context.Background())

	require.True(t, handled)
	assert.Equal(t, "Tom went to Paris", ev.After)
	assert.Equal(t, 1, remote.calls)

	_, handled = w.Poll(context.Background())
	assert.False(t, handled, "a failed copy is not retried on every tick")
	assert.Equal(t, 1, remote.calls)
}

func TestPoll_ReadErrorIsSurvived(t *testing.T) {
	w := newTestWatcher(t, brokenClipboard{}, nil, sanitize.NewTagSet(sanitize.TagEmail))
	w.Prime()

	_, handled := w.Poll(context.Background())
	assert.False(t, handled)
}

func TestPoll_WriteErrorIsNotRetried(t *testing.T) {
	mem := clipboard.NewMemory("")
	w := newTestWatcher(t, readOnlyClipboard{mem}, nil, sanitize.NewTagSet(sanitize.TagEmail))
	w.Prime()

	mem.Copy("foo@bar.com")
	_, handled := w.Poll(context.Background())
	assert.False(t, handled)
	assert.Equal(t, "foo@bar.com", w.Snapshot())

	_, handled = w.Poll(context.Background())
	assert.False(t, handled)
}

func TestPoll_PanicIsRecovered(t *testing.T) {
	cb := clipboard.NewMemory("")
	cache, err := sanitize.NewCache(0)
	require.NoError(t, err)
	w := New(cb, sanitize.NewMasker(cache, nil), func() sanitize.TagSet { panic("selection exploded") })
	w.Prime()

	cb.Copy("foo@bar.com")
	assert.NotPanics(t, func() {
		_, handled := w.Poll(context.Background())
		assert.False(t, handled)
	})

	_, handled := w.Poll(context.Background())
	assert.False(t, handled, "the failing copy is marked as seen")
}

func TestPoll_OnEvent(t *testing.T) {
	cb := clipboard.NewMemory("")
	var events []Event
	w := newTestWatcher(t, cb, nil, sanitize.NewTagSet(sanitize.TagSSN),
		WithOnEvent(func(ev Event) { events = append(events, ev) }))
	w.Prime()

	cb.Copy("901231-1234567")
	w.Poll(context.Background())
	w.Poll(context.Background())

	require.Len(t, events, 1)
	assert.Equal(t, "901231-1234567", events[0].Before)
	assert.Equal(t, KindMasked, events[0].Kind)
}

func TestRun_StopsOnCancel(t *testing.T) {
	cb := clipboard.NewMemory("already here")
	w := newTestWatcher(t, cb, nil, sanitize.NewTagSet(sanitize.TagEmail), WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Run primes asynchronously, so keep copying fresh text until one of the
	// copies lands after the snapshot was taken.
	n := 0
	assert.Eventually(t, func() bool {
		text, _ := cb.ReadText()
		if sanitize.HasPlaceholder(text) {
			return true
		}
		n++
		cb.Copy(fmt.Sprintf("user%d@bar.com", n))
		return false
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.NotZero(t, cb.Writes())
}

func TestWithInterval_IgnoresNonPositive(t *testing.T) {
	w := newTestWatcher(t, clipboard.NewMemory(""), nil, nil, WithInterval(0))
	assert.Equal(t, DefaultInterval, w.interval)
}
