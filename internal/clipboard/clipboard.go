// Package clipboard abstracts text clipboard access so the watcher can run
// against the system clipboard or an in-memory one.
package clipboard

import (
	"errors"
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

// ErrUnsupported is returned when no clipboard backend is available
// (e.g. Linux without xclip, xsel or wl-clipboard).
var ErrUnsupported = errors.New("clipboard: no supported backend")

// Clipboard reads and writes plain text.
type Clipboard interface {
	ReadText() (string, error)
	WriteText(text string) error
}

// System is the platform clipboard.
type System struct{}

// NewSystem returns the platform clipboard, or ErrUnsupported.
func NewSystem() (System, error) {
	if clipboard.Unsupported {
		return System{}, ErrUnsupported
	}
	return System{}, nil
}

// ReadText returns the current clipboard text.
func (System) ReadText() (string, error) {
	s, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("clipboard: read: %w", err)
	}
	return s, nil
}

// WriteText replaces the clipboard content with text.
func (System) WriteText(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard: write: %w", err)
	}
	return nil
}

// Memory is an in-process clipboard. It is safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	text   string
	writes int
}

// NewMemory returns a Memory clipboard holding text.
func NewMemory(text string) *Memory {
	return &Memory{text: text}
}

// ReadText returns the stored text.
func (m *Memory) ReadText() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

// WriteText stores text.
func (m *Memory) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.writes++
	return nil
}

// Copy simulates an external copy: the text changes but the write is not
// counted as one of ours.
func (m *Memory) Copy(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
}

// Writes returns how many times WriteText was called.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
