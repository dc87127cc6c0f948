package clipboard

import (
	"sync"

	"github.com/atotto/clipboard"
)

// Clipboard writes text for the user to paste elsewhere.
type Clipboard interface {
	WriteText(text string) error
}

// System copies through the platform clipboard.
type System struct{}

// WriteText places text on the system clipboard
func (System) WriteText(text string) error {
	return clipboard.WriteAll(text)
}

// Memory keeps the last written text in memory. Used in tests and in
// headless environments where no system clipboard exists.
type Memory struct {
	mu   sync.Mutex
	last string
}

// WriteText records text as the clipboard content
func (m *Memory) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = text
	return nil
}

// Text returns the last written text
func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}
