package lua

import (
	"sync"
	"time"

	"github.com/drake/retimer/timer"
)

// MockHost implements Host for testing on a manual clock.
type MockHost struct {
	*timer.Manual

	mu sync.Mutex

	// Captured calls
	PrintCalls []string
	QuitCalled bool
}

func NewMockHost() *MockHost {
	return &MockHost{Manual: timer.NewManual(time.Unix(0, 0))}
}

func (m *MockHost) Print(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PrintCalls = append(m.PrintCalls, text)
}

func (m *MockHost) Quit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QuitCalled = true
}

// Helper methods for tests

func (m *MockHost) DrainPrintCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := m.PrintCalls
	m.PrintCalls = nil
	return calls
}
