package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/seguros/internal/export"
)

// MockWriter records tables instead of uploading them.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, table export.Table) error
	WriteCalls     []WriteCall
	LastTable      export.Table
	WriteCallCount int
	mu             sync.Mutex
}

// WriteCall represents a single call to Write.
type WriteCall struct {
	Error error
	Table export.Table
}

var _ export.Writer = (*MockWriter)(nil)

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{
		WriteCalls: make([]WriteCall, 0),
	}
}

// Write records the table and returns the configured error, if any.
func (m *MockWriter) Write(ctx context.Context, table export.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++
	m.LastTable = table

	var err error
	if m.WriteFunc != nil {
		err = m.WriteFunc(ctx, table)
	}

	m.WriteCalls = append(m.WriteCalls, WriteCall{
		Table: table,
		Error: err,
	})

	return err
}

// Reset clears all recorded calls.
func (m *MockWriter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount = 0
	m.WriteCalls = make([]WriteCall, 0)
	m.LastTable = export.Table{}
}

// GetWriteCalls returns a copy of all write calls.
func (m *MockWriter) GetWriteCalls() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]WriteCall, len(m.WriteCalls))
	copy(calls, m.WriteCalls)
	return calls
}

// SetWriteError configures the mock to return err from every Write call.
func (m *MockWriter) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteFunc = func(_ context.Context, _ export.Table) error {
		return err
	}
}
