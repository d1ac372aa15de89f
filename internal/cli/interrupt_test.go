package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer provides thread-safe access to a bytes.Buffer.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (s *syncBuffer) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestNewInterruptHandler(t *testing.T) {
	tests := []struct {
		writer io.Writer
		name   string
	}{
		{name: "with custom writer", writer: &bytes.Buffer{}},
		{name: "with nil writer", writer: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewInterruptHandler(tt.writer)
			assert.NotNil(t, handler)
			assert.NotNil(t, handler.writer)
			assert.False(t, handler.WasInterrupted())
		})
	}
}

func TestHandleInterrupts_Signal(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output)

	ctx := handler.HandleInterrupts(context.Background(), "Nenhuma alteração foi gravada.")

	select {
	case <-ctx.Done():
		t.Fatal("Context should not be canceled initially")
	default:
	}

	handler.sigChan <- syscall.SIGTERM
	handler.sigChan <- syscall.SIGTERM

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not canceled")
	}

	require.Eventually(t, handler.WasInterrupted, time.Second, 10*time.Millisecond)
	out := output.String()
	assert.Equal(t, 1, strings.Count(out, "Operação interrompida!"))
	assert.Contains(t, out, "Nenhuma alteração foi gravada.")
}

func TestHandleInterrupts_ParentDone(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output)

	parent, cancel := context.WithCancel(context.Background())
	ctx := handler.HandleInterrupts(parent, "")
	cancel()

	<-ctx.Done()
	time.Sleep(20 * time.Millisecond)
	assert.False(t, handler.WasInterrupted())
	assert.Empty(t, output.String())
}

func TestShowInterruptMessage(t *testing.T) {
	tests := []struct {
		name        string
		hint        string
		expected    []string
		notExpected []string
	}{
		{
			name:     "with hint",
			hint:     "Execute novamente para continuar.",
			expected: []string{"Operação interrompida!", "Execute novamente para continuar.", "Até logo!"},
		},
		{
			name:        "without hint",
			expected:    []string{"Operação interrompida!", "Até logo!"},
			notExpected: []string{"Execute novamente"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			handler := &InterruptHandler{writer: &output, hint: tt.hint}

			handler.showInterruptMessage()

			for _, expected := range tt.expected {
				assert.Contains(t, output.String(), expected)
			}
			for _, notExpected := range tt.notExpected {
				assert.NotContains(t, output.String(), notExpected)
			}
		})
	}
}
