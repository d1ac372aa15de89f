package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler cancels a context on SIGINT or SIGTERM and tells the user.
type InterruptHandler struct {
	writer      io.Writer
	sigChan     chan os.Signal
	hint        string
	interrupted bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a new interrupt handler.
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stderr
	}
	return &InterruptHandler{
		writer:  writer,
		sigChan: make(chan os.Signal, 1),
	}
}

// HandleInterrupts returns a context that is canceled on interrupt. The hint,
// when set, is printed below the interrupt notice.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context, hint string) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	h.hint = hint

	signal.Notify(h.sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(h.sigChan)
		select {
		case <-h.sigChan:
			h.mu.Lock()
			if !h.interrupted {
				h.interrupted = true
				h.showInterruptMessage()
			}
			h.mu.Unlock()
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx
}

func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n" + FormatWarning("Operação interrompida!")

	if h.hint != "" {
		msg += "\n" + FormatInfo(h.hint)
	}

	msg += "\n" + FormatInfo("Até logo!") + "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		// Best effort - we're shutting down anyway
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted returns true if the process was interrupted.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
