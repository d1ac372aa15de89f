package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

var (
	// ErrInputCancelled is returned when input is canceled by context.
	ErrInputCancelled = errors.New("input canceled")
	// ErrInputClosed is returned when the input ends before a line is read.
	ErrInputClosed = errors.New("input closed")
)

// NonBlockingReader provides context-aware input reading that can be interrupted.
type NonBlockingReader struct {
	reader      *bufio.Reader
	readingLock sync.Mutex
}

// NewNonBlockingReader creates a new non-blocking reader.
func NewNonBlockingReader(reader io.Reader) *NonBlockingReader {
	if reader == nil {
		panic("reader cannot be nil")
	}

	return &NonBlockingReader{
		reader: bufio.NewReader(reader),
	}
}

// ReadString reads a string until delimiter, respecting context cancellation.
func (r *NonBlockingReader) ReadString(ctx context.Context, delim byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", ErrInputCancelled
	}

	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		r.readingLock.Lock()
		defer r.readingLock.Unlock()

		value, err := r.reader.ReadString(delim)
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		// The reading goroutine finishes on its own once input arrives.
		return "", ErrInputCancelled
	case res := <-resultCh:
		return res.value, res.err
	}
}

// ReadLine reads a trimmed line. A final line without a newline is still
// returned; ErrInputClosed is returned only when nothing was left to read.
func (r *NonBlockingReader) ReadLine(ctx context.Context) (string, error) {
	line, err := r.ReadString(ctx, '\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line != "" {
				return strings.TrimSpace(line), nil
			}
			return "", ErrInputClosed
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
