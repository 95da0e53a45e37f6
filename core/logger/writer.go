package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// lineWriter fans complete log lines out to buffered sinks.
type lineWriter struct {
	mu    sync.Mutex
	sinks []*bufio.Writer
}

func newLineWriter(writers []io.Writer) *lineWriter {
	w := &lineWriter{}
	for _, s := range writers {
		if s != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(s, 32*1024))
		}
	}
	return w
}

// Write emits one line to every sink and flushes it so lines are never interleaved.
func (w *lineWriter) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, s := range w.sinks {
		if _, err := s.Write(p); err != nil {
			errs = append(errs, err)
			continue
		}
		errs = append(errs, s.Flush())
	}
	return errors.Join(errs...)
}

// Flush drains buffered content.
func (w *lineWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, s := range w.sinks {
		errs = append(errs, s.Flush())
	}
	return errors.Join(errs...)
}
