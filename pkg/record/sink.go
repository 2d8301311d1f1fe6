package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// Sink persists finished traces.
type Sink interface {
	Put(ctx context.Context, tr *Trace) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, tr *Trace) error

// Put calls f.
func (f SinkFunc) Put(ctx context.Context, tr *Trace) error {
	return f(ctx, tr)
}

// Sink errors.
var (
	ErrQueueFull  = errors.New("record: queue full")
	ErrSinkClosed = errors.New("record: sink closed")
)

// DirSink writes each trace to <Dir>/<id>.yaml.
type DirSink struct {
	dir string
}

// NewDirSink creates a DirSink, creating dir if needed.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("record: create trace dir: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

// Dir returns the target directory.
func (s *DirSink) Dir() string {
	return s.dir
}

// Put writes tr atomically: a temp file is written then renamed into place.
func (s *DirSink) Put(ctx context.Context, tr *Trace) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Marshal(tr)
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, tr.ID+".yaml")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// DefaultQueueSize is the AsyncSink buffer when none is given.
const DefaultQueueSize = 64

// AsyncSink hands traces to another Sink on a single worker goroutine.
// Put never blocks: when the queue is full the trace is dropped and counted.
type AsyncSink struct {
	next   Sink
	queue  chan *Trace
	done   chan struct{}
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool

	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewAsyncSink starts a worker that forwards to next.
func NewAsyncSink(next Sink, queueSize int, logger *slog.Logger) *AsyncSink {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default().With("component", "record")
	}
	s := &AsyncSink{
		next:   next,
		queue:  make(chan *Trace, queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	go s.run()
	return s
}

// Put enqueues tr. It returns ErrQueueFull when the trace was dropped and
// ErrSinkClosed after Close.
func (s *AsyncSink) Put(_ context.Context, tr *Trace) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrSinkClosed
	}
	select {
	case s.queue <- tr:
		return nil
	default:
		s.dropped.Add(1)
		return ErrQueueFull
	}
}

// Dropped returns the number of traces dropped because the queue was full.
func (s *AsyncSink) Dropped() uint64 {
	return s.dropped.Load()
}

// Failed returns the number of traces the underlying sink rejected.
func (s *AsyncSink) Failed() uint64 {
	return s.failed.Load()
}

// Close stops accepting traces and waits for the queue to drain or ctx to
// end, whichever comes first.
func (s *AsyncSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AsyncSink) run() {
	defer close(s.done)
	for tr := range s.queue {
		if err := s.next.Put(context.Background(), tr); err != nil {
			s.failed.Add(1)
			s.logger.Error("trace write failed", "trace_id", tr.ID, "error", err)
		}
	}
}
