package tasks

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wpx/internal/shared"
)

// Uploader defaults
const (
	DefaultConcurrency = 8
	DefaultDelay       = time.Second
	DefaultTimeout     = 60 * time.Second
)

// WriteFunc performs the remote write for one item.
//
// ctx is cancelled when the item times out or the run's parent context ends,
// so implementations should check it between remote calls.
type WriteFunc[T any] func(ctx context.Context, item T) error

// UploaderOpts configures an [Uploader].
type UploaderOpts struct {
	Concurrency int           // maximum slots in flight (default: 8)
	Timeout     time.Duration // per-item deadline (default: 60s)
	Phase       Phase         // phase reported in progress updates
	Label       string        // plural noun used in progress messages, e.g. "posts"
	Logger      *log.Logger
}

// Failure is an item that did not upload and the reason.
type Failure[T any] struct {
	Item  T      `json:"item"`
	Error string `json:"error"`
	Err   error  `json:"-"`
}

// UploadResult partitions a run's items by terminal outcome.
//
// Order within each slice is completion order, not input order.
type UploadResult[T any] struct {
	Done   []T          `json:"done"`
	Failed []Failure[T] `json:"failed"`
}

// Total is the number of items with an outcome.
func (r *UploadResult[T]) Total() int {
	return len(r.Done) + len(r.Failed)
}

// Uploader runs a [WriteFunc] over a list of items with bounded concurrency.
//
// Items are dispatched in input order to at most Concurrency workers. Each item gets a single attempt
// raced against the per-item timeout; failures are recorded, never retried, and never abort the run.
type Uploader[T any] struct {
	opts     UploaderOpts
	identify func(T) string
	write    WriteFunc[T]
	logger   *log.Logger
}

// NewUploader validates opts and returns an [Uploader]. identify must return a unique, non-empty key per item.
func NewUploader[T any](opts UploaderOpts, identify func(T) string, write WriteFunc[T]) (*Uploader[T], error) {
	if identify == nil || write == nil {
		return nil, fmt.Errorf("%w: uploader needs an identify and a write function", shared.ErrInvalidArgument)
	}
	if opts.Concurrency < 0 {
		return nil, fmt.Errorf("%w: concurrency must be positive, got %d", shared.ErrInvalidArgument, opts.Concurrency)
	}
	if opts.Timeout < 0 {
		return nil, fmt.Errorf("%w: timeout must be positive, got %s", shared.ErrInvalidArgument, opts.Timeout)
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Label == "" {
		opts.Label = "items"
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	return &Uploader[T]{
		opts:     opts,
		identify: identify,
		write:    write,
		logger:   shared.WithLogger(logger, "upload", opts.Label),
	}, nil
}

// Concurrency returns the effective slot limit.
func (u *Uploader[T]) Concurrency() int {
	return u.opts.Concurrency
}

// Run uploads items and returns once every item is done or failed.
//
// Items with an empty or repeated identifier are rejected before anything is dispatched.
// After dispatch starts Run never returns an error; per-item errors are in [UploadResult.Failed].
// Progress updates are sent without blocking, so a slow consumer misses updates rather than stalling workers.
func (u *Uploader[T]) Run(ctx context.Context, items []T, progress chan<- ProgressUpdate) (*UploadResult[T], error) {
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		id := u.identify(item)
		if id == "" {
			return nil, fmt.Errorf("%w: item %d has no identifier", shared.ErrInvalidInput, i)
		}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: %s", shared.ErrDuplicateItem, id)
		}
		seen[id] = struct{}{}
	}

	state := newEngineState(items)
	workers := min(len(items), u.opts.Concurrency)
	started := time.Now()

	sendProgress(progress, preparingUpdate(u.opts.Phase, len(items), u.opts.Label))
	u.logger.Info("starting upload", "items", len(items), "workers", workers, "timeout", u.opts.Timeout)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u.worker(ctx, state, progress)
		}()
	}
	wg.Wait()

	result := state.result()
	u.logger.Info("upload complete",
		"done", len(result.Done),
		"failed", len(result.Failed),
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	return result, nil
}

// worker pulls items from the front of the queue until it is empty.
func (u *Uploader[T]) worker(ctx context.Context, state *engineState[T], progress chan<- ProgressUpdate) {
	for {
		item, id, counts, ok := state.dequeue(u.identify)
		if !ok {
			return
		}
		sendProgress(progress, remainingUpdate(u.opts.Phase, counts))

		err := u.slot(ctx, item)
		if err != nil {
			u.logger.Warn("upload failed", "id", id, "err", err)
		} else {
			u.logger.Debug("uploaded", "id", id)
		}

		counts = state.settle(id, item, err)
		sendProgress(progress, remainingUpdate(u.opts.Phase, counts))
	}
}

// slot races the write path for one item against the per-item timer.
//
// The first of {write result, timer, parent cancellation} decides the outcome and the slot context is
// cancelled on return. A write that finishes later sends into the buffered channel and is discarded.
func (u *Uploader[T]) slot(parent context.Context, item T) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	result := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("%w: write panicked: %v", shared.ErrRemoteWrite, r)
			}
		}()
		result <- u.write(ctx, item)
	}()

	timer := time.NewTimer(u.opts.Timeout)
	defer timer.Stop()

	select {
	case err := <-result:
		return err
	case <-timer.C:
		return fmt.Errorf("%w after %s", shared.ErrTimeout, u.opts.Timeout)
	case <-parent.Done():
		return fmt.Errorf("upload cancelled: %w", parent.Err())
	}
}

// engineState is the mutable run state shared by workers. Every field is guarded by mu.
//
// An identifier is in at most one of pending, inFlight, done or failed.
type engineState[T any] struct {
	mu       sync.Mutex
	total    int
	pending  []T
	inFlight map[string]struct{}
	done     []T
	failed   []Failure[T]
}

func newEngineState[T any](items []T) *engineState[T] {
	return &engineState[T]{
		total:    len(items),
		pending:  append([]T(nil), items...),
		inFlight: make(map[string]struct{}),
		done:     make([]T, 0, len(items)),
		failed:   make([]Failure[T], 0),
	}
}

// dequeue moves the front of pending into the in-flight set.
func (s *engineState[T]) dequeue(identify func(T) string) (T, string, UploadCounts, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if len(s.pending) == 0 {
		return zero, "", s.countsLocked(), false
	}

	item := s.pending[0]
	s.pending[0] = zero
	s.pending = s.pending[1:]

	id := identify(item)
	s.inFlight[id] = struct{}{}
	return item, id, s.countsLocked(), true
}

// settle records the outcome of an in-flight item. Called exactly once per dequeued item.
func (s *engineState[T]) settle(id string, item T, err error) UploadCounts {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inFlight, id)
	if err != nil {
		s.failed = append(s.failed, Failure[T]{Item: item, Error: err.Error(), Err: err})
	} else {
		s.done = append(s.done, item)
	}
	return s.countsLocked()
}

func (s *engineState[T]) countsLocked() UploadCounts {
	return UploadCounts{
		Total:     s.total,
		Remaining: len(s.pending),
		Uploading: len(s.inFlight),
		Done:      len(s.done),
		Failed:    len(s.failed),
	}
}

func (s *engineState[T]) result() *UploadResult[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &UploadResult[T]{Done: s.done, Failed: s.failed}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
