// Package queue provides a process-local task runner with bounded
// concurrency, priority-ordered dispatch, per-task retry with exponential
// backoff, and a short-TTL result cache keyed by task id.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"slidegen/internal/domain"
)

// Options tune a Queue. Zero values fall back to the package defaults.
type Options struct {
	MaxConcurrent int
	MaxRetries    int
	RetryBase     time.Duration
	RetryCap      time.Duration
	CacheTTL      time.Duration
	CacheSize     int
	Logger        zerolog.Logger
}

const (
	defaultMaxConcurrent = 3
	defaultMaxRetries    = 3
	defaultRetryBase     = time.Second
	defaultRetryCap      = 10 * time.Second
	defaultCacheTTL      = 5 * time.Minute
	defaultCacheSize     = 1024
)

type item struct {
	id       string
	priority int
	seq      uint64
	retries  int
	run      func(context.Context) (any, error)
	done     chan outcome
}

type outcome struct {
	value any
	err   error
}

// Queue schedules submitted tasks at bounded concurrency in descending
// priority order. Items of equal priority dispatch in submission order, and a
// running item is never preempted. Concurrent submissions for the same id
// share one execution.
type Queue struct {
	opts Options
	log  zerolog.Logger

	cache  *expirable.LRU[string, any]
	flight singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending []*item
	active  int
	seq     uint64
	stopped bool
}

// New constructs a Queue. Callers own the instance; there is no package-level
// singleton.
func New(opts Options) *Queue {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaultMaxConcurrent
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	} else if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = defaultRetryBase
	}
	if opts.RetryCap <= 0 {
		opts.RetryCap = defaultRetryCap
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		opts:   opts,
		log:    opts.Logger,
		cache:  expirable.NewLRU[string, any](opts.CacheSize, nil, opts.CacheTTL),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Do submits task under id at the given priority and blocks until the task
// resolves, its retry budget is exhausted, or ctx is done. A fresh result for
// the same id within the cache TTL short-circuits without invoking task.
//
// When ctx expires the caller is released, but the attempt keeps running on
// the queue's own context so its result can still land in the cache for a
// retried request.
func (q *Queue) Do(ctx context.Context, id string, priority int, task func(context.Context) (any, error)) (any, error) {
	if v, ok := q.cache.Get(id); ok {
		q.log.Debug().Str("task", id).Msg("queue: cache hit")
		return v, nil
	}
	ch := q.flight.DoChan(id, func() (any, error) {
		if v, ok := q.cache.Get(id); ok {
			return v, nil
		}
		v, err := q.submit(id, priority, task)
		if err == nil {
			q.cache.Add(id, v)
		}
		return v, err
	})
	select {
	case r := <-ch:
		return r.Val, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Do submits task through q with the result typed at the call site.
func Do[T any](ctx context.Context, q *Queue, id string, priority int, task func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := q.Do(ctx, id, priority, func(ctx context.Context) (any, error) {
		return task(ctx)
	})
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("task %s: unexpected result type %T", id, v)
	}
	return typed, nil
}

// Depth reports the number of pending and running items, for diagnostics.
func (q *Queue) Depth() (pending, active int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending), q.active
}

// Stop rejects new submissions, releases queued waiters with
// domain.ErrQueueStopped, cancels the task context, and waits for running
// attempts to settle.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	dropped := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, it := range dropped {
		it.done <- outcome{err: domain.ErrQueueStopped}
	}
	q.cancel()
	q.wg.Wait()
}

func (q *Queue) submit(id string, priority int, task func(context.Context) (any, error)) (any, error) {
	it := &item{
		id:       id,
		priority: priority,
		run:      task,
		done:     make(chan outcome, 1),
	}
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return nil, domain.ErrQueueStopped
	}
	q.seq++
	it.seq = q.seq
	q.pending = append(q.pending, it)
	q.sortPendingLocked()
	q.mu.Unlock()

	q.dispatch()
	out := <-it.done
	return out.value, out.err
}

// sortPendingLocked keeps pending ordered by descending priority, submission
// order among equals.
func (q *Queue) sortPendingLocked() {
	sort.Slice(q.pending, func(i, j int) bool {
		if q.pending[i].priority != q.pending[j].priority {
			return q.pending[i].priority > q.pending[j].priority
		}
		return q.pending[i].seq < q.pending[j].seq
	})
}

func (q *Queue) dispatch() {
	q.mu.Lock()
	for !q.stopped && q.active < q.opts.MaxConcurrent && len(q.pending) > 0 {
		it := q.pending[0]
		q.pending = q.pending[1:]
		q.active++
		q.wg.Add(1)
		go q.runItem(it)
	}
	q.mu.Unlock()
}

func (q *Queue) runItem(it *item) {
	defer q.wg.Done()
	v, err := q.attempt(it)

	q.mu.Lock()
	q.active--
	q.mu.Unlock()
	defer q.dispatch()

	switch {
	case err == nil:
		it.done <- outcome{value: v}
	case classify(err) == terminal:
		q.log.Debug().Str("task", it.id).Err(err).Msg("queue: terminal failure")
		it.done <- outcome{err: err}
	case it.retries >= q.opts.MaxRetries:
		it.done <- outcome{err: fmt.Errorf("task %s: %w: %w", it.id, domain.ErrRetryExhausted, err)}
	default:
		delay := backoffDelay(q.opts.RetryBase, q.opts.RetryCap, it.retries)
		it.retries++
		q.log.Debug().
			Str("task", it.id).
			Int("retry", it.retries).
			Dur("delay", delay).
			Err(err).
			Msg("queue: scheduling retry")
		q.wg.Add(1)
		time.AfterFunc(delay, func() {
			defer q.wg.Done()
			q.requeue(it)
		})
	}
}

// attempt runs the task on the queue's context, catching panics at the
// dispatch boundary so a misbehaving task cannot take the process down.
func (q *Queue) attempt(it *item) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", it.id, r)
		}
	}()
	return it.run(q.ctx)
}

func (q *Queue) requeue(it *item) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		it.done <- outcome{err: domain.ErrQueueStopped}
		return
	}
	q.seq++
	it.seq = q.seq
	q.pending = append(q.pending, it)
	q.sortPendingLocked()
	q.mu.Unlock()
	q.dispatch()
}

type disposition int

const (
	retryable disposition = iota
	terminal
)

// classify makes the retry decision a pure function of the error class.
// Quota errors propagate immediately so externally imposed throttling is not
// compounded by retries.
func classify(err error) disposition {
	switch {
	case errors.Is(err, domain.ErrQuotaExceeded),
		errors.Is(err, domain.ErrNotConfigured),
		errors.Is(err, context.Canceled),
		errors.Is(err, domain.ErrQueueStopped):
		return terminal
	default:
		return retryable
	}
}

func backoffDelay(base, ceil time.Duration, retries int) time.Duration {
	d := base << uint(retries)
	if d <= 0 || d > ceil {
		return ceil
	}
	return d
}
