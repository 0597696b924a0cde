package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"slidegen/internal/domain"
)

func newTestQueue(t *testing.T, opts Options) *Queue {
	t.Helper()
	opts.Logger = zerolog.Nop()
	if opts.RetryBase == 0 {
		opts.RetryBase = time.Millisecond
	}
	q := New(opts)
	t.Cleanup(q.Stop)
	return q
}

func TestDoCachesResultWithinTTL(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t, Options{MaxConcurrent: 2, CacheTTL: time.Minute})

	var calls atomic.Int32
	task := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "cached-value", nil
	}

	for i := 0; i < 2; i++ {
		got, err := Do(context.Background(), q, "report-1-title", 4, task)
		if err != nil {
			t.Fatalf("Do #%d returned error: %v", i+1, err)
		}
		if got != "cached-value" {
			t.Fatalf("Do #%d = %q, want %q", i+1, got, "cached-value")
		}
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("task invoked %d times, want 1", n)
	}
}

func TestDoCoalescesConcurrentSubmissions(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t, Options{MaxConcurrent: 3, CacheTTL: time.Minute})

	var calls atomic.Int32
	release := make(chan struct{})
	task := func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Do(context.Background(), q, "same-id", 1, task)
			if err != nil {
				t.Errorf("Do: %v", err)
				return
			}
			results[i] = v
		}(i)
	}
	// Let all four reach the singleflight barrier before the task resolves.
	deadline := time.Now().Add(time.Second)
	for {
		if _, active := q.Depth(); active > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Fatalf("task invoked %d times, want 1", n)
	}
	for i, v := range results {
		if v != "shared" {
			t.Fatalf("result[%d] = %q, want %q", i, v, "shared")
		}
	}
}

func TestDispatchHonorsPriority(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t, Options{MaxConcurrent: 1, CacheTTL: time.Minute})

	block := make(chan struct{})
	go func() {
		_, _ = Do(context.Background(), q, "blocker", 100, func(ctx context.Context) (string, error) {
			<-block
			return "", nil
		})
	}()
	waitForActive(t, q, 1)

	starts := make(chan int, 3)
	var wg sync.WaitGroup
	for i, prio := range []int{1, 3, 2} {
		wg.Add(1)
		go func(i, prio int) {
			defer wg.Done()
			_, _ = Do(context.Background(), q, fmt.Sprintf("sub-%d", i), prio, func(ctx context.Context) (int, error) {
				starts <- prio
				return prio, nil
			})
		}(i, prio)
		waitForPending(t, q, i+1)
	}

	close(block)
	wg.Wait()
	close(starts)

	var order []int
	for p := range starts {
		order = append(order, p)
	}
	want := []int{3, 2, 1}
	if len(order) != len(want) {
		t.Fatalf("started %d tasks, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("start order = %v, want %v", order, want)
		}
	}
}

func TestRetryBackoffEventuallySucceeds(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t, Options{MaxConcurrent: 1, MaxRetries: 3, RetryBase: time.Millisecond, CacheTTL: time.Minute})

	var attempts atomic.Int32
	got, err := Do(context.Background(), q, "flaky", 1, func(ctx context.Context) (string, error) {
		if attempts.Add(1) <= 2 {
			return "", fmt.Errorf("%w: upstream 503", domain.ErrProviderFailure)
		}
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if got != "recovered" {
		t.Fatalf("result = %q, want %q", got, "recovered")
	}
	if n := attempts.Load(); n != 3 {
		t.Fatalf("attempts = %d, want 3", n)
	}
}

func TestQuotaErrorsAreNotRetried(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t, Options{MaxConcurrent: 1, MaxRetries: 3, CacheTTL: time.Minute})

	var attempts atomic.Int32
	_, err := Do(context.Background(), q, "throttled", 1, func(ctx context.Context) (string, error) {
		attempts.Add(1)
		return "", fmt.Errorf("%w: backend 429", domain.ErrQuotaExceeded)
	})
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}
	if errors.Is(err, domain.ErrRetryExhausted) {
		t.Fatalf("quota error must not be wrapped as retry exhaustion: %v", err)
	}
	if n := attempts.Load(); n != 1 {
		t.Fatalf("attempts = %d, want 1", n)
	}
}

func TestRetryBudgetExhaustion(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t, Options{MaxConcurrent: 1, MaxRetries: 2, RetryBase: time.Millisecond, CacheTTL: time.Minute})

	var attempts atomic.Int32
	_, err := Do(context.Background(), q, "doomed", 1, func(ctx context.Context) (string, error) {
		attempts.Add(1)
		return "", errors.New("network unreachable")
	})
	if !errors.Is(err, domain.ErrRetryExhausted) {
		t.Fatalf("err = %v, want ErrRetryExhausted", err)
	}
	if n := attempts.Load(); n != 3 {
		t.Fatalf("attempts = %d, want 3 (initial + 2 retries)", n)
	}
}

func TestAbandonedCallerStillPopulatesCache(t *testing.T) {
	t.Parallel()
	q := newTestQueue(t, Options{MaxConcurrent: 1, CacheTTL: time.Minute})

	var calls atomic.Int32
	started := make(chan struct{})
	task := func(ctx context.Context) (string, error) {
		calls.Add(1)
		close(started)
		time.Sleep(30 * time.Millisecond)
		return "late", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if _, err := Do(ctx, q, "slow", 1, task); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context deadline", err)
	}

	<-started
	// The abandoned attempt finishes on the queue's own context and lands in
	// the cache for the follow-up request.
	deadline := time.Now().Add(time.Second)
	for {
		got, err := Do(context.Background(), q, "slow", 1, task)
		if err != nil {
			t.Fatalf("Do returned error: %v", err)
		}
		if got == "late" && calls.Load() == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("cache never populated: calls=%d result=%q", calls.Load(), got)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStopReleasesPendingWaiters(t *testing.T) {
	t.Parallel()
	q := New(Options{MaxConcurrent: 1, CacheTTL: time.Minute, Logger: zerolog.Nop()})

	block := make(chan struct{})
	go func() {
		_, _ = Do(context.Background(), q, "running", 1, func(ctx context.Context) (string, error) {
			<-block
			return "", nil
		})
	}()
	waitForActive(t, q, 1)

	errs := make(chan error, 1)
	go func() {
		_, err := Do(context.Background(), q, "parked", 1, func(ctx context.Context) (string, error) {
			return "", nil
		})
		errs <- err
	}()
	waitForPending(t, q, 1)

	done := make(chan struct{})
	go func() {
		q.Stop()
		close(done)
	}()

	if err := <-errs; !errors.Is(err, domain.ErrQueueStopped) {
		t.Fatalf("parked waiter err = %v, want ErrQueueStopped", err)
	}
	close(block)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after running task finished")
	}

	if _, err := Do(context.Background(), q, "rejected", 1, func(ctx context.Context) (string, error) {
		return "", nil
	}); !errors.Is(err, domain.ErrQueueStopped) {
		t.Fatalf("post-stop err = %v, want ErrQueueStopped", err)
	}
}

func waitForPending(t *testing.T, q *Queue, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		if pending, _ := q.Depth(); pending >= n {
			return
		}
		if time.Now().After(deadline) {
			pending, active := q.Depth()
			t.Fatalf("pending never reached %d (pending=%d active=%d)", n, pending, active)
		}
		time.Sleep(time.Millisecond)
	}
}

func waitForActive(t *testing.T, q *Queue, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		if _, active := q.Depth(); active >= n {
			return
		}
		if time.Now().After(deadline) {
			pending, active := q.Depth()
			t.Fatalf("active never reached %d (pending=%d active=%d)", n, pending, active)
		}
		time.Sleep(time.Millisecond)
	}
}
