package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeGo_Success(t *testing.T) {
	logger, _ := test.NewNullLogger()
	done := make(chan struct{})

	SafeGo(context.Background(), logger, time.Second, "test task", func(ctx context.Context) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SafeGo did not execute function")
	}
}

func TestSafeGo_LogsError(t *testing.T) {
	logger, hook := test.NewNullLogger()

	SafeGo(context.Background(), logger, time.Second, "kick users", func(ctx context.Context) error {
		return errors.New("queue unavailable")
	})

	require.Eventually(t, func() bool { return len(hook.AllEntries()) == 1 }, time.Second, 10*time.Millisecond)
	entry := hook.AllEntries()[0]
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "kick users", entry.Data["task"])
}

func TestSafeGo_Timeout(t *testing.T) {
	logger, _ := test.NewNullLogger()
	completed := atomic.Bool{}
	canceled := make(chan struct{})

	SafeGo(context.Background(), logger, 50*time.Millisecond, "test task", func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			completed.Store(true)
			return nil
		case <-ctx.Done():
			close(canceled)
			return ctx.Err()
		}
	})

	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("task was not canceled by timeout")
	}
	assert.False(t, completed.Load())
}

func TestSafeGo_PanicRecovery(t *testing.T) {
	logger, hook := test.NewNullLogger()

	SafeGo(context.Background(), logger, time.Second, "test task", func(ctx context.Context) error {
		panic("test panic")
	})

	require.Eventually(t, func() bool { return len(hook.AllEntries()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, logrus.ErrorLevel, hook.AllEntries()[0].Level)
	assert.Equal(t, "test panic", hook.AllEntries()[0].Data["panic"])
}

func TestWorkerPool_Basic(t *testing.T) {
	logger, _ := test.NewNullLogger()
	pool := NewWorkerPool(context.Background(), logger, 3, "test pool", time.Second)

	var count atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(func(ctx context.Context) error {
			count.Add(1)
			return nil
		}))
	}

	require.NoError(t, pool.Shutdown(time.Second))
	assert.Equal(t, int32(10), count.Load())
}

func TestWorkerPool_Errors(t *testing.T) {
	logger, _ := test.NewNullLogger()
	pool := NewWorkerPool(context.Background(), logger, 2, "test pool", time.Second)

	require.NoError(t, pool.Submit(func(ctx context.Context) error {
		return errors.New("task failed")
	}))
	require.NoError(t, pool.Submit(func(ctx context.Context) error {
		panic("worker panic")
	}))
	require.NoError(t, pool.Shutdown(time.Second))

	var errs []error
	for len(errs) < 2 {
		select {
		case err := <-pool.Errors():
			errs = append(errs, err)
		case <-time.After(time.Second):
			t.Fatalf("expected 2 errors, got %d", len(errs))
		}
	}
	assert.Len(t, errs, 2)
}

func TestWorkerPool_SubmitAfterShutdown(t *testing.T) {
	logger, _ := test.NewNullLogger()
	pool := NewWorkerPool(context.Background(), logger, 1, "test pool", time.Second)
	require.NoError(t, pool.Shutdown(time.Second))

	err := pool.Submit(func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolShutdown)
	assert.NoError(t, pool.Shutdown(time.Second), "second shutdown is a no-op")
}

func TestWorkerPool_ShutdownTimeout(t *testing.T) {
	logger, _ := test.NewNullLogger()
	pool := NewWorkerPool(context.Background(), logger, 1, "test pool", 5*time.Second)

	started := make(chan struct{})
	require.NoError(t, pool.Submit(func(ctx context.Context) error {
		close(started)
		time.Sleep(300 * time.Millisecond)
		return nil
	}))
	<-started

	err := pool.Shutdown(20 * time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestBatch(t *testing.T) {
	logger, _ := test.NewNullLogger()
	items := []int{1, 2, 3, 4, 5}

	var sum atomic.Int64
	errs := Batch(context.Background(), logger, items, 2, "sum", time.Second, func(ctx context.Context, n int) error {
		sum.Add(int64(n))
		if n%2 == 0 {
			return errors.New("even")
		}
		return nil
	})

	assert.Equal(t, int64(15), sum.Load())
	assert.Len(t, errs, 2)
}

func TestBatch_Empty(t *testing.T) {
	logger, _ := test.NewNullLogger()
	errs := Batch(context.Background(), logger, []string{}, 2, "noop", time.Second, func(ctx context.Context, s string) error {
		return errors.New("unreachable")
	})
	assert.Empty(t, errs)
}
