package observability

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestShutdownManager_RunsFuncs(t *testing.T) {
	logger, _ := test.NewNullLogger()
	sm := NewShutdownManager(logger, nil, time.Second)

	var calls int32
	for i := 0; i < 3; i++ {
		sm.RegisterShutdownFunc(func(ctx context.Context) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, sm.WaitForShutdown(ctx))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestShutdownManager_CollectsErrors(t *testing.T) {
	logger, _ := test.NewNullLogger()
	sm := NewShutdownManager(logger, nil, 0)

	boom := errors.New("boom")
	sm.RegisterShutdownFunc(func(ctx context.Context) error { return boom })
	sm.RegisterShutdownFunc(func(ctx context.Context) error { return nil })

	err := sm.Shutdown()
	assert.ErrorIs(t, err, boom)
}

func TestShutdownManager_Timeout(t *testing.T) {
	logger, _ := test.NewNullLogger()
	sm := NewShutdownManager(logger, nil, 20*time.Millisecond)

	release := make(chan struct{})
	defer close(release)
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		<-release
		return nil
	})

	assert.EqualError(t, sm.Shutdown(), "shutdown timeout reached")
}
