package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type pingEvent struct{}

func (pingEvent) Name() string { return "ping" }

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPublishInvokesAllListeners(t *testing.T) {
	bus := New(zap.NewNop())
	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		bus.Subscribe("ping", func(ctx context.Context, event Event) error {
			calls.Add(1)
			return nil
		})
	}

	bus.Publish(context.Background(), pingEvent{})
	bus.Wait()

	assert.Equal(t, int32(3), calls.Load())
}

func TestListenerErrorsAndPanicsAreContained(t *testing.T) {
	bus := New(zap.NewNop())
	var reached atomic.Bool
	bus.Subscribe("ping", func(ctx context.Context, event Event) error { return errors.New("boom") })
	bus.Subscribe("ping", func(ctx context.Context, event Event) error { panic("kaboom") })
	bus.Subscribe("ping", func(ctx context.Context, event Event) error {
		reached.Store(true)
		return nil
	})

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), pingEvent{})
		bus.Wait()
	})
	assert.True(t, reached.Load())
}

func TestListenerContextSurvivesPublisherCancel(t *testing.T) {
	bus := New(zap.NewNop())
	var ctxErr atomic.Value
	started := make(chan struct{})
	bus.Subscribe("ping", func(ctx context.Context, event Event) error {
		<-started
		ctxErr.Store(fmt.Sprint(ctx.Err()))
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, pingEvent{})
	cancel()
	close(started)
	bus.Wait()

	assert.Equal(t, "<nil>", ctxErr.Load())
}

func TestCloseDrainsInflightAndDropsLateEvents(t *testing.T) {
	bus := New(zap.NewNop())
	var calls atomic.Int32
	release := make(chan struct{})
	bus.Subscribe("ping", func(ctx context.Context, event Event) error {
		<-release
		calls.Add(1)
		return nil
	})

	bus.Publish(context.Background(), pingEvent{})

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()
	require.NoError(t, bus.Close(context.Background()))
	assert.Equal(t, int32(1), calls.Load())

	bus.Publish(context.Background(), pingEvent{})
	bus.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestCloseHonoursDeadline(t *testing.T) {
	bus := New(zap.NewNop())
	release := make(chan struct{})
	bus.Subscribe("ping", func(ctx context.Context, event Event) error {
		<-release
		return nil
	})
	bus.Publish(context.Background(), pingEvent{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Close(ctx), context.DeadlineExceeded)

	close(release)
	bus.Wait()
}
