package tasks

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	bgTasks := New(slog.Default(), 3, 10)
	bgTasks.Run()
	var runned atomic.Int32
	for i := 0; i < 10; i++ {
		bgTasks.Add(func() {
			runned.Add(1)
		})
	}
	require.NoError(t, bgTasks.Shutdown(context.Background()))
	assert.EqualValues(t, 10, runned.Load())
}

func TestPanicDoesNotKillWorker(t *testing.T) {
	bgTasks := New(slog.Default(), 1, 2)
	bgTasks.Run()
	var runned atomic.Bool
	bgTasks.Add(func() { panic("boom") })
	bgTasks.Add(func() { runned.Store(true) })
	require.NoError(t, bgTasks.Shutdown(context.Background()))
	assert.True(t, runned.Load())
}

func TestAddAfterShutdown(t *testing.T) {
	bgTasks := New(slog.Default(), 1, 1)
	bgTasks.Run()
	require.NoError(t, bgTasks.Shutdown(context.Background()))
	assert.ErrorIs(t, bgTasks.TryAdd(func() {}), ErrStopped)
	assert.NotPanics(t, func() { bgTasks.Add(func() {}) })
	assert.NoError(t, bgTasks.Shutdown(context.Background()))
}

func TestShutdownTimeout(t *testing.T) {
	bgTasks := New(slog.Default(), 1, 1)
	bgTasks.Run()
	release := make(chan struct{})
	defer close(release)
	bgTasks.Add(func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bgTasks.Shutdown(ctx), context.DeadlineExceeded)
}
