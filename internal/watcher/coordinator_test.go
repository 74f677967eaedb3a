package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Coordinator:
// - Start blocks until cancellation and stops the file watcher
// - File change invalidates the cache and regenerates with the changed files
// - Regeneration errors are logged and later changes still regenerate
// - Empty batches are ignored
// - File watcher start errors propagate and clean up
// - Stop errors during cleanup do not panic

// mockFileWatcher implements FileWatcher for testing.
type mockFileWatcher struct {
	startErr   error
	stopErr    error
	callback   func(files []string)
	stopCalled bool
	started    chan struct{}
	mu         sync.Mutex
}

func newMockFileWatcher() *mockFileWatcher {
	return &mockFileWatcher{started: make(chan struct{})}
}

func (m *mockFileWatcher) Start(ctx context.Context, callback func(files []string)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	m.callback = callback
	close(m.started)
	return nil
}

func (m *mockFileWatcher) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalled = true
	return m.stopErr
}

func (m *mockFileWatcher) trigger(files []string) {
	m.mu.Lock()
	callback := m.callback
	m.mu.Unlock()
	if callback != nil {
		callback(files)
	}
}

func (m *mockFileWatcher) stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCalled
}

// mockRegenerator records regeneration calls.
type mockRegenerator struct {
	err   error
	calls [][]string
	mu    sync.Mutex
}

func (m *mockRegenerator) Regenerate(ctx context.Context, changed []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, changed)
	return m.err
}

func (m *mockRegenerator) getCalls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.calls...)
}

// mockCache records invalidated paths.
type mockCache struct {
	invalidated []string
	mu          sync.Mutex
}

func (m *mockCache) Invalidate(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, path)
}

// runCoordinator starts c in the background and waits for the file watcher.
func runCoordinator(t *testing.T, c *Coordinator, files *mockFileWatcher) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(ctx) }()

	select {
	case <-files.started:
	case <-time.After(time.Second):
		t.Fatal("file watcher not started")
	}
	return cancel, errCh
}

func TestCoordinator_StartAndCancel(t *testing.T) {
	t.Parallel()

	files := newMockFileWatcher()
	c := NewCoordinator(files, &mockRegenerator{}, nil, nil)

	cancel, errCh := runCoordinator(t, c, files)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("coordinator did not stop")
	}
	assert.True(t, files.stopped())
}

func TestCoordinator_FileChangeRegenerates(t *testing.T) {
	t.Parallel()

	files := newMockFileWatcher()
	regen := &mockRegenerator{}
	cache := &mockCache{}
	c := NewCoordinator(files, regen, cache, nil)

	cancel, _ := runCoordinator(t, c, files)
	defer cancel()

	changed := []string{"fsw/a.h", "fsw/b.h"}
	files.trigger(changed)

	assert.Equal(t, [][]string{changed}, regen.getCalls())
	cache.mu.Lock()
	assert.Equal(t, changed, cache.invalidated)
	cache.mu.Unlock()
}

func TestCoordinator_RegenerateErrorDoesNotStop(t *testing.T) {
	t.Parallel()

	files := newMockFileWatcher()
	regen := &mockRegenerator{err: errors.New("parse failed")}
	c := NewCoordinator(files, regen, nil, nil)

	cancel, _ := runCoordinator(t, c, files)
	defer cancel()

	files.trigger([]string{"a.h"})
	files.trigger([]string{"b.h"})

	assert.Len(t, regen.getCalls(), 2)
	assert.False(t, files.stopped())
}

func TestCoordinator_EmptyBatchIgnored(t *testing.T) {
	t.Parallel()

	files := newMockFileWatcher()
	regen := &mockRegenerator{}
	c := NewCoordinator(files, regen, nil, nil)

	cancel, _ := runCoordinator(t, c, files)
	defer cancel()

	files.trigger(nil)
	assert.Empty(t, regen.getCalls())
}

func TestCoordinator_FileWatcherStartError(t *testing.T) {
	t.Parallel()

	startErr := errors.New("no roots to watch")
	files := newMockFileWatcher()
	files.startErr = startErr
	c := NewCoordinator(files, &mockRegenerator{}, nil, nil)

	err := c.Start(context.Background())
	require.ErrorIs(t, err, startErr)
	assert.True(t, files.stopped())
}

func TestCoordinator_CleanupErrorsDontPanic(t *testing.T) {
	t.Parallel()

	files := newMockFileWatcher()
	files.stopErr = errors.New("close failed")
	c := NewCoordinator(files, &mockRegenerator{}, nil, nil)

	cancel, errCh := runCoordinator(t, c, files)
	cancel()

	assert.NotPanics(t, func() { <-errCh })
}

func TestRegeneratorFunc(t *testing.T) {
	t.Parallel()

	var got []string
	var r Regenerator = RegeneratorFunc(func(_ context.Context, changed []string) error {
		got = changed
		return nil
	})
	require.NoError(t, r.Regenerate(context.Background(), []string{"x.h"}))
	assert.Equal(t, []string{"x.h"}, got)
}
