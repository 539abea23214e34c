package capture

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rpupo63/fieldlens-backend/errs"
	"github.com/rpupo63/fieldlens-backend/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, opts ...ManagerOption) (*Manager, *SyntheticCamera) {
	t.Helper()
	cam := NewSyntheticCamera()
	store := storage.NewTransientStore("http://localhost:8080", time.Minute)
	m := NewManager(cam, store, &fakePhotos{}, testConfig, opts...)
	t.Cleanup(m.CloseAll)
	return m, cam
}

func TestManager_OpenGetClose(t *testing.T) {
	var count atomic.Int64
	m, cam := newTestManager(t, WithSessionCount(func(n int) { count.Store(int64(n)) }))

	id, status, err := m.Open(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, StatePreviewing, status.State)
	assert.True(t, status.StreamActive)
	assert.Equal(t, int64(1), count.Load())

	controller, err := m.Get(id)
	require.NoError(t, err)
	assert.True(t, controller.StreamActive())

	require.NoError(t, m.Close(id))
	assert.False(t, controller.StreamActive())
	assert.False(t, cam.InUse())
	assert.Equal(t, int64(0), count.Load())

	_, err = m.Get(id)
	assert.True(t, errs.IsNotFound(err))
	assert.True(t, errs.IsNotFound(m.Close(id)))
}

func TestManager_SecondSessionWhileCameraBusy(t *testing.T) {
	m, _ := newTestManager(t)

	_, _, err := m.Open(context.Background())
	require.NoError(t, err)

	_, _, err = m.Open(context.Background())
	assert.True(t, errs.IsDeviceUnavailable(err))
	assert.Equal(t, 1, m.Len())
}

func TestManager_ReapsIdleSessions(t *testing.T) {
	m, cam := newTestManager(t, WithSessionTTL(time.Minute))
	current := time.Now()
	m.now = func() time.Time { return current }

	id, _, err := m.Open(context.Background())
	require.NoError(t, err)

	current = current.Add(30 * time.Second)
	m.reap()
	assert.Equal(t, 1, m.Len())

	current = current.Add(2 * time.Minute)
	m.reap()
	assert.Zero(t, m.Len())
	assert.False(t, cam.InUse())

	_, err = m.Get(id)
	assert.True(t, errs.IsNotFound(err))
}

func TestManager_RunClosesSessionsOnShutdown(t *testing.T) {
	m, cam := newTestManager(t, WithSessionTTL(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	_, _, err := m.Open(context.Background())
	require.NoError(t, err)
	require.True(t, cam.InUse())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("manager did not stop")
	}
	assert.Zero(t, m.Len())
	assert.False(t, cam.InUse())
}
