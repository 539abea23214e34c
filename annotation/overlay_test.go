package annotation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rpupo63/fieldlens-backend/errs"
	"github.com/rpupo63/fieldlens-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"))
}

type fakePhotoStore struct {
	mu        sync.Mutex
	photos    map[int64]models.Photo
	updates   int
	updateErr error
}

func newFakePhotoStore() *fakePhotoStore {
	return &fakePhotoStore{photos: map[int64]models.Photo{
		1: {ID: 1, ProjectID: 1, URL: "u1", Annotations: []models.Annotation{{ID: "seed", Type: "text", Content: "Existing"}}},
		2: {ID: 2, ProjectID: 1, URL: "u2"},
	}}
}

func (f *fakePhotoStore) GetByID(_ context.Context, id int64) (models.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.photos[id]
	if !ok {
		return models.Photo{}, errs.NewNotFound("photo")
	}
	return p.Clone(), nil
}

func (f *fakePhotoStore) Update(_ context.Context, id int64, patch models.PhotoPatch) (models.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.updateErr != nil {
		return models.Photo{}, f.updateErr
	}
	p, ok := f.photos[id]
	if !ok {
		return models.Photo{}, errs.NewNotFound("photo")
	}
	patch.Apply(&p)
	f.photos[id] = p
	return p.Clone(), nil
}

func TestToPercent(t *testing.T) {
	box := Bounds{Left: 0, Top: 0, Width: 200, Height: 100}

	tests := []struct {
		name  string
		click Point
		want  models.Coordinates
	}{
		{"top left", Point{0, 0}, models.Coordinates{X: 0, Y: 0}},
		{"bottom right", Point{200, 100}, models.Coordinates{X: 100, Y: 100}},
		{"center", Point{100, 50}, models.Coordinates{X: 50, Y: 50}},
		{"outside is not clamped", Point{300, -10}, models.Coordinates{X: 150, Y: -10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToPercent(tt.click, box)
			require.NoError(t, err)
			assert.InDelta(t, tt.want.X, got.X, 1e-9)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-9)
		})
	}
}

func TestToPercent_Offset(t *testing.T) {
	got, err := ToPercent(Point{X: 150, Y: 75}, Bounds{Left: 50, Top: 25, Width: 200, Height: 100})
	require.NoError(t, err)
	assert.InDelta(t, 50, got.X, 1e-9)
	assert.InDelta(t, 50, got.Y, 1e-9)
	assert.True(t, got.InBounds())
}

func TestToPercent_ZeroBounds(t *testing.T) {
	_, err := ToPercent(Point{1, 1}, Bounds{Width: 0, Height: 100})
	assert.True(t, errs.IsValidationFailure(err))
}

func TestOverlay_AddCornersOfBox(t *testing.T) {
	store := newFakePhotoStore()
	o := NewOverlay(store, time.Minute)
	ctx := context.Background()
	box := Bounds{Width: 200, Height: 100}

	_, first, err := o.Add(ctx, 2, Point{0, 0}, box, "Top left", "John Doe")
	require.NoError(t, err)
	draft, second, err := o.Add(ctx, 2, Point{200, 100}, box, "Bottom right", "John Doe")
	require.NoError(t, err)

	assert.Equal(t, models.Coordinates{X: 0, Y: 0}, first.Coordinates)
	assert.Equal(t, models.Coordinates{X: 100, Y: 100}, second.Coordinates)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, models.DefaultAnnotationColor, second.Color)
	assert.Equal(t, models.AnnotationKindText, second.Type)
	assert.Equal(t, "John Doe", second.CreatedBy)

	require.Len(t, draft.Annotations, 2)
	assert.Equal(t, 2, draft.Unsaved)
	assert.Zero(t, store.updates)
}

func TestOverlay_DraftSeededFromStoredAnnotations(t *testing.T) {
	o := NewOverlay(newFakePhotoStore(), time.Minute)

	draft, _, err := o.Add(context.Background(), 1, Point{10, 10}, Bounds{Width: 100, Height: 100}, "New", "Ana")
	require.NoError(t, err)
	require.Len(t, draft.Annotations, 2)
	assert.Equal(t, "seed", draft.Annotations[0].ID)
	assert.Equal(t, "New", draft.Annotations[1].Content)
}

func TestOverlay_BlankTextIsNoOp(t *testing.T) {
	o := NewOverlay(newFakePhotoStore(), time.Minute)

	draft, annotation, err := o.Add(context.Background(), 2, Point{1, 1}, Bounds{Width: 10, Height: 10}, "   ", "Ana")
	require.NoError(t, err)
	assert.Nil(t, annotation)
	assert.Empty(t, draft.Annotations)
	assert.Zero(t, o.Len())
}

func TestOverlay_AddUnknownPhoto(t *testing.T) {
	o := NewOverlay(newFakePhotoStore(), time.Minute)

	_, _, err := o.Add(context.Background(), 99, Point{1, 1}, Bounds{Width: 10, Height: 10}, "x", "Ana")
	assert.True(t, errs.IsNotFound(err))
	assert.Zero(t, o.Len())
}

func TestOverlay_SaveFlushesFullSequence(t *testing.T) {
	store := newFakePhotoStore()
	o := NewOverlay(store, time.Minute)
	ctx := context.Background()
	box := Bounds{Width: 100, Height: 100}

	_, _, err := o.Add(ctx, 1, Point{10, 20}, box, "Crack", "Ana")
	require.NoError(t, err)

	photo, err := o.Save(ctx, 1)
	require.NoError(t, err)
	require.Len(t, photo.Annotations, 2)
	assert.Equal(t, 1, store.updates)
	assert.Zero(t, o.Len())

	draft, err := o.Get(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, draft.Annotations, 2)
	assert.Zero(t, draft.Unsaved)
}

func TestOverlay_SaveFailureKeepsDraft(t *testing.T) {
	store := newFakePhotoStore()
	store.updateErr = errors.New("store offline")
	o := NewOverlay(store, time.Minute)
	ctx := context.Background()

	_, _, err := o.Add(ctx, 2, Point{5, 5}, Bounds{Width: 10, Height: 10}, "Keep me", "Ana")
	require.NoError(t, err)

	_, err = o.Save(ctx, 2)
	require.Error(t, err)
	assert.Equal(t, 1, o.Len())

	draft, err := o.Get(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, draft.Annotations, 1)
	assert.Equal(t, 1, draft.Unsaved)
}

func TestOverlay_SaveWithoutDraft(t *testing.T) {
	store := newFakePhotoStore()
	o := NewOverlay(store, time.Minute)

	photo, err := o.Save(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, photo.Annotations, 1)
	assert.Zero(t, store.updates)
}

func TestOverlay_Discard(t *testing.T) {
	var count int
	o := NewOverlay(newFakePhotoStore(), time.Minute, WithDraftCount(func(n int) { count = n }))
	ctx := context.Background()

	_, _, err := o.Add(ctx, 2, Point{5, 5}, Bounds{Width: 10, Height: 10}, "Temp", "Ana")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.True(t, o.Discard(2))
	assert.False(t, o.Discard(2))
	assert.Equal(t, 0, count)

	draft, err := o.Get(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, draft.Annotations)
}

func TestOverlay_DraftExpires(t *testing.T) {
	o := NewOverlay(newFakePhotoStore(), 20*time.Millisecond)

	_, _, err := o.Add(context.Background(), 2, Point{5, 5}, Bounds{Width: 10, Height: 10}, "Lost", "Ana")
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return o.Len() == 0 }, time.Second, 5*time.Millisecond)
}

type blockingPhotoStore struct {
	*fakePhotoStore
	entered chan struct{}
	release chan struct{}
}

func (b *blockingPhotoStore) Update(ctx context.Context, id int64, patch models.PhotoPatch) (models.Photo, error) {
	close(b.entered)
	<-b.release
	return b.fakePhotoStore.Update(ctx, id, patch)
}

func TestOverlay_AddDuringSaveStaysUnsaved(t *testing.T) {
	store := &blockingPhotoStore{
		fakePhotoStore: newFakePhotoStore(),
		entered:        make(chan struct{}),
		release:        make(chan struct{}),
	}
	o := NewOverlay(store, time.Minute)
	ctx := context.Background()
	box := Bounds{Width: 100, Height: 100}

	_, _, err := o.Add(ctx, 1, Point{10, 10}, box, "A", "Ana")
	require.NoError(t, err)

	saved := make(chan error, 1)
	go func() {
		_, err := o.Save(ctx, 1)
		saved <- err
	}()
	<-store.entered

	_, _, err = o.Add(ctx, 1, Point{20, 20}, box, "B", "Ana")
	require.NoError(t, err)
	close(store.release)
	require.NoError(t, <-saved)

	stored, err := store.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, stored.Annotations, 2)

	draft, err := o.Get(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, draft.Annotations, 3)
	assert.Equal(t, 1, draft.Unsaved)
	assert.Equal(t, 1, o.Len())
}
