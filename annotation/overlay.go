// Package annotation places text markers on photos using percentage coordinates and buffers
// them in per-photo drafts until they are saved.
package annotation

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rpupo63/fieldlens-backend/errs"
	"github.com/rpupo63/fieldlens-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultDraftTTL = 30 * time.Minute

// Point is a pixel position in page coordinates
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds is the pixel bounding box of the rendered image
type Bounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ToPercent maps a click inside bounds to [0,100] on both axes. Clicks outside the box map
// outside that range; nothing is clamped.
func ToPercent(click Point, bounds Bounds) (models.Coordinates, error) {
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return models.Coordinates{}, errs.NewInvalidFieldError("bounds",
			fmt.Sprintf("image bounds must have a positive size, got %gx%g", bounds.Width, bounds.Height))
	}
	return models.Coordinates{
		X: 100 * (click.X - bounds.Left) / bounds.Width,
		Y: 100 * (click.Y - bounds.Top) / bounds.Height,
	}, nil
}

// PhotoStore is the part of the photo service the overlay needs
type PhotoStore interface {
	GetByID(ctx context.Context, id int64) (models.Photo, error)
	Update(ctx context.Context, id int64, patch models.PhotoPatch) (models.Photo, error)
}

// Draft is the working annotation sequence of one photo
type Draft struct {
	PhotoID     int64               `json:"photoId"`
	Annotations []models.Annotation `json:"annotations"`
	Unsaved     int                 `json:"unsaved"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

type draft struct {
	Draft
	version int
	closed  bool
}

// Overlay keeps drafts in an expiring cache. A draft that expires with unsaved annotations is
// logged and lost.
type Overlay struct {
	mu      sync.Mutex
	photos  PhotoStore
	drafts  *cache.Cache
	onCount func(int)
	logger  zerolog.Logger
}

type Option func(*Overlay)

// WithDraftCount is called with the number of live drafts after every change
func WithDraftCount(fn func(int)) Option {
	return func(o *Overlay) {
		o.onCount = fn
	}
}

func NewOverlay(photos PhotoStore, ttl time.Duration, opts ...Option) *Overlay {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	o := &Overlay{
		photos:  photos,
		drafts:  cache.New(ttl, ttl/2),
		onCount: func(int) {},
		logger:  log.With().Str("component", "annotationOverlay").Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}

	o.drafts.OnEvicted(func(key string, value interface{}) {
		d := value.(*draft)
		if !d.closed && d.Unsaved > 0 {
			o.logger.Warn().Int64("photoId", d.PhotoID).Int("unsaved", d.Unsaved).
				Msg("Annotation draft expired with unsaved annotations")
		}
		o.onCount(o.drafts.ItemCount())
	})
	return o
}

func draftKey(photoID int64) string {
	return fmt.Sprintf("photo:%d", photoID)
}

// Add appends a text annotation at the clicked position to the photo's draft. Blank text is
// ignored and the current draft is returned unchanged with a nil annotation.
func (o *Overlay) Add(ctx context.Context, photoID int64, click Point, bounds Bounds, text, author string) (Draft, *models.Annotation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		d, err := o.Get(ctx, photoID)
		return d, nil, err
	}

	coords, err := ToPercent(click, bounds)
	if err != nil {
		return Draft{}, nil, err
	}

	annotation := models.Annotation{
		ID:          uuid.NewString(),
		Type:        models.AnnotationKindText,
		Coordinates: coords,
		Content:     text,
		Color:       models.DefaultAnnotationColor,
		CreatedBy:   author,
	}

	var snapshot Draft
	err = o.withDraft(ctx, photoID, func(d *draft) {
		d.Annotations = append(d.Annotations, annotation)
		d.Unsaved++
		d.version++
		d.UpdatedAt = time.Now().UTC()
		snapshot = d.snapshot()
	})
	if err != nil {
		return Draft{}, nil, err
	}
	return snapshot, &annotation, nil
}

// Get returns the photo's draft, or its stored annotations when no draft exists
func (o *Overlay) Get(ctx context.Context, photoID int64) (Draft, error) {
	o.mu.Lock()
	if cached, ok := o.drafts.Get(draftKey(photoID)); ok {
		d := cached.(*draft).snapshot()
		o.mu.Unlock()
		return d, nil
	}
	o.mu.Unlock()

	photo, err := o.photos.GetByID(ctx, photoID)
	if err != nil {
		return Draft{}, err
	}
	return Draft{
		PhotoID:     photoID,
		Annotations: slices.Clone([]models.Annotation(photo.Annotations)),
		UpdatedAt:   photo.Timestamp,
	}, nil
}

// Save writes the full draft sequence to the photo. The draft is dropped on success and kept
// on failure. Without a draft the stored photo is returned untouched.
func (o *Overlay) Save(ctx context.Context, photoID int64) (models.Photo, error) {
	o.mu.Lock()
	cached, ok := o.drafts.Get(draftKey(photoID))
	if !ok {
		o.mu.Unlock()
		return o.photos.GetByID(ctx, photoID)
	}
	d := cached.(*draft)
	annotations := slices.Clone(d.Annotations)
	version := d.version
	unsaved := d.Unsaved
	o.mu.Unlock()

	photo, err := o.photos.Update(ctx, photoID, models.PhotoPatch{Annotations: &annotations})
	if err != nil {
		return models.Photo{}, err
	}

	o.mu.Lock()
	// annotations added while saving stay in the draft
	if current, ok := o.drafts.Get(draftKey(photoID)); ok && current.(*draft) == d {
		if d.version == version {
			d.closed = true
			o.drafts.Delete(draftKey(photoID))
		} else {
			d.Unsaved = max(d.Unsaved-unsaved, 0)
		}
	}
	o.mu.Unlock()

	o.logger.Info().Int64("photoId", photoID).Int("annotations", len(annotations)).Msg("Annotations saved")
	return photo, nil
}

// Discard drops the photo's draft and reports whether one existed
func (o *Overlay) Discard(photoID int64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	cached, ok := o.drafts.Get(draftKey(photoID))
	if !ok {
		return false
	}
	cached.(*draft).closed = true
	o.drafts.Delete(draftKey(photoID))
	return true
}

// Len reports the number of live drafts
func (o *Overlay) Len() int {
	return o.drafts.ItemCount()
}

// withDraft runs fn on the photo's draft, seeding it from the stored photo on first touch
func (o *Overlay) withDraft(ctx context.Context, photoID int64, fn func(*draft)) error {
	key := draftKey(photoID)

	o.mu.Lock()
	if cached, ok := o.drafts.Get(key); ok {
		fn(cached.(*draft))
		o.drafts.Set(key, cached, cache.DefaultExpiration)
		o.mu.Unlock()
		return nil
	}
	o.mu.Unlock()

	photo, err := o.photos.GetByID(ctx, photoID)
	if err != nil {
		return err
	}

	o.mu.Lock()
	d := &draft{Draft: Draft{
		PhotoID:     photoID,
		Annotations: slices.Clone([]models.Annotation(photo.Annotations)),
	}}
	// another request may have seeded the draft while the photo was loading
	if cached, ok := o.drafts.Get(key); ok {
		d = cached.(*draft)
	}
	fn(d)
	o.drafts.Set(key, d, cache.DefaultExpiration)
	count := o.drafts.ItemCount()
	o.mu.Unlock()

	o.onCount(count)
	return nil
}

func (d *draft) snapshot() Draft {
	out := d.Draft
	out.Annotations = slices.Clone(d.Annotations)
	return out
}
