package capture

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rpupo63/fieldlens-backend/errs"
	"github.com/rpupo63/fieldlens-backend/imaging"
	"github.com/rpupo63/fieldlens-backend/models"
	"github.com/rpupo63/fieldlens-backend/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// State of a capture controller
type State string

const (
	StateIdle       State = "idle"
	StatePreviewing State = "previewing"
	StateCaptured   State = "captured"
)

const (
	DefaultAckDelay      = 1500 * time.Millisecond
	defaultPhotoCaption  = "Project photo"
	thumbnailSuffix      = "-thumb.jpg"
	captureFileExtension = ".jpg"
)

// PhotoCreator persists a captured photo
type PhotoCreator interface {
	Create(ctx context.Context, data models.Photo) (models.Photo, error)
}

// Recorder observes camera operations
type Recorder interface {
	RecordCapture(operation string, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordCapture(string, error) {}

// Config tunes a controller
type Config struct {
	Width    int
	Height   int
	Quality  int
	AckDelay time.Duration
	Recorder Recorder
}

func (c Config) withDefaults() Config {
	if c.Width <= 0 || c.Height <= 0 {
		c.Width, c.Height = DefaultWidth, DefaultHeight
	}
	if c.Quality <= 0 || c.Quality > 100 {
		c.Quality = imaging.CaptureQuality
	}
	if c.AckDelay < 0 {
		c.AckDelay = 0
	} else if c.AckDelay == 0 {
		c.AckDelay = DefaultAckDelay
	}
	if c.Recorder == nil {
		c.Recorder = nopRecorder{}
	}
	return c
}

// Request describes a still capture
type Request struct {
	ProjectID   int64            `json:"projectId"`
	Description string           `json:"description,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	Location    *models.GeoPoint `json:"location,omitempty"`
}

// Status is a snapshot of a controller
type Status struct {
	State        State         `json:"state"`
	StreamActive bool          `json:"streamActive"`
	Device       string        `json:"device"`
	Width        int           `json:"width,omitempty"`
	Height       int           `json:"height,omitempty"`
	LastPhoto    *models.Photo `json:"lastPhoto,omitempty"`
}

// Controller owns at most one open stream of a device and moves it between the idle,
// previewing and captured states.
type Controller struct {
	mu        sync.Mutex
	device    Device
	store     storage.Store
	photos    PhotoCreator
	cfg       Config
	logger    zerolog.Logger
	state     State
	stream    Stream
	capturing bool
	ackTimer  *time.Timer
	ackSeq    uint64
	lastPhoto *models.Photo
}

func NewController(device Device, store storage.Store, photos PhotoCreator, cfg Config) *Controller {
	return &Controller{
		device: device,
		store:  store,
		photos: photos,
		cfg:    cfg.withDefaults(),
		logger: log.With().Str("component", "captureController").Str("device", device.Name()).Logger(),
		state:  StateIdle,
	}
}

// OpenCamera requests a rear-facing stream. It is a no-op when a stream is already open.
func (c *Controller) OpenCamera(ctx context.Context) (err error) {
	defer func() { c.cfg.Recorder.RecordCapture("open", err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil && c.stream.Active() {
		return nil
	}

	stream, err := c.device.Open(ctx, Constraints{
		Width:      c.cfg.Width,
		Height:     c.cfg.Height,
		FacingMode: FacingEnvironment,
	})
	if err != nil {
		if !errs.IsDeviceUnavailable(err) && !errs.IsCancelled(err) {
			err = errs.NewDeviceUnavailableError(c.device.Name(), err)
		}
		c.logger.Warn().Err(err).Msg("Camera unavailable")
		return err
	}

	c.stream = stream
	c.state = StatePreviewing
	w, h := stream.Size()
	c.logger.Info().Int("width", w).Int("height", h).Msg("Camera opened")
	return nil
}

// Capture grabs the current frame, stores it with a thumbnail and creates a photo for the
// selected project. The controller shows Captured until the acknowledgment delay elapses.
func (c *Controller) Capture(ctx context.Context, req Request) (photo models.Photo, err error) {
	defer func() { c.cfg.Recorder.RecordCapture("capture", err) }()

	if req.ProjectID == 0 {
		return models.Photo{}, errs.NewNoProjectSelectedError()
	}

	c.mu.Lock()
	if c.stream == nil || !c.stream.Active() || c.state == StateIdle {
		state := c.state
		c.mu.Unlock()
		return models.Photo{}, errs.NewInvalidStateError("capture", string(state))
	}
	if c.capturing {
		c.mu.Unlock()
		return models.Photo{}, errs.NewInvalidStateError("capture", "capturing")
	}
	stream := c.stream
	c.capturing = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.capturing = false
		c.mu.Unlock()
	}()

	frame, err := stream.Frame(ctx)
	if err != nil {
		return models.Photo{}, err
	}

	full, err := imaging.EncodeJPEG(frame, c.cfg.Quality)
	if err != nil {
		return models.Photo{}, errs.NewInternalErrorWithCause("encode frame", err)
	}
	thumb, err := imaging.ThumbnailJPEG(frame)
	if err != nil {
		return models.Photo{}, errs.NewInternalErrorWithCause("encode thumbnail", err)
	}

	capturedAt := time.Now().UTC()
	name := "capture-" + capturedAt.Format("20060102T150405.000")
	var refs []string
	revoke := func() {
		for _, ref := range refs {
			if err := c.store.Delete(context.WithoutCancel(ctx), ref); err != nil {
				c.logger.Warn().Err(err).Str("ref", ref).Msg("Failed to revoke capture reference")
			}
		}
	}

	fullRef, err := c.store.Put(ctx, name+captureFileExtension, full, imaging.ContentTypeJPEG)
	if err != nil {
		return models.Photo{}, err
	}
	refs = append(refs, fullRef)

	thumbRef, err := c.store.Put(ctx, name+thumbnailSuffix, thumb, imaging.ContentTypeJPEG)
	if err != nil {
		revoke()
		return models.Photo{}, err
	}
	refs = append(refs, thumbRef)

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = defaultPhotoCaption
	}

	photo, err = c.photos.Create(ctx, models.Photo{
		ProjectID:    req.ProjectID,
		URL:          fullRef,
		ThumbnailURL: thumbRef,
		Timestamp:    capturedAt,
		Annotations:  []models.Annotation{},
		Tags:         slices.Clone(req.Tags),
		Location:     req.Location,
		Description:  description,
	})
	if err != nil {
		revoke()
		return models.Photo{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	stored := photo.Clone()
	c.lastPhoto = &stored
	// the camera may have been closed while the photo was being saved
	if c.stream == stream && stream.Active() {
		c.state = StateCaptured
		c.scheduleAck()
	}

	w, h := stream.Size()
	c.logger.Info().Int64("photoId", photo.ID).Int64("projectId", photo.ProjectID).
		Int("width", w).Int("height", h).Int("bytes", len(full)).Msg("Photo captured")
	return photo, nil
}

// scheduleAck returns to Previewing after the acknowledgment delay. Callers hold c.mu.
func (c *Controller) scheduleAck() {
	c.stopAck()
	c.ackSeq++
	seq := c.ackSeq
	c.ackTimer = time.AfterFunc(c.cfg.AckDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.ackSeq == seq && c.state == StateCaptured {
			c.state = StatePreviewing
		}
	})
}

func (c *Controller) stopAck() {
	if c.ackTimer != nil {
		c.ackTimer.Stop()
		c.ackTimer = nil
	}
}

// Retake discards the captured acknowledgment and resumes previewing
func (c *Controller) Retake() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateCaptured:
		c.stopAck()
		c.ackSeq++
		c.state = StatePreviewing
		return nil
	case StatePreviewing:
		return nil
	default:
		return errs.NewInvalidStateError("retake", string(c.state))
	}
}

// CloseCamera stops the stream and returns to Idle from any state. It is idempotent.
func (c *Controller) CloseCamera() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopAck()
	c.ackSeq++
	if c.stream != nil {
		c.stream.Stop()
		c.stream = nil
		c.logger.Info().Msg("Camera closed")
		c.cfg.Recorder.RecordCapture("close", nil)
	}
	c.state = StateIdle
}

// StreamActive reports whether a device track is currently live
func (c *Controller) StreamActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream != nil && c.stream.Active()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns a snapshot suitable for rendering
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := Status{
		State:  c.state,
		Device: c.device.Name(),
	}
	if c.stream != nil && c.stream.Active() {
		status.StreamActive = true
		status.Width, status.Height = c.stream.Size()
	}
	if c.lastPhoto != nil {
		last := c.lastPhoto.Clone()
		status.LastPhoto = &last
	}
	return status
}

// Preview returns the current frame as a JPEG
func (c *Controller) Preview(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	stream := c.stream
	state := c.state
	c.mu.Unlock()

	if stream == nil || !stream.Active() {
		return nil, errs.NewInvalidStateError("preview", string(state))
	}
	frame, err := stream.Frame(ctx)
	if err != nil {
		return nil, err
	}
	return imaging.EncodeJPEG(frame, c.cfg.Quality)
}
