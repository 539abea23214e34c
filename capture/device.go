// Package capture drives a camera device through preview, still capture and release, and hands
// captured frames to the photo service.
package capture

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/rpupo63/fieldlens-backend/errs"
)

const (
	// FacingEnvironment requests the rear camera
	FacingEnvironment = "environment"

	DefaultWidth  = 1920
	DefaultHeight = 1080
)

// Constraints describe the stream requested from a device
type Constraints struct {
	Width      int
	Height     int
	FacingMode string
}

// Device hands out video streams. Implementations decide whether streams are exclusive.
type Device interface {
	Name() string
	Open(ctx context.Context, constraints Constraints) (Stream, error)
}

// Stream is a live video track
type Stream interface {
	// Frame returns the current frame at the stream's native resolution
	Frame(ctx context.Context) (image.Image, error)
	Size() (width, height int)
	Active() bool
	// Stop releases the device. It is safe to call more than once.
	Stop()
}

// NewDevice returns the device registered under driver
func NewDevice(driver string) (Device, error) {
	switch driver {
	case "", "synthetic":
		return NewSyntheticCamera(), nil
	case "none":
		return NoDevice{}, nil
	default:
		return nil, fmt.Errorf("unknown camera driver %q", driver)
	}
}

// NoDevice represents a host without a camera
type NoDevice struct{}

func (NoDevice) Name() string { return "none" }

func (NoDevice) Open(context.Context, Constraints) (Stream, error) {
	return nil, errs.NewDeviceUnavailableError("none", errs.ErrDeviceUnavailable)
}

// SyntheticCamera generates a moving test pattern. Only one stream can be open at a time.
type SyntheticCamera struct {
	mu     sync.Mutex
	inUse  bool
	denied bool
}

type SyntheticOption func(*SyntheticCamera)

// WithPermissionDenied makes every Open fail as if the user refused camera access
func WithPermissionDenied() SyntheticOption {
	return func(c *SyntheticCamera) {
		c.denied = true
	}
}

func NewSyntheticCamera(opts ...SyntheticOption) *SyntheticCamera {
	c := &SyntheticCamera{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *SyntheticCamera) Name() string { return "synthetic" }

func (c *SyntheticCamera) Open(ctx context.Context, constraints Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.NewCancelledError("open camera", err)
	}
	if c.denied {
		return nil, errs.NewDeviceUnavailableError(c.Name(), errs.ErrPermissionDenied)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inUse {
		return nil, errs.NewDeviceUnavailableError(c.Name(), errs.ErrDeviceBusy)
	}
	c.inUse = true

	width, height := constraints.Width, constraints.Height
	if width <= 0 || height <= 0 {
		width, height = DefaultWidth, DefaultHeight
	}
	return &syntheticStream{camera: c, width: width, height: height}, nil
}

// InUse reports whether a stream currently holds the camera
func (c *SyntheticCamera) InUse() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inUse
}

func (c *SyntheticCamera) release() {
	c.mu.Lock()
	c.inUse = false
	c.mu.Unlock()
}

type syntheticStream struct {
	camera  *SyntheticCamera
	width   int
	height  int
	frames  atomic.Int64
	stopped atomic.Bool
}

var colorBars = []color.RGBA{
	{192, 192, 192, 255},
	{192, 192, 0, 255},
	{0, 192, 192, 255},
	{0, 192, 0, 255},
	{192, 0, 192, 255},
	{192, 0, 0, 255},
	{0, 0, 192, 255},
	{16, 16, 16, 255},
}

func (s *syntheticStream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.NewCancelledError("read frame", err)
	}
	if s.stopped.Load() {
		return nil, errs.NewDeviceUnavailableError(s.camera.Name(), fmt.Errorf("stream stopped"))
	}

	n := s.frames.Add(1)
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	barWidth := max(s.width/len(colorBars), 1)
	// a white scan line moves down one step per frame
	scan := int(n*8) % s.height

	for y := 0; y < s.height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < s.width; x++ {
			c := colorBars[min(x/barWidth, len(colorBars)-1)]
			if y >= scan && y < scan+4 {
				c = color.RGBA{255, 255, 255, 255}
			}
			i := x * 4
			row[i], row[i+1], row[i+2], row[i+3] = c.R, c.G, c.B, c.A
		}
	}
	return img, nil
}

func (s *syntheticStream) Size() (int, int) {
	return s.width, s.height
}

func (s *syntheticStream) Active() bool {
	return !s.stopped.Load()
}

func (s *syntheticStream) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		s.camera.release()
	}
}
