package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 20, A: 255})
		}
	}
	return img
}

func TestEncodeJPEG_RoundTrip(t *testing.T) {
	data, err := EncodeJPEG(solid(64, 48), CaptureQuality)
	require.NoError(t, err)

	img, format, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())
}

func TestDecode_PNGAndGarbage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(10, 10)))

	_, format, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	_, _, err = Decode(strings.NewReader("definitely not an image"))
	assert.Error(t, err)
}

func TestThumbnail_KeepsAspectRatio(t *testing.T) {
	tests := []struct {
		name  string
		w, h  int
		wantW int
		wantH int
	}{
		{"landscape", 1920, 1080, 300, 168},
		{"portrait", 600, 1200, 150, 300},
		{"already small", 120, 80, 120, 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thumb := Thumbnail(solid(tt.w, tt.h))
			assert.Equal(t, tt.wantW, thumb.Bounds().Dx())
			assert.Equal(t, tt.wantH, thumb.Bounds().Dy())
		})
	}
}

func TestThumbnailJPEG(t *testing.T) {
	data, err := ThumbnailJPEG(solid(800, 800))
	require.NoError(t, err)

	img, _, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, ThumbnailSize, img.Bounds().Dx())
	assert.Equal(t, ThumbnailSize, img.Bounds().Dy())
}
