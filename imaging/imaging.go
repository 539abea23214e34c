// Package imaging encodes captured frames and builds thumbnails
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/nfnt/resize"
)

const (
	// CaptureQuality is the JPEG quality used for captured and uploaded photos
	CaptureQuality = 90
	// ThumbnailSize bounds both thumbnail dimensions
	ThumbnailSize = 300
	thumbQuality  = 85

	ContentTypeJPEG = "image/jpeg"
)

// AllowedContentTypes lists upload formats that can be decoded
var AllowedContentTypes = []string{"image/jpeg", "image/png", "image/gif"}

// Decode reads any registered image format
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// EncodeJPEG compresses img at the given quality
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Thumbnail scales img down to fit ThumbnailSize x ThumbnailSize, keeping the aspect ratio
func Thumbnail(img image.Image) image.Image {
	return resize.Thumbnail(ThumbnailSize, ThumbnailSize, img, resize.Lanczos3)
}

// ThumbnailJPEG returns the encoded thumbnail of img
func ThumbnailJPEG(img image.Image) ([]byte, error) {
	return EncodeJPEG(Thumbnail(img), thumbQuality)
}
