// Package storage keeps encoded photo bytes and hands out references that can be rendered
// by a client: short-lived in-process blobs by default, or S3 objects when a bucket is configured.
package storage

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store persists image bytes and returns a reference usable as a photo url
type Store interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// Object is a stored blob
type Object struct {
	Data        []byte
	ContentType string
	CreatedAt   time.Time
}

// ObjectKey builds a unique key under prefix that keeps the extension of name
func ObjectKey(prefix, name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		ext = ".jpg"
	}
	return path.Join(prefix, time.Now().UTC().Format("2006/01/02"), uuid.NewString()+ext)
}
