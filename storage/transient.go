package storage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rpupo63/fieldlens-backend/errs"
	"github.com/rs/zerolog/log"
)

// BlobPathPrefix is the route under which transient blobs are served
const BlobPathPrefix = "/blob/"

// TransientStore keeps blobs in memory for a limited time. References have the form
// <baseURL>/blob/<id> and stop resolving once revoked or expired.
type TransientStore struct {
	baseURL string
	blobs   *cache.Cache
}

func NewTransientStore(baseURL string, ttl time.Duration) *TransientStore {
	s := &TransientStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		blobs:   cache.New(ttl, ttl/2),
	}
	s.blobs.OnEvicted(func(id string, _ interface{}) {
		log.Debug().Str("blob", id).Msg("Transient blob evicted")
	})
	return s
}

func (s *TransientStore) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errs.NewCancelledError("store blob", err)
	}

	id := uuid.NewString()
	s.blobs.Set(id, Object{
		Data:        append([]byte(nil), data...),
		ContentType: contentType,
		CreatedAt:   time.Now(),
	}, cache.DefaultExpiration)

	return s.baseURL + BlobPathPrefix + id, nil
}

// Get resolves a blob id or a full reference
func (s *TransientStore) Get(ref string) (Object, bool) {
	cached, found := s.blobs.Get(s.id(ref))
	if !found {
		return Object{}, false
	}
	return cached.(Object), true
}

// Delete revokes a reference. Unknown references are ignored.
func (s *TransientStore) Delete(_ context.Context, ref string) error {
	s.blobs.Delete(s.id(ref))
	return nil
}

// Len reports how many blobs are live
func (s *TransientStore) Len() int {
	return s.blobs.ItemCount()
}

func (s *TransientStore) id(ref string) string {
	if i := strings.LastIndex(ref, BlobPathPrefix); i >= 0 {
		return ref[i+len(BlobPathPrefix):]
	}
	return ref
}
