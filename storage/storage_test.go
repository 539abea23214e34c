package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rpupo63/fieldlens-backend/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransientStore_PutGetDelete(t *testing.T) {
	s := NewTransientStore("http://localhost:8080/", time.Minute)
	ctx := context.Background()

	data := []byte{0xff, 0xd8, 0xff}
	ref, err := s.Put(ctx, "frame.jpg", data, "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "http://localhost:8080/blob/"))

	data[0] = 0
	obj, ok := s.Get(ref)
	require.True(t, ok)
	assert.Equal(t, byte(0xff), obj.Data[0], "stored bytes must not alias the caller's slice")
	assert.Equal(t, "image/jpeg", obj.ContentType)

	id := strings.TrimPrefix(ref, "http://localhost:8080/blob/")
	_, ok = s.Get(id)
	assert.True(t, ok, "bare ids resolve too")

	require.NoError(t, s.Delete(ctx, ref))
	_, ok = s.Get(ref)
	assert.False(t, ok)
	assert.NoError(t, s.Delete(ctx, ref), "revoking twice is harmless")
}

func TestTransientStore_Expires(t *testing.T) {
	s := NewTransientStore("", 20*time.Millisecond)
	ref, err := s.Put(context.Background(), "a.jpg", []byte("x"), "image/jpeg")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, ok := s.Get(ref)
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestTransientStore_CancelledContext(t *testing.T) {
	s := NewTransientStore("", time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Put(ctx, "a.jpg", []byte("x"), "image/jpeg")
	assert.True(t, errs.IsCancelled(err))
	assert.Zero(t, s.Len())
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("photos", "IMG_0001.PNG")
	assert.True(t, strings.HasPrefix(key, "photos/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	assert.True(t, strings.HasSuffix(ObjectKey("photos", "capture"), ".jpg"))
	assert.NotEqual(t, ObjectKey("p", "a.jpg"), ObjectKey("p", "a.jpg"))
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	failPut error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.failPut != nil {
		return nil, f.failPut
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = body
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store_PutAndDelete(t *testing.T) {
	client := newFakeS3()
	store := NewS3Store(client, S3Config{Bucket: "site-photos", Region: "us-east-2", Prefix: "photos"})
	ctx := context.Background()

	ref, err := store.Put(ctx, "roof.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ref, "https://site-photos.s3.us-east-2.amazonaws.com/photos/"), ref)

	key := strings.TrimPrefix(ref, "https://site-photos.s3.us-east-2.amazonaws.com/")
	assert.Equal(t, []byte("jpeg"), client.objects[key])
	assert.Equal(t, "image/jpeg", client.types[key])

	require.NoError(t, store.Delete(ctx, "https://elsewhere.example.com/"+key))
	assert.Contains(t, client.objects, key, "foreign references are left alone")

	require.NoError(t, store.Delete(ctx, ref))
	assert.NotContains(t, client.objects, key)
}

func TestS3Store_PublicBaseURLAndErrors(t *testing.T) {
	client := newFakeS3()
	store := NewS3Store(client, S3Config{Bucket: "b", Region: "r", PublicBaseURL: "https://cdn.example.com/"})

	ref, err := store.Put(context.Background(), "a.jpg", []byte("x"), "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "https://cdn.example.com/"))

	client.failPut = errors.New("connection reset")
	_, err = store.Put(context.Background(), "a.jpg", []byte("x"), "image/jpeg")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrServiceUnreachable)
}
