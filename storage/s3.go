package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rpupo63/fieldlens-backend/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// S3API is the subset of the S3 client used for photo objects
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config describes where photos are written
type S3Config struct {
	Bucket string
	Region string
	Prefix string
	// PublicBaseURL replaces the default virtual-hosted bucket url, e.g. a CDN in front of the bucket
	PublicBaseURL string
}

// S3Store writes photos to an S3 bucket and returns their public url
type S3Store struct {
	client S3API
	cfg    S3Config
	logger zerolog.Logger
}

func NewS3Store(client S3API, cfg S3Config) *S3Store {
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	cfg.PublicBaseURL = strings.TrimSuffix(cfg.PublicBaseURL, "/")
	return &S3Store{
		client: client,
		cfg:    cfg,
		logger: log.With().Str("component", "s3Store").Str("bucket", cfg.Bucket).Logger(),
	}
}

// NewS3StoreFromEnv builds the client from the default AWS credential chain
func NewS3StoreFromEnv(ctx context.Context, cfg S3Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, errs.NewConfigError("AWS", err)
	}
	return NewS3Store(s3.NewFromConfig(awsCfg), cfg), nil
}

func (s *S3Store) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := ObjectKey(s.cfg.Prefix, name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", errs.NewCancelledError("upload photo", ctx.Err())
		}
		return "", errs.NewServiceUnreachableError("s3", err)
	}

	s.logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("Uploaded photo object")
	return s.cfg.PublicBaseURL + "/" + key, nil
}

// Delete removes the object behind ref. References outside this bucket are ignored.
func (s *S3Store) Delete(ctx context.Context, ref string) error {
	key, ok := strings.CutPrefix(ref, s.cfg.PublicBaseURL+"/")
	if !ok {
		return nil
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}); err != nil {
		return errs.NewServiceUnreachableError("s3", err)
	}
	return nil
}
