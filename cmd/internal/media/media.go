package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ImageKind selects the key prefix for an upload.
type ImageKind string

const (
	KindAvatar ImageKind = "avatar"
	KindCover  ImageKind = "cover"
)

// ErrNotConfigured is returned when the service was built without bucket
// credentials.
var ErrNotConfigured = errors.New("media: object storage not configured")

// Upload is a presigned PUT grant handed to a client.
type Upload struct {
	Key       string
	URL       string
	ExpiresIn time.Duration
}

// Presigner is the narrow surface the HTTP layer depends on.
type Presigner interface {
	PresignUpload(ctx context.Context, kind ImageKind) (Upload, error)
	PresignDownload(ctx context.Context, key string) (string, error)
}

// Service issues presigned URLs against an S3-compatible bucket.
type Service struct {
	cfg Config
}

// NewService validates the config and returns a Service. A disabled config
// is an error; callers that tolerate a missing bucket should check
// cfg.Enabled() first and pass a nil Presigner downstream.
func NewService(cfg Config) (*Service, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	return &Service{cfg: cfg}, nil
}

// PresignUpload mints a fresh storage key under the kind's prefix and a
// short-lived PUT URL for it.
func (s *Service) PresignUpload(ctx context.Context, kind ImageKind) (Upload, error) {
	pc, err := s.presignClient(ctx)
	if err != nil {
		return Upload{}, err
	}

	key := storageKey(kind, time.Now().UTC())
	req, err := pc.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.cfg.PresignTTL))
	if err != nil {
		return Upload{}, fmt.Errorf("media: presign put: %w", err)
	}

	return Upload{Key: key, URL: req.URL, ExpiresIn: s.cfg.PresignTTL}, nil
}

// PresignDownload returns a short-lived GET URL for an existing key.
func (s *Service) PresignDownload(ctx context.Context, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("media: empty storage key")
	}

	pc, err := s.presignClient(ctx)
	if err != nil {
		return "", err
	}

	req, err := pc.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.cfg.PresignTTL))
	if err != nil {
		return "", fmt.Errorf("media: presign get: %w", err)
	}
	return req.URL, nil
}

func (s *Service) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(s.cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.AccessKeyID,
			s.cfg.SecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("media: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if s.cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return s3.NewPresignClient(client), nil
}

// storageKey buries objects under a date path so bucket listings stay
// navigable and keys never collide.
func storageKey(kind ImageKind, now time.Time) string {
	prefix := "misc"
	switch kind {
	case KindAvatar:
		prefix = "avatars"
	case KindCover:
		prefix = "covers"
	}
	return fmt.Sprintf("%s/%d/%02d/%02d/%s", prefix, now.Year(), now.Month(), now.Day(), uuid.NewString())
}
