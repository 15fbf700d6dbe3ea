// Package s3store stores report images in an S3 bucket.
package s3store

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/couchcryptid/sightings/internal/config"
)

// API is the subset of the S3 client used for uploads.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Presigner is the subset of the presign client used to resolve URLs.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Store implements media.ObjectStore on S3.
type Store struct {
	api        API
	presigner  Presigner
	bucket     string
	publicBase string
	ttl        time.Duration
}

// NewStore wires a Store from explicit clients. When publicBase is set,
// URLs are built from it and the presigner is not consulted.
func NewStore(api API, presigner Presigner, bucket, publicBase string, ttl time.Duration) *Store {
	return &Store{
		api:        api,
		presigner:  presigner,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		ttl:        ttl,
	}
}

// New loads AWS credentials and builds a Store for the configured bucket.
// A custom endpoint (e.g. LocalStack) switches the client to path-style
// addressing.
func New(ctx context.Context, cfg *config.Config) (*Store, error) {
	awsConfig, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.AWSEndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
			o.UsePathStyle = true
		}
	})
	return NewStore(client, s3.NewPresignClient(client), cfg.S3Bucket, cfg.S3PublicBaseURL, cfg.PresignTTL), nil
}

// Put uploads body under key with the given content type.
func (s *Store) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.api.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// URL returns a fetchable URL for key.
func (s *Store) URL(ctx context.Context, key string) (string, error) {
	if s.publicBase != "" {
		return s.publicBase + "/" + escapeKey(key), nil
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) { o.Expires = s.ttl })
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
