package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/sightings/internal/observability"
)

// ErrUploadsDisabled is returned when no object store is configured.
var ErrUploadsDisabled = errors.New("image uploads are not configured")

// ObjectStore persists uploaded bytes and resolves a fetchable URL.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	URL(ctx context.Context, key string) (string, error)
}

// Uploader sends image batches to an ObjectStore.
type Uploader struct {
	store   ObjectStore
	limits  Limits
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewUploader creates an uploader. A nil store yields an uploader whose
// Upload always fails with ErrUploadsDisabled.
func NewUploader(store ObjectStore, limits Limits, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Uploader {
	return &Uploader{store: store, limits: limits, clock: clock, logger: logger, metrics: metrics}
}

// Limits returns the batch limits the uploader enforces.
func (u *Uploader) Limits() Limits { return u.limits }

// ObjectKey builds the storage key for an image uploaded at t.
func ObjectKey(t time.Time, name string) string {
	base := path.Base(name)
	if base == "." || base == "/" {
		base = "image"
	}
	return "reports/" + strconv.FormatInt(t.UnixMilli(), 10) + "-" + base
}

// Upload stores files sequentially and returns their URLs in input order.
// Any failure aborts the batch and no URLs are returned.
func (u *Uploader) Upload(ctx context.Context, files []File) ([]string, error) {
	if len(files) == 0 {
		return []string{}, nil
	}
	if err := ValidateBatch(0, files, u.limits); err != nil {
		u.metrics.ImageUploads.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if u.store == nil {
		u.metrics.ImageUploads.WithLabelValues("error").Inc()
		return nil, ErrUploadsDisabled
	}

	start := u.clock.Now()
	urls := make([]string, 0, len(files))
	used := make(map[string]bool, len(files))
	for _, f := range files {
		url, err := u.uploadOne(ctx, f, used)
		if err != nil {
			u.metrics.ImageUploads.WithLabelValues("error").Inc()
			u.logger.Warn("image upload failed", "file", f.Name, "uploaded", len(urls), "error", err)
			return nil, err
		}
		urls = append(urls, url)
	}
	u.metrics.UploadDuration.Observe(u.clock.Since(start).Seconds())
	u.metrics.ImageUploads.WithLabelValues("success").Inc()
	u.logger.Debug("images uploaded", "count", len(urls))
	return urls, nil
}

// uniqueKey returns the object key for name, stepping the timestamp forward
// a millisecond at a time while it collides with a key already used in the
// batch.
func uniqueKey(t time.Time, name string, used map[string]bool) string {
	key := ObjectKey(t, name)
	for used[key] {
		t = t.Add(time.Millisecond)
		key = ObjectKey(t, name)
	}
	used[key] = true
	return key
}

func (u *Uploader) uploadOne(ctx context.Context, f File, used map[string]bool) (string, error) {
	if f.Content == nil {
		return "", fmt.Errorf("upload %s: no content", f.Name)
	}
	if _, err := f.Content.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("upload %s: rewind: %w", f.Name, err)
	}
	key := uniqueKey(u.clock.Now(), f.Name, used)
	if err := u.store.Put(ctx, key, f.ContentType, f.Content, f.Size); err != nil {
		return "", fmt.Errorf("upload %s: %w", f.Name, err)
	}
	url, err := u.store.URL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("resolve url for %s: %w", key, err)
	}
	return url, nil
}
