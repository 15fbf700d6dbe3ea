// Package media validates and uploads the photos attached to a report.
//
// Batches are checked locally before any network call. Uploads run one file
// at a time and are all-or-nothing: a single failure discards the URLs
// collected so far.
package media

import (
	"fmt"
	"io"
	"strings"
)

// File is one locally selected image.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.ReadSeeker
}

// Limits bounds an image batch.
type Limits struct {
	MaxImages     int
	MaxImageBytes int64
}

// DefaultLimits allows three images of up to 5 MiB each.
var DefaultLimits = Limits{MaxImages: 3, MaxImageBytes: 5 << 20}

// BatchError rejects a whole image batch.
type BatchError struct {
	Message string
}

func (e *BatchError) Error() string { return e.Message }

// CountError is the rejection for a batch over limits.MaxImages.
func CountError(limits Limits) *BatchError {
	return &BatchError{Message: fmt.Sprintf("Maximum %d images allowed", limits.MaxImages)}
}

// ValidateFile checks a single file's content type and size.
func ValidateFile(f File, limits Limits) error {
	if !strings.HasPrefix(strings.ToLower(f.ContentType), "image/") {
		return &BatchError{Message: "Please upload only image files"}
	}
	if f.Size > limits.MaxImageBytes {
		return &BatchError{Message: fmt.Sprintf("Image size must be less than %dMB", limits.MaxImageBytes>>20)}
	}
	return nil
}

// ValidateBatch checks files as an addition to a selection that already
// holds existing entries. The first failing rule rejects the whole batch.
func ValidateBatch(existing int, files []File, limits Limits) error {
	if existing+len(files) > limits.MaxImages {
		return CountError(limits)
	}
	for _, f := range files {
		if err := ValidateFile(f, limits); err != nil {
			return err
		}
	}
	return nil
}

// Selection is the set of images staged for a report. Held entries are
// images the client staged earlier and did not resend; they count against
// the limit but are not part of Files.
type Selection struct {
	limits Limits
	held   int
	files  []File
}

// NewSelection returns a selection bounded by limits that already holds
// held entries.
func NewSelection(limits Limits, held int) *Selection {
	return &Selection{limits: limits, held: max(held, 0)}
}

// Add appends files when the combined batch is valid. On error the
// selection is left unchanged.
func (s *Selection) Add(files ...File) error {
	if err := ValidateBatch(s.Len(), files, s.limits); err != nil {
		return err
	}
	s.files = append(s.files, files...)
	return nil
}

// Remove drops the file at index i. Out-of-range indexes are ignored.
func (s *Selection) Remove(i int) {
	if i < 0 || i >= len(s.files) {
		return
	}
	s.files = append(s.files[:i], s.files[i+1:]...)
}

// Files returns a copy of the staged files in selection order.
func (s *Selection) Files() []File {
	out := make([]File, len(s.files))
	copy(out, s.files)
	return out
}

// Len returns the number of staged entries, held ones included.
func (s *Selection) Len() int { return s.held + len(s.files) }

// Remaining returns how many more images the selection accepts.
func (s *Selection) Remaining() int { return max(s.limits.MaxImages-s.Len(), 0) }
