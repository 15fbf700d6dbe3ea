// Package gallery lays out report photos as a thumbnail grid and drives the
// full-size viewer.
package gallery

import "fmt"

// MaxThumbnails is the number of thumbnails shown in a grid.
const MaxThumbnails = 4

// Thumbnail is one grid cell. More is the count of hidden images and is
// only set on the last cell when the grid overflows.
type Thumbnail struct {
	Index int    `json:"index"`
	URL   string `json:"url"`
	More  int    `json:"more,omitempty"`
}

// Thumbnails returns up to MaxThumbnails cells for urls.
func Thumbnails(urls []string) []Thumbnail {
	n := min(len(urls), MaxThumbnails)
	out := make([]Thumbnail, n)
	for i := 0; i < n; i++ {
		out[i] = Thumbnail{Index: i, URL: urls[i]}
	}
	if len(urls) > MaxThumbnails {
		out[MaxThumbnails-1].More = len(urls) - MaxThumbnails
	}
	return out
}

// Caption summarizes a gallery, e.g. "3 images".
func Caption(count int) string {
	if count == 1 {
		return "1 image"
	}
	return fmt.Sprintf("%d images", count)
}

// Viewer is the full-size image viewer. The zero index is only meaningful
// while the viewer is open.
type Viewer struct {
	images []string
	index  int
	open   bool
}

// NewViewer creates a closed viewer over images.
func NewViewer(images []string) *Viewer {
	return &Viewer{images: images}
}

// Open shows the image at i. Out-of-range indexes leave the viewer closed.
func (v *Viewer) Open(i int) bool {
	if i < 0 || i >= len(v.images) {
		return false
	}
	v.index = i
	v.open = true
	return true
}

// Close hides the viewer.
func (v *Viewer) Close() { v.open = false }

// IsOpen reports whether an image is being shown.
func (v *Viewer) IsOpen() bool { return v.open }

// Index returns the position of the current image.
func (v *Viewer) Index() int { return v.index }

// Current returns the URL of the image being shown, or "" when closed.
func (v *Viewer) Current() string {
	if !v.open {
		return ""
	}
	return v.images[v.index]
}

// Next advances one image, wrapping from last to first.
func (v *Viewer) Next() {
	if !v.open {
		return
	}
	v.index = (v.index + 1) % len(v.images)
}

// Prev steps back one image, wrapping from first to last.
func (v *Viewer) Prev() {
	if !v.open {
		return
	}
	v.index = (v.index - 1 + len(v.images)) % len(v.images)
}

// NextIndex and PrevIndex report where Next and Prev would land without
// moving.
func (v *Viewer) NextIndex() int { return (v.index + 1) % max(len(v.images), 1) }

func (v *Viewer) PrevIndex() int {
	n := max(len(v.images), 1)
	return (v.index - 1 + n) % n
}

// HandleKey applies a keyboard key. It returns false for keys the viewer
// ignores.
func (v *Viewer) HandleKey(key string) bool {
	switch key {
	case "Escape":
		v.Close()
	case "ArrowRight":
		v.Next()
	case "ArrowLeft":
		v.Prev()
	default:
		return false
	}
	return true
}

// ClickBackdrop closes the viewer.
func (v *Viewer) ClickBackdrop() { v.Close() }

// Counter renders the position label, e.g. "2 / 5".
func (v *Viewer) Counter() string {
	return fmt.Sprintf("%d / %d", v.index+1, len(v.images))
}
