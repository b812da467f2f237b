package live

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrImageNotFound is returned for an unknown uploaded-image id.
	ErrImageNotFound = errors.New("uploaded image not found")
	// ErrAlreadyScanned guards the one-way created -> scanned transition;
	// re-scanning is a no-op surfaced to the caller.
	ErrAlreadyScanned = errors.New("image has already been scanned")
)

// UploadedImage is one photo uploaded into a session. Its lifecycle is
// created -> scanned -> deleted; there is no way back from scanned.
// ContributedRolls records which roll numbers this image asserted so the
// contribution can be retracted when the image is deleted.
type UploadedImage struct {
	ID               string    `json:"id"`
	Filename         string    `json:"filename"`
	Scanned          bool      `json:"scanned"`
	ContributedRolls []string  `json:"contributed_rolls,omitempty"`
	UploadedAt       time.Time `json:"uploaded_at"`
	Data             []byte    `json:"-"`
}

// NewImageID builds an opaque per-image source id.
func NewImageID() string {
	return "img_" + uuid.NewString()
}

// ImageRegistry holds a session's uploaded images.
type ImageRegistry struct {
	mu     sync.Mutex
	images map[string]*UploadedImage
	order  []string
}

func NewImageRegistry() *ImageRegistry {
	return &ImageRegistry{images: make(map[string]*UploadedImage)}
}

// Add registers a newly uploaded image and returns its record.
func (r *ImageRegistry) Add(filename string, data []byte) *UploadedImage {
	img := &UploadedImage{
		ID:         NewImageID(),
		Filename:   filename,
		UploadedAt: time.Now(),
		Data:       data,
	}
	r.mu.Lock()
	r.images[img.ID] = img
	r.order = append(r.order, img.ID)
	r.mu.Unlock()
	return img
}

// Get returns the image with the given id.
func (r *ImageRegistry) Get(id string) (*UploadedImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.images[id]
	if !ok {
		return nil, ErrImageNotFound
	}
	return img, nil
}

// MarkScanned flips the image to scanned and records its contributions.
// Fails with ErrAlreadyScanned if the image was scanned before.
func (r *ImageRegistry) MarkScanned(id string, rolls []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.images[id]
	if !ok {
		return ErrImageNotFound
	}
	if img.Scanned {
		return ErrAlreadyScanned
	}
	img.Scanned = true
	img.ContributedRolls = append([]string(nil), rolls...)
	return nil
}

// Remove deletes an image and returns its record so the caller can retract
// its contributions.
func (r *ImageRegistry) Remove(id string) (*UploadedImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.images[id]
	if !ok {
		return nil, ErrImageNotFound
	}
	delete(r.images, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return img, nil
}

// List returns images in upload order, without their pixel data.
func (r *ImageRegistry) List() []UploadedImage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]UploadedImage, 0, len(r.order))
	for _, id := range r.order {
		img := *r.images[id]
		img.Data = nil
		out = append(out, img)
	}
	return out
}

// Clear drops every image.
func (r *ImageRegistry) Clear() {
	r.mu.Lock()
	r.images = make(map[string]*UploadedImage)
	r.order = nil
	r.mu.Unlock()
}
