// Package photo stores race photos in an S3-compatible object store.
//
// Upload returns a public URL plus the object key, which doubles as the
// public id for later deletion. Delete accepts either form.
package photo

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrInvalidImage is returned when the payload is empty or not an image.
	ErrInvalidImage = errors.New("invalid image payload")
	// ErrUnknownPhoto is returned when deleting an object that does not exist.
	ErrUnknownPhoto = errors.New("unknown photo")
)

// Image is an uploaded image payload.
type Image struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Empty reports whether no image was supplied. Size must be set by the
// caller; multipart file headers carry it.
func (i Image) Empty() bool {
	return i.Body == nil || i.Size == 0
}

// Uploaded describes a stored photo.
type Uploaded struct {
	URL      string
	PublicID string
}

// Ref returns the identifier to pass to Delete.
func (u Uploaded) Ref() string {
	if u.PublicID != "" {
		return u.PublicID
	}
	return u.URL
}

// UploadError wraps any failure to store a photo.
type UploadError struct {
	Filename string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload photo %q: %v", e.Filename, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// DeleteError wraps any failure to delete a photo.
type DeleteError struct {
	Ref string
	Err error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete photo %q: %v", e.Ref, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }
