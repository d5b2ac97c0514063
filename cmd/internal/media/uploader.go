package media

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrTooLarge is returned when an upload exceeds the size cap.
	ErrTooLarge = errors.New("upload too large")

	// ErrUnsupportedType is returned when the file is not an accepted
	// image type.
	ErrUnsupportedType = errors.New("unsupported media type")

	// ErrConfig is returned for invalid uploader configuration.
	ErrConfig = errors.New("invalid media config")
)

// Uploader persists an uploaded file and returns its public URL.
//
// The original filename is advisory only; implementations choose their own
// storage names and must never trust it as a path.
type Uploader interface {
	Upload(ctx context.Context, originalName string, r io.Reader) (url string, err error)
}
