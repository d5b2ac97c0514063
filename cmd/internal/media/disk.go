package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vidtube/cmd/identity/ids"
)

// imageExt maps accepted sniffed content types to storage extensions.
var imageExt = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// DiskUploader stores uploads on the local filesystem under a single
// directory and serves them from a configured base URL.
//
// Storage names are fresh ULIDs, so a hostile original filename can never
// escape the directory or collide with another user's file. Writes go to a
// temp file first and are renamed into place, so readers never observe a
// partial upload.
type DiskUploader struct {
	dir      string
	baseURL  string
	maxBytes int64
	log      *slog.Logger
}

// NewDiskUploader creates the storage directory if needed and returns an
// uploader rooted there. baseURL is the public prefix uploads are served
// from, e.g. "/media".
func NewDiskUploader(log *slog.Logger, dir, baseURL string, maxBytes int64) (*DiskUploader, error) {
	if log == nil {
		log = slog.Default()
	}
	dir = strings.TrimSpace(dir)
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if dir == "" || baseURL == "" || maxBytes <= 0 {
		return nil, ErrConfig
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: mkdir %s: %w", dir, err)
	}

	return &DiskUploader{
		dir:      dir,
		baseURL:  baseURL,
		maxBytes: maxBytes,
		log:      log,
	}, nil
}

// Dir reports the storage directory, for wiring a file server.
func (d *DiskUploader) Dir() string { return d.dir }

// Upload sniffs the content type, enforces the size cap, and persists the
// file under a ULID name. It returns the public URL of the stored file.
func (d *DiskUploader) Upload(ctx context.Context, originalName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if r == nil {
		return "", ErrUnsupportedType
	}

	// Sniff the real type from content; the client-supplied name and
	// content type are not trusted.
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	head = head[:n]

	ext, ok := imageExt[http.DetectContentType(head)]
	if !ok {
		return "", ErrUnsupportedType
	}

	id, err := ids.NewULID(time.Now().UTC())
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s.%s", id, ext)

	final := filepath.Join(d.dir, name)
	tmp, err := os.CreateTemp(d.dir, "upload-*")
	if err != nil {
		return "", err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	// +1 so a stream exactly one byte over the cap is detectable.
	written, err := io.Copy(tmp, io.LimitReader(io.MultiReader(bytes.NewReader(head), r), d.maxBytes+1))
	if err != nil {
		return "", err
	}
	if written > d.maxBytes {
		return "", ErrTooLarge
	}
	if err := tmp.Sync(); err != nil {
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", err
	}

	d.log.Debug("media stored",
		"name", name,
		"bytes", written,
		"original_name", originalName,
	)

	return d.baseURL + "/" + name, nil
}
