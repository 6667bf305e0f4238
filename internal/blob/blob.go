// Package blob stores uploaded post images.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// ErrNotImage is returned by Save when the upload is not an image.
var ErrNotImage = errors.New("upload a valid image")

const uploadDir = "posts"

// extensions maps the sniffed image types to the extension a blob is stored
// under. The file server derives Content-Type from it.
var extensions = map[string]string{
	"image/gif":                ".gif",
	"image/jpeg":               ".jpg",
	"image/png":                ".png",
	"image/webp":               ".webp",
	"image/bmp":                ".bmp",
	"image/x-icon":             ".ico",
	"image/vnd.microsoft.icon": ".ico",
}

// Storage saves uploads and resolves their public URLs.
type Storage interface {
	Save(ctx context.Context, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
	URL(ref string) string
	Handler() http.Handler
}

// FSStorage keeps blobs on an afero filesystem and serves them over HTTP.
type FSStorage struct {
	fs      afero.Fs
	baseURL string
}

func NewFSStorage(fs afero.Fs, baseURL string) *FSStorage {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &FSStorage{fs: fs, baseURL: baseURL}
}

// NewOSStorage stores blobs below root on the local disk.
func NewOSStorage(root, baseURL string) (*FSStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root %s: %w", root, err)
	}
	return NewFSStorage(afero.NewBasePathFs(afero.NewOsFs(), root), baseURL), nil
}

// Save sniffs the first bytes of r and refuses anything that is not an image.
// The returned reference is a slash-separated path like "posts/<uuid>.png",
// its extension taken from the sniffed type.
func (s *FSStorage) Save(_ context.Context, r io.Reader) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	ext, ok := extensions[http.DetectContentType(head)]
	if !ok {
		return "", ErrNotImage
	}

	ref := path.Join(uploadDir, uuid.NewString()+ext)
	if err := s.fs.MkdirAll(fsPath(uploadDir), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", uploadDir, err)
	}
	if err := afero.WriteReader(s.fs, fsPath(ref), io.MultiReader(bytes.NewReader(head), r)); err != nil {
		return "", fmt.Errorf("write %s: %w", ref, err)
	}
	return ref, nil
}

// Delete removes a stored blob. Missing blobs are not an error.
func (s *FSStorage) Delete(_ context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	err := s.fs.Remove(fsPath(ref))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", ref, err)
	}
	return nil
}

func (s *FSStorage) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return s.baseURL + ref
}

// fsPath roots a reference at the filesystem root, where the HTTP handler
// looks for it.
func fsPath(ref string) string {
	return "/" + strings.TrimPrefix(ref, "/")
}

// Handler serves stored blobs; mount it under the base URL with StripPrefix.
func (s *FSStorage) Handler() http.Handler {
	files := http.FileServer(afero.NewHttpFs(s.fs).Dir("/"))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}
