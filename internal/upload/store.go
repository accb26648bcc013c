// Package upload stores admin file uploads under the public uploads directory.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"streamhub/internal/apperr"
	"streamhub/internal/logger"
)

// URLPrefix is where the uploads directory is served over HTTP.
const URLPrefix = "/uploads"

// Store writes uploads to <dir>/<subdir>/<field>-<unixmilli>-<random><ext>.
type Store struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

func NewStore(dir string, maxSizeMB int64) *Store {
	return &Store{dir: dir, maxBytes: maxSizeMB << 20, now: time.Now}
}

func (s *Store) Dir() string {
	return s.dir
}

// MaxBytes is the largest accepted file.
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// SubdirFor maps a form field to its storage directory.
func SubdirFor(field string) string {
	switch field {
	case "poster", "banner", "thumbnail":
		return "images"
	case "image":
		return "slides"
	default:
		return "other"
	}
}

// Save stores the file uploaded as field and returns its public URL.
// Only images are accepted; the type is sniffed from content, not the name.
func (s *Store) Save(fh *multipart.FileHeader, field string) (string, error) {
	if fh.Size > s.maxBytes {
		return "", apperr.Newf(apperr.Validation, "%s exceeds %d MB", field, s.maxBytes>>20)
	}
	src, err := fh.Open()
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err, "open upload")
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err, "detect upload type")
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", apperr.Newf(apperr.Validation, "%s must be an image, got %s", field, mtype.String())
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", apperr.Wrap(apperr.Internal, err, "rewind upload")
	}

	// extension from the sniffed type, never from the client's file name
	ext := mtype.Extension()
	if ext == "" {
		ext = ".bin"
	}
	subdir := SubdirFor(field)
	name := fmt.Sprintf("%s-%d-%s%s", field, s.now().UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:12], ext)

	dstDir := filepath.Join(s.dir, subdir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", apperr.Wrap(apperr.Internal, err, "create upload dir")
	}
	dst, err := os.Create(filepath.Join(dstDir, name))
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err, "create upload file")
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", apperr.Wrap(apperr.Internal, err, "write upload")
	}
	if err := dst.Close(); err != nil {
		return "", apperr.Wrap(apperr.Internal, err, "close upload")
	}
	logger.Debugf("stored upload %s/%s (%s, %d bytes)", subdir, name, mtype.String(), fh.Size)
	return path.Join(URLPrefix, subdir, name), nil
}

// Remove deletes a file previously returned by Save. URLs outside the
// upload prefix are ignored.
func (s *Store) Remove(url string) error {
	rel, ok := strings.CutPrefix(url, URLPrefix+"/")
	if !ok || rel == "" {
		return nil
	}
	p := filepath.Join(s.dir, filepath.FromSlash(path.Clean("/" + rel)))
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperr.Wrap(apperr.Internal, err, "remove upload")
	}
	return nil
}
