package photos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const URLPrefix = "static"

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrOutsideUploads    = errors.New("path is outside of the uploads directory")
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// LocalStorage keeps uploaded movie photos under <staticDir>/<uploadsDir>
// and hands out paths served by the static file handler.
type LocalStorage struct {
	staticDir  string
	uploadsDir string
}

func NewLocalStorage(staticDir, uploadsDir string) (*LocalStorage, error) {
	if err := os.MkdirAll(filepath.Join(staticDir, uploadsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &LocalStorage{staticDir: staticDir, uploadsDir: uploadsDir}, nil
}

func (s *LocalStorage) Save(ctx context.Context, filename string, src io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedFormat
	}
	name := uuid.NewString() + ext
	dst, err := os.OpenFile(filepath.Join(s.staticDir, s.uploadsDir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	_, copyErr := io.Copy(dst, readerWithContext{ctx, src})
	closeErr := dst.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(dst.Name())
		return "", err
	}
	return path.Join(URLPrefix, s.uploadsDir, name), nil
}

// Remove deletes a previously saved photo. Missing files are not an error.
func (s *LocalStorage) Remove(_ context.Context, photoPath string) error {
	diskPath, err := s.diskPath(photoPath)
	if err != nil {
		return err
	}
	if err := os.Remove(diskPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStorage) diskPath(photoPath string) (string, error) {
	uploadsPrefix := path.Join(URLPrefix, s.uploadsDir) + "/"
	cleaned := path.Clean(photoPath)
	if !strings.HasPrefix(cleaned, uploadsPrefix) {
		return "", ErrOutsideUploads
	}
	name := strings.TrimPrefix(cleaned, uploadsPrefix)
	if name == "" || strings.Contains(name, "/") {
		return "", ErrOutsideUploads
	}
	return filepath.Join(s.staticDir, s.uploadsDir, name), nil
}

type readerWithContext struct {
	ctx context.Context
	r   io.Reader
}

func (r readerWithContext) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
