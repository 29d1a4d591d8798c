package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

const fileExtension = ".png"

var ErrImageNotFound = errors.New("image not found")

// Image is an open image stream. Callers must Close it.
type Image struct {
	io.ReadCloser
	ContentType string
}

// Store resolves product ids to files in a read-only images directory.
type Store struct {
	directory string
	cache     *Cache
}

// NewStore creates a store rooted at directory. cache may be nil.
func NewStore(directory string, cache *Cache) *Store {
	return &Store{
		directory: directory,
		cache:     cache,
	}
}

// ImagePath returns <directory>/<id>.png. The extension is fixed whatever the file holds.
func (s *Store) ImagePath(id int64) string {
	return filepath.Join(s.directory, strconv.FormatInt(id, 10)+fileExtension)
}

func (s *Store) Open(ctx context.Context, id int64) (*Image, error) {
	if s.cache != nil {
		return s.openCached(ctx, id)
	}

	path := s.ImagePath(id)
	file, err := openRegularFile(path)
	if err != nil {
		return nil, err
	}

	contentType := DetectContentType(file)
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to rewind image %s: %w", path, err)
	}
	return &Image{ReadCloser: file, ContentType: contentType}, nil
}

// Forget drops any cached bytes for id.
func (s *Store) Forget(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		slog.Warn("failed to evict cached image", "image_id", id, "error", err)
	}
}

func (s *Store) Close() error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}

// openCached checks the file on every call so a removed image is never served from redis.
func (s *Store) openCached(ctx context.Context, id int64) (*Image, error) {
	path := s.ImagePath(id)
	file, err := openRegularFile(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()

	data, found, err := s.cache.Get(ctx, id)
	if err != nil {
		// the file is still authoritative, a cache outage only costs a disk read
		slog.Warn("image cache lookup failed", "image_id", id, "error", err)
	}
	if !found {
		data, err = io.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s: %w", path, err)
		}
		if err := s.cache.Set(ctx, id, data); err != nil {
			slog.Warn("failed to cache image", "image_id", id, "error", err)
		}
	}

	return &Image{
		ReadCloser:  io.NopCloser(bytes.NewReader(data)),
		ContentType: DetectContentType(bytes.NewReader(data)),
	}, nil
}

func openRegularFile(path string) (*os.File, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat image %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		_ = file.Close()
		return nil, ErrImageNotFound
	}
	return file, nil
}
