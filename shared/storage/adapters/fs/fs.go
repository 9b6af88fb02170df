// Package fs implements ObjectStorage on the local filesystem. Buckets are
// directories below the base path; the empty bucket is the base path itself.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/UofM-CEOS/remote-sensing/shared/observability/types"
	storagetypes "github.com/UofM-CEOS/remote-sensing/shared/storage/types"
)

// tmpPrefix marks files still being written. They are never listed.
const tmpPrefix = ".tmp-"

// Storage implements ObjectStorage using the local filesystem
type Storage struct {
	basePath string
	logger   types.Logger
	metrics  types.Metrics
}

// NewStorage creates a new filesystem-based object storage rooted at basePath
func NewStorage(basePath string, logger types.Logger, metrics types.Metrics) (*Storage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	return &Storage{
		basePath: basePath,
		logger:   logger.WithFields(types.Fields{"storage": "fs"}),
		metrics:  metrics,
	}, nil
}

// Put stores an object, replacing any previous content
func (s *Storage) Put(ctx context.Context, bucket, key string, reader io.Reader, _ storagetypes.ObjectMetadata) error {
	start := time.Now()
	defer func() {
		s.metrics.RecordDuration("storage.fs.put", time.Since(start).Seconds())
	}()

	objectPath := s.objectPath(bucket, key)
	if err := os.MkdirAll(filepath.Dir(objectPath), 0o755); err != nil {
		return fmt.Errorf("failed to create bucket directory: %w", err)
	}

	// Write next to the target and rename so readers never see a torn file.
	tmp, err := os.CreateTemp(filepath.Dir(objectPath), tmpPrefix+"put-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, reader)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		s.metrics.RecordError("storage.fs.put", "write")
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := os.Rename(tmp.Name(), objectPath); err != nil {
		return fmt.Errorf("failed to move object into place: %w", err)
	}

	s.logger.Debug(ctx, "object stored", types.Fields{
		"bucket": bucket,
		"key":    key,
		"bytes":  n,
	})
	return nil
}

// Create opens a new object for exclusive writing. Data goes to a hidden
// temporary file in the target directory and is linked into place on Close,
// so an interrupted writer never leaves a partial object behind.
func (s *Storage) Create(ctx context.Context, bucket, key string) (storagetypes.Writer, error) {
	objectPath := s.objectPath(bucket, key)
	if err := os.MkdirAll(filepath.Dir(objectPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create bucket directory: %w", err)
	}

	if _, err := os.Lstat(objectPath); err == nil {
		return nil, storagetypes.ErrObjectExists
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to check object existence: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(objectPath), tmpPrefix+"create-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	s.logger.Debug(ctx, "object created", types.Fields{"bucket": bucket, "key": key})
	return &linkWriter{file: tmp, target: objectPath}, nil
}

// Append adds data to the end of an object
func (s *Storage) Append(_ context.Context, bucket, key string, data []byte) error {
	objectPath := s.objectPath(bucket, key)
	if err := os.MkdirAll(filepath.Dir(objectPath), 0o755); err != nil {
		return fmt.Errorf("failed to create bucket directory: %w", err)
	}

	file, err := os.OpenFile(objectPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("failed to append data: %w", err)
	}
	return file.Close()
}

// Get retrieves an object
func (s *Storage) Get(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	file, err := os.Open(s.objectPath(bucket, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storagetypes.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes an object
func (s *Storage) Delete(ctx context.Context, bucket, key string) error {
	if err := os.Remove(s.objectPath(bucket, key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}

	s.logger.Debug(ctx, "object deleted", types.Fields{"bucket": bucket, "key": key})
	return nil
}

// Exists checks if an object exists
func (s *Storage) Exists(_ context.Context, bucket, key string) (bool, error) {
	_, err := os.Stat(s.objectPath(bucket, key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check object existence: %w", err)
}

// List returns objects in a bucket with optional prefix, sorted by key
func (s *Storage) List(_ context.Context, bucket, prefix string) ([]storagetypes.ObjectInfo, error) {
	bucketPath := s.bucketPath(bucket)

	var objects []storagetypes.ObjectInfo
	err := filepath.WalkDir(bucketPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(bucketPath, path)
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), tmpPrefix) {
			return nil
		}
		key := filepath.ToSlash(relPath)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, storagetypes.ObjectInfo{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// CreateBucket creates the bucket directory
func (s *Storage) CreateBucket(_ context.Context, bucket string) error {
	if err := os.MkdirAll(s.bucketPath(bucket), 0o755); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func (s *Storage) bucketPath(bucket string) string {
	if bucket == "" {
		return s.basePath
	}
	return filepath.Join(s.basePath, filepath.Clean(string(filepath.Separator)+bucket))
}

func (s *Storage) objectPath(bucket, key string) string {
	// Anchoring at the separator before cleaning prevents directory traversal.
	key = filepath.Clean(string(filepath.Separator) + filepath.FromSlash(key))
	return filepath.Join(s.bucketPath(bucket), key)
}

// linkWriter publishes its temporary file under target on Close. Link fails
// when target exists, which keeps creation exclusive.
type linkWriter struct {
	file   *os.File
	target string
	done   bool
}

func (w *linkWriter) Write(p []byte) (int, error) {
	return w.file.Write(p)
}

func (w *linkWriter) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	defer os.Remove(w.file.Name())

	if err := w.file.Sync(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush file: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Link(w.file.Name(), w.target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return storagetypes.ErrObjectExists
		}
		return fmt.Errorf("failed to move object into place: %w", err)
	}
	return nil
}

func (w *linkWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	w.file.Close()
	if err := os.Remove(w.file.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to discard file: %w", err)
	}
	return nil
}
