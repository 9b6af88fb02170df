// Package types defines the object storage contract used to persist
// retrieved artifacts, the results listing and the run bookkeeping files.
package types

import (
	"context"
	"errors"
	"io"
	"time"
)

// Common storage errors
var (
	// ErrObjectNotFound is returned when an object is not found in storage
	ErrObjectNotFound = errors.New("object not found")

	// ErrObjectExists is returned by Create when the key is already taken
	ErrObjectExists = errors.New("object already exists")
)

// ObjectStorage defines the interface for object storage operations.
// An empty bucket selects the backend's default location.
type ObjectStorage interface {
	// Put stores an object, replacing any previous content
	Put(ctx context.Context, bucket, key string, reader io.Reader, metadata ObjectMetadata) error

	// Create opens a new object for writing. It fails with ErrObjectExists
	// if the key is already present. The object becomes visible on Close;
	// Abort discards what was written.
	Create(ctx context.Context, bucket, key string) (Writer, error)

	// Append adds data to the end of an object, creating it if needed
	Append(ctx context.Context, bucket, key string, data []byte) error

	// Get retrieves an object by key
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, bucket, key string) error

	// Exists checks if an object exists
	Exists(ctx context.Context, bucket, key string) (bool, error)

	// List returns the objects whose key starts with prefix
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)

	// CreateBucket creates the bucket if it doesn't exist
	CreateBucket(ctx context.Context, bucket string) error
}

// Writer is an object being created. Close publishes it and fails with
// ErrObjectExists if another writer published the key first. After Abort,
// Close is a no-op.
type Writer interface {
	io.WriteCloser
	Abort() error
}

// ObjectMetadata represents metadata associated with stored objects
type ObjectMetadata struct {
	ContentType  string
	UserMetadata map[string]string
}

// ObjectInfo represents information about a stored object
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}
