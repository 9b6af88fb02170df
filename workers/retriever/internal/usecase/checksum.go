package usecase

import (
	"crypto/md5" //nolint:gosec // the catalog publishes MD5 digests
	"encoding/hex"
	"hash"
	"io"
)

// ChecksumReader hashes everything read through it and reports the
// transferred size when closed.
type ChecksumReader struct {
	reader   io.Reader
	hasher   hash.Hash
	original io.ReadCloser
	size     int64
	onClose  func(int64)
}

// NewChecksumReader wraps r so the MD5 of the streamed bytes is available
// once it has been drained.
func NewChecksumReader(r io.ReadCloser, onClose func(int64)) *ChecksumReader {
	hasher := md5.New() //nolint:gosec
	return &ChecksumReader{
		reader:   io.TeeReader(r, hasher),
		hasher:   hasher,
		original: r,
		onClose:  onClose,
	}
}

// Read implements io.Reader
func (r *ChecksumReader) Read(p []byte) (n int, err error) {
	n, err = r.reader.Read(p)
	r.size += int64(n)
	return
}

// Size is the number of bytes read so far.
func (r *ChecksumReader) Size() int64 {
	return r.size
}

// Sum returns the lowercase hex MD5 of the bytes read so far.
func (r *ChecksumReader) Sum() string {
	return hex.EncodeToString(r.hasher.Sum(nil))
}

// Close implements io.Closer
func (r *ChecksumReader) Close() error {
	if r.onClose != nil {
		r.onClose(r.size)
	}
	return r.original.Close()
}
