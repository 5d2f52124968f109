// Package storage abstracts the object store that holds customer uploads,
// transformed images, print-ready files, and bulk-download archives. Two
// backends satisfy Gateway: Cloudflare R2 (via the S3 API) and Google Cloud
// Storage. Callers never see backend types, only Gateway and *StorageError.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Folder partitions the bucket by asset purpose. Keys always start with one
// of these segments.
type Folder string

const (
	FolderUploads       Folder = "uploads"
	FolderTransformed   Folder = "transformed"
	FolderPrintReady    Folder = "print-ready"
	FolderThumbnails    Folder = "thumbnails"
	FolderBulkDownloads Folder = "bulk-downloads"
)

// ErrorCode classifies storage failures for callers that branch on them.
type ErrorCode string

const (
	ErrCodeUpload        ErrorCode = "UPLOAD_FAILED"
	ErrCodeDownload      ErrorCode = "DOWNLOAD_FAILED"
	ErrCodeDelete        ErrorCode = "DELETE_FAILED"
	ErrCodePresign       ErrorCode = "PRESIGN_FAILED"
	ErrCodeMissingConfig ErrorCode = "MISSING_CONFIG"
)

// StorageError wraps a backend failure with a stable code and the operation
// that failed.
type StorageError struct {
	Code ErrorCode
	Op   string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("storage: %s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("storage: %s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func newError(code ErrorCode, op string, err error) *StorageError {
	return &StorageError{Code: code, Op: op, Err: err}
}

const defaultPresignExpiry = time.Hour

// Object is a fetched object's bytes plus its content type when the backend
// reports one.
type Object struct {
	Data        []byte
	ContentType string
}

// Gateway is the object-store surface the fulfillment services depend on.
// Presign expiries of zero or less fall back to one hour.
type Gateway interface {
	// GenerateKey builds a collision-resistant object key under folder,
	// scoped to the owning user.
	GenerateKey(folder Folder, ownerID, ext string) string

	// Upload writes data under key and returns the public URL.
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// PresignUpload returns a URL a client may PUT the object to.
	PresignUpload(ctx context.Context, key, contentType string, expires time.Duration) (string, error)

	// PresignDownload returns a time-limited GET URL for key.
	PresignDownload(ctx context.Context, key string, expires time.Duration) (string, error)

	// Delete removes key. Deleting a key that does not exist is not an
	// error.
	Delete(ctx context.Context, key string) error

	// Fetch downloads an object by key or by one of this gateway's own
	// public URLs.
	Fetch(ctx context.Context, keyOrURL string) (Object, error)

	// PublicURL returns the non-signed URL for key.
	PublicURL(key string) string

	// IsManagedURL reports whether raw points into this gateway's bucket.
	IsManagedURL(raw string) bool
}

// keyMaker builds object keys. Both backends embed it so key layout cannot
// drift between them.
type keyMaker struct {
	now   func() time.Time
	newID func() uuid.UUID
}

func newKeyMaker() keyMaker {
	return keyMaker{now: time.Now, newID: uuid.New}
}

// GenerateKey returns "{folder}/{ownerID}/{unixMillis}-{uuid}.{ext}". The
// extension is lowercased and defaults to jpg.
func (k keyMaker) GenerateKey(folder Folder, ownerID, ext string) string {
	ext = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(ext, ".")))
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s/%s/%d-%s.%s", folder, ownerID, k.now().UnixMilli(), k.newID(), ext)
}

// publicBase normalises a configured public base URL for joining and prefix
// checks.
func publicBase(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// keyFromManagedURL strips the public base from raw, returning the object
// key. ok is false when raw is not under base.
func keyFromManagedURL(base, raw string) (string, bool) {
	if base == "" {
		return "", false
	}
	prefix := base + "/"
	if !strings.HasPrefix(raw, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(raw, prefix)
	if key == "" {
		return "", false
	}
	return key, true
}
