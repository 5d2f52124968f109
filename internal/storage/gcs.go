package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSConfig holds the Google Cloud Storage connection settings. When
// CredentialsFile is empty the client uses ambient application-default
// credentials.
type GCSConfig struct {
	Bucket          string
	CredentialsFile string
	PublicBaseURL   string
}

type gcsGateway struct {
	keyMaker

	bucket  *gcs.BucketHandle
	name    string
	baseURL string
}

// GCSOption customises the GCS gateway.
type GCSOption func(*gcsGateway)

// WithGCSClock injects a fixed clock for key generation in tests.
func WithGCSClock(clock func() time.Time) GCSOption {
	return func(g *gcsGateway) {
		if clock != nil {
			g.now = clock
		}
	}
}

// NewGCSGateway builds a Gateway backed by a Google Cloud Storage bucket.
func NewGCSGateway(ctx context.Context, cfg GCSConfig, opts ...GCSOption) (Gateway, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, newError(ErrCodeMissingConfig, "gcs.init", errors.New("bucket is required"))
	}

	var clientOpts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gcs.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, newError(ErrCodeMissingConfig, "gcs.init", err)
	}

	name := strings.TrimSpace(cfg.Bucket)
	base := publicBase(cfg.PublicBaseURL)
	if base == "" {
		base = "https://storage.googleapis.com/" + name
	}
	gateway := &gcsGateway{
		keyMaker: newKeyMaker(),
		bucket:   client.Bucket(name),
		name:     name,
		baseURL:  base,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(gateway)
		}
	}
	return gateway, nil
}

func (g *gcsGateway) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	writer := g.bucket.Object(key).NewWriter(ctx)
	if contentType != "" {
		writer.ContentType = contentType
	}
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return "", newError(ErrCodeUpload, "gcs.upload", err)
	}
	if err := writer.Close(); err != nil {
		return "", newError(ErrCodeUpload, "gcs.upload", err)
	}
	return g.PublicURL(key), nil
}

func (g *gcsGateway) PresignUpload(ctx context.Context, key, contentType string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = defaultPresignExpiry
	}
	opts := &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  "PUT",
		Expires: g.now().Add(expires),
	}
	if contentType != "" {
		opts.ContentType = contentType
	}
	url, err := g.bucket.SignedURL(key, opts)
	if err != nil {
		return "", newError(ErrCodePresign, "gcs.presign_upload", err)
	}
	return url, nil
}

func (g *gcsGateway) PresignDownload(ctx context.Context, key string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = defaultPresignExpiry
	}
	url, err := g.bucket.SignedURL(key, &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  "GET",
		Expires: g.now().Add(expires),
	})
	if err != nil {
		return "", newError(ErrCodePresign, "gcs.presign_download", err)
	}
	return url, nil
}

// Delete removes key. A key that does not exist is treated as already
// deleted.
func (g *gcsGateway) Delete(ctx context.Context, key string) error {
	err := g.bucket.Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return newError(ErrCodeDelete, "gcs.delete", err)
	}
	return nil
}

func (g *gcsGateway) Fetch(ctx context.Context, keyOrURL string) (Object, error) {
	key := keyOrURL
	if mapped, ok := keyFromManagedURL(g.baseURL, keyOrURL); ok {
		key = mapped
	}
	reader, err := g.bucket.Object(key).NewReader(ctx)
	if err != nil {
		return Object{}, newError(ErrCodeDownload, "gcs.fetch", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return Object{}, newError(ErrCodeDownload, "gcs.fetch", err)
	}
	return Object{Data: data, ContentType: reader.Attrs.ContentType}, nil
}

func (g *gcsGateway) PublicURL(key string) string {
	return g.baseURL + "/" + strings.TrimPrefix(key, "/")
}

func (g *gcsGateway) IsManagedURL(raw string) bool {
	_, ok := keyFromManagedURL(g.baseURL, raw)
	return ok
}
