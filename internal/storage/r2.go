package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2Config holds the Cloudflare R2 connection settings. R2 speaks the S3
// API, so the gateway runs on the AWS SDK pointed at the account endpoint.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicBaseURL   string
}

type r2Gateway struct {
	keyMaker

	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	baseURL   string
}

// R2Option customises the R2 gateway.
type R2Option func(*r2Gateway)

// WithR2Clock injects a fixed clock for key generation in tests.
func WithR2Clock(clock func() time.Time) R2Option {
	return func(g *r2Gateway) {
		if clock != nil {
			g.now = clock
		}
	}
}

// NewR2Gateway builds a Gateway backed by a Cloudflare R2 bucket.
func NewR2Gateway(ctx context.Context, cfg R2Config, opts ...R2Option) (Gateway, error) {
	switch {
	case strings.TrimSpace(cfg.AccountID) == "":
		return nil, newError(ErrCodeMissingConfig, "r2.init", errors.New("account id is required"))
	case strings.TrimSpace(cfg.AccessKeyID) == "" || strings.TrimSpace(cfg.SecretAccessKey) == "":
		return nil, newError(ErrCodeMissingConfig, "r2.init", errors.New("access credentials are required"))
	case strings.TrimSpace(cfg.Bucket) == "":
		return nil, newError(ErrCodeMissingConfig, "r2.init", errors.New("bucket is required"))
	case strings.TrimSpace(cfg.PublicBaseURL) == "":
		return nil, newError(ErrCodeMissingConfig, "r2.init", errors.New("public base url is required"))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, newError(ErrCodeMissingConfig, "r2.init", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", strings.TrimSpace(cfg.AccountID))
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	gateway := &r2Gateway{
		keyMaker:  newKeyMaker(),
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    strings.TrimSpace(cfg.Bucket),
		baseURL:   publicBase(cfg.PublicBaseURL),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(gateway)
		}
	}
	return gateway, nil
}

func (g *r2Gateway) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := g.client.PutObject(ctx, input); err != nil {
		return "", newError(ErrCodeUpload, "r2.upload", err)
	}
	return g.PublicURL(key), nil
}

func (g *r2Gateway) PresignUpload(ctx context.Context, key, contentType string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = defaultPresignExpiry
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	signed, err := g.presigner.PresignPutObject(ctx, input, s3.WithPresignExpires(expires))
	if err != nil {
		return "", newError(ErrCodePresign, "r2.presign_upload", err)
	}
	return signed.URL, nil
}

func (g *r2Gateway) PresignDownload(ctx context.Context, key string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = defaultPresignExpiry
	}
	signed, err := g.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", newError(ErrCodePresign, "r2.presign_download", err)
	}
	return signed.URL, nil
}

// Delete removes key. S3 treats deleting an absent key as success, which
// matches the Gateway contract.
func (g *r2Gateway) Delete(ctx context.Context, key string) error {
	_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return newError(ErrCodeDelete, "r2.delete", err)
	}
	return nil
}

func (g *r2Gateway) Fetch(ctx context.Context, keyOrURL string) (Object, error) {
	key := keyOrURL
	if mapped, ok := keyFromManagedURL(g.baseURL, keyOrURL); ok {
		key = mapped
	}
	out, err := g.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Object{}, newError(ErrCodeDownload, "r2.fetch", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return Object{}, newError(ErrCodeDownload, "r2.fetch", err)
	}
	return Object{Data: data, ContentType: aws.ToString(out.ContentType)}, nil
}

func (g *r2Gateway) PublicURL(key string) string {
	return g.baseURL + "/" + strings.TrimPrefix(key, "/")
}

func (g *r2Gateway) IsManagedURL(raw string) bool {
	_, ok := keyFromManagedURL(g.baseURL, raw)
	return ok
}
