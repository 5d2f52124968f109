package printfile

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/footprint-shop/api/internal/domain"
	"github.com/footprint-shop/api/internal/storage"
)

type stubStorage struct {
	uploads   map[string][]byte
	uploadErr error
	signErr   error
}

func (s *stubStorage) GenerateKey(folder storage.Folder, ownerID, ext string) string {
	return string(folder) + "/" + ownerID + "/fixed." + ext
}

func (s *stubStorage) Upload(_ context.Context, key string, data []byte, _ string) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	if s.uploads == nil {
		s.uploads = map[string][]byte{}
	}
	s.uploads[key] = data
	return "https://cdn.example.com/" + key, nil
}

func (s *stubStorage) PresignUpload(context.Context, string, string, time.Duration) (string, error) {
	return "", errors.New("not implemented")
}

func (s *stubStorage) PresignDownload(_ context.Context, key string, _ time.Duration) (string, error) {
	if s.signErr != nil {
		return "", s.signErr
	}
	return "https://signed.example.com/" + key, nil
}

func (s *stubStorage) Delete(context.Context, string) error { return nil }

func (s *stubStorage) Fetch(context.Context, string) (storage.Object, error) {
	return storage.Object{}, errors.New("not implemented")
}

func (s *stubStorage) PublicURL(key string) string { return "https://cdn.example.com/" + key }
func (s *stubStorage) IsManagedURL(string) bool    { return false }

func TestStorageGeneratorUploadsAndSigns(t *testing.T) {
	store := &stubStorage{}
	gen, err := NewStorageGenerator(store)
	if err != nil {
		t.Fatal(err)
	}

	url, err := gen.Generate(context.Background(), []byte("img"), "ord_1", domain.SizeA3)
	if err != nil {
		t.Fatal(err)
	}

	wantKey := "print-ready/ord_1/fixed.jpg"
	if !strings.HasSuffix(url, wantKey) {
		t.Errorf("url = %q", url)
	}
	if !bytes.Equal(store.uploads[wantKey], []byte("img")) {
		t.Errorf("uploads = %v", store.uploads)
	}
}

func TestStorageGeneratorErrors(t *testing.T) {
	gen, err := NewStorageGenerator(&stubStorage{uploadErr: errors.New("boom")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := gen.Generate(context.Background(), nil, "ord_1", domain.SizeA4); err == nil {
		t.Error("expected upload error to propagate")
	}

	gen, err = NewStorageGenerator(&stubStorage{signErr: errors.New("boom")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := gen.Generate(context.Background(), nil, "ord_1", domain.SizeA4); err == nil {
		t.Error("expected presign error to propagate")
	}

	if _, err := NewStorageGenerator(nil); err == nil {
		t.Error("expected error for nil gateway")
	}
}
