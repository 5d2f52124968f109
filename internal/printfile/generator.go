package printfile

import (
	"context"
	"fmt"
	"time"

	domain "github.com/footprint-shop/api/internal/domain"
	"github.com/footprint-shop/api/internal/storage"
)

// generatedFileExpiry bounds how long a freshly rendered print file stays
// downloadable.
const generatedFileExpiry = time.Hour

// StorageGenerator persists renditions to the print-ready folder and hands
// back a presigned download URL. The incoming image is already transformed
// upstream; this generator only stores and signs it at the print key.
type StorageGenerator struct {
	gateway storage.Gateway
}

// NewStorageGenerator wires a StorageGenerator over an object storage
// gateway.
func NewStorageGenerator(gateway storage.Gateway) (*StorageGenerator, error) {
	if gateway == nil {
		return nil, fmt.Errorf("printfile: storage gateway is required")
	}
	return &StorageGenerator{gateway: gateway}, nil
}

// Generate uploads the print file under the order's print-ready key and
// returns a presigned URL for it.
func (g *StorageGenerator) Generate(ctx context.Context, image []byte, orderID string, size domain.PrintSize) (string, error) {
	key := g.gateway.GenerateKey(storage.FolderPrintReady, orderID, "jpg")
	if _, err := g.gateway.Upload(ctx, key, image, "image/jpeg"); err != nil {
		return "", fmt.Errorf("printfile: upload print file: %w", err)
	}
	url, err := g.gateway.PresignDownload(ctx, key, generatedFileExpiry)
	if err != nil {
		return "", fmt.Errorf("printfile: presign print file: %w", err)
	}
	return url, nil
}
