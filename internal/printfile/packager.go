// Package printfile turns an order's transformed image into the
// print-ready file that goes into bulk-download archives. Rendering is
// behind the Generator interface; this package only orchestrates fetches
// and classifies per-order outcomes.
package printfile

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	domain "github.com/footprint-shop/api/internal/domain"
)

// Dimensions are the pixel dimensions of a print file at its DPI.
type Dimensions struct {
	Width  int
	Height int
	DPI    int
}

// printSizes holds the supported formats at 300 DPI.
var printSizes = map[domain.PrintSize]Dimensions{
	domain.SizeA5: {Width: 1748, Height: 2480, DPI: 300},
	domain.SizeA4: {Width: 2480, Height: 3508, DPI: 300},
	domain.SizeA3: {Width: 3508, Height: 4960, DPI: 300},
	domain.SizeA2: {Width: 4960, Height: 7016, DPI: 300},
}

// SizeDimensions returns the pixel dimensions for a print size. ok is false
// for unsupported sizes.
func SizeDimensions(size domain.PrintSize) (Dimensions, bool) {
	dims, ok := printSizes[size]
	return dims, ok
}

// IsValidSize reports whether raw names a supported print size.
func IsValidSize(raw string) bool {
	_, ok := printSizes[domain.PrintSize(raw)]
	return ok
}

// defaultSize applies when an order item carries no print size.
const defaultSize = domain.SizeA4

// OutcomeKind classifies what happened to one order during packaging.
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeSkipped OutcomeKind = "skipped"
	OutcomeFailed  OutcomeKind = "failed"
)

// Outcome is the per-order packaging result. Skips are expected conditions
// (nothing to package); failures are runtime errors worth retrying.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
}

func Success() Outcome           { return Outcome{Kind: OutcomeSuccess} }
func Skip(reason string) Outcome { return Outcome{Kind: OutcomeSkipped, Reason: reason} }
func Fail(reason string) Outcome { return Outcome{Kind: OutcomeFailed, Reason: reason} }

// File is one archive entry: the path inside the archive plus the bytes.
type File struct {
	Name string
	Data []byte
}

// Generator renders a print-ready file from a source image and returns a
// URL the rendition can be downloaded from.
type Generator interface {
	Generate(ctx context.Context, image []byte, orderID string, size domain.PrintSize) (string, error)
}

// Fetcher downloads a URL's body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Packager builds print files order by order.
type Packager struct {
	generator Generator
	fetcher   Fetcher
}

// NewPackager wires a Packager. Both collaborators are required.
func NewPackager(generator Generator, fetcher Fetcher) (*Packager, error) {
	if generator == nil {
		return nil, fmt.Errorf("printfile: generator is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("printfile: fetcher is required")
	}
	return &Packager{generator: generator, fetcher: fetcher}, nil
}

// Package produces the print file for one order. A zero File with a skip or
// fail Outcome means the order contributes nothing to the archive; the
// Outcome reason feeds the manifest.
func (p *Packager) Package(ctx context.Context, order domain.Order) (File, Outcome) {
	item, ok := order.PrimaryItem()
	if !ok || item.TransformedImageURL == "" {
		return File{}, Skip("No transformed image")
	}

	size := item.Size
	if size == "" {
		size = defaultSize
	}
	if !IsValidSize(string(size)) {
		return File{}, Skip(fmt.Sprintf("Invalid print size: %s", size))
	}

	image, err := p.fetcher.Fetch(ctx, item.TransformedImageURL)
	if err != nil {
		return File{}, Fail("Failed to fetch image")
	}

	downloadURL, err := p.generator.Generate(ctx, image, order.ID, size)
	if err != nil {
		return File{}, Fail("Failed to fetch print file")
	}

	data, err := p.fetcher.Fetch(ctx, downloadURL)
	if err != nil {
		return File{}, Fail("Failed to fetch print file")
	}

	return File{Name: EntryName(order.OrderNumber, size), Data: data}, Success()
}

// EntryName is the archive path for an order's print file. Grouping by
// order number keeps one folder per order inside the zip.
func EntryName(orderNumber string, size domain.PrintSize) string {
	return fmt.Sprintf("%s/%s_%s_print.jpg", orderNumber, orderNumber, size)
}

// HTTPFetcher downloads URLs over HTTP with a per-request deadline.
type HTTPFetcher struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPFetcher builds an HTTPFetcher. A nil client uses a default with
// the same timeout.
func NewHTTPFetcher(client *http.Client, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPFetcher{client: client, timeout: timeout}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("printfile: build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("printfile: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("printfile: fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("printfile: read body: %w", err)
	}
	return data, nil
}
