package printfile

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domain "github.com/footprint-shop/api/internal/domain"
)

type stubGenerator struct {
	generate func(ctx context.Context, image []byte, orderID string, size domain.PrintSize) (string, error)
}

func (s *stubGenerator) Generate(ctx context.Context, image []byte, orderID string, size domain.PrintSize) (string, error) {
	return s.generate(ctx, image, orderID, size)
}

type stubFetcher struct {
	fetch func(ctx context.Context, url string) ([]byte, error)
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return s.fetch(ctx, url)
}

func orderWithImage(size domain.PrintSize) domain.Order {
	return domain.Order{
		ID:          "ord_1",
		OrderNumber: "FP-1001",
		Items: []domain.OrderItem{{
			Size:                size,
			TransformedImageURL: "https://cdn.example.com/transformed/usr_1/1-a.jpg",
		}},
	}
}

func packagerForTest(t *testing.T, gen *stubGenerator, fetch *stubFetcher) *Packager {
	t.Helper()
	p, err := NewPackager(gen, fetch)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPackageSuccess(t *testing.T) {
	var generatedSize domain.PrintSize
	gen := &stubGenerator{generate: func(_ context.Context, image []byte, orderID string, size domain.PrintSize) (string, error) {
		if string(image) != "source-bytes" {
			t.Errorf("generator got image %q", image)
		}
		if orderID != "ord_1" {
			t.Errorf("generator got order %q", orderID)
		}
		generatedSize = size
		return "https://storage.example.com/print-ready/ord_1.jpg", nil
	}}
	fetch := &stubFetcher{fetch: func(_ context.Context, url string) ([]byte, error) {
		if url == "https://cdn.example.com/transformed/usr_1/1-a.jpg" {
			return []byte("source-bytes"), nil
		}
		return []byte("print-bytes"), nil
	}}

	file, outcome := packagerForTest(t, gen, fetch).Package(context.Background(), orderWithImage(domain.SizeA3))

	if outcome.Kind != OutcomeSuccess {
		t.Fatalf("outcome = %+v, want success", outcome)
	}
	if generatedSize != domain.SizeA3 {
		t.Errorf("generated size = %s, want A3", generatedSize)
	}
	if file.Name != "FP-1001/FP-1001_A3_print.jpg" {
		t.Errorf("entry name = %q", file.Name)
	}
	if string(file.Data) != "print-bytes" {
		t.Errorf("file data = %q", file.Data)
	}
}

func TestPackageDefaultsToA4(t *testing.T) {
	gen := &stubGenerator{generate: func(_ context.Context, _ []byte, _ string, size domain.PrintSize) (string, error) {
		if size != domain.SizeA4 {
			t.Errorf("size = %s, want default A4", size)
		}
		return "https://storage.example.com/p.jpg", nil
	}}
	fetch := &stubFetcher{fetch: func(context.Context, string) ([]byte, error) {
		return []byte("x"), nil
	}}

	_, outcome := packagerForTest(t, gen, fetch).Package(context.Background(), orderWithImage(""))
	if outcome.Kind != OutcomeSuccess {
		t.Fatalf("outcome = %+v", outcome)
	}
}

func TestPackageSkipsWithoutTransformedImage(t *testing.T) {
	p := packagerForTest(t,
		&stubGenerator{generate: func(context.Context, []byte, string, domain.PrintSize) (string, error) {
			t.Fatal("generator must not run")
			return "", nil
		}},
		&stubFetcher{fetch: func(context.Context, string) ([]byte, error) {
			t.Fatal("fetcher must not run")
			return nil, nil
		}},
	)

	for _, order := range []domain.Order{
		{ID: "ord_1", OrderNumber: "FP-1"},
		{ID: "ord_2", OrderNumber: "FP-2", Items: []domain.OrderItem{{Size: domain.SizeA4}}},
	} {
		_, outcome := p.Package(context.Background(), order)
		if outcome.Kind != OutcomeSkipped || outcome.Reason != "No transformed image" {
			t.Errorf("order %s outcome = %+v", order.ID, outcome)
		}
	}
}

func TestPackageSkipsInvalidSize(t *testing.T) {
	p := packagerForTest(t,
		&stubGenerator{generate: func(context.Context, []byte, string, domain.PrintSize) (string, error) {
			return "", nil
		}},
		&stubFetcher{fetch: func(context.Context, string) ([]byte, error) {
			return nil, nil
		}},
	)

	_, outcome := p.Package(context.Background(), orderWithImage(domain.PrintSize("Letter")))
	if outcome.Kind != OutcomeSkipped || outcome.Reason != "Invalid print size: Letter" {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestPackageFailsWhenImageFetchFails(t *testing.T) {
	gen := &stubGenerator{generate: func(context.Context, []byte, string, domain.PrintSize) (string, error) {
		t.Fatal("generator must not run")
		return "", nil
	}}
	fetch := &stubFetcher{fetch: func(context.Context, string) ([]byte, error) {
		return nil, errors.New("connection refused")
	}}

	_, outcome := packagerForTest(t, gen, fetch).Package(context.Background(), orderWithImage(domain.SizeA4))
	if outcome.Kind != OutcomeFailed || outcome.Reason != "Failed to fetch image" {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestPackageFailsWhenGeneratorFails(t *testing.T) {
	gen := &stubGenerator{generate: func(context.Context, []byte, string, domain.PrintSize) (string, error) {
		return "", errors.New("render crashed")
	}}
	fetch := &stubFetcher{fetch: func(context.Context, string) ([]byte, error) {
		return []byte("src"), nil
	}}

	_, outcome := packagerForTest(t, gen, fetch).Package(context.Background(), orderWithImage(domain.SizeA4))
	if outcome.Kind != OutcomeFailed || outcome.Reason != "Failed to fetch print file" {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestPackageFailsWhenPrintFileFetchFails(t *testing.T) {
	gen := &stubGenerator{generate: func(context.Context, []byte, string, domain.PrintSize) (string, error) {
		return "https://storage.example.com/p.jpg", nil
	}}
	fetch := &stubFetcher{fetch: func(_ context.Context, url string) ([]byte, error) {
		if url == "https://storage.example.com/p.jpg" {
			return nil, errors.New("expired url")
		}
		return []byte("src"), nil
	}}

	_, outcome := packagerForTest(t, gen, fetch).Package(context.Background(), orderWithImage(domain.SizeA4))
	if outcome.Kind != OutcomeFailed || outcome.Reason != "Failed to fetch print file" {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestSizeDimensions(t *testing.T) {
	cases := []struct {
		size   domain.PrintSize
		width  int
		height int
	}{
		{domain.SizeA5, 1748, 2480},
		{domain.SizeA4, 2480, 3508},
		{domain.SizeA3, 3508, 4960},
		{domain.SizeA2, 4960, 7016},
	}
	for _, tc := range cases {
		dims, ok := SizeDimensions(tc.size)
		if !ok {
			t.Fatalf("SizeDimensions(%s) not found", tc.size)
		}
		if dims.Width != tc.width || dims.Height != tc.height || dims.DPI != 300 {
			t.Errorf("SizeDimensions(%s) = %+v", tc.size, dims)
		}
	}
	if _, ok := SizeDimensions("A1"); ok {
		t.Error("unsupported size reported as valid")
	}
}

func TestHTTPFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("payload"))
	}))
	t.Cleanup(server.Close)

	fetcher := NewHTTPFetcher(server.Client(), 5*time.Second)

	data, err := fetcher.Fetch(context.Background(), server.URL+"/file.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload" {
		t.Errorf("data = %q", data)
	}

	if _, err := fetcher.Fetch(context.Background(), server.URL+"/missing"); err == nil {
		t.Error("non-200 response must fail")
	}
}
