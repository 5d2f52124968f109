package shipping

import (
	"context"
	"errors"
	"testing"

	domain "github.com/footprint-shop/api/internal/domain"
)

type stubCarrier struct {
	code       domain.CarrierCode
	configured bool
}

func (s *stubCarrier) Code() domain.CarrierCode { return s.code }
func (s *stubCarrier) Name() string             { return string(s.code) }
func (s *stubCarrier) Configured() bool         { return s.configured }

func (s *stubCarrier) CreateShipment(context.Context, ShipmentRequest) (ShipmentResult, error) {
	return ShipmentResult{Carrier: s.code}, nil
}

func (s *stubCarrier) GetTracking(context.Context, string) (TrackingDetails, error) {
	return TrackingDetails{Carrier: s.code}, nil
}

func (s *stubCarrier) CancelShipment(context.Context, string) error { return nil }

func TestDetectCarrier(t *testing.T) {
	cases := []struct {
		trackingNumber string
		want           domain.CarrierCode
		ok             bool
	}{
		{"RR123456789IL", domain.CarrierIsraelPost, true},
		{"RL987654321IL", domain.CarrierIsraelPost, true},
		{"EA123456789IL", domain.CarrierIsraelPost, true},
		{"EE123456789IL", domain.CarrierIsraelPost, true},
		{"rr123456789il", domain.CarrierIsraelPost, true},
		{"  RR123456789IL  ", domain.CarrierIsraelPost, true},
		{"1234567890", domain.CarrierDHL, true},
		{"123456789012", domain.CarrierFedEx, true},
		{"1234567890123456789012", domain.CarrierFedEx, true},
		{"1Z12345E0205271688", domain.CarrierUPS, true},
		{"1z12345e0205271688", domain.CarrierUPS, true},
		{"UNKNOWN123", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := DetectCarrier(tc.trackingNumber)
		if got != tc.want || ok != tc.ok {
			t.Errorf("DetectCarrier(%q) = (%q, %v), want (%q, %v)", tc.trackingNumber, got, ok, tc.want, tc.ok)
		}
	}
}

func TestValidTrackingNumber(t *testing.T) {
	if !ValidTrackingNumber("rr123456789il", domain.CarrierIsraelPost) {
		t.Error("valid israel post number rejected")
	}
	if ValidTrackingNumber("RR12345IL", domain.CarrierIsraelPost) {
		t.Error("short israel post number accepted")
	}
	if ValidTrackingNumber("RR123456789US", domain.CarrierIsraelPost) {
		t.Error("israel post number without IL suffix accepted")
	}
	if ValidTrackingNumber("1234567890", domain.CarrierCode("other")) {
		t.Error("unknown carrier validated a number")
	}
}

func TestRegistryFirstRegistrationBecomesDefault(t *testing.T) {
	registry := NewRegistry()
	first := &stubCarrier{code: domain.CarrierIsraelPost, configured: true}
	registry.Register(first)
	registry.Register(&stubCarrier{code: domain.CarrierDHL, configured: true})

	got, err := registry.Default()
	if err != nil {
		t.Fatal(err)
	}
	if got.Code() != domain.CarrierIsraelPost {
		t.Errorf("default carrier = %s, want %s", got.Code(), domain.CarrierIsraelPost)
	}
}

func TestRegistrySetDefault(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubCarrier{code: domain.CarrierIsraelPost, configured: true})
	registry.Register(&stubCarrier{code: domain.CarrierDHL, configured: true})

	if err := registry.SetDefault(domain.CarrierDHL); err != nil {
		t.Fatal(err)
	}
	got, err := registry.Default()
	if err != nil {
		t.Fatal(err)
	}
	if got.Code() != domain.CarrierDHL {
		t.Errorf("default carrier = %s, want %s", got.Code(), domain.CarrierDHL)
	}

	err = registry.SetDefault(domain.CarrierUPS)
	var carrierErr *CarrierError
	if !errors.As(err, &carrierErr) || carrierErr.Code != ErrCodeProviderNotFound {
		t.Errorf("SetDefault(unregistered) = %v, want PROVIDER_NOT_FOUND", err)
	}
}

func TestRegistryGetUnregistered(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get(domain.CarrierFedEx)
	var carrierErr *CarrierError
	if !errors.As(err, &carrierErr) {
		t.Fatalf("expected *CarrierError, got %v", err)
	}
	if carrierErr.Code != ErrCodeProviderNotFound || carrierErr.Carrier != domain.CarrierFedEx {
		t.Errorf("got code=%s carrier=%s", carrierErr.Code, carrierErr.Carrier)
	}
}

func TestRegistryDefaultEmpty(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Default()
	var carrierErr *CarrierError
	if !errors.As(err, &carrierErr) || carrierErr.Code != ErrCodeNoProviders {
		t.Errorf("Default on empty registry = %v, want NO_PROVIDERS", err)
	}
}

func TestRegistryResolve(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubCarrier{code: domain.CarrierIsraelPost, configured: true})

	byCode, err := registry.Resolve(domain.CarrierIsraelPost)
	if err != nil || byCode.Code() != domain.CarrierIsraelPost {
		t.Fatalf("Resolve(code) = (%v, %v)", byCode, err)
	}
	byDefault, err := registry.Resolve("")
	if err != nil || byDefault.Code() != domain.CarrierIsraelPost {
		t.Fatalf("Resolve(empty) = (%v, %v)", byDefault, err)
	}
}

func TestRegistryConfiguredFiltersCredentials(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubCarrier{code: domain.CarrierIsraelPost, configured: true})
	registry.Register(&stubCarrier{code: domain.CarrierDHL, configured: false})

	configured := registry.Configured()
	if len(configured) != 1 || configured[0].Code() != domain.CarrierIsraelPost {
		t.Errorf("Configured() = %v, want only israel_post", configured)
	}
}
