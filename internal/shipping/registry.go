package shipping

import (
	"regexp"
	"strings"
	"sync"

	domain "github.com/footprint-shop/api/internal/domain"
)

// carrierPatterns match tracking-number formats for carrier detection,
// checked in order so the more specific formats win.
var carrierPatterns = []struct {
	code    domain.CarrierCode
	pattern *regexp.Regexp
}{
	{domain.CarrierIsraelPost, regexp.MustCompile(`^(RR|RL|EA|EE)\d{9}IL$`)},
	{domain.CarrierDHL, regexp.MustCompile(`^\d{10}$`)},
	{domain.CarrierFedEx, regexp.MustCompile(`^\d{12,22}$`)},
	{domain.CarrierUPS, regexp.MustCompile(`^1Z[A-Z0-9]{16}$`)},
}

// DetectCarrier guesses the carrier from a tracking number's format. ok is
// false when no known format matches.
func DetectCarrier(trackingNumber string) (domain.CarrierCode, bool) {
	trimmed := strings.ToUpper(strings.TrimSpace(trackingNumber))
	if trimmed == "" {
		return "", false
	}
	for _, candidate := range carrierPatterns {
		if candidate.pattern.MatchString(trimmed) {
			return candidate.code, true
		}
	}
	return "", false
}

// ValidTrackingNumber reports whether trackingNumber matches the format the
// given carrier uses.
func ValidTrackingNumber(trackingNumber string, carrier domain.CarrierCode) bool {
	trimmed := strings.ToUpper(strings.TrimSpace(trackingNumber))
	for _, candidate := range carrierPatterns {
		if candidate.code == carrier {
			return candidate.pattern.MatchString(trimmed)
		}
	}
	return false
}

// Registry holds the registered carriers. The first registration becomes
// the default until SetDefault overrides it.
type Registry struct {
	mu           sync.RWMutex
	carriers     map[domain.CarrierCode]Carrier
	defaultCode  domain.CarrierCode
	haveExplicit bool
}

// NewRegistry returns an empty carrier registry.
func NewRegistry() *Registry {
	return &Registry{carriers: make(map[domain.CarrierCode]Carrier)}
}

// Register adds or replaces a carrier.
func (r *Registry) Register(carrier Carrier) {
	if carrier == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.carriers) == 0 && !r.haveExplicit {
		r.defaultCode = carrier.Code()
	}
	r.carriers[carrier.Code()] = carrier
}

// Get returns the carrier registered for code.
func (r *Registry) Get(code domain.CarrierCode) (Carrier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	carrier, ok := r.carriers[code]
	if !ok {
		return nil, &CarrierError{
			Code:    ErrCodeProviderNotFound,
			Carrier: code,
			Message: "carrier not registered",
		}
	}
	return carrier, nil
}

// SetDefault pins the default carrier. The code must already be registered.
func (r *Registry) SetDefault(code domain.CarrierCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.carriers[code]; !ok {
		return &CarrierError{
			Code:    ErrCodeProviderNotFound,
			Carrier: code,
			Message: "carrier not registered",
		}
	}
	r.defaultCode = code
	r.haveExplicit = true
	return nil
}

// Default returns the default carrier, falling back to any configured
// carrier when no default is set.
func (r *Registry) Default() (Carrier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if carrier, ok := r.carriers[r.defaultCode]; ok {
		return carrier, nil
	}
	for _, carrier := range r.carriers {
		if carrier.Configured() {
			return carrier, nil
		}
	}
	return nil, &CarrierError{
		Code:    ErrCodeNoProviders,
		Message: "no carriers registered",
	}
}

// Resolve returns the carrier for code, or the default when code is empty.
func (r *Registry) Resolve(code domain.CarrierCode) (Carrier, error) {
	if code == "" {
		return r.Default()
	}
	return r.Get(code)
}

// Configured lists the carriers that currently hold credentials.
func (r *Registry) Configured() []Carrier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Carrier, 0, len(r.carriers))
	for _, carrier := range r.carriers {
		if carrier.Configured() {
			out = append(out, carrier)
		}
	}
	return out
}
