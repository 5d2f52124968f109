package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	domain "github.com/footprint-shop/api/internal/domain"
)

const defaultIsraelPostBaseURL = "https://api.israelpost.co.il/v1"

// israelPostStatusMap normalises the carrier's status codes. Unknown codes
// fall back to pending.
var israelPostStatusMap = map[string]TrackingStatus{
	"PENDING":                TrackingPending,
	"ACCEPTED":               TrackingPickedUp,
	"IN_TRANSIT":             TrackingInTransit,
	"ARRIVED_AT_DESTINATION": TrackingInTransit,
	"OUT_FOR_DELIVERY":       TrackingOutForDelivery,
	"DELIVERED":              TrackingDelivered,
	"FAILED_DELIVERY":        TrackingFailedDelivery,
	"RETURNED":               TrackingReturned,
	"EXCEPTION":              TrackingException,
}

func mapIsraelPostStatus(raw string) TrackingStatus {
	if status, ok := israelPostStatusMap[raw]; ok {
		return status
	}
	return TrackingPending
}

// IsraelPostConfig holds the Israel Post API credentials and endpoint.
type IsraelPostConfig struct {
	BaseURL    string
	APIKey     string
	CustomerID string
}

// IsraelPost is the Israel Post domestic shipping integration.
type IsraelPost struct {
	baseURL    string
	apiKey     string
	customerID string
	httpClient *http.Client
	now        func() time.Time
}

// IsraelPostOption customises the client.
type IsraelPostOption func(*IsraelPost)

// WithIsraelPostHTTPClient injects the HTTP client, mainly for tests.
func WithIsraelPostHTTPClient(client *http.Client) IsraelPostOption {
	return func(p *IsraelPost) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithIsraelPostClock injects a fixed clock for tests.
func WithIsraelPostClock(clock func() time.Time) IsraelPostOption {
	return func(p *IsraelPost) {
		if clock != nil {
			p.now = clock
		}
	}
}

// NewIsraelPost builds the Israel Post carrier. Missing credentials are not
// an error here; the carrier reports itself unconfigured and refuses calls.
func NewIsraelPost(cfg IsraelPostConfig, opts ...IsraelPostOption) *IsraelPost {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultIsraelPostBaseURL
	}
	carrier := &IsraelPost{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		customerID: cfg.CustomerID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(carrier)
		}
	}
	return carrier
}

func (p *IsraelPost) Code() domain.CarrierCode { return domain.CarrierIsraelPost }
func (p *IsraelPost) Name() string             { return "Israel Post" }

func (p *IsraelPost) Configured() bool {
	return p.apiKey != "" && p.customerID != ""
}

// israelPostParty is the carrier's address shape. Their API names the
// street fields address/address2.
type israelPostParty struct {
	Name       string `json:"name"`
	Company    string `json:"company,omitempty"`
	Address    string `json:"address"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

func toIsraelPostParty(addr domain.Address) israelPostParty {
	return israelPostParty{
		Name:       addr.Name,
		Company:    addr.Company,
		Address:    addr.Street,
		Address2:   addr.Street2,
		City:       addr.City,
		PostalCode: addr.PostalCode,
		Phone:      addr.Phone,
		Email:      addr.Email,
	}
}

type israelPostShipmentPayload struct {
	OrderID       string             `json:"orderId"`
	OrderNumber   string             `json:"orderNumber"`
	ServiceType   domain.ServiceType `json:"serviceType"`
	Sender        israelPostParty    `json:"sender"`
	Recipient     israelPostParty    `json:"recipient"`
	Package       PackageDimensions  `json:"package"`
	DeclaredValue int64              `json:"declaredValue,omitempty"`
	Description   string             `json:"description,omitempty"`
	Reference     string             `json:"reference"`
}

type israelPostShipmentResponse struct {
	ShipmentID        string            `json:"shipmentId"`
	TrackingNumber    string            `json:"trackingNumber"`
	LabelURL          string            `json:"labelUrl"`
	EstimatedDelivery *DeliveryEstimate `json:"estimatedDelivery"`
	Cost              *ShipmentCost     `json:"cost"`
}

func (p *IsraelPost) CreateShipment(ctx context.Context, req ShipmentRequest) (ShipmentResult, error) {
	reference := req.Reference
	if reference == "" {
		reference = req.OrderNumber
	}
	payload := israelPostShipmentPayload{
		OrderID:       req.OrderID,
		OrderNumber:   req.OrderNumber,
		ServiceType:   req.ServiceType,
		Sender:        toIsraelPostParty(req.Sender),
		Recipient:     toIsraelPostParty(req.Recipient),
		Package:       req.Package,
		DeclaredValue: req.DeclaredValue,
		Description:   req.Description,
		Reference:     reference,
	}

	var resp israelPostShipmentResponse
	if err := p.apiRequest(ctx, http.MethodPost, "/shipments", payload, &resp); err != nil {
		return ShipmentResult{}, err
	}
	return ShipmentResult{
		ShipmentID:        resp.ShipmentID,
		TrackingNumber:    resp.TrackingNumber,
		Carrier:           domain.CarrierIsraelPost,
		LabelURL:          resp.LabelURL,
		EstimatedDelivery: resp.EstimatedDelivery,
		Cost:              resp.Cost,
	}, nil
}

type israelPostTrackingResponse struct {
	TrackingNumber    string `json:"trackingNumber"`
	Status            string `json:"status"`
	EstimatedDelivery string `json:"estimatedDelivery"`
	Events            []struct {
		Timestamp   time.Time `json:"timestamp"`
		Status      string    `json:"status"`
		Location    string    `json:"location"`
		Description string    `json:"description"`
	} `json:"events"`
}

func (p *IsraelPost) GetTracking(ctx context.Context, trackingNumber string) (TrackingDetails, error) {
	var resp israelPostTrackingResponse
	path := "/tracking/" + url.PathEscape(trackingNumber)
	if err := p.apiRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return TrackingDetails{}, err
	}

	events := make([]TrackingEvent, 0, len(resp.Events))
	for _, event := range resp.Events {
		events = append(events, TrackingEvent{
			Timestamp:   event.Timestamp,
			Status:      mapIsraelPostStatus(event.Status),
			Location:    event.Location,
			Description: event.Description,
			RawStatus:   event.Status,
		})
	}

	details := TrackingDetails{
		TrackingNumber: resp.TrackingNumber,
		Carrier:        domain.CarrierIsraelPost,
		Status:         mapIsraelPostStatus(resp.Status),
		Events:         events,
		LastUpdated:    p.now().UTC(),
	}
	if resp.EstimatedDelivery != "" {
		if estimated, err := time.Parse(time.RFC3339, resp.EstimatedDelivery); err == nil {
			details.EstimatedDelivery = &estimated
		}
	}
	return details, nil
}

func (p *IsraelPost) CancelShipment(ctx context.Context, carrierRef string) error {
	path := "/shipments/" + url.PathEscape(carrierRef)
	return p.apiRequest(ctx, http.MethodDelete, path, nil, nil)
}

// israelPostErrorBody is the carrier's error envelope.
type israelPostErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (p *IsraelPost) apiRequest(ctx context.Context, method, path string, body, out any) error {
	if !p.Configured() {
		return &CarrierError{
			Code:    ErrCodeNotConfigured,
			Carrier: domain.CarrierIsraelPost,
			Message: "israel post carrier is not configured",
		}
	}

	var reqBody *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &CarrierError{Code: ErrCodeAPIError, Carrier: domain.CarrierIsraelPost, Err: err}
		}
		reqBody = bytes.NewReader(encoded)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		return &CarrierError{Code: ErrCodeAPIError, Carrier: domain.CarrierIsraelPost, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("X-Customer-ID", p.customerID)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return &CarrierError{
			Code:      ErrCodeAPIError,
			Carrier:   domain.CarrierIsraelPost,
			Retryable: true,
			Err:       err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody israelPostErrorBody
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		code := errBody.Code
		if code == "" {
			code = ErrCodeAPIError
		}
		message := errBody.Error
		if message == "" {
			message = fmt.Sprintf("api request failed with status %d", resp.StatusCode)
		}
		return &CarrierError{
			Code:      code,
			Carrier:   domain.CarrierIsraelPost,
			Message:   message,
			Retryable: resp.StatusCode >= 500,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &CarrierError{Code: ErrCodeAPIError, Carrier: domain.CarrierIsraelPost, Err: err}
	}
	return nil
}
