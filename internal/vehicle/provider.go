package vehicle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "swiftpolicy/internal/errors"
	"swiftpolicy/internal/model"
)

// Provider resolves a registration mark or VIN against an external vehicle registry.
type Provider interface {
	Lookup(ctx context.Context, vrm string) (*model.VehicleSpec, error)
	LookupVIN(ctx context.Context, vin string) (*model.VehicleSpec, error)
	Configured() bool
}

// HTTPProvider calls a DVLA vehicle-enquiry style endpoint and, when set, a
// VIN decoder.
type HTTPProvider struct {
	url    string
	vinURL string
	apiKey string
	client *http.Client
}

// HTTPOption configures an HTTPProvider.
type HTTPOption func(*HTTPProvider)

// WithVINEndpoint sets the decoder queried as GET <url>/<vin>.
func WithVINEndpoint(endpoint string) HTTPOption {
	return func(p *HTTPProvider) {
		p.vinURL = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	}
}

var _ Provider = (*HTTPProvider)(nil)

// NewHTTPProvider creates a provider. An empty url yields an unconfigured provider
// whose lookups always fail.
func NewHTTPProvider(url, apiKey string, timeout time.Duration, opts ...HTTPOption) *HTTPProvider {
	p := &HTTPProvider{
		url:    strings.TrimSpace(url),
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Configured reports whether an endpoint is set.
func (p *HTTPProvider) Configured() bool {
	return p != nil && p.url != ""
}

type enquiryRequest struct {
	RegistrationNumber string `json:"registrationNumber"`
}

type enquiryResponse struct {
	RegistrationNumber string          `json:"registrationNumber"`
	Make               string          `json:"make"`
	Model              string          `json:"model"`
	YearOfManufacture  json.Number     `json:"yearOfManufacture"`
	FuelType           string          `json:"fuelType"`
	EngineCapacity     json.RawMessage `json:"engineCapacity"`
	Colour             string          `json:"colour"`
}

// Lookup posts the mark to the endpoint and maps the response onto a VehicleSpec.
func (p *HTTPProvider) Lookup(ctx context.Context, vrm string) (*model.VehicleSpec, error) {
	if !p.Configured() {
		return nil, fmt.Errorf("%w: no endpoint configured", apperrors.ErrVehicleProviderUnavailable)
	}

	body, err := json.Marshal(enquiryRequest{RegistrationNumber: vrm})
	if err != nil {
		return nil, fmt.Errorf("encode vehicle enquiry: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build vehicle enquiry: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("x-api-key", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrVehicleProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.ErrVehicleNotFound
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", apperrors.ErrVehicleProviderUnavailable, resp.StatusCode)
	}

	var out enquiryResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", apperrors.ErrVehicleProviderUnavailable, err)
	}

	return &model.VehicleSpec{
		Registration: vrm,
		Make:         strings.ToUpper(strings.TrimSpace(out.Make)),
		Model:        strings.ToUpper(strings.TrimSpace(out.Model)),
		Year:         out.YearOfManufacture.String(),
		FuelType:     out.FuelType,
		EngineSize:   engineSize(out.EngineCapacity),
		Color:        out.Colour,
	}, nil
}

type vinResponse struct {
	Make     string      `json:"make"`
	Model    string      `json:"model"`
	Year     json.Number `json:"year"`
	FuelType string      `json:"fuelType"`
}

// LookupVIN asks the decoder for make, model and year.
func (p *HTTPProvider) LookupVIN(ctx context.Context, vin string) (*model.VehicleSpec, error) {
	if p == nil || p.vinURL == "" {
		return nil, fmt.Errorf("%w: no VIN decoder configured", apperrors.ErrVehicleProviderUnavailable)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.vinURL+"/"+url.PathEscape(vin), nil)
	if err != nil {
		return nil, fmt.Errorf("build VIN request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("x-api-key", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrVehicleProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.ErrVehicleNotFound
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", apperrors.ErrVehicleProviderUnavailable, resp.StatusCode)
	}

	var out vinResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", apperrors.ErrVehicleProviderUnavailable, err)
	}
	return &model.VehicleSpec{
		VIN:      vin,
		Make:     strings.ToUpper(strings.TrimSpace(out.Make)),
		Model:    strings.ToUpper(strings.TrimSpace(out.Model)),
		Year:     out.Year.String(),
		FuelType: out.FuelType,
	}, nil
}

// engineSize accepts either a number of cc or a preformatted string.
func engineSize(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatInt(n, 10) + "cc"
	}
	return ""
}
