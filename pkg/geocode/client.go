package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/citymeds/citymeds-go/pkg/errors"
)

const (
	defaultBaseURL             = "https://maps.googleapis.com/maps/api/geocode"
	responseBodyReadLimit int64 = 1024
)

var (
	errAPIKeyRequired = errors.New("geocoding api key is required")
)

// Client wraps the reverse-geocoding API used to turn device coordinates
// into a deliverable address.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured geocoding base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the geocoding client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// Place is the denormalized subset kept after reverse geocoding.
type Place struct {
	Address string
	City    string
	Pincode string
}

// ReverseGeocode resolves coordinates to a deliverable address. The service
// is treated as unreliable; every failure surfaces as a NETWORK_ERROR.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (*Place, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNetwork, "geocoding client not configured")
	}

	url := fmt.Sprintf("%s/json?latlng=%f,%f&key=%s", strings.TrimRight(c.baseURL, "/"), lat, lng, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "build reverse geocode request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "execute reverse geocode request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeNetwork, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "reverse geocode request failed")
	}

	var apiResp struct {
		Status  string `json:"status"`
		Results []struct {
			FormattedAddress  string `json:"formatted_address"`
			AddressComponents []struct {
				LongName string   `json:"long_name"`
				Types    []string `json:"types"`
			} `json:"address_components"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "decode reverse geocode response")
	}

	if apiResp.Status != "OK" || len(apiResp.Results) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNetwork, fmt.Sprintf("no geocoding result (status %s)", apiResp.Status))
	}

	result := apiResp.Results[0]

	find := func(kind string) (string, bool) {
		for _, comp := range result.AddressComponents {
			for _, typ := range comp.Types {
				if typ == kind && comp.LongName != "" {
					return comp.LongName, true
				}
			}
		}
		return "", false
	}

	city, ok := find("locality")
	if !ok {
		if town, ok2 := find("postal_town"); ok2 {
			city = town
		} else if admin2, ok3 := find("administrative_area_level_2"); ok3 {
			city = admin2
		}
	}
	if city == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNetwork, "city missing from geocoding result")
	}

	pincode, _ := find("postal_code")

	address := strings.TrimSpace(result.FormattedAddress)
	if address == "" {
		address = city
	}

	return &Place{
		Address: address,
		City:    city,
		Pincode: pincode,
	}, nil
}
