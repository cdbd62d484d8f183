package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Provider status codes on the wire.
const (
	StatusOK             = "OK"
	StatusZeroResults    = "ZERO_RESULTS"
	StatusOverQueryLimit = "OVER_QUERY_LIMIT"
	StatusRequestDenied  = "REQUEST_DENIED"
	StatusInvalidRequest = "INVALID_REQUEST"
)

const lookupTimeout = 10 * time.Second

var ErrUnexpectedResponse = errors.New("unexpected geocoding response")

// LookupResult is a single provider answer for one address string.
type LookupResult struct {
	Status           string
	Latitude         float64
	Longitude        float64
	FormattedAddress string
}

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: lookupTimeout,
		},
	}
}

type lookupResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Lookup queries the provider with a free-text address. A non-nil error
// means the provider could not be reached or answered garbage; provider
// level failures (zero results, quota) come back in LookupResult.Status.
func (c *Client) Lookup(ctx context.Context, address string) (*LookupResult, error) {
	query := url.Values{}
	query.Set("address", address)
	query.Set("key", c.apiKey)
	query.Set("region", "nz")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)

	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %s", ErrUnexpectedResponse, resp.Status)
	}

	var body lookupResponse

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}

	result := &LookupResult{Status: body.Status}

	if body.Status == StatusOK {
		if len(body.Results) == 0 {
			return nil, fmt.Errorf("%w: OK status with no results", ErrUnexpectedResponse)
		}

		first := body.Results[0]
		result.Latitude = first.Geometry.Location.Lat
		result.Longitude = first.Geometry.Location.Lng
		result.FormattedAddress = first.FormattedAddress
	}

	return result, nil
}
