package maps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/floret-storefront/pkg/errors"
)

const (
	defaultBaseURL        = "https://places.googleapis.com/v1"
	defaultRegion         = "IN"
	autocompleteFieldMask = "suggestions.placePrediction.placeId,suggestions.placePrediction.text"
	placeFieldMask        = "id,formattedAddress,location"
	errorBodyLimit        = 1024
)

var errAPIKeyRequired = errors.New("google maps api key is required")

// Client wraps the Google Places endpoints used for delivery addresses.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	region     string
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

// WithBaseURL overrides the Places base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// WithRegion restricts autocomplete to a CLDR region code.
func WithRegion(region string) Option {
	return func(c *Client) {
		c.region = strings.ToUpper(strings.TrimSpace(region))
	}
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     key,
		baseURL:    defaultBaseURL,
		region:     defaultRegion,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Suggestion is one autocomplete prediction.
type Suggestion struct {
	PlaceID     string `json:"placeId"`
	Description string `json:"description"`
}

// Place is the resolved location of a place id.
type Place struct {
	PlaceID          string
	FormattedAddress string
	Location         LatLng
}

// LatLng is a latitude/longitude pair in degrees.
type LatLng struct {
	Latitude  float64
	Longitude float64
}

// Autocomplete returns address suggestions for partial input.
func (c *Client) Autocomplete(ctx context.Context, input string) ([]Suggestion, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "google maps client not configured")
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "autocomplete input is required")
	}

	body := map[string]any{"input": input}
	if c.region != "" {
		body["includedRegionCodes"] = []string{c.region}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal autocomplete request")
	}

	var apiResp struct {
		Suggestions []struct {
			Prediction struct {
				PlaceID string `json:"placeId"`
				Text    struct {
					Text string `json:"text"`
				} `json:"text"`
			} `json:"placePrediction"`
		} `json:"suggestions"`
	}
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/places:autocomplete", autocompleteFieldMask, payload, &apiResp); err != nil {
		return nil, err
	}

	out := make([]Suggestion, 0, len(apiResp.Suggestions))
	for _, s := range apiResp.Suggestions {
		out = append(out, Suggestion{PlaceID: s.Prediction.PlaceID, Description: s.Prediction.Text.Text})
	}
	return out, nil
}

// ResolvePlace fetches the coordinates for the provided place id.
func (c *Client) ResolvePlace(ctx context.Context, placeID string) (*Place, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "google maps client not configured")
	}
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "place ID is required")
	}

	var apiResp struct {
		ID               string `json:"id"`
		FormattedAddress string `json:"formattedAddress"`
		Location         struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
	}
	target := fmt.Sprintf("%s/places/%s", c.baseURL, url.PathEscape(placeID))
	if err := c.do(ctx, http.MethodGet, target, placeFieldMask, nil, &apiResp); err != nil {
		return nil, err
	}

	return &Place{
		PlaceID:          apiResp.ID,
		FormattedAddress: apiResp.FormattedAddress,
		Location:         LatLng{Latitude: apiResp.Location.Latitude, Longitude: apiResp.Location.Longitude},
	}, nil
}

func (c *Client) do(ctx context.Context, method, target, fieldMask string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build places request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute places request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, "place not found")
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"places request failed")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode places response")
	}
	return nil
}
