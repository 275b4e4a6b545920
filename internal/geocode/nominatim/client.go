// Package nominatim provides a client for the Nominatim geocoding API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/switchbackmaps/switchback/internal/geocode"
	"github.com/switchbackmaps/switchback/internal/provider/resilience"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "nominatim"

	// DefaultBaseURL is the public Nominatim instance. Production should
	// point at a self-hosted instance; the public one allows at most one
	// request per second.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	// userAgent identifies this application per the Nominatim usage policy.
	userAgent = "switchback/1.0"

	// healthTimeout bounds the health probe.
	healthTimeout = 5 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Nominatim client.
type ClientConfig struct {
	// BaseURL is the Nominatim base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Nominatim API client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new Nominatim client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		if cfg.Registry != nil {
			clientCfg.Registry = cfg.Registry
		}
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// nominatimPlace is a single result in Nominatim's jsonv2 format.
type nominatimPlace struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Category    string `json:"category"`
	Type        string `json:"type"`
}

// Search finds places matching a free-form query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]geocode.Place, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", strconv.Itoa(limit))

	var results []nominatimPlace
	if err := c.get(ctx, "/search", params, &results); err != nil {
		return nil, err
	}

	places := make([]geocode.Place, 0, len(results))
	for _, r := range results {
		place, err := toPlace(&r)
		if err != nil {
			continue
		}
		places = append(places, *place)
	}

	c.logger.Debug().
		Str("query", query).
		Int("results", len(places)).
		Msg("geocoded place search")

	return places, nil
}

// Reverse finds the place at a coordinate.
func (c *Client) Reverse(ctx context.Context, lng, lat float64) (*geocode.Place, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', 6, 64))
	params.Set("format", "jsonv2")

	var result nominatimPlace
	if err := c.get(ctx, "/reverse", params, &result); err != nil {
		return nil, err
	}
	if result.DisplayName == "" {
		return nil, geocode.ErrNoResults
	}

	return toPlace(&result)
}

// CheckHealth verifies the Nominatim instance responds.
func (c *Client) CheckHealth(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	reqURL := c.baseURL + "/status?format=json"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating health request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return geocode.ErrProviderUnavailable
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return geocode.ErrProviderUnavailable
	}
	return nil
}

// get executes a GET request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqURL := c.baseURL + path + "?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return geocode.ErrProviderUnavailable
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return geocode.ErrProviderUnavailable
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// toPlace converts a Nominatim result to the domain model. Nominatim
// encodes coordinates as strings.
func toPlace(r *nominatimPlace) (*geocode.Place, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing longitude: %w", err)
	}

	name := r.Name
	if name == "" {
		name = firstComponent(r.DisplayName)
	}

	return &geocode.Place{
		Name:        name,
		DisplayName: r.DisplayName,
		Lng:         lng,
		Lat:         lat,
		Category:    r.Category,
		Type:        r.Type,
	}, nil
}

// firstComponent returns the leading component of a display name.
func firstComponent(displayName string) string {
	if idx := strings.Index(displayName, ","); idx > 0 {
		return displayName[:idx]
	}
	return displayName
}
