// Package osrm provides a client for the OSRM route service API.
package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/switchbackmaps/switchback/internal/provider/resilience"
	"github.com/switchbackmaps/switchback/internal/routing"
	"github.com/switchbackmaps/switchback/pkg/polyline"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "osrm"

	// DefaultBaseURL is the OSRM backend base URL for local development.
	DefaultBaseURL = "http://localhost:5000"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// healthTimeout bounds the health probe.
	healthTimeout = 5 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OSRM client.
type ClientConfig struct {
	// BaseURL is the OSRM base URL (optional, defaults to local OSRM).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 30s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OSRM API client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new OSRM client.
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

// ComputeRoute computes a road-snapped path through the ordered waypoints.
func (c *Client) ComputeRoute(ctx context.Context, req routing.RouteRequest) (*routing.ComputedPath, error) {
	if len(req.Waypoints) < 2 {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "TOO_FEW_WAYPOINTS",
			Message:  "route computation requires at least two waypoints",
			Err:      routing.ErrTooFewWaypoints,
		}
	}

	// OSRM path parameter: lng,lat;lng,lat;...
	coords := make([]string, 0, len(req.Waypoints))
	for _, wp := range req.Waypoints {
		coords = append(coords, formatCoord(wp.Lng)+","+formatCoord(wp.Lat))
	}

	query := url.Values{}
	query.Set("overview", "full")
	query.Set("geometries", "polyline")
	query.Set("steps", "false")

	reqURL := fmt.Sprintf("%s/route/v1/driving/%s?%s", c.baseURL, strings.Join(coords, ";"), query.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Int("waypoints", len(req.Waypoints)).
		Msg("requesting route from OSRM")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &routing.Error{
				Provider: ProviderName,
				Code:     "TIMEOUT",
				Message:  "routing engine timed out",
				Err:      routing.ErrTimeout,
			}
		}
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach routing engine",
			Err:      routing.ErrProviderUnavailable,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		// OSRM reports routing-level failures with a 400 and a code in the
		// body; anything else is transport-level.
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:  fmt.Sprintf("routing engine returned status %d", resp.StatusCode),
			Err:      routing.ErrProviderUnavailable,
		}
	}

	var osrmResp osrmResponse
	if err := json.Unmarshal(respBody, &osrmResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if osrmResp.Code != "Ok" {
		return nil, c.handleRoutingError(&osrmResp)
	}
	if len(osrmResp.Routes) == 0 {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "NO_ROUTE",
			Message:  "routing engine returned no routes",
			Err:      routing.ErrNoRouteFound,
		}
	}

	result := c.toComputedPath(&osrmResp)

	c.logger.Debug().
		Float64("distance_m", result.DistanceMeters).
		Float64("duration_s", result.DurationSeconds).
		Int("geometry_points", len(result.Geometry)).
		Msg("received route from OSRM")

	return result, nil
}

// CheckHealth verifies the OSRM backend responds to a minimal route request.
func (c *Client) CheckHealth(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	// A fixed two-point probe; OSRM has no dedicated health endpoint.
	reqURL := c.baseURL + "/route/v1/driving/-80.8,35.2;-80.7,35.3?overview=false"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating health request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return routing.ErrProviderUnavailable
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return routing.ErrProviderUnavailable
	}
	return nil
}

// handleRoutingError maps OSRM error codes to domain errors.
func (c *Client) handleRoutingError(resp *osrmResponse) error {
	msg := resp.Message
	if msg == "" {
		msg = "unknown routing error"
	}

	switch resp.Code {
	case "NoRoute", "NoSegment":
		return &routing.Error{
			Provider: ProviderName,
			Code:     resp.Code,
			Message:  msg,
			Err:      routing.ErrNoRouteFound,
		}
	case "InvalidQuery", "InvalidValue", "InvalidCoordinates":
		return &routing.Error{
			Provider: ProviderName,
			Code:     resp.Code,
			Message:  msg,
			Err:      routing.ErrInvalidCoordinates,
		}
	default:
		return &routing.Error{
			Provider: ProviderName,
			Code:     resp.Code,
			Message:  msg,
			Err:      routing.ErrProviderUnavailable,
		}
	}
}

// toComputedPath converts an OSRM response to the domain model.
func (c *Client) toComputedPath(resp *osrmResponse) *routing.ComputedPath {
	route := resp.Routes[0]

	decoded := polyline.Decode(route.Geometry)
	geometry := make([]routing.Coordinate, 0, len(decoded))
	for _, p := range decoded {
		geometry = append(geometry, routing.Coordinate{Lng: p.Lng, Lat: p.Lat})
	}

	snapped := make([]routing.SnappedWaypoint, 0, len(resp.Waypoints))
	for _, wp := range resp.Waypoints {
		snapped = append(snapped, routing.SnappedWaypoint{
			Lng:     wp.Location[0],
			Lat:     wp.Location[1],
			Snapped: true,
		})
	}

	return &routing.ComputedPath{
		Geometry:         geometry,
		DistanceMeters:   route.Distance,
		DurationSeconds:  route.Duration,
		SnappedWaypoints: snapped,
		Provider:         ProviderName,
		FetchedAt:        time.Now(),
	}
}

// formatCoord formats a coordinate with enough precision for OSRM.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
