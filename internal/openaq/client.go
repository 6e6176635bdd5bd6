// Package openaq talks to the OpenAQ "latest measurements" endpoint.
package openaq

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// Endpoint is the public OpenAQ API.
	Endpoint   = "https://api.openaq.org"
	latestPath = "/v2/latest"
)

// ErrMissingCredential is returned when a request is attempted without an API
// key.
var ErrMissingCredential = errors.New("openaq: missing API key")

// Query describes one "latest measurements near a point" request.
type Query struct {
	Latitude  float64
	Longitude float64
	// RadiusM is the search radius in metres.
	RadiusM int
	Limit   int
	APIKey  string
}

// RadiusFromKm converts a radius configured in kilometres to metres. Negative
// values are treated as 0.
func RadiusFromKm(km int) int {
	if km < 0 {
		km = 0
	}
	return km * 1000
}

// Params returns the query string parameters for q.
func (q Query) Params() map[string]string {
	p := map[string]string{
		"coordinates": strconv.FormatFloat(q.Latitude, 'f', -1, 64) + "," +
			strconv.FormatFloat(q.Longitude, 'f', -1, 64),
		"radius":   strconv.Itoa(q.RadiusM),
		"order_by": "distance",
	}
	if q.Limit > 0 {
		p["limit"] = strconv.Itoa(q.Limit)
	}
	return p
}

// Reply is the raw HTTP answer. Non-200 replies are not errors at this level.
type Reply struct {
	StatusCode int
	Status     string
	Body       []byte
}

// OK reports whether the API answered with 200.
func (r *Reply) OK() bool {
	return r != nil && r.StatusCode == 200
}

// Client issues requests against the API.
type Client struct {
	http *resty.Client
}

// Options configures a Client.
type Options struct {
	Endpoint  string
	UserAgent string
	Timeout   time.Duration
}

// NewClient creates a Client. Zero values in opts fall back to defaults.
func NewClient(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = Endpoint
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "hemtjanst-openaq"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	c := resty.New().
		SetBaseURL(opts.Endpoint).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "application/json")

	return &Client{http: c}
}

// Latest fetches the latest measurements around the query location. Only
// transport failures are returned as errors.
func (c *Client) Latest(ctx context.Context, q Query) (*Reply, error) {
	if q.APIKey == "" {
		return nil, ErrMissingCredential
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-API-Key", q.APIKey).
		SetQueryParams(q.Params()).
		Get(latestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest measurements: %w", err)
	}

	return &Reply{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Body:       resp.Body(),
	}, nil
}
