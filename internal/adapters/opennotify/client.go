// Package opennotify is a client for the Open Notify ISS API.
//
// Every call is a fresh round-trip: no caching and no retries. Transport
// failures and non-2xx responses surface as *NetworkError.
package opennotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/okian/isstrack/internal/domain/model"
	"github.com/okian/isstrack/pkg/logger"
	"github.com/okian/isstrack/pkg/metrics"
)

// DefaultBaseURL is the public Open Notify endpoint.
const DefaultBaseURL = "http://api.open-notify.org"

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20

	crewPath     = "/astros.json"
	positionPath = "/iss-now.json"
	passPath     = "/iss-pass.json"

	// The pass endpoint always puts a "0 risk" metadata entry first.
	riseTimeIndex = 1
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // shared codec

// Client issues read-only requests against the Open Notify API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, e.g. to point at a local stand-in.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = base
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a Client for DefaultBaseURL unless overridden.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchCrew returns everyone currently in space.
func (c *Client) FetchCrew(ctx context.Context) ([]model.Astronaut, error) {
	var resp astrosResponse
	if err := c.get(ctx, "astros", crewPath, nil, &resp); err != nil {
		return nil, err
	}
	crew := resp.People
	if crew == nil {
		crew = []model.Astronaut{}
	}
	c.logger.Debug(ctx, "crew fetched", logger.Int("count", len(crew)))
	return crew, nil
}

// FetchPosition returns the current ISS position.
func (c *Client) FetchPosition(ctx context.Context) (model.Position, error) {
	const endpoint = "iss-now"

	var resp nowResponse
	if err := c.get(ctx, endpoint, positionPath, nil, &resp); err != nil {
		return model.Position{}, err
	}

	lat, err := parseCoordinate("latitude", resp.Position.Latitude)
	if err != nil {
		metrics.RecordAPIError(endpoint, "parse")
		return model.Position{}, err
	}
	lon, err := parseCoordinate("longitude", resp.Position.Longitude)
	if err != nil {
		metrics.RecordAPIError(endpoint, "parse")
		return model.Position{}, err
	}

	pos := model.Position{Latitude: lat, Longitude: lon}
	if resp.Timestamp != nil {
		pos.Timestamp = model.FromEpoch(*resp.Timestamp)
	}
	if err := pos.Validate(); err != nil {
		metrics.RecordAPIError(endpoint, "range")
		return model.Position{}, fmt.Errorf("%w: %w", ErrOutOfRange, err)
	}

	c.logger.Debug(ctx, "position fetched",
		logger.Float64("lat", pos.Latitude),
		logger.Float64("lon", pos.Longitude),
	)
	return pos, nil
}

// FetchOverhead predicts the next time the ISS rises above lat/lon.
func (c *Client) FetchOverhead(ctx context.Context, lat, lon float64) (model.OverheadPrediction, error) {
	const endpoint = "iss-pass"

	q := url.Values{}
	q.Set("lat", model.FormatCoordinate(lat))
	q.Set("lon", model.FormatCoordinate(lon))

	var resp passResponse
	if err := c.get(ctx, endpoint, passPath, q, &resp); err != nil {
		return model.OverheadPrediction{}, err
	}
	if len(resp.Response) <= riseTimeIndex {
		metrics.RecordAPIError(endpoint, "range")
		return model.OverheadPrediction{}, fmt.Errorf("%w: pass response has %d entries, need %d",
			ErrOutOfRange, len(resp.Response), riseTimeIndex+1)
	}

	rise := model.FromEpoch(resp.Response[riseTimeIndex].RiseTime)
	c.logger.Debug(ctx, "overhead pass fetched", logger.Time("risetime", rise))
	return model.OverheadPrediction{RiseTime: rise}, nil
}

// get performs one GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &NetworkError{Endpoint: endpoint, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPIError(endpoint, "transport")
		return &NetworkError{Endpoint: endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.RecordAPIRequest(endpoint, strconv.Itoa(resp.StatusCode), float64(time.Since(start).Milliseconds()))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordAPIError(endpoint, "status")
		c.logger.Warn(ctx, "unexpected status from api",
			logger.String("endpoint", endpoint),
			logger.Int("status", resp.StatusCode),
		)
		return &NetworkError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, target),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		metrics.RecordAPIError(endpoint, "transport")
		return &NetworkError{Endpoint: endpoint, Err: fmt.Errorf("reading response body: %w", err)}
	}
	if len(body) > maxBodyBytes {
		metrics.RecordAPIError(endpoint, "decode")
		return fmt.Errorf("%w: %s body exceeds %d byte limit", ErrDecode, endpoint, maxBodyBytes)
	}
	if err := json.Unmarshal(body, out); err != nil {
		metrics.RecordAPIError(endpoint, "decode")
		return fmt.Errorf("%w: %s: %v", ErrDecode, endpoint, err)
	}
	return nil
}

// decimalPattern is the coordinate syntax the API sends: no hex floats,
// underscores, NaN or Inf.
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

func parseCoordinate(field, raw string) (float64, error) {
	if !decimalPattern.MatchString(raw) {
		return 0, fmt.Errorf("%w: %s %q: not a decimal number", ErrParse, field, raw)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			err = numErr.Err
		}
		return 0, fmt.Errorf("%w: %s %q: %v", ErrParse, field, raw, err)
	}
	return v, nil
}
