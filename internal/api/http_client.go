package api

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

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ngmaloney/stratus-terminal/internal/logger"
	"github.com/ngmaloney/stratus-terminal/internal/models"
)

const defaultUserAgent = "Stratus/1.0 (github.com/ngmaloney/stratus-terminal)"

// HTTPClient implements Client against the forecast server's JSON API
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.httpClient = hc }
}

// WithSearchRate limits location search lookups to perSecond with burst.
func WithSearchRate(perSecond float64, burst int) Option {
	return func(c *HTTPClient) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// NewHTTPClient creates a client for the server at baseURL
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: defaultUserAgent,
		limiter:   rate.NewLimiter(rate.Limit(1), 2),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "stratus-api",
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit %s: %s -> %s", name, from, to)
		},
	})
	return c
}

// BaseURL returns the server endpoint
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// passthrough carries an error out of the breaker without counting it as a
// failure. Cancellations and 4xx responses are not the server's fault.
type passthrough struct{ err error }

// get fetches path and decodes the JSON body into out.
func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		body, err := c.do(ctx, path, params)
		if err != nil {
			var te *TransportError
			if errors.Is(err, ErrCancelled) || (errors.As(err, &te) && te.Status < 500) {
				return passthrough{err}, nil
			}
			return nil, err
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &TransportError{Status: http.StatusServiceUnavailable, Message: MsgUnavailable, Err: err}
		}
		return err
	}

	switch v := result.(type) {
	case passthrough:
		return v.err
	case []byte:
		if err := json.Unmarshal(v, out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", path, err)
		}
		return nil
	}
	return fmt.Errorf("unexpected result type %T from circuit breaker", result)
}

func (c *HTTPClient) do(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	reqID := uuid.New().String()
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = normalizeDoError(ctx, err)
		if !errors.Is(err, ErrCancelled) {
			logger.Error("GET %s [%s]: %v", path, reqID, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, normalizeDoError(ctx, err)
	}
	logger.Debug("GET %s [%s] %d in %s", path, reqID, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp.StatusCode, body)
	}
	return body, nil
}

// Sources retrieves all forecast sources
func (c *HTTPClient) Sources(ctx context.Context) ([]models.Source, error) {
	var sources []models.Source
	if err := c.get(ctx, "/sources", nil, &sources); err != nil {
		return nil, err
	}
	return sources, nil
}

// Metrics retrieves all metrics
func (c *HTTPClient) Metrics(ctx context.Context) ([]models.Metric, error) {
	var metrics []models.Metric
	if err := c.get(ctx, "/metrics", nil, &metrics); err != nil {
		return nil, err
	}
	return metrics, nil
}

// Wx retrieves raw observations for a point between start and end
func (c *HTTPClient) Wx(ctx context.Context, lat, lon float64, start, end time.Time) (models.WxSeries, error) {
	params := coords(lat, lon)
	params.Set("start", strconv.FormatInt(start.Unix(), 10))
	params.Set("end", strconv.FormatInt(end.Unix(), 10))

	var wx models.WxSeries
	if err := c.get(ctx, "/wx", params, &wx); err != nil {
		return models.WxSeries{}, err
	}
	return wx, nil
}

// Summarize retrieves daily summaries for a point
func (c *HTTPClient) Summarize(ctx context.Context, lat, lon float64, days int) ([]models.DailySummary, error) {
	params := coords(lat, lon)
	params.Set("days", strconv.Itoa(days))

	var summaries []models.DailySummary
	if err := c.get(ctx, "/wx/summarize", params, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// SearchLocations returns typeahead candidates for query. Lookups are rate
// limited.
func (c *HTTPClient) SearchLocations(ctx context.Context, query string) ([]models.Location, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, normalizeDoError(ctx, ctx.Err())
		}
		return nil, fmt.Errorf("search rate limit: %w", err)
	}

	var locations []models.Location
	if err := c.get(ctx, "/location/search", url.Values{"q": {query}}, &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// Location resolves a location by id
func (c *HTTPClient) Location(ctx context.Context, id int) (models.Location, error) {
	var loc models.Location
	if err := c.get(ctx, "/location/"+strconv.Itoa(id), nil, &loc); err != nil {
		return models.Location{}, err
	}
	return loc, nil
}

// LocationByCoords names a point after its nearest known location. The
// returned location keeps the requested coordinates.
func (c *HTTPClient) LocationByCoords(ctx context.Context, lat, lon float64) (models.Location, error) {
	var nearest models.Location
	if err := c.get(ctx, "/location/by_coords", coords(lat, lon), &nearest); err != nil {
		return models.Location{}, err
	}
	return models.Location{
		Name: "Near " + nearest.Name,
		Lat:  lat,
		Lon:  lon,
	}, nil
}

func coords(lat, lon float64) url.Values {
	return url.Values{
		"lat": {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon": {strconv.FormatFloat(lon, 'f', -1, 64)},
	}
}

// FetchReference loads sources and metrics concurrently.
func FetchReference(ctx context.Context, c ReferenceClient) ([]models.Source, []models.Metric, error) {
	var (
		sources []models.Source
		metrics []models.Metric
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sources, err = c.Sources(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		metrics, err = c.Metrics(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return sources, metrics, nil
}

// FetchForecast loads observations for the next hours and summaries for the
// next days concurrently.
func FetchForecast(ctx context.Context, c ForecastClient, loc models.Location, hours, days int, now time.Time) (models.WxSeries, []models.DailySummary, error) {
	var (
		wx        models.WxSeries
		summaries []models.DailySummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		wx, err = c.Wx(gctx, loc.Lat, loc.Lon, now, now.Add(time.Duration(hours)*time.Hour))
		return err
	})
	g.Go(func() error {
		var err error
		summaries, err = c.Summarize(gctx, loc.Lat, loc.Lon, days)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.WxSeries{}, nil, err
	}
	return wx, summaries, nil
}
