// Package tripclient looks up trip inventory from the bus service over HTTP.
package tripclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	routeDomain "github.com/busline/service-route/internal/domain/route"
	"go.uber.org/zap"
)

const maxErrorBody = 512

// Client implements route.TripLookup against the bus service REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Client for the bus service rooted at baseURL
// (e.g. http://localhost:8081/bus-service/api).
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// AvailableTrips returns the trips between origin and destination departing on date.
func (c *Client) AvailableTrips(ctx context.Context, origin, destination string, date time.Time) ([]routeDomain.Trip, error) {
	q := url.Values{}
	q.Set("origin", origin)
	q.Set("destination", destination)
	q.Set("departureDate", date.Format("2006-01-02"))
	return c.getTrips(ctx, "/trips/available", q)
}

// TripsByRoute returns every trip between origin and destination.
func (c *Client) TripsByRoute(ctx context.Context, origin, destination string) ([]routeDomain.Trip, error) {
	q := url.Values{}
	q.Set("origin", origin)
	q.Set("destination", destination)
	return c.getTrips(ctx, "/trips/route", q)
}

func (c *Client) getTrips(ctx context.Context, path string, q url.Values) ([]routeDomain.Trip, error) {
	endpoint := c.baseURL + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build trip request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call bus service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("bus service returned error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, fmt.Errorf("bus service %s returned status %d", path, resp.StatusCode)
	}

	var dtos []tripDTO
	if err := json.NewDecoder(resp.Body).Decode(&dtos); err != nil {
		return nil, fmt.Errorf("failed to decode trips: %w", err)
	}

	c.logger.Debug("trips fetched",
		zap.String("path", path),
		zap.Int("count", len(dtos)),
		zap.Duration("latency", time.Since(start)),
	)

	trips := make([]routeDomain.Trip, len(dtos))
	for i, d := range dtos {
		trips[i] = d.toDomain()
	}
	return trips, nil
}
