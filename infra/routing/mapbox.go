// Package routing implements travel-time providers and caches for the
// network registry.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/kilianp07/shuttle/core/logger"
	corerouting "github.com/kilianp07/shuttle/core/routing"
)

// MapboxConfig configures the Mapbox directions client.
type MapboxConfig struct {
	BaseURL string `json:"base_url"`
	// Profile is the Mapbox routing profile, "driving" by default.
	Profile string `json:"profile"`
	Token   string `json:"token"`
	// Timeout bounds a single HTTP request.
	Timeout time.Duration `json:"timeout"`
	// MaxRetries bounds the retries after the first attempt.
	MaxRetries uint64 `json:"max_retries"`
	// InitialInterval is the first retry delay; it doubles on each retry.
	InitialInterval time.Duration `json:"initial_interval"`
}

// DefaultMapboxURL is the public Mapbox API.
const DefaultMapboxURL = "https://api.mapbox.com"

func (c *MapboxConfig) setDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultMapboxURL
	}
	if c.Profile == "" {
		c.Profile = "driving"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = 200 * time.Millisecond
	}
}

// MapboxProvider times legs with the Mapbox directions API.
type MapboxProvider struct {
	cfg     MapboxConfig
	session *http.Client
	log     logger.Logger
}

// NewMapboxProvider returns a provider for cfg. The access token is
// required.
func NewMapboxProvider(cfg MapboxConfig, log logger.Logger) (*MapboxProvider, error) {
	cfg.setDefaults()
	if cfg.Token == "" {
		return nil, fmt.Errorf("mapbox: access token is required")
	}
	return &MapboxProvider{
		cfg:     cfg,
		session: &http.Client{Timeout: cfg.Timeout},
		log:     logger.OrNop(log),
	}, nil
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

type directionsResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Duration float64 `json:"duration"`
		Distance float64 `json:"distance"`
		Geometry struct {
			Coordinates [][2]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

func (p *MapboxProvider) directionsURL(from, to corerouting.Coordinate) string {
	q := url.Values{}
	q.Set("alternatives", "false")
	q.Set("geometries", "geojson")
	q.Set("overview", "full")
	q.Set("access_token", p.cfg.Token)
	return fmt.Sprintf("%s/directions/v5/mapbox/%s/%f,%f;%f,%f?%s",
		strings.TrimSuffix(p.cfg.BaseURL, "/"), p.cfg.Profile,
		from.Lon, from.Lat, to.Lon, to.Lat, q.Encode())
}

// Leg requests the driving route from one coordinate to another. Network
// errors, 429 and 5xx responses are retried with exponential backoff.
func (p *MapboxProvider) Leg(ctx context.Context, from, to corerouting.Coordinate) (corerouting.Leg, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.cfg.InitialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, p.cfg.MaxRetries), ctx)

	target := p.directionsURL(from, to)
	op := func() (directionsResponse, error) {
		return p.fetch(ctx, target)
	}
	notify := func(err error, wait time.Duration) {
		p.log.Warnf("mapbox directions failed, retrying in %s: %v", wait, err)
	}
	dr, err := backoff.RetryNotifyWithData(op, policy, notify)
	if err != nil {
		return corerouting.Leg{}, fmt.Errorf("mapbox directions %s -> %s: %w", from.Key(), to.Key(), err)
	}
	if len(dr.Routes) == 0 || (dr.Code != "" && dr.Code != "Ok") {
		return corerouting.Leg{}, corerouting.ErrNoRoute
	}
	r := dr.Routes[0]
	return corerouting.Leg{
		DurationSeconds: r.Duration,
		DistanceMeters:  r.Distance,
		Geometry:        r.Geometry.Coordinates,
	}, nil
}

func (p *MapboxProvider) fetch(ctx context.Context, target string) (directionsResponse, error) {
	var dr directionsResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return dr, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.session.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && ctx.Err() == nil {
			return dr, err
		}
		return dr, backoff.Permanent(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		herr := &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return dr, herr
		case http.StatusNotFound, http.StatusUnprocessableEntity:
			return dr, backoff.Permanent(fmt.Errorf("%w: %v", corerouting.ErrNoRoute, herr))
		default:
			return dr, backoff.Permanent(herr)
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return dr, backoff.Permanent(fmt.Errorf("decode directions: %w", err))
	}
	return dr, nil
}
