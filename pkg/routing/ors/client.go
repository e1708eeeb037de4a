// Package ors is a routing.Client backed by an OpenRouteService-compatible
// directions API. Closure avoidance rings travel as the avoid_polygons
// routing option; the clause is omitted entirely for unconstrained requests.
package ors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/detour-routing/detour/pkg/geo"
	"github.com/detour-routing/detour/pkg/routing"
	"github.com/detour-routing/detour/pkg/util"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

type Client struct {
	log     *zap.Logger
	session *http.Client
	baseURL string
	apiKey  string
	profile string
}

func NewClient(log *zap.Logger, baseURL, apiKey, profile string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("routing provider base url is empty")
	}
	if profile == "" {
		profile = "driving-car"
	}
	return &Client{
		log:     log,
		session: &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		profile: profile,
	}, nil
}

type directionsOptions struct {
	AvoidPolygons *geojson.Geometry `json:"avoid_polygons,omitempty"`
}

type directionsRequest struct {
	Coordinates [][]float64        `json:"coordinates"`
	Options     *directionsOptions `json:"options,omitempty"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

func (c *Client) ComputeRoute(ctx context.Context, req routing.RouteRequest) (*routing.Route, error) {
	payload := directionsRequest{
		Coordinates: [][]float64{
			{req.Origin.Lng, req.Origin.Lat},
			{req.Destination.Lng, req.Destination.Lat},
		},
	}
	if g := req.AvoidGeometry(); g != nil {
		payload.Options = &directionsOptions{AvoidPolygons: g}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "encode directions request")
	}

	url := fmt.Sprintf("%s/v2/directions/%s", c.baseURL, c.profile)
	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodPost, url, bytes.NewReader(body))
	})
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrRecomputation, "routing provider unreachable")
	}
	defer resp.Body.Close()

	var decoded directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, util.WrapErrorf(err, util.ErrRecomputation, "malformed directions response")
	}
	if len(decoded.Routes) == 0 {
		return nil, util.WrapErrorf(nil, util.ErrRecomputation, "directions response carries no route")
	}

	best := decoded.Routes[0]
	path, err := geo.PointsFromPolyline(best.Geometry)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrRecomputation, "malformed route geometry")
	}
	if len(path) < 2 {
		return nil, util.WrapErrorf(nil, util.ErrRecomputation, "route geometry has fewer than two points")
	}

	c.log.Debug("directions computed",
		zap.Float64("distance_m", best.Summary.Distance),
		zap.Float64("duration_s", best.Summary.Duration),
		zap.Int("path_points", len(path)),
		zap.Int("avoid_rings", len(req.Avoid)))

	return &routing.Route{
		Path:            path,
		DistanceMeters:  best.Summary.Distance,
		DurationSeconds: best.Summary.Duration,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// doWithRetry retries transient failures (network errors, 429/5xx) with
// exponential backoff while respecting context cancellation.
func (c *Client) doWithRetry(ctx context.Context, makeReq func() (*http.Request, error)) (*http.Response, error) {
	const maxAttempts = 3
	backoff := 200 * time.Millisecond

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case http.StatusTooManyRequests, http.StatusInternalServerError,
				http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
				retry = true
			}
		}

		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}
