// Package amap is the gateway to the AMap web service API (restapi.amap.com).
package amap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/mapgate/mapgate/internal/api/metrics"
	"github.com/mapgate/mapgate/internal/core/domain"
	"github.com/mapgate/mapgate/internal/pkg/config"
)

const (
	geocodePath = "/v3/geocode/geo"
	regeoPath   = "/v3/geocode/regeo"
	aroundPath  = "/v3/place/around"

	// SearchRadiusMeters and SearchPageSize bound nearby searches.
	SearchRadiusMeters = 5000
	SearchPageSize     = 20

	breakerName = "amap"
	// maxBodyBytes caps how much of an upstream response is read.
	maxBodyBytes = 2 << 20
)

const (
	opGeocode        = "geocode"
	opReverseGeocode = "reverse_geocode"
	opSearchPOI      = "search_poi"
)

// Client implements ports.Gateway. Every call resolves to a GatewayResult; no
// error or panic escapes to the caller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	key        string
	cb         *gobreaker.CircuitBreaker[[]byte]
	log        zerolog.Logger
}

// NewClient builds a client bounded by cfg.Timeout. The breaker opens after
// five consecutive transport failures and probes again after 30 seconds.
func NewClient(cfg config.AmapConfig, log zerolog.Logger) *Client {
	return newClient(cfg, log, gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
	})
}

func newClient(cfg config.AmapConfig, log zerolog.Logger, st gobreaker.Settings) *Client {
	log = log.With().Str("component", "amap").Logger()

	if st.ReadyToTrip == nil {
		st.ReadyToTrip = func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		}
	}
	// a caller hanging up says nothing about upstream health
	st.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled)
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
	}
	metrics.CircuitBreakerState.WithLabelValues(st.Name).Set(0)

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		key:        cfg.ServiceKey,
		cb:         gobreaker.NewCircuitBreaker[[]byte](st),
		log:        log,
	}
}

// Geocode resolves an address to the first candidate's coordinates.
func (c *Client) Geocode(ctx context.Context, q domain.GeocodeQuery) domain.GatewayResult[domain.GeocodeResult] {
	params := url.Values{}
	params.Set("address", q.Address)

	return call(ctx, c, opGeocode, geocodePath, params, decodeGeocode)
}

// ReverseGeocode resolves a coordinate to a base-level address.
func (c *Client) ReverseGeocode(ctx context.Context, q domain.ReverseGeocodeQuery) domain.GatewayResult[domain.ReverseGeocodeResult] {
	params := url.Values{}
	params.Set("location", q.Lng+","+q.Lat)
	params.Set("extensions", "base")

	return call(ctx, c, opReverseGeocode, regeoPath, params, decodeReverseGeocode)
}

// SearchNearby lists points of interest within SearchRadiusMeters of q.Location.
func (c *Client) SearchNearby(ctx context.Context, q domain.POISearchQuery) domain.GatewayResult[[]domain.POI] {
	params := url.Values{}
	params.Set("keywords", q.Keywords)
	params.Set("location", q.Location)
	params.Set("radius", fmt.Sprint(SearchRadiusMeters))
	params.Set("offset", fmt.Sprint(SearchPageSize))

	return call(ctx, c, opSearchPOI, aroundPath, params, decodeNearby)
}

func call[T any](ctx context.Context, c *Client, op, path string, params url.Values, decode func([]byte) domain.GatewayResult[T]) (res domain.GatewayResult[T]) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = domain.TransportFailure[T](fmt.Errorf("unexpected upstream response: %v", r))
		}
		c.observe(op, start, res.Outcome, res.Message)
	}()

	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.fetch(ctx, path, params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return domain.TransportFailure[T](domain.ErrCircuitOpen)
		}
		return domain.TransportFailure[T](err)
	}
	return decode(body)
}

func (c *Client) fetch(ctx context.Context, path string, params url.Values) ([]byte, error) {
	params.Set("key", c.key)
	params.Set("output", "JSON")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, scrub(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", scrub(err))
	}
	return body, nil
}

// scrub drops the request URL from transport errors; it carries the service key.
func scrub(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("upstream request failed: %w", urlErr.Err)
	}
	return err
}

func (c *Client) observe(op string, start time.Time, outcome domain.Outcome, message string) {
	metrics.GatewayRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.GatewayRequestsTotal.WithLabelValues(op, outcome.String()).Inc()

	switch outcome {
	case domain.OutcomeSuccess:
		c.log.Debug().Str("operation", op).Dur("elapsed", time.Since(start)).Msg("upstream call succeeded")
	case domain.OutcomeUpstreamRejected:
		c.log.Info().Str("operation", op).Str("outcome", outcome.String()).Str("message", message).Msg("upstream rejected request")
	default:
		c.log.Warn().Str("operation", op).Str("outcome", outcome.String()).Str("message", message).Msg("upstream call failed")
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
