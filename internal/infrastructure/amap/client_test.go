package amap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/mapgate/mapgate/internal/core/domain"
	"github.com/mapgate/mapgate/internal/pkg/config"
)

const testKey = "service-key"

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.AmapConfig{BaseURL: srv.URL, ServiceKey: testKey, Timeout: 2 * time.Second}, zerolog.Nop())
}

func respond(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestClient_Geocode_Success(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		respond(`{"status":"1","info":"OK","count":"1","geocodes":[{"formatted_address":"北京市东城区天安门","district":"东城区","location":"116.4,39.9"}]}`)(w, r)
	})

	res := c.Geocode(context.Background(), domain.GeocodeQuery{Address: "天安门"})

	if !res.OK() {
		t.Fatalf("expected success, got %v: %s", res.Outcome, res.Message)
	}
	if res.Payload.Location.Lng != 116.4 || res.Payload.Location.Lat != 39.9 {
		t.Fatalf("unexpected location: %+v", res.Payload.Location)
	}
	if res.Payload.FormattedAddress != "北京市东城区天安门" || res.Payload.District != "东城区" {
		t.Fatalf("unexpected payload: %+v", res.Payload)
	}
	if got.URL.Path != geocodePath {
		t.Fatalf("path = %q", got.URL.Path)
	}
	q := got.URL.Query()
	if q.Get("address") != "天安门" || q.Get("key") != testKey || q.Get("output") != "JSON" {
		t.Fatalf("unexpected query: %v", q)
	}
}

func TestClient_Geocode_EmptyArrayFields(t *testing.T) {
	c := newTestClient(t, respond(`{"status":"1","info":"OK","geocodes":[{"formatted_address":"北京市","district":[],"location":"116.4,39.9"}]}`))

	res := c.Geocode(context.Background(), domain.GeocodeQuery{Address: "北京"})
	if !res.OK() {
		t.Fatalf("expected success, got %v: %s", res.Outcome, res.Message)
	}
	if res.Payload.District != "" {
		t.Fatalf("district = %q, want empty", res.Payload.District)
	}
}

func TestClient_Geocode_UpstreamRejected(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"provider message", `{"status":"0","info":"INVALID_USER_KEY","infocode":"10001"}`, "INVALID_USER_KEY"},
		{"no message", `{"status":"0"}`, fallbackGeocode},
		{"no candidates", `{"status":"1","info":"OK","count":"0","geocodes":[]}`, fallbackGeocode},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, respond(tc.body))

			res := c.Geocode(context.Background(), domain.GeocodeQuery{Address: "x"})
			if res.Outcome != domain.OutcomeUpstreamRejected {
				t.Fatalf("outcome = %v, want upstream_rejected", res.Outcome)
			}
			if res.Message != tc.want {
				t.Fatalf("message = %q, want %q", res.Message, tc.want)
			}
		})
	}
}

func TestClient_Geocode_TransportFailures(t *testing.T) {
	cases := []struct {
		name string
		h    http.HandlerFunc
	}{
		{"non-json body", respond(`<html>gateway error</html>`)},
		{"http 502", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) }},
		{"bad location", respond(`{"status":"1","geocodes":[{"location":"nowhere"}]}`)},
		{"non-finite location", respond(`{"status":"1","geocodes":[{"location":"NaN,Inf"}]}`)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, tc.h)

			res := c.Geocode(context.Background(), domain.GeocodeQuery{Address: "x"})
			if res.Outcome != domain.OutcomeTransportFailure {
				t.Fatalf("outcome = %v, want transport_failure", res.Outcome)
			}
			if res.Message == "" {
				t.Fatalf("expected a failure description")
			}
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := NewClient(config.AmapConfig{BaseURL: srv.URL, ServiceKey: testKey, Timeout: 50 * time.Millisecond}, zerolog.Nop())

	res := c.Geocode(context.Background(), domain.GeocodeQuery{Address: "x"})
	if res.Outcome != domain.OutcomeTransportFailure {
		t.Fatalf("outcome = %v, want transport_failure", res.Outcome)
	}
	if strings.Contains(res.Message, testKey) {
		t.Fatalf("failure message leaks the service key: %q", res.Message)
	}
}

func TestClient_ReverseGeocode(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		respond(`{"status":"1","info":"OK","regeocode":{"formatted_address":"上海市浦东新区陆家嘴","addressComponent":{"province":"上海市","city":[],"district":"浦东新区"}}}`)(w, r)
	})

	res := c.ReverseGeocode(context.Background(), domain.ReverseGeocodeQuery{Lng: "121.5", Lat: "31.2"})

	if !res.OK() {
		t.Fatalf("expected success, got %v: %s", res.Outcome, res.Message)
	}
	want := domain.ReverseGeocodeResult{FormattedAddress: "上海市浦东新区陆家嘴", Province: "上海市", City: "", District: "浦东新区"}
	if res.Payload != want {
		t.Fatalf("payload = %+v, want %+v", res.Payload, want)
	}
	q := got.URL.Query()
	if got.URL.Path != regeoPath || q.Get("location") != "121.5,31.2" || q.Get("extensions") != "base" {
		t.Fatalf("unexpected request: %s?%s", got.URL.Path, got.URL.RawQuery)
	}
}

func TestClient_ReverseGeocode_Rejected(t *testing.T) {
	c := newTestClient(t, respond(`{"status":"0","info":""}`))

	res := c.ReverseGeocode(context.Background(), domain.ReverseGeocodeQuery{Lng: "0", Lat: "0"})
	if res.Outcome != domain.OutcomeUpstreamRejected || res.Message != fallbackReverseGeocode {
		t.Fatalf("got %v %q", res.Outcome, res.Message)
	}
}

func TestClient_SearchNearby_PreservesPOIs(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		respond(`{"status":"1","count":"3","pois":[
			{"id":"B1","name":"咖啡馆","type":"餐饮服务","address":"一号路","location":"116.1,39.1","distance":"120"},
			{"id":"B2","name":"书店","type":"购物服务","address":[],"location":"116.2,39.2","distance":"340"},
			{"id":"B3","name":"公园","type":"风景名胜","address":"三号路","location":"116.3,39.3","distance":"4999"}
		]}`)(w, r)
	})

	res := c.SearchNearby(context.Background(), domain.POISearchQuery{Keywords: "咖啡", Location: "116.4,39.9"})

	if !res.OK() {
		t.Fatalf("expected success, got %v: %s", res.Outcome, res.Message)
	}
	if len(res.Payload) != 3 {
		t.Fatalf("len(pois) = %d, want 3", len(res.Payload))
	}
	want := []domain.POI{
		{ID: "B1", Name: "咖啡馆", Type: "餐饮服务", Address: "一号路", Location: "116.1,39.1", Distance: "120"},
		{ID: "B2", Name: "书店", Type: "购物服务", Address: "", Location: "116.2,39.2", Distance: "340"},
		{ID: "B3", Name: "公园", Type: "风景名胜", Address: "三号路", Location: "116.3,39.3", Distance: "4999"},
	}
	for i := range want {
		if res.Payload[i] != want[i] {
			t.Fatalf("poi[%d] = %+v, want %+v", i, res.Payload[i], want[i])
		}
	}
	q := got.URL.Query()
	if q.Get("radius") != "5000" || q.Get("offset") != "20" || q.Get("keywords") != "咖啡" || q.Get("location") != "116.4,39.9" {
		t.Fatalf("unexpected query: %v", q)
	}
}

func TestClient_SearchNearby_EmptyIsSuccess(t *testing.T) {
	c := newTestClient(t, respond(`{"status":"1","count":"0","pois":[]}`))

	res := c.SearchNearby(context.Background(), domain.POISearchQuery{Keywords: "x", Location: "1,2"})
	if !res.OK() || len(res.Payload) != 0 {
		t.Fatalf("got %v %+v", res.Outcome, res.Payload)
	}
}

func TestClient_BreakerOpensOnTransportFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := newClient(config.AmapConfig{BaseURL: srv.URL, ServiceKey: testKey, Timeout: time.Second}, zerolog.Nop(), gobreaker.Settings{
		Name:        "amap-test",
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool { return counts.ConsecutiveFailures >= 2 },
	})

	for i := 0; i < 2; i++ {
		c.Geocode(context.Background(), domain.GeocodeQuery{Address: "x"})
	}
	res := c.Geocode(context.Background(), domain.GeocodeQuery{Address: "x"})

	if res.Outcome != domain.OutcomeTransportFailure || res.Message != domain.ErrCircuitOpen.Error() {
		t.Fatalf("got %v %q, want open-circuit transport failure", res.Outcome, res.Message)
	}
	if hits.Load() != 2 {
		t.Fatalf("upstream hit %d times, want 2", hits.Load())
	}
}

func TestClient_RejectionsDoNotTripBreaker(t *testing.T) {
	c := newClient(config.AmapConfig{ServiceKey: testKey, Timeout: time.Second}, zerolog.Nop(), gobreaker.Settings{
		Name:        "amap-test-rejections",
		ReadyToTrip: func(counts gobreaker.Counts) bool { return counts.ConsecutiveFailures >= 1 },
	})
	srv := httptest.NewServer(respond(`{"status":"0","info":"DAILY_QUERY_OVER_LIMIT"}`))
	t.Cleanup(srv.Close)
	c.baseURL = srv.URL

	for i := 0; i < 3; i++ {
		res := c.Geocode(context.Background(), domain.GeocodeQuery{Address: "x"})
		if res.Message != "DAILY_QUERY_OVER_LIMIT" {
			t.Fatalf("call %d: message = %q", i, res.Message)
		}
	}
}

func TestParseLocation(t *testing.T) {
	loc, err := parseLocation("116.397428, 39.90923")
	if err != nil || loc.Lng != 116.397428 || loc.Lat != 39.90923 {
		t.Fatalf("got %+v, %v", loc, err)
	}
	for _, bad := range []string{"", "116.4", "a,b", "116.4,", "NaN,39.9", "116.4,Inf", "-Infinity,0"} {
		if _, err := parseLocation(bad); err == nil {
			t.Errorf("parseLocation(%q) expected error", bad)
		}
	}
}
