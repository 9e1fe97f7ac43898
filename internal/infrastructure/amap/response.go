package amap

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/mapgate/mapgate/internal/core/domain"
)

const statusOK = "1"

const (
	fallbackGeocode        = "geocoding failed"
	fallbackReverseGeocode = "reverse geocoding failed"
	fallbackSearch         = "poi search failed"
)

// flexString decodes a JSON string, and anything else (AMap sends [] for
// absent values) as "".
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || b[0] != '"' {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*f = flexString(s)
	return nil
}

// rejection builds the failure result for an unusable answer, preferring the
// provider's own message when the status itself is not OK.
func rejection[T any](status, info flexString, fallback string) domain.GatewayResult[T] {
	if msg := strings.TrimSpace(string(info)); msg != "" && status != statusOK {
		return domain.UpstreamRejected[T](msg)
	}
	return domain.UpstreamRejected[T](fallback)
}

type geocodeResponse struct {
	Status   flexString `json:"status"`
	Info     flexString `json:"info"`
	Geocodes []struct {
		FormattedAddress flexString `json:"formatted_address"`
		District         flexString `json:"district"`
		Location         flexString `json:"location"`
	} `json:"geocodes"`
}

func decodeGeocode(body []byte) domain.GatewayResult[domain.GeocodeResult] {
	var resp geocodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.TransportFailure[domain.GeocodeResult](fmt.Errorf("decode upstream response: %w", err))
	}
	if resp.Status != statusOK || len(resp.Geocodes) == 0 {
		return rejection[domain.GeocodeResult](resp.Status, resp.Info, fallbackGeocode)
	}

	first := resp.Geocodes[0]
	loc, err := parseLocation(string(first.Location))
	if err != nil {
		return domain.TransportFailure[domain.GeocodeResult](err)
	}
	return domain.Success(domain.GeocodeResult{
		Location:         loc,
		FormattedAddress: string(first.FormattedAddress),
		District:         string(first.District),
	})
}

type regeoResponse struct {
	Status    flexString `json:"status"`
	Info      flexString `json:"info"`
	Regeocode *struct {
		FormattedAddress flexString `json:"formatted_address"`
		AddressComponent struct {
			Province flexString `json:"province"`
			City     flexString `json:"city"`
			District flexString `json:"district"`
		} `json:"addressComponent"`
	} `json:"regeocode"`
}

func decodeReverseGeocode(body []byte) domain.GatewayResult[domain.ReverseGeocodeResult] {
	var resp regeoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.TransportFailure[domain.ReverseGeocodeResult](fmt.Errorf("decode upstream response: %w", err))
	}
	if resp.Status != statusOK || resp.Regeocode == nil {
		return rejection[domain.ReverseGeocodeResult](resp.Status, resp.Info, fallbackReverseGeocode)
	}

	rc := resp.Regeocode
	return domain.Success(domain.ReverseGeocodeResult{
		FormattedAddress: string(rc.FormattedAddress),
		Province:         string(rc.AddressComponent.Province),
		City:             string(rc.AddressComponent.City),
		District:         string(rc.AddressComponent.District),
	})
}

type aroundResponse struct {
	Status flexString `json:"status"`
	Info   flexString `json:"info"`
	POIs   []struct {
		ID       flexString `json:"id"`
		Name     flexString `json:"name"`
		Type     flexString `json:"type"`
		Address  flexString `json:"address"`
		Location flexString `json:"location"`
		Distance flexString `json:"distance"`
	} `json:"pois"`
}

// decodeNearby keeps every POI in provider order. An empty list is a success.
func decodeNearby(body []byte) domain.GatewayResult[[]domain.POI] {
	var resp aroundResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.TransportFailure[[]domain.POI](fmt.Errorf("decode upstream response: %w", err))
	}
	if resp.Status != statusOK {
		return rejection[[]domain.POI](resp.Status, resp.Info, fallbackSearch)
	}

	pois := make([]domain.POI, 0, len(resp.POIs))
	for _, p := range resp.POIs {
		pois = append(pois, domain.POI{
			ID:       string(p.ID),
			Name:     string(p.Name),
			Type:     string(p.Type),
			Address:  string(p.Address),
			Location: string(p.Location),
			Distance: string(p.Distance),
		})
	}
	return domain.Success(pois)
}

// parseLocation splits AMap's "lng,lat" pair. Both parts must be finite.
func parseLocation(s string) (domain.Location, error) {
	lngStr, latStr, ok := strings.Cut(s, ",")
	if !ok {
		return domain.Location{}, fmt.Errorf("malformed location %q", s)
	}
	lng, err := parseCoordinate(lngStr)
	if err != nil {
		return domain.Location{}, fmt.Errorf("malformed longitude %q", lngStr)
	}
	lat, err := parseCoordinate(latStr)
	if err != nil {
		return domain.Location{}, fmt.Errorf("malformed latitude %q", latStr)
	}
	return domain.Location{Lng: lng, Lat: lat}, nil
}

func parseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite coordinate %v", v)
	}
	return v, nil
}
