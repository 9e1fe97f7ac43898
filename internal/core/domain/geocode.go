package domain

import "errors"

// ErrCircuitOpen is reported as a transport failure while the upstream breaker is open.
var ErrCircuitOpen = errors.New("upstream temporarily unavailable")

// Outcome tags the result of a gateway call.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	// OutcomeUpstreamRejected means the provider answered but reported a failure.
	OutcomeUpstreamRejected
	// OutcomeTransportFailure covers network errors, timeouts and malformed responses.
	OutcomeTransportFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeUpstreamRejected:
		return "upstream_rejected"
	case OutcomeTransportFailure:
		return "transport_failure"
	default:
		return "unknown"
	}
}

// GatewayResult is the tri-state outcome of an upstream call. Payload is only
// meaningful on success; Message only on failure.
type GatewayResult[T any] struct {
	Outcome Outcome
	Payload T
	Message string
}

func Success[T any](payload T) GatewayResult[T] {
	return GatewayResult[T]{Outcome: OutcomeSuccess, Payload: payload}
}

func UpstreamRejected[T any](message string) GatewayResult[T] {
	return GatewayResult[T]{Outcome: OutcomeUpstreamRejected, Message: message}
}

func TransportFailure[T any](err error) GatewayResult[T] {
	return GatewayResult[T]{Outcome: OutcomeTransportFailure, Message: err.Error()}
}

// OK reports whether the call succeeded.
func (r GatewayResult[T]) OK() bool { return r.Outcome == OutcomeSuccess }

// GeocodeQuery asks for the coordinates of a free-form address.
type GeocodeQuery struct {
	Address string
}

// ReverseGeocodeQuery asks for the address at a coordinate. Values are passed
// to the provider as received.
type ReverseGeocodeQuery struct {
	Lng string
	Lat string
}

// POISearchQuery asks for points of interest around a "lng,lat" location.
type POISearchQuery struct {
	Keywords string
	Location string
}

// Location is a WGS-84-ish point as returned by the provider (no transforms applied).
type Location struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// GeocodeResult is the first candidate returned by forward geocoding.
type GeocodeResult struct {
	Location         Location
	FormattedAddress string
	District         string
}

// ReverseGeocodeResult is the base-level address for a coordinate.
type ReverseGeocodeResult struct {
	FormattedAddress string
	Province         string
	City             string
	District         string
}

// POI is a point of interest; fields are kept exactly as the provider sent them.
type POI struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Address  string `json:"address"`
	Location string `json:"location"`
	Distance string `json:"distance"`
}
