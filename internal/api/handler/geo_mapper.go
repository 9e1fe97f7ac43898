package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mapgate/mapgate/internal/core/domain"
)

// --- Gateway result → HTTP response ---

// writeResult renders a success envelope via toResponse, or a failure envelope
// with status 200. The failure kind stays visible in the logs only.
func writeResult[T any, R any](c echo.Context, log zerolog.Logger, op string, res domain.GatewayResult[T], toResponse func(T) R) error {
	if res.OK() {
		return c.JSON(http.StatusOK, toResponse(res.Payload))
	}

	log.Info().
		Str("operation", op).
		Str("outcome", res.Outcome.String()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("gateway call did not succeed")

	return c.JSON(http.StatusOK, failureResponse{Success: false, Error: res.Message})
}

func toGeocodeResponse(r domain.GeocodeResult) geocodeResponse {
	return geocodeResponse{
		Success:          true,
		Location:         r.Location,
		FormattedAddress: r.FormattedAddress,
		District:         r.District,
	}
}

func toReverseGeocodeResponse(r domain.ReverseGeocodeResult) reverseGeocodeResponse {
	return reverseGeocodeResponse{
		Success:  true,
		Address:  r.FormattedAddress,
		Province: r.Province,
		City:     r.City,
		District: r.District,
	}
}

func toSearchPOIResponse(pois []domain.POI) searchPOIResponse {
	if pois == nil {
		pois = []domain.POI{}
	}
	return searchPOIResponse{Success: true, POIs: pois}
}
