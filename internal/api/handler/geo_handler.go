package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mapgate/mapgate/internal/core/domain"
	"github.com/mapgate/mapgate/internal/core/ports"
)

// GeoHandler proxies the geocoding operations. Routes are mounted behind
// middleware.RequireAPI, so every handler here runs for an authenticated user.
type GeoHandler struct {
	gateway ports.Gateway
	log     zerolog.Logger
}

func NewGeoHandler(gateway ports.Gateway, log zerolog.Logger) *GeoHandler {
	return &GeoHandler{gateway: gateway, log: log}
}

// bindQuery binds query parameters only and validates them.
func bindQuery(c echo.Context, req any) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, req); err != nil {
		return errors.New("invalid query parameters")
	}
	return c.Validate(req)
}

// Geocode resolves an address to coordinates.
//
// @Summary      Forward geocode
// @Tags         geo
// @Produce      json
// @Param        address  query     string  true  "Free-form address"
// @Success      200      {object}  geocodeResponse
// @Failure      400      {object}  errorResponse
// @Failure      401      {object}  errorResponse
// @Router       /geocode [get]
func (h *GeoHandler) Geocode(c echo.Context) error {
	var req geocodeRequest
	if err := bindQuery(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	res := h.gateway.Geocode(c.Request().Context(), domain.GeocodeQuery{Address: req.Address})
	return writeResult(c, h.log, "geocode", res, toGeocodeResponse)
}

// ReverseGeocode resolves coordinates to an address.
//
// @Summary      Reverse geocode
// @Tags         geo
// @Produce      json
// @Param        lng  query     string  true  "Longitude"
// @Param        lat  query     string  true  "Latitude"
// @Success      200  {object}  reverseGeocodeResponse
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Router       /reverse_geocode [get]
func (h *GeoHandler) ReverseGeocode(c echo.Context) error {
	var req reverseGeocodeRequest
	if err := bindQuery(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	res := h.gateway.ReverseGeocode(c.Request().Context(), domain.ReverseGeocodeQuery{Lng: req.Lng, Lat: req.Lat})
	return writeResult(c, h.log, "reverse_geocode", res, toReverseGeocodeResponse)
}

// SearchPOI lists points of interest around a location.
//
// @Summary      Nearby POI search
// @Tags         geo
// @Produce      json
// @Param        keywords  query     string  true  "Search keywords"
// @Param        location  query     string  true  "Center as lng,lat"
// @Success      200       {object}  searchPOIResponse
// @Failure      400       {object}  errorResponse
// @Failure      401       {object}  errorResponse
// @Router       /search_poi [get]
func (h *GeoHandler) SearchPOI(c echo.Context) error {
	var req searchPOIRequest
	if err := bindQuery(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	res := h.gateway.SearchNearby(c.Request().Context(), domain.POISearchQuery{Keywords: req.Keywords, Location: req.Location})
	return writeResult(c, h.log, "search_poi", res, toSearchPOIResponse)
}
