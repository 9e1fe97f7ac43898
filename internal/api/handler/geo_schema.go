package handler

import "github.com/mapgate/mapgate/internal/core/domain"

// --- Requests ---

type geocodeRequest struct {
	Address string `query:"address" validate:"required"`
}

type reverseGeocodeRequest struct {
	Lng string `query:"lng" validate:"required"`
	Lat string `query:"lat" validate:"required"`
}

type searchPOIRequest struct {
	Keywords string `query:"keywords" validate:"required"`
	Location string `query:"location" validate:"required"`
}

// --- Responses ---

type geocodeResponse struct {
	Success          bool            `json:"success"`
	Location         domain.Location `json:"location"`
	FormattedAddress string          `json:"formatted_address"`
	District         string          `json:"district"`
}

type reverseGeocodeResponse struct {
	Success  bool   `json:"success"`
	Address  string `json:"address"`
	Province string `json:"province"`
	City     string `json:"city"`
	District string `json:"district"`
}

type searchPOIResponse struct {
	Success bool         `json:"success"`
	POIs    []domain.POI `json:"pois"`
}

// failureResponse is returned with HTTP 200 whenever the upstream call did not succeed.
type failureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type errorResponse struct {
	Error string `json:"error"`
}
