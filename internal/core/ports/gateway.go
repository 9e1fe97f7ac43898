package ports

import (
	"context"

	"github.com/mapgate/mapgate/internal/core/domain"
)

// Gateway wraps the upstream mapping provider. Implementations never return a
// Go error: every failure is folded into the GatewayResult.
type Gateway interface {
	Geocode(ctx context.Context, q domain.GeocodeQuery) domain.GatewayResult[domain.GeocodeResult]
	ReverseGeocode(ctx context.Context, q domain.ReverseGeocodeQuery) domain.GatewayResult[domain.ReverseGeocodeResult]
	SearchNearby(ctx context.Context, q domain.POISearchQuery) domain.GatewayResult[[]domain.POI]
}
