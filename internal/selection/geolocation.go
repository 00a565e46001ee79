package selection

import (
	"context"
	"errors"
	"strings"

	"github.com/i474232898/geo-dashboard/internal/common"
	"github.com/i474232898/geo-dashboard/internal/geo"
)

var (
	ErrGeolocationDenied      = errors.New("geolocation permission denied")
	ErrGeolocationUnavailable = errors.New("geolocation unavailable")
)

// Geolocator yields the device position.
type Geolocator interface {
	Locate(ctx context.Context) (geo.Location, error)
}

// ReportedPosition is a position result reported by the browser: either a
// coordinate or an error code such as PERMISSION_DENIED, POSITION_UNAVAILABLE
// or TIMEOUT.
type ReportedPosition struct {
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Error     string   `json:"error"`
}

func (p ReportedPosition) Locate(ctx context.Context) (geo.Location, error) {
	if err := ctx.Err(); err != nil {
		return geo.Location{}, err
	}

	if p.Error != "" {
		code := strings.ToUpper(p.Error)
		if common.HasAny(code, "DENIED", "PERMISSION", "BLOCKED") {
			return geo.Location{}, ErrGeolocationDenied
		}
		return geo.Location{}, ErrGeolocationUnavailable
	}
	if p.Latitude == nil || p.Longitude == nil {
		return geo.Location{}, ErrGeolocationUnavailable
	}

	return geo.NewLocation("", *p.Latitude, *p.Longitude)
}
