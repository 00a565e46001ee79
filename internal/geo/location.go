package geo

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
)

var (
	// ErrInvalidCoordinate is returned when a latitude or longitude is out of range.
	ErrInvalidCoordinate = errors.New("coordinate out of range")

	// ErrUnknownLocation is returned when a name does not resolve to a location.
	ErrUnknownLocation = errors.New("unknown location")
)

// Location is a named point. Registry entries are never mutated; locations
// built from a device position carry an empty Name.
type Location struct {
	Name      string  `json:"name,omitempty"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// NewLocation validates the coordinate pair and returns a Location.
func NewLocation(name string, lat, lon float64) (Location, error) {
	loc := Location{Name: name, Latitude: lat, Longitude: lon}
	if err := loc.Validate(); err != nil {
		return Location{}, err
	}
	return loc, nil
}

// Validate checks latitude ∈ [-90,90] and longitude ∈ [-180,180].
func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinate, l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinate, l.Longitude)
	}
	return nil
}

// Point returns the location as an orb point ([lon, lat]).
func (l Location) Point() orb.Point {
	return orb.Point{l.Longitude, l.Latitude}
}

// Query renders the coordinate as "lat,lon", the form most upstream APIs accept.
func (l Location) Query() string {
	return strconv.FormatFloat(l.Latitude, 'f', 4, 64) + "," + strconv.FormatFloat(l.Longitude, 'f', 4, 64)
}

// Label is the display name, falling back to the coordinate for unnamed locations.
func (l Location) Label() string {
	if l.Name != "" {
		return l.Name
	}
	return l.Query()
}
