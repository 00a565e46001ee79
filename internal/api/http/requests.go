package httpapi

import (
	"errors"
	"strings"
)

type createViewRequest struct {
	Source string `json:"source" validate:"omitempty,oneof=google waqi"`
}

type sourceRequest struct {
	Source string `json:"source" validate:"required,oneof=google waqi"`
}

// selectRequest picks either a named location or a coordinate pair.
type selectRequest struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

func (r *selectRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)

	hasCoords := r.Latitude != nil || r.Longitude != nil
	switch {
	case r.Name != "" && hasCoords:
		return errors.New("provide either name or latitude/longitude, not both")
	case r.Name == "" && !hasCoords:
		return errors.New("name or latitude/longitude is required")
	case hasCoords && (r.Latitude == nil || r.Longitude == nil):
		return errors.New("latitude and longitude must be provided together")
	}
	return validate.Struct(r)
}
