package geo

import "strings"

// Registry is a fixed, ordered list of named locations.
type Registry struct {
	locations []Location
}

// NewRegistry copies locs into a new registry, keeping their order.
func NewRegistry(locs []Location) *Registry {
	cp := make([]Location, len(locs))
	copy(cp, locs)
	return &Registry{locations: cp}
}

// DefaultRegistry returns the dashboard's built-in city list: major Indian
// cities followed by the Chinese cities covered by station feeds.
func DefaultRegistry() *Registry {
	return NewRegistry([]Location{
		{Name: "Delhi", Latitude: 28.6139, Longitude: 77.209},
		{Name: "Mumbai", Latitude: 19.076, Longitude: 72.8777},
		{Name: "Bangalore", Latitude: 12.9716, Longitude: 77.5946},
		{Name: "Kolkata", Latitude: 22.5726, Longitude: 88.3639},
		{Name: "Chennai", Latitude: 13.0827, Longitude: 80.2707},
		{Name: "Hyderabad", Latitude: 17.385, Longitude: 78.4867},
		{Name: "Pune", Latitude: 18.5204, Longitude: 73.8567},
		{Name: "Ahmedabad", Latitude: 23.0225, Longitude: 72.5714},
		{Name: "Jaipur", Latitude: 26.9124, Longitude: 75.7873},
		{Name: "Beijing", Latitude: 39.9042, Longitude: 116.4074},
		{Name: "Shanghai", Latitude: 31.2304, Longitude: 121.4737},
		{Name: "Guangzhou", Latitude: 23.1291, Longitude: 113.2644},
		{Name: "Shenzhen", Latitude: 22.5431, Longitude: 114.0579},
	})
}

// List returns every location in registry order.
func (r *Registry) List() []Location {
	out := make([]Location, len(r.locations))
	copy(out, r.locations)
	return out
}

// Search returns the locations whose name contains query, case-insensitively,
// in registry order. An empty (or blank) query returns the full list.
func (r *Registry) Search(query string) []Location {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return r.List()
	}

	out := make([]Location, 0)
	for _, loc := range r.locations {
		if strings.Contains(strings.ToLower(loc.Name), q) {
			out = append(out, loc)
		}
	}
	return out
}

// Find returns the location whose name equals name, ignoring case.
func (r *Registry) Find(name string) (Location, bool) {
	for _, loc := range r.locations {
		if strings.EqualFold(loc.Name, strings.TrimSpace(name)) {
			return loc, true
		}
	}
	return Location{}, false
}

// Default returns the named location, or the first entry when name is unknown.
func (r *Registry) Default(name string) Location {
	if loc, ok := r.Find(name); ok {
		return loc
	}
	if len(r.locations) == 0 {
		return Location{}
	}
	return r.locations[0]
}
