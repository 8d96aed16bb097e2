package route

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/busline/service-route/internal/platform/domain"
	"github.com/google/uuid"
)

// Route is the aggregate root for a bus route between two cities.
type Route struct {
	id                string
	name              string
	originCity        string
	destinationCity   string
	totalDistance     float64
	estimatedDuration float64
	description       string
	active            bool
	stops             []*Stop
	createdAt         time.Time
	updatedAt         time.Time
}

// NormalizeCity trims and uppercases a city name. Cities are stored and
// compared in this form.
func NormalizeCity(city string) string {
	return strings.ToUpper(strings.TrimSpace(city))
}

// NewRoute creates an active route with validated fields. An empty id is
// replaced with a generated UUID.
func NewRoute(
	id, name, originCity, destinationCity string,
	totalDistance, estimatedDuration float64,
	description string,
) (*Route, error) {
	name = strings.TrimSpace(name)
	originCity = NormalizeCity(originCity)
	destinationCity = NormalizeCity(destinationCity)

	if name == "" {
		return nil, domain.NewValidationError("route name is required")
	}
	if originCity == "" {
		return nil, domain.NewValidationError("origin city is required")
	}
	if destinationCity == "" {
		return nil, domain.NewValidationError("destination city is required")
	}
	if totalDistance < 0 {
		return nil, domain.NewValidationError("total distance cannot be negative")
	}
	if estimatedDuration < 0 {
		return nil, domain.NewValidationError("estimated duration cannot be negative")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.New().String()
	}

	now := time.Now().UTC()
	return &Route{
		id:                id,
		name:              name,
		originCity:        originCity,
		destinationCity:   destinationCity,
		totalDistance:     totalDistance,
		estimatedDuration: estimatedDuration,
		description:       description,
		active:            true,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// ReconstructRoute rebuilds a Route from persistence data (no validation).
func ReconstructRoute(
	id, name, originCity, destinationCity string,
	totalDistance, estimatedDuration float64,
	description string,
	active bool,
	stops []*Stop,
	createdAt, updatedAt time.Time,
) *Route {
	r := &Route{
		id:                id,
		name:              name,
		originCity:        originCity,
		destinationCity:   destinationCity,
		totalDistance:     totalDistance,
		estimatedDuration: estimatedDuration,
		description:       description,
		active:            active,
		stops:             stops,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
	SortStops(r.stops)
	return r
}

// --- Getters ---

func (r *Route) ID() string                 { return r.id }
func (r *Route) Name() string               { return r.name }
func (r *Route) OriginCity() string         { return r.originCity }
func (r *Route) DestinationCity() string    { return r.destinationCity }
func (r *Route) TotalDistance() float64     { return r.totalDistance }
func (r *Route) EstimatedDuration() float64 { return r.estimatedDuration }
func (r *Route) Description() string        { return r.description }
func (r *Route) IsActive() bool             { return r.active }
func (r *Route) CreatedAt() time.Time       { return r.createdAt }
func (r *Route) UpdatedAt() time.Time       { return r.updatedAt }

// Stops returns the route's stops in sequence order.
func (r *Route) Stops() []*Stop { return r.stops }

// --- Behaviour ---

// AttachStop adds a stop to the route's collection. The stop must belong to
// this route and its ID must not already be attached.
func (r *Route) AttachStop(s *Stop) error {
	if s.RouteID() != r.id {
		return domain.NewValidationError(fmt.Sprintf("stop %s belongs to route %s, not %s", s.ID(), s.RouteID(), r.id))
	}
	for _, existing := range r.stops {
		if existing.ID() == s.ID() {
			return domain.NewValidationError(fmt.Sprintf("duplicate stop ID %s", s.ID()))
		}
	}
	r.stops = append(r.stops, s)
	SortStops(r.stops)
	return nil
}

// ActiveStopCities returns the city names of active stops in sequence order.
func (r *Route) ActiveStopCities() []string {
	cities := make([]string, 0, len(r.stops))
	for _, s := range r.stops {
		if s.IsActive() {
			cities = append(cities, s.CityName())
		}
	}
	return cities
}

// ApplyPatch overwrites the fields set in p. Cities are not patchable since
// they identify the route for search and uniqueness.
func (r *Route) ApplyPatch(p RoutePatch) error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return domain.NewValidationError("route name cannot be empty")
	}
	if p.TotalDistance != nil && *p.TotalDistance < 0 {
		return domain.NewValidationError("total distance cannot be negative")
	}
	if p.EstimatedDuration != nil && *p.EstimatedDuration < 0 {
		return domain.NewValidationError("estimated duration cannot be negative")
	}

	if p.Name != nil {
		r.name = strings.TrimSpace(*p.Name)
	}
	if p.TotalDistance != nil {
		r.totalDistance = *p.TotalDistance
	}
	if p.EstimatedDuration != nil {
		r.estimatedDuration = *p.EstimatedDuration
	}
	if p.Description != nil {
		r.description = *p.Description
	}
	if p.Active != nil {
		r.active = *p.Active
	}
	r.updatedAt = time.Now().UTC()
	return nil
}

// Activate marks the route as active.
func (r *Route) Activate() {
	r.active = true
	r.updatedAt = time.Now().UTC()
}

// Deactivate marks the route as inactive. Inactive routes are excluded from search.
func (r *Route) Deactivate() {
	r.active = false
	r.updatedAt = time.Now().UTC()
}

// SortStops orders stops by sequence, breaking ties by ID.
func SortStops(stops []*Stop) {
	sort.SliceStable(stops, func(i, j int) bool {
		if stops[i].sequence != stops[j].sequence {
			return stops[i].sequence < stops[j].sequence
		}
		return stops[i].id < stops[j].id
	})
}
