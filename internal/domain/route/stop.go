package route

import (
	"fmt"
	"strings"
	"time"

	"github.com/busline/service-route/internal/platform/domain"
	"github.com/google/uuid"
)

// StopType describes what passengers may do at a stop.
type StopType string

const (
	StopTypePickup StopType = "PICKUP"
	StopTypeDrop   StopType = "DROP"
	StopTypeBoth   StopType = "BOTH"
)

// IsValid checks if the stop type is a recognized value.
func (t StopType) IsValid() bool {
	switch t {
	case StopTypePickup, StopTypeDrop, StopTypeBoth:
		return true
	}
	return false
}

// ParseStopType normalises s into a StopType. Empty input means BOTH.
func ParseStopType(s string) (StopType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return StopTypeBoth, nil
	}
	t := StopType(s)
	if !t.IsValid() {
		return "", domain.NewValidationError(fmt.Sprintf("invalid stop type: %s", s))
	}
	return t, nil
}

// Stop is an intermediate stop on a route.
type Stop struct {
	id                 string
	routeID            string
	cityName           string
	sequence           int
	distanceFromOrigin float64
	stopDuration       float64
	stopType           StopType
	active             bool
	createdAt          time.Time
	updatedAt          time.Time
}

// NewStop creates an active stop with validated fields. An empty id is
// replaced with a generated UUID.
func NewStop(
	id, routeID, cityName string,
	sequence int,
	distanceFromOrigin, stopDuration float64,
	stopType string,
) (*Stop, error) {
	cityName = NormalizeCity(cityName)
	if routeID == "" {
		return nil, domain.NewValidationError("route ID is required")
	}
	if cityName == "" {
		return nil, domain.NewValidationError("stop city name is required")
	}
	if sequence <= 0 {
		return nil, domain.NewValidationError("stop sequence must be positive")
	}
	if distanceFromOrigin < 0 {
		return nil, domain.NewValidationError("distance from origin cannot be negative")
	}
	if stopDuration < 0 {
		return nil, domain.NewValidationError("estimated stop duration cannot be negative")
	}
	st, err := ParseStopType(stopType)
	if err != nil {
		return nil, err
	}

	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.New().String()
	}

	now := time.Now().UTC()
	return &Stop{
		id:                 id,
		routeID:            routeID,
		cityName:           cityName,
		sequence:           sequence,
		distanceFromOrigin: distanceFromOrigin,
		stopDuration:       stopDuration,
		stopType:           st,
		active:             true,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// ReconstructStop rebuilds a Stop from persistence data (no validation).
func ReconstructStop(
	id, routeID, cityName string,
	sequence int,
	distanceFromOrigin, stopDuration float64,
	stopType StopType,
	active bool,
	createdAt, updatedAt time.Time,
) *Stop {
	return &Stop{
		id:                 id,
		routeID:            routeID,
		cityName:           cityName,
		sequence:           sequence,
		distanceFromOrigin: distanceFromOrigin,
		stopDuration:       stopDuration,
		stopType:           stopType,
		active:             active,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

// --- Getters ---

func (s *Stop) ID() string                  { return s.id }
func (s *Stop) RouteID() string             { return s.routeID }
func (s *Stop) CityName() string            { return s.cityName }
func (s *Stop) Sequence() int               { return s.sequence }
func (s *Stop) DistanceFromOrigin() float64 { return s.distanceFromOrigin }
func (s *Stop) StopDuration() float64       { return s.stopDuration }
func (s *Stop) StopType() StopType          { return s.stopType }
func (s *Stop) IsActive() bool              { return s.active }
func (s *Stop) CreatedAt() time.Time        { return s.createdAt }
func (s *Stop) UpdatedAt() time.Time        { return s.updatedAt }

// ApplyPatch overwrites the fields set in p. City names are uppercased on
// update just as on creation.
func (s *Stop) ApplyPatch(p StopPatch) error {
	var (
		city string
		st   StopType
	)
	if p.CityName != nil {
		city = NormalizeCity(*p.CityName)
		if city == "" {
			return domain.NewValidationError("stop city name cannot be empty")
		}
	}
	if p.Sequence != nil && *p.Sequence <= 0 {
		return domain.NewValidationError("stop sequence must be positive")
	}
	if p.DistanceFromOrigin != nil && *p.DistanceFromOrigin < 0 {
		return domain.NewValidationError("distance from origin cannot be negative")
	}
	if p.StopDuration != nil && *p.StopDuration < 0 {
		return domain.NewValidationError("estimated stop duration cannot be negative")
	}
	if p.StopType != nil {
		parsed, err := ParseStopType(*p.StopType)
		if err != nil {
			return err
		}
		st = parsed
	}

	if p.CityName != nil {
		s.cityName = city
	}
	if p.Sequence != nil {
		s.sequence = *p.Sequence
	}
	if p.DistanceFromOrigin != nil {
		s.distanceFromOrigin = *p.DistanceFromOrigin
	}
	if p.StopDuration != nil {
		s.stopDuration = *p.StopDuration
	}
	if p.StopType != nil {
		s.stopType = st
	}
	if p.Active != nil {
		s.active = *p.Active
	}
	s.updatedAt = time.Now().UTC()
	return nil
}
