package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	routeDomain "github.com/busline/service-route/internal/domain/route"
	"github.com/busline/service-route/internal/events"
	"github.com/busline/service-route/internal/platform/domain"
	"github.com/busline/service-route/internal/platform/kafka"
	"go.uber.org/zap"
)

// CreateStopRequest describes a stop created on its own or together with a route.
type CreateStopRequest struct {
	ID                    string  `json:"id"`
	CityName              string  `json:"city_name" binding:"required"`
	StopSequence          int     `json:"stop_sequence" binding:"required"`
	DistanceFromOrigin    float64 `json:"distance_from_origin"`
	EstimatedStopDuration float64 `json:"estimated_stop_duration"`
	StopType              string  `json:"stop_type"`
	IsActive              *bool   `json:"is_active"`
}

// CreateRouteRequest is the request DTO for creating a route with its stops.
type CreateRouteRequest struct {
	ID                string              `json:"id"`
	Name              string              `json:"name" binding:"required"`
	OriginCity        string              `json:"origin_city" binding:"required"`
	DestinationCity   string              `json:"destination_city" binding:"required"`
	TotalDistance     float64             `json:"total_distance"`
	EstimatedDuration float64             `json:"estimated_duration"`
	Description       string              `json:"description"`
	IsActive          *bool               `json:"is_active"`
	Stops             []CreateStopRequest `json:"stops" binding:"omitempty,dive"`
}

// UpdateRouteRequest is the request DTO for a partial route update. Omitted
// fields are left unchanged.
type UpdateRouteRequest struct {
	Name              *string  `json:"name"`
	TotalDistance     *float64 `json:"total_distance"`
	EstimatedDuration *float64 `json:"estimated_duration"`
	Description       *string  `json:"description"`
	IsActive          *bool    `json:"is_active"`
}

func (r UpdateRouteRequest) toPatch() routeDomain.RoutePatch {
	return routeDomain.RoutePatch{
		Name:              r.Name,
		TotalDistance:     r.TotalDistance,
		EstimatedDuration: r.EstimatedDuration,
		Description:       r.Description,
		Active:            r.IsActive,
	}
}

// RouteDTO is the API response representation of a route.
type RouteDTO struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	OriginCity        string    `json:"origin_city"`
	DestinationCity   string    `json:"destination_city"`
	TotalDistance     float64   `json:"total_distance"`
	EstimatedDuration float64   `json:"estimated_duration"`
	Description       string    `json:"description,omitempty"`
	IsActive          bool      `json:"is_active"`
	Stops             []StopDTO `json:"stops"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// StopDTO is the API response representation of a route stop.
type StopDTO struct {
	ID                    string  `json:"id"`
	RouteID               string  `json:"route_id"`
	CityName              string  `json:"city_name"`
	StopSequence          int     `json:"stop_sequence"`
	DistanceFromOrigin    float64 `json:"distance_from_origin"`
	EstimatedStopDuration float64 `json:"estimated_stop_duration"`
	StopType              string  `json:"stop_type"`
	IsActive              bool    `json:"is_active"`
}

// EventPublisher delivers CloudEvents to the message bus.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, evt kafka.CloudEvent) error
}

// RouteService is the application service orchestrating route and stop use cases.
type RouteService struct {
	routes    routeDomain.RouteRepository
	stops     routeDomain.StopRepository
	trips     routeDomain.TripLookup
	publisher EventPublisher
	topic     string
	logger    *zap.Logger
	now       func() time.Time
}

// NewRouteService creates a new RouteService. publisher may be nil, in which
// case lifecycle events are not published.
func NewRouteService(
	routes routeDomain.RouteRepository,
	stops routeDomain.StopRepository,
	trips routeDomain.TripLookup,
	publisher EventPublisher,
	topic string,
	logger *zap.Logger,
) *RouteService {
	if topic == "" {
		topic = events.TopicRouteEvents
	}
	return &RouteService{
		routes:    routes,
		stops:     stops,
		trips:     trips,
		publisher: publisher,
		topic:     topic,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateRoute creates a route and any stops supplied with it.
func (s *RouteService) CreateRoute(ctx context.Context, req CreateRouteRequest) (*RouteDTO, error) {
	rt, err := routeDomain.NewRoute(
		req.ID, req.Name,
		req.OriginCity, req.DestinationCity,
		req.TotalDistance, req.EstimatedDuration,
		req.Description,
	)
	if err != nil {
		return nil, err
	}
	if req.IsActive != nil && !*req.IsActive {
		rt.Deactivate()
	}

	for i, sr := range req.Stops {
		stop, err := newStop(rt.ID(), sr)
		if err != nil {
			return nil, domain.NewValidationError(fmt.Sprintf("invalid stop %d: %v", i+1, err))
		}
		if err := rt.AttachStop(stop); err != nil {
			return nil, domain.NewValidationError(fmt.Sprintf("invalid stop %d: %v", i+1, err))
		}
	}

	if err := s.routes.Create(ctx, rt); err != nil {
		s.logger.Warn("failed to create route",
			zap.String("origin_city", rt.OriginCity()),
			zap.String("destination_city", rt.DestinationCity()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to create route: %w", err)
	}

	s.logger.Info("route created",
		zap.String("route_id", rt.ID()),
		zap.String("origin_city", rt.OriginCity()),
		zap.String("destination_city", rt.DestinationCity()),
		zap.Int("stops", len(rt.Stops())),
	)
	s.publishRouteEvent(ctx, events.RouteCreated, rt)

	result := toRouteDTO(rt)
	return &result, nil
}

// GetRouteByID returns a single route with its stops.
func (s *RouteService) GetRouteByID(ctx context.Context, id string) (*RouteDTO, error) {
	rt, err := s.routes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toRouteDTO(rt)
	return &result, nil
}

// GetAllRoutes returns every route.
func (s *RouteService) GetAllRoutes(ctx context.Context) ([]RouteDTO, error) {
	routes, err := s.routes.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get routes: %w", err)
	}
	s.logger.Debug("routes listed", zap.Int("count", len(routes)))
	return toRouteDTOs(routes), nil
}

// GetRoutesByCities returns all routes, active or not, between two cities.
func (s *RouteService) GetRoutesByCities(ctx context.Context, origin, destination string) ([]RouteDTO, error) {
	routes, err := s.routes.FindByCities(ctx, routeDomain.NormalizeCity(origin), routeDomain.NormalizeCity(destination))
	if err != nil {
		return nil, fmt.Errorf("failed to get routes by cities: %w", err)
	}
	return toRouteDTOs(routes), nil
}

// GetRoutesByOrigin returns all routes departing from city.
func (s *RouteService) GetRoutesByOrigin(ctx context.Context, city string) ([]RouteDTO, error) {
	routes, err := s.routes.FindByOriginCity(ctx, routeDomain.NormalizeCity(city))
	if err != nil {
		return nil, fmt.Errorf("failed to get routes by origin: %w", err)
	}
	return toRouteDTOs(routes), nil
}

// GetRoutesByDestination returns all routes arriving at city.
func (s *RouteService) GetRoutesByDestination(ctx context.Context, city string) ([]RouteDTO, error) {
	routes, err := s.routes.FindByDestinationCity(ctx, routeDomain.NormalizeCity(city))
	if err != nil {
		return nil, fmt.Errorf("failed to get routes by destination: %w", err)
	}
	return toRouteDTOs(routes), nil
}

// GetRoutesByName returns routes whose name matches exactly.
func (s *RouteService) GetRoutesByName(ctx context.Context, name string) ([]RouteDTO, error) {
	routes, err := s.routes.FindByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("failed to get routes by name: %w", err)
	}
	return toRouteDTOs(routes), nil
}

// GetActiveRoutes returns all active routes.
func (s *RouteService) GetActiveRoutes(ctx context.Context) ([]RouteDTO, error) {
	routes, err := s.routes.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active routes: %w", err)
	}
	return toRouteDTOs(routes), nil
}

// UpdateRoute applies a partial update to a route. An update that names no
// field returns the route as stored without writing or publishing.
func (s *RouteService) UpdateRoute(ctx context.Context, id string, req UpdateRouteRequest) (*RouteDTO, error) {
	rt, err := s.routes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := req.toPatch()
	if patch.IsEmpty() {
		result := toRouteDTO(rt)
		return &result, nil
	}
	if err := rt.ApplyPatch(patch); err != nil {
		return nil, err
	}
	if err := s.routes.Update(ctx, rt); err != nil {
		s.logger.Error("failed to update route", zap.String("route_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update route: %w", err)
	}

	s.logger.Info("route updated", zap.String("route_id", id))
	s.publishRouteEvent(ctx, events.RouteUpdated, rt)

	result := toRouteDTO(rt)
	return &result, nil
}

// ActivateRoute makes a route visible to search again.
func (s *RouteService) ActivateRoute(ctx context.Context, id string) (*RouteDTO, error) {
	return s.setActive(ctx, id, true)
}

// DeactivateRoute hides a route from search without deleting it.
func (s *RouteService) DeactivateRoute(ctx context.Context, id string) (*RouteDTO, error) {
	return s.setActive(ctx, id, false)
}

func (s *RouteService) setActive(ctx context.Context, id string, active bool) (*RouteDTO, error) {
	rt, err := s.routes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	eventType := events.RouteDeactivated
	if active {
		rt.Activate()
		eventType = events.RouteActivated
	} else {
		rt.Deactivate()
	}

	if err := s.routes.Update(ctx, rt); err != nil {
		return nil, fmt.Errorf("failed to change route status: %w", err)
	}

	s.logger.Info("route status changed", zap.String("route_id", id), zap.Bool("active", active))
	s.publishRouteEvent(ctx, eventType, rt)

	result := toRouteDTO(rt)
	return &result, nil
}

// DeleteRoute removes a route and all of its stops.
func (s *RouteService) DeleteRoute(ctx context.Context, id string) error {
	rt, err := s.routes.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.routes.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete route: %w", err)
	}

	s.logger.Info("route deleted", zap.String("route_id", id), zap.Int("stops", len(rt.Stops())))
	s.publishRouteEvent(ctx, events.RouteDeleted, rt)
	return nil
}

// RouteExists reports whether any route connects the two cities.
func (s *RouteService) RouteExists(ctx context.Context, origin, destination string) (bool, error) {
	exists, err := s.routes.ExistsByCities(ctx, routeDomain.NormalizeCity(origin), routeDomain.NormalizeCity(destination))
	if err != nil {
		return false, fmt.Errorf("failed to check route existence: %w", err)
	}
	return exists, nil
}

// GetRouteDetails returns the first active route between two cities, or the
// first route of any status when none is active. Cities match in any case so
// rows written before normalisation are still found.
func (s *RouteService) GetRouteDetails(ctx context.Context, origin, destination string) (*RouteDTO, error) {
	routes, err := s.routes.FindByCitiesIgnoreCase(ctx, strings.TrimSpace(origin), strings.TrimSpace(destination))
	if err != nil {
		return nil, fmt.Errorf("failed to get route details: %w", err)
	}
	if len(routes) == 0 {
		return nil, domain.NewNotFoundErrorMsg("no route found between specified cities")
	}

	chosen := routes[0]
	for _, rt := range routes {
		if rt.IsActive() {
			chosen = rt
			break
		}
	}
	result := toRouteDTO(chosen)
	return &result, nil
}

func (s *RouteService) publishRouteEvent(ctx context.Context, eventType string, rt *routeDomain.Route) {
	evt := events.RouteEvent{
		RouteID:         rt.ID(),
		Name:            rt.Name(),
		OriginCity:      rt.OriginCity(),
		DestinationCity: rt.DestinationCity(),
		IsActive:        rt.IsActive(),
		StopCount:       len(rt.Stops()),
		OccurredAt:      time.Now().UTC(),
	}
	s.publishEvent(ctx, eventType, rt.ID(), evt)
}

func (s *RouteService) publishEvent(ctx context.Context, eventType, subject string, data interface{}) {
	if s.publisher == nil {
		return
	}

	cloudEvent, err := kafka.NewCloudEvent(events.EventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	cloudEvent.Subject = subject

	if err := s.publisher.PublishEvent(ctx, s.topic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", s.topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func toRouteDTO(rt *routeDomain.Route) RouteDTO {
	return RouteDTO{
		ID:                rt.ID(),
		Name:              rt.Name(),
		OriginCity:        rt.OriginCity(),
		DestinationCity:   rt.DestinationCity(),
		TotalDistance:     rt.TotalDistance(),
		EstimatedDuration: rt.EstimatedDuration(),
		Description:       rt.Description(),
		IsActive:          rt.IsActive(),
		Stops:             toStopDTOs(rt.Stops()),
		CreatedAt:         rt.CreatedAt(),
		UpdatedAt:         rt.UpdatedAt(),
	}
}

func toRouteDTOs(routes []*routeDomain.Route) []RouteDTO {
	dtos := make([]RouteDTO, len(routes))
	for i, rt := range routes {
		dtos[i] = toRouteDTO(rt)
	}
	return dtos
}
