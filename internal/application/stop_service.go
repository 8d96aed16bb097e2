package application

import (
	"context"
	"fmt"
	"time"

	routeDomain "github.com/busline/service-route/internal/domain/route"
	"github.com/busline/service-route/internal/events"
	"go.uber.org/zap"
)

// UpdateStopRequest is the request DTO for a partial stop update. Omitted
// fields are left unchanged.
type UpdateStopRequest struct {
	CityName              *string  `json:"city_name"`
	StopSequence          *int     `json:"stop_sequence"`
	DistanceFromOrigin    *float64 `json:"distance_from_origin"`
	EstimatedStopDuration *float64 `json:"estimated_stop_duration"`
	StopType              *string  `json:"stop_type"`
	IsActive              *bool    `json:"is_active"`
}

func (r UpdateStopRequest) toPatch() routeDomain.StopPatch {
	return routeDomain.StopPatch{
		CityName:           r.CityName,
		Sequence:           r.StopSequence,
		DistanceFromOrigin: r.DistanceFromOrigin,
		StopDuration:       r.EstimatedStopDuration,
		StopType:           r.StopType,
		Active:             r.IsActive,
	}
}

// AddStopToRoute creates a stop on an existing route.
func (s *RouteService) AddStopToRoute(ctx context.Context, routeID string, req CreateStopRequest) (*StopDTO, error) {
	if _, err := s.routes.FindByID(ctx, routeID); err != nil {
		return nil, err
	}

	stop, err := newStop(routeID, req)
	if err != nil {
		return nil, err
	}
	if err := s.stops.Save(ctx, stop); err != nil {
		return nil, fmt.Errorf("failed to add stop: %w", err)
	}

	s.logger.Info("stop added",
		zap.String("route_id", routeID),
		zap.String("stop_id", stop.ID()),
		zap.String("city_name", stop.CityName()),
	)
	s.publishStopEvent(ctx, events.StopAdded, stop)

	result := toStopDTO(stop)
	return &result, nil
}

// GetStopsByRoute returns the active stops of a route in sequence order.
func (s *RouteService) GetStopsByRoute(ctx context.Context, routeID string) ([]StopDTO, error) {
	if _, err := s.routes.FindByID(ctx, routeID); err != nil {
		return nil, err
	}

	stops, err := s.stops.FindActiveByRouteID(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stops: %w", err)
	}
	return toStopDTOs(stops), nil
}

// GetAllStopsByRoute returns every stop of a route, inactive ones included.
func (s *RouteService) GetAllStopsByRoute(ctx context.Context, routeID string) ([]StopDTO, error) {
	if _, err := s.routes.FindByID(ctx, routeID); err != nil {
		return nil, err
	}

	stops, err := s.stops.FindByRouteID(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stops: %w", err)
	}
	return toStopDTOs(stops), nil
}

// GetStopsByCity returns the stops in a city across all routes.
func (s *RouteService) GetStopsByCity(ctx context.Context, city string) ([]StopDTO, error) {
	stops, err := s.stops.FindByCityName(ctx, routeDomain.NormalizeCity(city))
	if err != nil {
		return nil, fmt.Errorf("failed to get stops by city: %w", err)
	}
	return toStopDTOs(stops), nil
}

// UpdateRouteStop applies a partial update to a stop.
func (s *RouteService) UpdateRouteStop(ctx context.Context, stopID string, req UpdateStopRequest) (*StopDTO, error) {
	stop, err := s.stops.FindByID(ctx, stopID)
	if err != nil {
		return nil, err
	}
	if err := stop.ApplyPatch(req.toPatch()); err != nil {
		return nil, err
	}
	if err := s.stops.Update(ctx, stop); err != nil {
		return nil, fmt.Errorf("failed to update stop: %w", err)
	}

	s.logger.Info("stop updated", zap.String("stop_id", stopID), zap.String("route_id", stop.RouteID()))
	s.publishStopEvent(ctx, events.StopUpdated, stop)

	result := toStopDTO(stop)
	return &result, nil
}

// RemoveStopFromRoute deletes a stop. The owning route is left as is.
func (s *RouteService) RemoveStopFromRoute(ctx context.Context, stopID string) error {
	stop, err := s.stops.FindByID(ctx, stopID)
	if err != nil {
		return err
	}
	if err := s.stops.Delete(ctx, stopID); err != nil {
		return fmt.Errorf("failed to remove stop: %w", err)
	}

	s.logger.Info("stop removed", zap.String("stop_id", stopID), zap.String("route_id", stop.RouteID()))
	s.publishStopEvent(ctx, events.StopRemoved, stop)
	return nil
}

func (s *RouteService) publishStopEvent(ctx context.Context, eventType string, stop *routeDomain.Stop) {
	evt := events.StopEvent{
		StopID:       stop.ID(),
		RouteID:      stop.RouteID(),
		CityName:     stop.CityName(),
		StopSequence: stop.Sequence(),
		StopType:     string(stop.StopType()),
		IsActive:     stop.IsActive(),
		OccurredAt:   time.Now().UTC(),
	}
	s.publishEvent(ctx, eventType, stop.RouteID(), evt)
}

func newStop(routeID string, req CreateStopRequest) (*routeDomain.Stop, error) {
	stop, err := routeDomain.NewStop(
		req.ID, routeID, req.CityName,
		req.StopSequence,
		req.DistanceFromOrigin, req.EstimatedStopDuration,
		req.StopType,
	)
	if err != nil {
		return nil, err
	}
	if req.IsActive != nil && !*req.IsActive {
		inactive := false
		if err := stop.ApplyPatch(routeDomain.StopPatch{Active: &inactive}); err != nil {
			return nil, err
		}
	}
	return stop, nil
}

func toStopDTO(st *routeDomain.Stop) StopDTO {
	return StopDTO{
		ID:                    st.ID(),
		RouteID:               st.RouteID(),
		CityName:              st.CityName(),
		StopSequence:          st.Sequence(),
		DistanceFromOrigin:    st.DistanceFromOrigin(),
		EstimatedStopDuration: st.StopDuration(),
		StopType:              string(st.StopType()),
		IsActive:              st.IsActive(),
	}
}

func toStopDTOs(stops []*routeDomain.Stop) []StopDTO {
	dtos := make([]StopDTO, len(stops))
	for i, st := range stops {
		dtos[i] = toStopDTO(st)
	}
	return dtos
}
