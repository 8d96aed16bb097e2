package application

import (
	"context"
	"fmt"
	"time"

	routeDomain "github.com/busline/service-route/internal/domain/route"
	"github.com/busline/service-route/internal/platform/domain"
	"go.uber.org/zap"
)

// DateLayout is the wire format of travel dates.
const DateLayout = "2006-01-02"

// SearchRoutesRequest is the request DTO for POST /api/routes/search.
type SearchRoutesRequest struct {
	OriginCity      string `json:"origin_city" binding:"required"`
	DestinationCity string `json:"destination_city" binding:"required"`
	TravelDate      string `json:"travel_date"`
	Passengers      int    `json:"passengers" binding:"gte=0"`
}

// TripDTO is a bookable trip included in a search result.
type TripDTO struct {
	TripID         string    `json:"trip_id"`
	BusID          string    `json:"bus_id"`
	BusNumber      string    `json:"bus_number"`
	OperatorName   string    `json:"operator_name"`
	BusType        string    `json:"bus_type"`
	DepartureTime  time.Time `json:"departure_time"`
	ArrivalTime    time.Time `json:"arrival_time"`
	Fare           float64   `json:"fare"`
	AvailableSeats int       `json:"available_seats"`
	Amenities      string    `json:"amenities,omitempty"`
}

// RouteSearchResultDTO is one route matching a search, enriched with the
// trips that run on it.
type RouteSearchResultDTO struct {
	RouteID             string     `json:"route_id"`
	RouteName           string     `json:"route_name"`
	OriginCity          string     `json:"origin_city"`
	DestinationCity     string     `json:"destination_city"`
	TotalDistance       float64    `json:"total_distance"`
	EstimatedDuration   float64    `json:"estimated_duration"`
	IntermediateStops   []string   `json:"intermediate_stops"`
	TravelDate          string     `json:"travel_date,omitempty"`
	Passengers          int        `json:"passengers"`
	AvailableTripsCount int        `json:"available_trips_count"`
	MinFare             *float64   `json:"min_fare,omitempty"`
	MaxFare             *float64   `json:"max_fare,omitempty"`
	EarliestDeparture   *time.Time `json:"earliest_departure,omitempty"`
	LatestDeparture     *time.Time `json:"latest_departure,omitempty"`
	Trips               []TripDTO  `json:"trips"`
}

// SearchRoutes finds active routes between two cities. Trip availability is
// merged in only when a travel date is given.
func (s *RouteService) SearchRoutes(ctx context.Context, req SearchRoutesRequest) ([]RouteSearchResultDTO, error) {
	var travelDate *time.Time
	if req.TravelDate != "" {
		d, err := time.Parse(DateLayout, req.TravelDate)
		if err != nil {
			return nil, domain.NewValidationError(fmt.Sprintf("invalid travel date %q, expected YYYY-MM-DD", req.TravelDate))
		}
		travelDate = &d
	}
	return s.search(ctx, req.OriginCity, req.DestinationCity, travelDate, req.Passengers)
}

// SearchAvailableRoutes finds active routes between two cities together with
// the trips departing on travelDate, or today when travelDate is nil.
func (s *RouteService) SearchAvailableRoutes(ctx context.Context, origin, destination string, travelDate *time.Time) ([]RouteSearchResultDTO, error) {
	if travelDate == nil {
		today := s.today()
		travelDate = &today
	}
	return s.search(ctx, origin, destination, travelDate, 1)
}

func (s *RouteService) search(ctx context.Context, origin, destination string, travelDate *time.Time, passengers int) ([]RouteSearchResultDTO, error) {
	origin = routeDomain.NormalizeCity(origin)
	destination = routeDomain.NormalizeCity(destination)
	if origin == "" || destination == "" {
		return nil, domain.NewValidationError("origin and destination are required")
	}
	if passengers < 0 {
		return nil, domain.NewValidationError("passengers cannot be negative")
	}
	if passengers == 0 {
		passengers = 1
	}

	routes, err := s.routes.FindActiveByCities(ctx, origin, destination)
	if err != nil {
		return nil, fmt.Errorf("failed to search routes: %w", err)
	}

	results := make([]RouteSearchResultDTO, len(routes))
	for i, rt := range routes {
		results[i] = toSearchResult(rt, passengers)
	}
	if len(routes) == 0 || travelDate == nil {
		s.logger.Info("route search completed",
			zap.String("origin_city", origin),
			zap.String("destination_city", destination),
			zap.Int("routes", len(routes)),
		)
		return results, nil
	}

	// Trips are keyed by city pair and date, so one lookup serves every route.
	trips, err := s.trips.AvailableTrips(ctx, origin, destination, *travelDate)
	if err != nil {
		s.logger.Error("trip lookup failed",
			zap.String("origin_city", origin),
			zap.String("destination_city", destination),
			zap.Error(err),
		)
		return nil, domain.NewUpstreamError("failed to fetch trips from bus service", err)
	}
	summary := routeDomain.SummarizeTrips(trips, passengers)
	date := travelDate.Format(DateLayout)
	for i := range results {
		mergeTrips(&results[i], summary, date)
	}

	s.logger.Info("route search completed",
		zap.String("origin_city", origin),
		zap.String("destination_city", destination),
		zap.String("travel_date", date),
		zap.Int("routes", len(routes)),
		zap.Int("trips", summary.Count),
	)
	return results, nil
}

// GetRouteTrips returns the bookable trips on a route for any date, earliest
// departure first.
func (s *RouteService) GetRouteTrips(ctx context.Context, routeID string) ([]TripDTO, error) {
	rt, err := s.routes.FindByID(ctx, routeID)
	if err != nil {
		return nil, err
	}

	trips, err := s.trips.TripsByRoute(ctx, rt.OriginCity(), rt.DestinationCity())
	if err != nil {
		s.logger.Error("trip lookup failed", zap.String("route_id", routeID), zap.Error(err))
		return nil, domain.NewUpstreamError("failed to fetch trips from bus service", err)
	}
	return toTripDTOs(routeDomain.SummarizeTrips(trips, 1).Trips), nil
}

// today returns the current UTC calendar date at midnight.
func (s *RouteService) today() time.Time {
	y, m, d := s.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func toSearchResult(rt *routeDomain.Route, passengers int) RouteSearchResultDTO {
	return RouteSearchResultDTO{
		RouteID:           rt.ID(),
		RouteName:         rt.Name(),
		OriginCity:        rt.OriginCity(),
		DestinationCity:   rt.DestinationCity(),
		TotalDistance:     rt.TotalDistance(),
		EstimatedDuration: rt.EstimatedDuration(),
		IntermediateStops: rt.ActiveStopCities(),
		Passengers:        passengers,
		Trips:             []TripDTO{},
	}
}

// mergeTrips copies summary into res. Pointer fields get their own copies so
// results never alias each other.
func mergeTrips(res *RouteSearchResultDTO, summary routeDomain.TripSummary, travelDate string) {
	res.TravelDate = travelDate
	res.AvailableTripsCount = summary.Count
	res.MinFare = clonePtr(summary.MinFare)
	res.MaxFare = clonePtr(summary.MaxFare)
	res.EarliestDeparture = clonePtr(summary.EarliestDeparture)
	res.LatestDeparture = clonePtr(summary.LatestDeparture)
	res.Trips = toTripDTOs(summary.Trips)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func toTripDTOs(trips []routeDomain.Trip) []TripDTO {
	dtos := make([]TripDTO, len(trips))
	for i, t := range trips {
		dtos[i] = TripDTO{
			TripID:         t.ID,
			BusID:          t.BusID,
			BusNumber:      t.BusNumber,
			OperatorName:   t.OperatorName,
			BusType:        t.BusType,
			DepartureTime:  t.DepartureTime,
			ArrivalTime:    t.ArrivalTime,
			Fare:           t.BaseFare,
			AvailableSeats: t.AvailableSeats,
			Amenities:      t.Amenities,
		}
	}
	return dtos
}
