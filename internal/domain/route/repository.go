package route

import "context"

// RouteRepository defines the persistence contract for route aggregates.
type RouteRepository interface {
	// Create persists a new route and its stops. It fails with a conflict when
	// a route already exists for the same origin and destination.
	Create(ctx context.Context, route *Route) error

	// FindByID retrieves a route with its stops.
	FindByID(ctx context.Context, id string) (*Route, error)

	// ListAll retrieves every route.
	ListAll(ctx context.Context) ([]*Route, error)

	// ListActive retrieves routes that are currently active.
	ListActive(ctx context.Context) ([]*Route, error)

	// FindByCities retrieves routes matching origin and destination exactly.
	FindByCities(ctx context.Context, origin, destination string) ([]*Route, error)

	// FindByCitiesIgnoreCase retrieves routes matching origin and destination in any case.
	FindByCitiesIgnoreCase(ctx context.Context, origin, destination string) ([]*Route, error)

	// FindActiveByCities retrieves active routes matching origin and destination exactly.
	FindActiveByCities(ctx context.Context, origin, destination string) ([]*Route, error)

	FindByOriginCity(ctx context.Context, origin string) ([]*Route, error)
	FindByDestinationCity(ctx context.Context, destination string) ([]*Route, error)
	FindByName(ctx context.Context, name string) ([]*Route, error)

	// ExistsByCities reports whether any route connects origin and destination.
	ExistsByCities(ctx context.Context, origin, destination string) (bool, error)

	// Update persists changes to the route's own fields.
	Update(ctx context.Context, route *Route) error

	// Delete removes a route together with its stops.
	Delete(ctx context.Context, id string) error
}

// StopRepository defines the persistence contract for route stops.
type StopRepository interface {
	Save(ctx context.Context, stop *Stop) error
	FindByID(ctx context.Context, id string) (*Stop, error)

	// FindByRouteID retrieves all stops of a route in sequence order.
	FindByRouteID(ctx context.Context, routeID string) ([]*Stop, error)

	// FindActiveByRouteID retrieves the active stops of a route in sequence order.
	FindActiveByRouteID(ctx context.Context, routeID string) ([]*Stop, error)

	FindByCityName(ctx context.Context, cityName string) ([]*Stop, error)
	Update(ctx context.Context, stop *Stop) error
	Delete(ctx context.Context, id string) error
}
