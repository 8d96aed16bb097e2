package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	routeDomain "github.com/busline/service-route/internal/domain/route"
	"github.com/busline/service-route/internal/platform/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RouteModel is the GORM model for the routes table.
type RouteModel struct {
	ID                string      `gorm:"type:varchar(64);primaryKey"`
	Name              string      `gorm:"type:varchar(200);not null"`
	OriginCity        string      `gorm:"type:varchar(100);not null;index:idx_routes_cities,priority:1"`
	DestinationCity   string      `gorm:"type:varchar(100);not null;index:idx_routes_cities,priority:2"`
	TotalDistance     float64     `gorm:"type:decimal(10,2);not null;default:0"`
	EstimatedDuration float64     `gorm:"type:decimal(6,2);not null;default:0"`
	Description       string      `gorm:"type:text"`
	IsActive          bool        `gorm:"not null;index"`
	Stops             []StopModel `gorm:"foreignKey:RouteID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time   `gorm:"not null"`
	UpdatedAt         time.Time   `gorm:"not null"`
}

func (RouteModel) TableName() string { return "routes" }

// routeColumns are the columns Update may overwrite. Cities and creation time
// are fixed once a route exists.
var routeColumns = []string{"name", "total_distance", "estimated_duration", "description", "is_active", "updated_at"}

// GormRouteRepository implements RouteRepository using GORM.
type GormRouteRepository struct {
	db *gorm.DB
}

// NewGormRouteRepository creates a new GormRouteRepository.
func NewGormRouteRepository(db *gorm.DB) *GormRouteRepository {
	return &GormRouteRepository{db: db}
}

// Create inserts the route and its stops in one transaction after checking
// that the city pair, the route ID and every stop ID are free.
func (r *GormRouteRepository) Create(ctx context.Context, route *routeDomain.Route) error {
	model := toRouteModel(route)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&RouteModel{}).
			Where("origin_city = ? AND destination_city = ?", model.OriginCity, model.DestinationCity).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check route existence: %w", err)
		}
		if count > 0 {
			return domain.NewConflictError("route already exists between these cities")
		}

		if err := tx.Model(&RouteModel{}).Where("id = ?", model.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check route id: %w", err)
		}
		if count > 0 {
			return domain.NewConflictError(fmt.Sprintf("route with ID %s already exists", model.ID))
		}

		if len(model.Stops) > 0 {
			ids := make([]string, len(model.Stops))
			for i, st := range model.Stops {
				ids[i] = st.ID
			}
			var taken []string
			if err := tx.Model(&StopModel{}).Where("id IN ?", ids).Pluck("id", &taken).Error; err != nil {
				return fmt.Errorf("failed to check stop ids: %w", err)
			}
			if len(taken) > 0 {
				return domain.NewConflictError(fmt.Sprintf("route stop with ID %s already exists", taken[0]))
			}
		}

		// Stops are inserted explicitly: association saving would upsert them
		// and silently move an existing stop onto this route.
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return fmt.Errorf("failed to create route: %w", err)
		}
		if len(model.Stops) > 0 {
			if err := tx.Create(&model.Stops).Error; err != nil {
				return fmt.Errorf("failed to create route stops: %w", err)
			}
		}
		return nil
	})
	return err
}

func (r *GormRouteRepository) FindByID(ctx context.Context, id string) (*routeDomain.Route, error) {
	var model RouteModel
	if err := r.withStops(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Route", id)
		}
		return nil, fmt.Errorf("failed to find route: %w", err)
	}
	return toRouteDomain(&model), nil
}

func (r *GormRouteRepository) ListAll(ctx context.Context) ([]*routeDomain.Route, error) {
	return r.find(r.withStops(ctx))
}

func (r *GormRouteRepository) ListActive(ctx context.Context) ([]*routeDomain.Route, error) {
	return r.find(r.withStops(ctx).Where("is_active = ?", true))
}

func (r *GormRouteRepository) FindByCities(ctx context.Context, origin, destination string) ([]*routeDomain.Route, error) {
	return r.find(r.withStops(ctx).
		Where("origin_city = ? AND destination_city = ?", origin, destination))
}

func (r *GormRouteRepository) FindByCitiesIgnoreCase(ctx context.Context, origin, destination string) ([]*routeDomain.Route, error) {
	return r.find(r.withStops(ctx).
		Where("UPPER(origin_city) = UPPER(?) AND UPPER(destination_city) = UPPER(?)", origin, destination))
}

func (r *GormRouteRepository) FindActiveByCities(ctx context.Context, origin, destination string) ([]*routeDomain.Route, error) {
	return r.find(r.withStops(ctx).
		Where("origin_city = ? AND destination_city = ? AND is_active = ?", origin, destination, true))
}

func (r *GormRouteRepository) FindByOriginCity(ctx context.Context, origin string) ([]*routeDomain.Route, error) {
	return r.find(r.withStops(ctx).Where("origin_city = ?", origin))
}

func (r *GormRouteRepository) FindByDestinationCity(ctx context.Context, destination string) ([]*routeDomain.Route, error) {
	return r.find(r.withStops(ctx).Where("destination_city = ?", destination))
}

func (r *GormRouteRepository) FindByName(ctx context.Context, name string) ([]*routeDomain.Route, error) {
	return r.find(r.withStops(ctx).Where("name = ?", name))
}

func (r *GormRouteRepository) ExistsByCities(ctx context.Context, origin, destination string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&RouteModel{}).
		Where("origin_city = ? AND destination_city = ?", origin, destination).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check route existence: %w", err)
	}
	return count > 0, nil
}

// Update writes the route's mutable columns. Stops are persisted through the
// StopRepository and are not touched here.
func (r *GormRouteRepository) Update(ctx context.Context, route *routeDomain.Route) error {
	model := toRouteModel(route)
	model.Stops = nil

	result := r.db.WithContext(ctx).
		Model(&RouteModel{}).
		Where("id = ?", model.ID).
		Select(routeColumns).
		Omit(clause.Associations).
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update route: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Route", route.ID())
	}
	return nil
}

// Delete removes the route's stops and then the route in one transaction.
func (r *GormRouteRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("route_id = ?", id).Delete(&StopModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete route stops: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&RouteModel{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete route: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.NewNotFoundError("Route", id)
		}
		return nil
	})
}

func (r *GormRouteRepository) withStops(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Stops", func(db *gorm.DB) *gorm.DB {
		return db.Order("stop_sequence ASC, id ASC")
	})
}

func (r *GormRouteRepository) find(q *gorm.DB) ([]*routeDomain.Route, error) {
	var models []RouteModel
	if err := q.Order("created_at ASC, id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	routes := make([]*routeDomain.Route, len(models))
	for i := range models {
		routes[i] = toRouteDomain(&models[i])
	}
	return routes, nil
}

// --- Conversions ---

func toRouteModel(rt *routeDomain.Route) *RouteModel {
	stops := make([]StopModel, len(rt.Stops()))
	for i, s := range rt.Stops() {
		stops[i] = *toStopModel(s)
	}
	return &RouteModel{
		ID:                rt.ID(),
		Name:              rt.Name(),
		OriginCity:        rt.OriginCity(),
		DestinationCity:   rt.DestinationCity(),
		TotalDistance:     rt.TotalDistance(),
		EstimatedDuration: rt.EstimatedDuration(),
		Description:       rt.Description(),
		IsActive:          rt.IsActive(),
		Stops:             stops,
		CreatedAt:         rt.CreatedAt(),
		UpdatedAt:         rt.UpdatedAt(),
	}
}

func toRouteDomain(m *RouteModel) *routeDomain.Route {
	stops := make([]*routeDomain.Stop, len(m.Stops))
	for i := range m.Stops {
		stops[i] = toStopDomain(&m.Stops[i])
	}
	return routeDomain.ReconstructRoute(
		m.ID, m.Name,
		m.OriginCity, m.DestinationCity,
		m.TotalDistance, m.EstimatedDuration,
		m.Description,
		m.IsActive,
		stops,
		m.CreatedAt, m.UpdatedAt,
	)
}
