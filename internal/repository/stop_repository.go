package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	routeDomain "github.com/busline/service-route/internal/domain/route"
	"github.com/busline/service-route/internal/platform/domain"
	"gorm.io/gorm"
)

// StopModel is the GORM model for the route_stops table.
type StopModel struct {
	ID                    string    `gorm:"type:varchar(64);primaryKey"`
	RouteID               string    `gorm:"type:varchar(64);not null;index"`
	CityName              string    `gorm:"type:varchar(100);not null;index"`
	StopSequence          int       `gorm:"not null"`
	DistanceFromOrigin    float64   `gorm:"type:decimal(10,2);not null;default:0"`
	EstimatedStopDuration float64   `gorm:"type:decimal(6,2);not null;default:0"`
	StopType              string    `gorm:"type:varchar(10);not null;default:'BOTH'"`
	IsActive              bool      `gorm:"not null"`
	CreatedAt             time.Time `gorm:"not null"`
	UpdatedAt             time.Time `gorm:"not null"`
}

func (StopModel) TableName() string { return "route_stops" }

var stopColumns = []string{
	"city_name", "stop_sequence", "distance_from_origin",
	"estimated_stop_duration", "stop_type", "is_active", "updated_at",
}

// GormStopRepository implements StopRepository using GORM.
type GormStopRepository struct {
	db *gorm.DB
}

// NewGormStopRepository creates a new GormStopRepository.
func NewGormStopRepository(db *gorm.DB) *GormStopRepository {
	return &GormStopRepository{db: db}
}

func (r *GormStopRepository) Save(ctx context.Context, stop *routeDomain.Stop) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&StopModel{}).Where("id = ?", stop.ID()).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check stop id: %w", err)
	}
	if count > 0 {
		return domain.NewConflictError(fmt.Sprintf("stop with ID %s already exists", stop.ID()))
	}
	if err := r.db.WithContext(ctx).Create(toStopModel(stop)).Error; err != nil {
		return fmt.Errorf("failed to save stop: %w", err)
	}
	return nil
}

func (r *GormStopRepository) FindByID(ctx context.Context, id string) (*routeDomain.Stop, error) {
	var model StopModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Route stop", id)
		}
		return nil, fmt.Errorf("failed to find stop: %w", err)
	}
	return toStopDomain(&model), nil
}

func (r *GormStopRepository) FindByRouteID(ctx context.Context, routeID string) ([]*routeDomain.Stop, error) {
	return r.find(r.db.WithContext(ctx).Where("route_id = ?", routeID))
}

func (r *GormStopRepository) FindActiveByRouteID(ctx context.Context, routeID string) ([]*routeDomain.Stop, error) {
	return r.find(r.db.WithContext(ctx).Where("route_id = ? AND is_active = ?", routeID, true))
}

func (r *GormStopRepository) FindByCityName(ctx context.Context, cityName string) ([]*routeDomain.Stop, error) {
	return r.find(r.db.WithContext(ctx).Where("city_name = ?", cityName))
}

func (r *GormStopRepository) Update(ctx context.Context, stop *routeDomain.Stop) error {
	result := r.db.WithContext(ctx).
		Model(&StopModel{}).
		Where("id = ?", stop.ID()).
		Select(stopColumns).
		Updates(toStopModel(stop))
	if result.Error != nil {
		return fmt.Errorf("failed to update stop: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Route stop", stop.ID())
	}
	return nil
}

func (r *GormStopRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&StopModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete stop: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Route stop", id)
	}
	return nil
}

func (r *GormStopRepository) find(q *gorm.DB) ([]*routeDomain.Stop, error) {
	var models []StopModel
	if err := q.Order("stop_sequence ASC, id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list stops: %w", err)
	}
	stops := make([]*routeDomain.Stop, len(models))
	for i := range models {
		stops[i] = toStopDomain(&models[i])
	}
	return stops, nil
}

// --- Conversions ---

func toStopModel(s *routeDomain.Stop) *StopModel {
	return &StopModel{
		ID:                    s.ID(),
		RouteID:               s.RouteID(),
		CityName:              s.CityName(),
		StopSequence:          s.Sequence(),
		DistanceFromOrigin:    s.DistanceFromOrigin(),
		EstimatedStopDuration: s.StopDuration(),
		StopType:              string(s.StopType()),
		IsActive:              s.IsActive(),
		CreatedAt:             s.CreatedAt(),
		UpdatedAt:             s.UpdatedAt(),
	}
}

func toStopDomain(m *StopModel) *routeDomain.Stop {
	return routeDomain.ReconstructStop(
		m.ID, m.RouteID, m.CityName,
		m.StopSequence,
		m.DistanceFromOrigin, m.EstimatedStopDuration,
		routeDomain.StopType(m.StopType),
		m.IsActive,
		m.CreatedAt, m.UpdatedAt,
	)
}
