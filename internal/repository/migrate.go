package repository

import (
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the route tables from the GORM models. Used
// in development and tests; other environments apply the SQL migrations.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&RouteModel{}, &StopModel{}); err != nil {
		return fmt.Errorf("failed to auto-migrate route tables: %w", err)
	}
	return nil
}
