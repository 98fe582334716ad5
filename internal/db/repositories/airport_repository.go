package repositories

import (
	"context"

	gormlib "gorm.io/gorm"

	"airspace-analytics/vatwatch/internal/models/gorm"
)

// AirportRepository persists the airport reference table via GORM
type AirportRepository struct {
	db *gormlib.DB
}

// NewAirportRepository creates a new airport repository
func NewAirportRepository(db *gormlib.DB) *AirportRepository {
	return &AirportRepository{db: db}
}

// ReplaceAll re-imports the reference set: delete then batch insert
func (r *AirportRepository) ReplaceAll(ctx context.Context, airports []gorm.Airport) error {
	if err := r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&gorm.Airport{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		CreateInBatches(airports, 100).Error
}

// FindByICAO finds an airport by ICAO code (case-insensitive)
func (r *AirportRepository) FindByICAO(ctx context.Context, icao string) (*gorm.Airport, error) {
	var airport gorm.Airport

	err := r.db.WithContext(ctx).
		Where("UPPER(icao) = UPPER(?)", icao).
		First(&airport).Error

	if err != nil {
		if err == gormlib.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	return &airport, nil
}

// Count returns total number of airports
func (r *AirportRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&gorm.Airport{}).Count(&count).Error
	return count, err
}
