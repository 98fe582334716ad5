package gorm

import (
	"time"
)

// Airport is the reference record for one airfield
type Airport struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ICAO        string    `gorm:"column:icao;type:varchar(4);not null;uniqueIndex"`
	Name        string    `gorm:"column:name;type:text"`
	Latitude    float64   `gorm:"column:latitude;type:double precision;not null"`
	Longitude   float64   `gorm:"column:longitude;type:double precision;not null"`
	ElevationFt int       `gorm:"column:elevation_ft;type:integer;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time `gorm:"column:updated_at;default:now()"`
}

// TableName specifies the table name for GORM
func (Airport) TableName() string {
	return "airports"
}
