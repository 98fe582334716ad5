package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var PgDB *gorm.DB

// InitPostgresORM opens the GORM handle used by the airports reference side.
// The hot ingestion path stays on sqlx; GORM only sees the small, rarely
// written reference tables, so slow-query logging is left at the default
// threshold and the handle shares no pool tuning with the sqlx connection.
func InitPostgresORM(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm connection: %w", err)
	}

	PgDB = db
	return db, nil
}
