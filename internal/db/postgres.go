package db

import (
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

var DB *sqlx.DB

// InitPostgres connects with sqlx and applies the pool sizing:
// poolSize persistent connections plus maxOverflow on demand,
// recycled after 300 s.
func InitPostgres(dsn string, poolSize, maxOverflow int) error {
	var err error

	for i := 0; i < 10; i++ {
		DB, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			DB.SetMaxOpenConns(poolSize + maxOverflow)
			DB.SetMaxIdleConns(poolSize)
			DB.SetConnMaxLifetime(300 * time.Second)
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return err
}
