package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every recognized environment option with its default applied.
// Parsed once at startup; components receive the values they need.
type Config struct {
	AppEnv   string
	HTTPPort int

	// Postgres
	PGHost        string
	PGPort        string
	PGUser        string
	PGPassword    string
	PGDatabase    string
	DBPoolSize    int
	DBMaxOverflow int

	// Upstream feed
	FeedURL         string
	TransceiversURL string
	FeedTimeout     time.Duration

	// Ingestion cadence
	PollInterval  time.Duration
	WriteInterval time.Duration

	// Geographic filter
	BoundaryEnabled bool
	BoundaryPath    string

	// Reference data
	AirportsPath string

	// Landing detection
	LandingRadiusNm float64
	LandingAltFt    float64
	LandingSpeedKt  float64

	// Flight completion
	StaleAfter    time.Duration
	CompleteAfter time.Duration

	// Matcher
	MatchMaxDistanceNm float64
	MatchTimeTolerance time.Duration
	MatchMinDuration   time.Duration
	MatchGap           time.Duration
	MatchLookback      time.Duration
	FreqToleranceHz    int64

	// Retention
	Retention time.Duration

	// Buffers
	PilotBufferCap      int
	ControllerBufferCap int

	// Dashboard publisher (disabled when RedisHost is empty)
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Admin surface (disabled when secret is empty)
	AdminJWTSecret string
}

// Load reads the environment and applies documented defaults.
// A missing required option returns an error so main can exit with code 1.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:   envStr("APP_ENV", "development"),
		HTTPPort: envInt("HTTP_PORT", 8080),

		PGHost:        os.Getenv("PG_HOST"),
		PGPort:        envStr("PG_PORT", "5432"),
		PGUser:        os.Getenv("PG_USER"),
		PGPassword:    os.Getenv("PG_PASSWORD"),
		PGDatabase:    os.Getenv("PG_DB"),
		DBPoolSize:    envInt("DB_POOL_SIZE", 20),
		DBMaxOverflow: envInt("DB_MAX_OVERFLOW", 40),

		FeedURL:         envStr("FEED_URL", "https://data.vatsim.net/v3/vatsim-data.json"),
		TransceiversURL: envStr("TRANSCEIVERS_URL", "https://data.vatsim.net/v3/transceivers-data.json"),
		FeedTimeout:     envSeconds("FEED_TIMEOUT_S", 30),

		PollInterval:  envSeconds("POLL_INTERVAL_S", 60),
		WriteInterval: envSeconds("WRITE_INTERVAL_S", 30),

		BoundaryEnabled: envBool("BOUNDARY_ENABLED", true),
		BoundaryPath:    os.Getenv("BOUNDARY_PATH"),

		AirportsPath: envStr("AIRPORTS_PATH", "data/airports.json"),

		LandingRadiusNm: envFloat("LANDING_RADIUS_NM", 15),
		LandingAltFt:    envFloat("LANDING_ALT_FT", 1000),
		LandingSpeedKt:  envFloat("LANDING_SPEED_KT", 20),

		StaleAfter:    envMinutes("T_STALE_MIN", 5),
		CompleteAfter: envHours("T_COMPLETE_H", 1),

		MatchMaxDistanceNm: envFloat("MATCH_MAX_DIST_NM", 100),
		MatchTimeTolerance: envSeconds("MATCH_TIME_TOL_S", 180),
		MatchMinDuration:   envSeconds("MATCH_MIN_DURATION_S", 30),
		MatchGap:           envSeconds("MATCH_GAP_S", 60),
		MatchLookback:      envMinutes("MATCH_LOOKBACK_MIN", 10),
		FreqToleranceHz:    int64(envInt("FREQ_TOL_HZ", 100)),

		Retention: envHours("RETENTION_H", 24),

		PilotBufferCap:      envInt("PILOT_BUFFER_CAP", 5000),
		ControllerBufferCap: envInt("CONTROLLER_BUFFER_CAP", 1000),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     envStr("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),
	}

	if cfg.PGHost == "" || cfg.PGUser == "" || cfg.PGDatabase == "" {
		return nil, fmt.Errorf("PG_HOST, PG_USER and PG_DB are required")
	}
	if cfg.BoundaryEnabled && cfg.BoundaryPath == "" {
		return nil, fmt.Errorf("BOUNDARY_PATH is required when BOUNDARY_ENABLED is true")
	}

	return cfg, nil
}

// DSN builds the Postgres connection string. connect_timeout bounds how long
// acquiring a fresh connection may take; statement_timeout is passed to the
// server as a session parameter and caps every statement, so a wedged flush
// or detector query cannot hold its transaction open indefinitely.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&connect_timeout=30&statement_timeout=60000",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envSeconds(key string, def int) time.Duration {
	return time.Duration(envInt(key, def)) * time.Second
}

func envMinutes(key string, def int) time.Duration {
	return time.Duration(envInt(key, def)) * time.Minute
}

func envHours(key string, def int) time.Duration {
	return time.Duration(envInt(key, def)) * time.Hour
}
