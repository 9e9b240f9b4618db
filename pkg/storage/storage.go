// Package storage opens and migrates the backing stores: PostgreSQL for
// durable state and Redis for rate limiting and the domain claim lock.
package storage

import "time"

// Config holds database and cache connection configuration
type Config struct {
	// PostgreSQL
	PostgresURL         string
	PostgresMaxConns    int
	PostgresMinConns    int
	PostgresTimeout     time.Duration
	PostgresMaxLifetime time.Duration
	PostgresMaxIdleTime time.Duration

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
}

// DefaultConfig returns sensible connection defaults
func DefaultConfig() Config {
	return Config{
		PostgresURL:         "postgres://localhost:5432/crewdeck?sslmode=disable",
		PostgresMaxConns:    25,
		PostgresMinConns:    5,
		PostgresTimeout:     10 * time.Second,
		PostgresMaxLifetime: 30 * time.Minute,
		PostgresMaxIdleTime: 5 * time.Minute,

		RedisAddr:     "localhost:6379",
		RedisPoolSize: 10,
	}
}
