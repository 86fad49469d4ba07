// Package bootstrap wires optional runtime dependencies from
// configuration. Each Build helper degrades gracefully so the API can run
// without Redis or a mail provider in development.
package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/clinic"
	appconfig "github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/config"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildClinicStore returns the clinic settings store when Redis is available.
func BuildClinicStore(redisClient *redis.Client) *clinic.Store {
	if redisClient == nil {
		return nil
	}
	return clinic.NewStore(redisClient)
}

// BuildReportDB opens a database/sql handle for the admin reporting
// queries. Reporting traffic stays off the pgx pool the live endpoints
// use, so it can point at a read replica via REPORT_DATABASE_URL.
func BuildReportDB(databaseURL string, logger *logging.Logger) *sql.DB {
	if strings.TrimSpace(databaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		logger.Warn("report database unavailable", "error", err)
		return nil
	}
	db.SetMaxOpenConns(4)
	return db
}
