package config

// Redis backs three concerns: distributed rate limiting, public response
// caching and the pending two-factor challenge store.  Connection parameters
// come from environment variables.  If the connection fails at startup the
// constructor returns nil and callers degrade gracefully (rate limiting and
// caching turn off, pending challenges fall back to process memory).

import (
	"context"
	"crypto/tls"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient instantiates a Redis client using environment variables.
// Supported variables are:
//
//	REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//	REDIS_ADDR – host:port shorthand (host/port take precedence when both are set)
//	REDIS_PASSWORD – optional password
//	REDIS_DB – database number (default 0)
//	REDIS_TLS – enable TLS when "true" or "1"; the server certificate is verified
//	REDIS_TLS_SKIP_VERIFY – disable certificate verification (requires REDIS_TLS)
//
// The returned client may be nil if a connection cannot be established.
func NewRedisClient() *redis.Client {
	host := os.Getenv("REDIS_HOST")
	port := os.Getenv("REDIS_PORT")
	addr := os.Getenv("REDIS_ADDR")
	if host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	pwd := os.Getenv("REDIS_PASSWORD")
	dbNum := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if n, err := strconv.Atoi(dbStr); err == nil {
			dbNum = n
		}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  pwd,
		DB:        dbNum,
		TLSConfig: redisTLSConfig(),
	})
	// Ping the server with a short timeout.  Return nil on failure.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}

// redisTLSConfig maps the TLS environment variables onto a tls.Config.
// REDIS_TLS alone gives a verified connection.  Skipping verification is
// a separate, deliberately named switch so a plain "enable TLS" setting
// can never silently accept forged certificates.
func redisTLSConfig() *tls.Config {
	if tlsEnv := os.Getenv("REDIS_TLS"); !strings.EqualFold(tlsEnv, "true") && tlsEnv != "1" {
		return nil
	}
	conf := &tls.Config{MinVersion: tls.VersionTLS12}
	if skip := os.Getenv("REDIS_TLS_SKIP_VERIFY"); strings.EqualFold(skip, "true") || skip == "1" {
		conf.InsecureSkipVerify = true
	}
	return conf
}
