package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Config carries the connection and pool parameters for the MySQL store.
// Pool sizing is a deployment concern, so it lives in configuration with
// the rest of the tunables instead of being fixed here.
type Config struct {
	User            string
	Pass            string
	Host            string
	Port            string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// dsn renders the driver connection string.  parseTime turns DATETIME
// columns into time.Time, and loc=UTC keeps every timestamp in one zone
// regardless of server settings.
func dsn(cfg Config) string {
	auth := cfg.User
	if cfg.Pass != "" {
		auth = cfg.User + ":" + cfg.Pass
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, cfg.Host, cfg.Port, cfg.Name)
}

// Open connects to MySQL, applies the pool settings and verifies the
// connection with a short ping so a bad address fails at startup rather
// than on the first request.
func Open(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn(cfg))
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
