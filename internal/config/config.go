package config // package config loads application configuration from environment variables

import (
	"log"     // log reports configuration errors and halts execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Missing or malformed required values abort
// startup via log.Fatalf; nothing in this package is recoverable per request.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign access and reset tokens

	DBMaxOpenConns    int           // connection pool ceiling, 0 leaves the driver default
	DBMaxIdleConns    int           // idle connections kept around between requests
	DBConnMaxLifetime time.Duration // recycle interval for pooled connections
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	ResetTTLMin    int    // password reset token time-to-live in minutes
	PendingTTLMin  int    // two-factor challenge time-to-live in minutes
	BcryptCost     int    // bcrypt cost for password hashing
	StrengthPolicy bool   // enforce password strength rules on register/change
	AdminUser      string // seed admin username, created only when the users table is empty
	AdminPass      string // seed admin password
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),

		DBMaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetime: envDur("DB_CONN_MAX_LIFETIME", 30*time.Minute),

		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		ResetTTLMin:    envInt("RESET_TOKEN_TTL_MIN", 30),
		PendingTTLMin:  envInt("TWO_FACTOR_PENDING_TTL_MIN", 5),
		BcryptCost:     mustInt("BCRYPT_COST"),
		StrengthPolicy: envBool("PASSWORD_STRENGTH_POLICY", true),
		AdminUser:      envStr("ADMIN_USERNAME", "admin"),
		AdminPass:      envStr("ADMIN_PASSWORD", "btadmin"),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
