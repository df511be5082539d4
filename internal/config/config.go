// Package config loads the environment-variable configuration of spec.md
// §6: database connection details, JWT secret/expiry, OTP expiry/max
// attempts, and SMTP delivery settings. None of it changes core engine
// semantics — it only wires up the ambient services around it. Following
// AreumTech-Chubby.fyi's cmd/server/main.go, this is plain os.Getenv plus
// small typed parsing helpers, not a config framework.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Database holds the connection parameters for the pgxpool.Pool the stores
// share.
type Database struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
}

// DSN renders the standard libpq connection string pgxpool.New accepts.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		d.Host, d.Port, d.Name, d.User, d.Password)
}

// Auth holds the JWT and OTP parameters of the (out-of-scope) identity
// collaborator; the engine never reads a token or OTP itself, but the
// process that wires the engine together needs these to construct it.
type Auth struct {
	JWTSecret   string
	JWTExpiry   time.Duration
	OTPExpiry   time.Duration
	OTPMaxTries int
}

// SMTP holds the outbound-mail settings of the (out-of-scope) notification
// collaborator.
type SMTP struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Config is the complete loaded environment. main reads it once and uses
// its Database settings to open the connection pool the stores share.
// Nothing below main reads the environment directly.
type Config struct {
	Database Database
	Auth     Auth
	SMTP     SMTP
}

// Load reads every variable spec.md §6 enumerates, applying the defaults
// named below when a variable is unset. It never fails: a misconfigured
// deployment surfaces as a connection error from pgxpool, not a config
// error, matching the teacher's "best-effort default, fail downstream"
// convention in cmd/server/main.go's PORT handling.
func Load() Config {
	return Config{
		Database: Database{
			Host:     getenv("DB_HOST", "localhost"),
			Port:     getenvInt("DB_PORT", 5432),
			Name:     getenv("DB_NAME", "form270"),
			User:     getenv("DB_USER", "form270"),
			Password: getenv("DB_PASSWORD", ""),
		},
		Auth: Auth{
			JWTSecret:   getenv("JWT_SECRET", ""),
			JWTExpiry:   getenvDuration("JWT_EXPIRY_MINUTES", 60*time.Minute),
			OTPExpiry:   getenvDuration("OTP_EXPIRY_MINUTES", 5*time.Minute),
			OTPMaxTries: getenvInt("OTP_MAX_ATTEMPTS", 5),
		},
		SMTP: SMTP{
			Host:     getenv("SMTP_HOST", ""),
			Port:     getenvInt("SMTP_PORT", 587),
			User:     getenv("SMTP_USER", ""),
			Password: getenv("SMTP_PASSWORD", ""),
			From:     getenv("SMTP_FROM", ""),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// getenvDuration reads key as a count of minutes (matching the
// *_MINUTES naming spec.md §6 implies) and returns it as a Duration.
func getenvDuration(key string, fallback time.Duration) time.Duration {
	minutes := getenvInt(key, -1)
	if minutes < 0 {
		return fallback
	}
	return time.Duration(minutes) * time.Minute
}
