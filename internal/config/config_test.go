package config

import (
	"testing"
	"time"
)

func TestLoad_AppliesDefaultsWhenUnset(t *testing.T) {
	cfg := Load()
	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host default = %q, want localhost", cfg.Database.Host)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port default = %d, want 5432", cfg.Database.Port)
	}
	if cfg.Auth.JWTExpiry != 60*time.Minute {
		t.Errorf("Auth.JWTExpiry default = %v, want 60m", cfg.Auth.JWTExpiry)
	}
	if cfg.Auth.OTPMaxTries != 5 {
		t.Errorf("Auth.OTPMaxTries default = %d, want 5", cfg.Auth.OTPMaxTries)
	}
}

func TestLoad_ReadsOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("OTP_EXPIRY_MINUTES", "10")

	cfg := Load()
	if cfg.Database.Host != "db.internal" {
		t.Errorf("Database.Host = %q, want db.internal", cfg.Database.Host)
	}
	if cfg.Database.Port != 6543 {
		t.Errorf("Database.Port = %d, want 6543", cfg.Database.Port)
	}
	if cfg.Auth.OTPExpiry != 10*time.Minute {
		t.Errorf("Auth.OTPExpiry = %v, want 10m", cfg.Auth.OTPExpiry)
	}
}

func TestDatabase_DSN(t *testing.T) {
	d := Database{Host: "h", Port: 5432, Name: "n", User: "u", Password: "p"}
	got := d.DSN()
	want := "host=h port=5432 dbname=n user=u password=p sslmode=disable"
	if got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
