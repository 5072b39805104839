package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures service level configuration.
type Server struct {
	Addr          string
	Environment   string
	DatabaseURL   string
	JWTSigningKey string

	// AuditBuffer sizes the async channel used to persist denial events.
	// Zero means synchronous appends.
	AuditBuffer int

	// VisitorLookback bounds how far back a visitor pass is resolvable by plate.
	VisitorLookback time.Duration

	// OCREngineURL points at the external recognition engine. Empty selects
	// the echo recognizer used in development.
	OCREngineURL string

	// Normalizer confidence tuning. The pattern-match floor defaults to 75
	// but operators can adjust it per camera installation.
	PatternMatchFloor float64
	FallbackFloor     float64
	NoMatchCeiling    float64
	FallbackScale     float64
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:              ":8080",
		Environment:       "development",
		VisitorLookback:   24 * time.Hour,
		PatternMatchFloor: 75,
		FallbackFloor:     50,
		NoMatchCeiling:    40,
		FallbackScale:     0.8,
	}

	if addr := os.Getenv("PARKING_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if env := os.Getenv("PARKING_ENV"); env != "" {
		cfg.Environment = env
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.OCREngineURL = os.Getenv("OCR_ENGINE_URL")

	cfg.JWTSigningKey = os.Getenv("JWT_SIGNING_KEY")
	if cfg.JWTSigningKey == "" {
		// Use a default for development - should be overridden in production
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}

	if raw := os.Getenv("AUDIT_BUFFER"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			cfg.AuditBuffer = n
		}
	}
	if raw := os.Getenv("VISITOR_LOOKBACK"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.VisitorLookback = d
		}
	}
	if raw := os.Getenv("PLATE_PATTERN_FLOOR"); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil && f > 0 {
			cfg.PatternMatchFloor = f
		}
	}
	if raw := os.Getenv("PLATE_FALLBACK_FLOOR"); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil && f > 0 {
			cfg.FallbackFloor = f
		}
	}
	if raw := os.Getenv("PLATE_NO_MATCH_CEILING"); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil && f > 0 {
			cfg.NoMatchCeiling = f
		}
	}
	if raw := os.Getenv("PLATE_FALLBACK_SCALE"); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil && f > 0 && f <= 1 {
			cfg.FallbackScale = f
		}
	}

	return cfg
}
