package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// insecureDefaultJWTSecret is the built-in signing secret used when
// JWT_SECRET is unset. It is only acceptable in dev mode; Load refuses
// to fall back to it otherwise.
const insecureDefaultJWTSecret = "ridelink-dev-secret-change-me"

// Config holds the application configuration
type Config struct {
	DatabaseURL        string
	Port               string
	JWTSecret          string
	DefaultCountryCode string
	DevMode            bool

	// SMS gateway settings. An empty SMSGatewayURL means delivery is not
	// configured and the service uses the dev fallback path.
	SMSGatewayURL string
	SMSAPIKey     string
	SMSSenderID   string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:               "8080", // default port
		DefaultCountryCode: "91",
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	cfg.DatabaseURL = databaseURL

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	// DEV_MODE gates the dev OTP fallback, error detail in responses and
	// the insecure JWT secret default (optional, defaults to false)
	cfg.DevMode = os.Getenv("DEV_MODE") == "true"

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		if !cfg.DevMode {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required outside dev mode")
		}
		log.Printf("WARNING: JWT_SECRET not set, using insecure built-in default (dev mode only)")
		jwtSecret = insecureDefaultJWTSecret
	}
	cfg.JWTSecret = jwtSecret

	if cc := os.Getenv("DEFAULT_COUNTRY_CODE"); cc != "" {
		cfg.DefaultCountryCode = strings.TrimPrefix(cc, "+")
	}

	cfg.SMSGatewayURL = os.Getenv("SMS_GATEWAY_URL")
	cfg.SMSAPIKey = os.Getenv("SMS_API_KEY")
	cfg.SMSSenderID = os.Getenv("SMS_SENDER_ID")

	cfg.CORSAllowedOrigins = []string{"*"}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		parts := strings.Split(origins, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			cfg.CORSAllowedOrigins = trimmed
		}
	}

	return cfg, nil
}
