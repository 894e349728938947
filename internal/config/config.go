package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

const (
	// GatewayFonnte delivers messages through the Fonnte WhatsApp HTTP API.
	GatewayFonnte = "fonnte"
	// GatewayTwilio delivers messages through Twilio's WhatsApp channel.
	GatewayTwilio = "twilio"
)

const defaultGatewayTimeoutSeconds = 30

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	Port          string
	Env           string
	DatabaseURL   string
	SQLitePath    string
	LocalTimezone *time.Location

	GatewayProvider string
	GatewayTimeout  time.Duration
	FonnteAPIURL    string
	FonnteToken     string

	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioWhatsAppNumber string

	CoordinatorPhone string
	ReminderCron     string

	AuthJWTSecret   string
	AuthJWTAudience string
	CronSecret      string
	CORSOrigins     []string
}

// Load reads configuration values and prepares defaults where applicable.
// Secrets have no defaults: every missing required key is reported at once.
func Load() (*Config, error) {
	_ = godotenv.Load()

	timezoneName := getenvDefault("LOCAL_TIMEZONE", "Asia/Jakarta")
	location, err := time.LoadLocation(timezoneName)
	if err != nil {
		log.Printf("config: invalid LOCAL_TIMEZONE %q, defaulting to system local: %v", timezoneName, err)
		location = time.Local
	}

	cfg := &Config{
		Port:          getenvDefault("PORT", "8080"),
		Env:           getenvDefault("APP_ENV", "development"),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:    getenvDefault("SQLITE_PATH", "events.db"),
		LocalTimezone: location,

		GatewayProvider: strings.ToLower(getenvDefault("GATEWAY_PROVIDER", GatewayFonnte)),
		GatewayTimeout:  time.Duration(ParseIntEnv("GATEWAY_TIMEOUT_SECONDS", defaultGatewayTimeoutSeconds)) * time.Second,
		FonnteAPIURL:    getenvDefault("FONNTE_API_URL", "https://api.fonnte.com/send"),
		FonnteToken:     strings.TrimSpace(os.Getenv("FONNTE_TOKEN")),

		TwilioAccountSID:     strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID")),
		TwilioAuthToken:      strings.TrimSpace(os.Getenv("TWILIO_AUTH_TOKEN")),
		TwilioWhatsAppNumber: strings.TrimSpace(os.Getenv("TWILIO_WHATSAPP_NUMBER")),

		CoordinatorPhone: strings.TrimSpace(os.Getenv("COORDINATOR_PHONE")),
		ReminderCron:     getenvDefault("REMINDER_CRON", "0 7 * * *"),

		AuthJWTSecret:   strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET")),
		AuthJWTAudience: getenvDefault("AUTH_JWT_AUDIENCE", "authenticated"),
		CronSecret:      strings.TrimSpace(os.Getenv("CRON_SECRET")),
		CORSOrigins:     splitList(os.Getenv("CORS_ORIGINS")),
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports missing or inconsistent settings. A non-positive gateway
// timeout is reset to the default, since zero would disable it.
func (c *Config) Validate() error {
	if c.GatewayTimeout <= 0 {
		log.Printf("config: GATEWAY_TIMEOUT_SECONDS must be positive, using %ds", defaultGatewayTimeoutSeconds)
		c.GatewayTimeout = defaultGatewayTimeoutSeconds * time.Second
	}

	var missing []string
	require := func(key, value string) {
		if value == "" {
			missing = append(missing, key)
		}
	}

	switch c.GatewayProvider {
	case GatewayFonnte:
		require("FONNTE_TOKEN", c.FonnteToken)
	case GatewayTwilio:
		require("TWILIO_ACCOUNT_SID", c.TwilioAccountSID)
		require("TWILIO_AUTH_TOKEN", c.TwilioAuthToken)
		require("TWILIO_WHATSAPP_NUMBER", c.TwilioWhatsAppNumber)
	default:
		return fmt.Errorf("config: unknown GATEWAY_PROVIDER %q (want %s or %s)", c.GatewayProvider, GatewayFonnte, GatewayTwilio)
	}
	require("COORDINATOR_PHONE", c.CoordinatorPhone)
	require("AUTH_JWT_SECRET", c.AuthJWTSecret)

	if len(missing) > 0 {
		return fmt.Errorf("config: required environment variables not set: %s", strings.Join(missing, ", "))
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getenvDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

// ParseIntEnv returns the integer value for an environment variable or the provided default.
func ParseIntEnv(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("config: unable to parse %s=%q as int: %v", key, value, err)
		return def
	}
	return parsed
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
