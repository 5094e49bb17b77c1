package app

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)

	DatabaseFile string // Path to SQLite database file (default: ./otp.db)
	PepperFile   string // Path to the code fingerprint key, created if missing (default: ./pepper)

	DiagnosticEcho     bool          // Return plaintext codes in responses (default: true when ENV=dev)
	MaxIssuesPerWindow int           // Codes per target per IssueWindow, -1 disables (default: 5)
	IssueWindow        time.Duration // Window for MaxIssuesPerWindow (default: 1h)
	Retention          time.Duration // How long expired challenges are kept (default: 24h)

	CORSAllowedOrigins []string // Comma separated origins; empty disables CORS

	SMTP   SMTPConfig
	Twilio TwilioConfig
}

// SMTPConfig enables the email channel when Host is set.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// TwilioConfig enables the SMS channel when AccountSID is set.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// LoadConfig reads configuration from the environment.
func LoadConfig() Config {
	v := viper.New()
	v.AutomaticEnv()
	return loadConfig(v)
}

func loadConfig(v *viper.Viper) Config {
	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("PORT", 8080)
	v.SetDefault("OTP_DATABASE_FILE", "otp.db")
	v.SetDefault("OTP_PEPPER_FILE", "pepper")
	v.SetDefault("OTP_MAX_ISSUES_PER_WINDOW", 5)
	v.SetDefault("SMTP_PORT", 587)

	cfg := Config{
		Env:                  v.GetString("ENV"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		LogFormat:            v.GetString("LOG_FORMAT"),
		Port:                 v.GetInt("PORT"),
		ShutdownGracePeriod:  durationOrDefault(v, "SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: durationOrDefault(v, "HOUSEKEEPING_INTERVAL", 1*time.Hour),

		DatabaseFile: v.GetString("OTP_DATABASE_FILE"),
		PepperFile:   v.GetString("OTP_PEPPER_FILE"),

		MaxIssuesPerWindow: v.GetInt("OTP_MAX_ISSUES_PER_WINDOW"),
		IssueWindow:        durationOrDefault(v, "OTP_ISSUE_WINDOW", 1*time.Hour),
		Retention:          durationOrDefault(v, "OTP_RETENTION", 24*time.Hour),

		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Twilio: TwilioConfig{
			AccountSID: v.GetString("TWILIO_ACCOUNT_SID"),
			AuthToken:  v.GetString("TWILIO_AUTH_TOKEN"),
			FromNumber: v.GetString("TWILIO_FROM_NUMBER"),
		},
	}

	// Echo defaults on only for local development
	cfg.DiagnosticEcho = cfg.Env == "dev"
	if v.IsSet("OTP_DIAGNOSTIC_ECHO") {
		cfg.DiagnosticEcho = v.GetBool("OTP_DIAGNOSTIC_ECHO")
	}

	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.Username
	}

	return cfg
}

func durationOrDefault(v *viper.Viper, key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(v.GetString(key))
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil && minutes > 0 {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
