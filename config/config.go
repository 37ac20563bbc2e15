package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// It is composed of smaller structs that represent different concerns of the system:
// the scraped portal session, the two public data feeds, scrape timing, the HTTP
// server (api mode) and Postgres connection details.
//
// Example YAML/ENV equivalent:
//
//	PORTAL_BASE_URL=https://rusbonds.ru
//	PORTAL_LOGIN=user@example.com
//	PORTAL_PASSWORD=secret
//	MOEX_BASE_URL=https://iss.moex.com
//	CBR_BASE_URL=https://www.cbr.ru
//	POSTGRES_HOST=localhost
type Config struct {
	Server   ServerConfig   // HTTP server configuration (api mode)
	Portal   PortalConfig   // Scraped portal session settings
	Moex     FeedConfig     // MOEX ISS historical data feed
	Cbr      FeedConfig     // CBR exchange rate feed
	Scrape   ScrapeConfig   // Timing/retry knobs for the browser session
	Postgres PostgresConfig // PostgreSQL connection settings
}

// ServerConfig holds HTTP server settings such as the port to listen on.
type ServerConfig struct {
	Port string // The TCP port the HTTP server will listen on (e.g., "8080")
}

// PortalConfig holds the scraped portal base URL and the credentials used by the
// scripted login. Credentials are not validated at load time; session construction
// fails with an explicit error when they are missing, so api mode can run without them.
type PortalConfig struct {
	BaseURL  string
	Login    string
	Password string
}

// FeedConfig describes one public HTTP data feed.
//
// Fields:
//   - BaseURL: scheme+host of the feed.
//   - Timeout: per-request timeout; feed errors are absorbed by the callers,
//     so this bounds how long a run can stall on an unavailable feed.
type FeedConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ScrapeConfig holds timing and retry settings for the rendering session.
//
// The portal renders its table asynchronously, so every navigation/click is
// followed by a settle delay before the next read. WaitTimeout bounds the
// wait for the next-page control; NextRetries is how many extra bounded waits
// are attempted before "control not found" is accepted as end of data.
type ScrapeConfig struct {
	Settle      time.Duration
	WaitTimeout time.Duration
	NextRetries int
	Headless    bool
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host: hostname of the database server.
//   - Port: port number of the database server (default 5432).
//   - User: username for authentication.
//   - Password: password for authentication.
//   - DBName: target database name.
//   - SSLMode: SSL mode (e.g., "disable", "require").
//   - URL: computed DSN used by database/sql to connect.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
// All services should import this package and read from AppConfig instead of
// reloading environment variables directly.
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Behavior:
//   - Sets defaults for all fields that have a sane default.
//   - Reads environment variables automatically with viper.AutomaticEnv().
//   - Constructs the PostgreSQL connection string (DSN).
//   - Calls validateConfig() to ensure required fields are present.
//
// Fatal exit:
//   - If required variables are missing, validateConfig() will terminate the app
//     with a descriptive log message.
func LoadConfig() {
	// Default values
	viper.SetDefault("SERVER_PORT", "8080")

	viper.SetDefault("PORTAL_BASE_URL", "https://rusbonds.ru")
	viper.SetDefault("PORTAL_LOGIN", "")
	viper.SetDefault("PORTAL_PASSWORD", "")

	viper.SetDefault("MOEX_BASE_URL", "https://iss.moex.com")
	viper.SetDefault("MOEX_TIMEOUT", "10s")
	viper.SetDefault("CBR_BASE_URL", "https://www.cbr.ru")
	viper.SetDefault("CBR_TIMEOUT", "10s")

	viper.SetDefault("SCRAPE_SETTLE", "2s")
	viper.SetDefault("SCRAPE_WAIT_TIMEOUT", "10s")
	viper.SetDefault("SCRAPE_NEXT_RETRIES", 1)
	viper.SetDefault("SCRAPE_HEADLESS", true)

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "bondpulse")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	// Read environment variables automatically
	viper.AutomaticEnv()

	// Populate global config instance
	AppConfig = Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		Portal: PortalConfig{
			BaseURL:  viper.GetString("PORTAL_BASE_URL"),
			Login:    viper.GetString("PORTAL_LOGIN"),
			Password: viper.GetString("PORTAL_PASSWORD"),
		},
		Moex: FeedConfig{
			BaseURL: viper.GetString("MOEX_BASE_URL"),
			Timeout: viper.GetDuration("MOEX_TIMEOUT"),
		},
		Cbr: FeedConfig{
			BaseURL: viper.GetString("CBR_BASE_URL"),
			Timeout: viper.GetDuration("CBR_TIMEOUT"),
		},
		Scrape: ScrapeConfig{
			Settle:      viper.GetDuration("SCRAPE_SETTLE"),
			WaitTimeout: viper.GetDuration("SCRAPE_WAIT_TIMEOUT"),
			NextRetries: viper.GetInt("SCRAPE_NEXT_RETRIES"),
			Headless:    viper.GetBool("SCRAPE_HEADLESS"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
	}

	// Construct Postgres DSN (used by database/sql)
	AppConfig.Postgres.URL = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		AppConfig.Postgres.User,
		AppConfig.Postgres.Password,
		AppConfig.Postgres.Host,
		AppConfig.Postgres.Port,
		AppConfig.Postgres.DBName,
		AppConfig.Postgres.SSLMode,
	)

	// Validate critical fields
	validateConfig()
}

// validateConfig ensures required variables are present and terminates
// the application if they are missing.
//
// Portal credentials are intentionally not checked here: api mode does not
// need them, and scrape mode reports their absence as a normal error when
// the session is constructed.
func validateConfig() {
	var missing []string

	if AppConfig.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if AppConfig.Portal.BaseURL == "" {
		missing = append(missing, "PORTAL_BASE_URL")
	}
	if AppConfig.Moex.BaseURL == "" {
		missing = append(missing, "MOEX_BASE_URL")
	}
	if AppConfig.Cbr.BaseURL == "" {
		missing = append(missing, "CBR_BASE_URL")
	}
	if AppConfig.Postgres.Host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}
	if AppConfig.Postgres.Port == 0 {
		missing = append(missing, "POSTGRES_PORT")
	}
	if AppConfig.Postgres.User == "" {
		missing = append(missing, "POSTGRES_USER")
	}
	if AppConfig.Postgres.DBName == "" {
		missing = append(missing, "POSTGRES_DB")
	}

	if len(missing) > 0 {
		log.Fatalf("missing required environment variables: %v\n", missing)
	}
}
