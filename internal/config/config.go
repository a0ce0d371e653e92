package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/robfig/cron/v3"
)

// Config holds all batch and service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Report output.
	OutputDir         string
	RollupFile        string
	ReferenceTempFile string
	// TargetYear overrides the reset year when positive.
	TargetYear int

	// Station history store.
	HistoryDBDriver    string
	HistoryDBDSN       string
	HistoryRadiusMiles float64
	HistoryMaxStations int
	IDWPower           float64
	StationCacheSize   int

	// Vaisala export API for recent readings. Disabled when VaisalaURL is empty.
	VaisalaURL      string
	VaisalaUsername string
	VaisalaPassword string
	VaisalaTimeout  time.Duration

	// NWS forecast.
	ForecastEnabled   bool
	ForecastBaseURL   string
	ForecastUserAgent string
	ForecastTimeout   time.Duration
	ForecastDays      int

	FetchRetries int

	// Kafka summary sink.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool

	Schedule string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	vaisalaTimeout, err := parseDuration("VAISALA_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	forecastTimeout, err := parseDuration("FORECAST_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	radius, err := parsePositiveFloat("HISTORY_RADIUS_MILES", 50)
	if err != nil {
		return nil, err
	}
	idwPower, err := parsePositiveFloat("IDW_POWER", 1.2)
	if err != nil {
		return nil, err
	}

	maxStations, err := parseInt("HISTORY_MAX_STATIONS", 8, 1)
	if err != nil {
		return nil, err
	}
	forecastDays, err := parseInt("FORECAST_DAYS", 7, 0)
	if err != nil {
		return nil, err
	}
	retries, err := parseInt("FETCH_RETRIES", 2, 0)
	if err != nil {
		return nil, err
	}
	targetYear, err := parseInt("TARGET_YEAR", 0, 0)
	if err != nil {
		return nil, err
	}

	brokers := sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		OutputDir:         sharedcfg.EnvOrDefault("OUTPUT_DIR", "Spreadsheets"),
		RollupFile:        sharedcfg.EnvOrDefault("ROLLUP_FILE", "closure_dates.csv"),
		ReferenceTempFile: sharedcfg.EnvOrDefault("REFERENCE_TEMP_FILE", "reference_temp.csv"),
		TargetYear:        targetYear,

		HistoryDBDriver:    sharedcfg.EnvOrDefault("HISTORY_DB_DRIVER", "sqlite"),
		HistoryDBDSN:       sharedcfg.EnvOrDefault("HISTORY_DB_DSN", "wx_history.db"),
		HistoryRadiusMiles: radius,
		HistoryMaxStations: maxStations,
		IDWPower:           idwPower,
		StationCacheSize:   parseCacheSize(),

		VaisalaURL:      os.Getenv("VAISALA_URL"),
		VaisalaUsername: os.Getenv("VAISALA_USERNAME"),
		VaisalaPassword: os.Getenv("VAISALA_PASSWORD"),
		VaisalaTimeout:  vaisalaTimeout,

		ForecastEnabled:   sharedcfg.EnvOrDefault("FORECAST_ENABLED", "true") == "true",
		ForecastBaseURL:   sharedcfg.EnvOrDefault("FORECAST_BASE_URL", "https://api.weather.gov"),
		ForecastUserAgent: sharedcfg.EnvOrDefault("FORECAST_USER_AGENT", "breakup-etl (ops@example.com)"),
		ForecastTimeout:   forecastTimeout,
		ForecastDays:      forecastDays,

		FetchRetries: retries,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "breakup-summaries"),
		KafkaEnabled: kafkaEnabled,

		Schedule: sharedcfg.EnvOrDefault("SCHEDULE", "0 6 * * *"),
	}

	if cfg.HistoryDBDriver != "sqlite" && cfg.HistoryDBDriver != "pgx" {
		return nil, fmt.Errorf("invalid HISTORY_DB_DRIVER %q: must be sqlite or pgx", cfg.HistoryDBDriver)
	}
	if cfg.VaisalaURL != "" && cfg.VaisalaUsername == "" {
		return nil, errors.New("VAISALA_URL is set but VAISALA_USERNAME is not")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("invalid SCHEDULE: %w", err)
	}

	return cfg, nil
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parsePositiveFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive number", key)
	}
	return v, nil
}

func parseInt(key string, fallback, minimum int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minimum {
		return 0, fmt.Errorf("invalid %s: must be an integer >= %d", key, minimum)
	}
	return n, nil
}

func parseCacheSize() int {
	if s := os.Getenv("STATION_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
