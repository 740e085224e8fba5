package config

import (
	"strconv"
	"strings"
	"time"

	"os"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	// Warehouse is the read-only analytics dataset connection.
	WarehouseDSN     string
	WarehouseDataset string

	PMSBaseURL       string
	PMSToken         string
	PMSWebhookSecret string

	Retry RetryConfig
	Sync  SyncConfig

	Metrics MetricsConfig
}

type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// SyncConfig carries per-job cron expressions (5-field) and the health
// freshness window.
type SyncConfig struct {
	Crons           map[string]string
	FreshnessWindow time.Duration
}

type MetricsConfig struct {
	Enabled          bool
	ExporterProtocol string
	ExporterEndpoint string
}

// Job names, shared by the scheduler, sync service and metrics tracker.
const (
	JobUnits            = "units"
	JobLeases           = "leases"
	JobPayments         = "payments"
	JobBookEntries      = "book_entries"
	JobContacts         = "contacts"
	JobLeads            = "leads"
	JobCustomerTouches  = "customer_touches"
	JobGAEvents         = "ga_events"
	JobManagers         = "managers"
	JobPricingGroups    = "pricing_groups"
	JobSpacesHistorical = "spaces_historical"
	JobUnitTurnovers    = "unit_turnovers"
	JobPMSFacilities    = "pms_facilities"
	JobPMSTenants       = "pms_tenants"
)

// defaultCrons documents the default recurrence per sync job. Each entry is
// overridable via SYNC_CRON_<JOB> (upper-cased job name).
var defaultCrons = map[string]string{
	JobUnits:            "0 * * * *",
	JobLeases:           "15 * * * *",
	JobPayments:         "30 * * * *",
	JobBookEntries:      "45 * * * *",
	JobContacts:         "0 */6 * * *",
	JobLeads:            "10 */6 * * *",
	JobCustomerTouches:  "20 */6 * * *",
	JobGAEvents:         "40 */6 * * *",
	JobManagers:         "0 3 * * *",
	JobPricingGroups:    "15 3 * * *",
	JobSpacesHistorical: "30 3 * * *",
	JobUnitTurnovers:    "45 3 * * *",
	JobPMSFacilities:    "5 */6 * * *",
	JobPMSTenants:       "35 */6 * * *",
}

// JobNames returns all scheduled job names in registration order.
func JobNames() []string {
	return []string{
		JobUnits, JobLeases, JobPayments, JobBookEntries,
		JobContacts, JobLeads, JobCustomerTouches, JobGAEvents,
		JobManagers, JobPricingGroups, JobSpacesHistorical, JobUnitTurnovers,
		JobPMSFacilities, JobPMSTenants,
	}
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	crons := make(map[string]string, len(defaultCrons))
	for job, expr := range defaultCrons {
		crons[job] = getenv("SYNC_CRON_"+strings.ToUpper(job), expr)
	}

	return Config{
		AppName:     getenv("APP_SERVICE", "stashsync"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "stashsync"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 1800),

		WarehouseDSN:     strings.TrimSpace(getenv("WAREHOUSE_DSN", "")),
		WarehouseDataset: getenv("WAREHOUSE_DATASET", "analytics"),

		PMSBaseURL:       strings.TrimRight(getenv("PMS_BASE_URL", ""), "/"),
		PMSToken:         strings.TrimSpace(getenv("PMS_TOKEN", "")),
		PMSWebhookSecret: strings.TrimSpace(getenv("PMS_WEBHOOK_SECRET", "")),

		Retry: RetryConfig{
			MaxAttempts:  getenvInt("RETRY_MAX_ATTEMPTS", 3),
			InitialDelay: getenvDuration("RETRY_INITIAL_DELAY", time.Second),
			Multiplier:   getenvFloat("RETRY_MULTIPLIER", 2),
			MaxDelay:     getenvDuration("RETRY_MAX_DELAY", 10*time.Second),
		},
		Sync: SyncConfig{
			Crons:           crons,
			FreshnessWindow: getenvDuration("SYNC_FRESHNESS_WINDOW", 6*time.Hour),
		},
		Metrics: MetricsConfig{
			Enabled:          getenvBool("METRICS_ENABLED", false),
			ExporterProtocol: strings.ToLower(getenv("METRICS_EXPORTER_PROTOCOL", "grpc")),
			ExporterEndpoint: strings.TrimSpace(getenv("METRICS_EXPORTER_ENDPOINT", "localhost:4317")),
		},
	}
}

var Module = fx.Provide(Load)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
